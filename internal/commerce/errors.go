package commerce

import "errors"

var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrEmailTaken         = errors.New("customer email already exists")
	ErrInvalidCredentials = errors.New("invalid customer credentials")
	ErrVersionConflict    = errors.New("customer version conflict")
	ErrInvalidAction      = errors.New("invalid customer update action")
	ErrProductNotFound    = errors.New("product not found")
	ErrUnavailable        = errors.New("commerce backend unavailable")
)
