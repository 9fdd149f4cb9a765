package commerce

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ApplyActions 在副本上按顺序执行更新动作，任一动作非法时整体失败
func ApplyActions(customer Customer, actions []UpdateAction) (Customer, error) {
	out := customer.Clone()
	for i, action := range actions {
		if err := applyAction(&out, action); err != nil {
			return customer, fmt.Errorf("%w: #%d %s: %v", ErrInvalidAction, i, action.Action, err)
		}
	}
	return out, nil
}

func applyAction(c *Customer, action UpdateAction) error {
	switch action.Action {
	case ActionAddAddress:
		if action.Address == nil {
			return fmt.Errorf("address is required")
		}
		addr := *action.Address
		addr.ID = strings.TrimSpace(addr.ID)
		if addr.ID == "" {
			addr.ID = uuid.NewString()
		}
		if _, exists := c.AddressByID(addr.ID); exists {
			return fmt.Errorf("address %s already exists", addr.ID)
		}
		addr.Country = strings.ToUpper(strings.TrimSpace(addr.Country))
		c.Addresses = append(c.Addresses, addr)
	case ActionChangeAddress:
		idx, ok := c.AddressByID(action.AddressID)
		if !ok || action.Address == nil {
			return fmt.Errorf("address %s not found", action.AddressID)
		}
		addr := *action.Address
		addr.ID = action.AddressID
		addr.Country = strings.ToUpper(strings.TrimSpace(addr.Country))
		c.Addresses[idx] = addr
	case ActionRemoveAddress:
		idx, ok := c.AddressByID(action.AddressID)
		if !ok {
			return fmt.Errorf("address %s not found", action.AddressID)
		}
		c.Addresses = append(c.Addresses[:idx:idx], c.Addresses[idx+1:]...)
		if c.DefaultShippingAddressID == action.AddressID {
			c.DefaultShippingAddressID = ""
		}
		if c.DefaultBillingAddressID == action.AddressID {
			c.DefaultBillingAddressID = ""
		}
	case ActionSetDefaultShippingAddress:
		if action.AddressID != "" {
			if _, ok := c.AddressByID(action.AddressID); !ok {
				return fmt.Errorf("address %s not found", action.AddressID)
			}
		}
		c.DefaultShippingAddressID = action.AddressID
	case ActionSetDefaultBillingAddress:
		if action.AddressID != "" {
			if _, ok := c.AddressByID(action.AddressID); !ok {
				return fmt.Errorf("address %s not found", action.AddressID)
			}
		}
		c.DefaultBillingAddressID = action.AddressID
	case ActionSetFirstName:
		c.FirstName = strings.TrimSpace(action.Value)
	case ActionSetLastName:
		c.LastName = strings.TrimSpace(action.Value)
	case ActionChangeEmail:
		email := strings.ToLower(strings.TrimSpace(action.Value))
		if email == "" {
			return fmt.Errorf("email is required")
		}
		c.Email = email
	case ActionSetDateOfBirth:
		c.DateOfBirth = strings.TrimSpace(action.Value)
	default:
		return fmt.Errorf("unknown action")
	}
	return nil
}
