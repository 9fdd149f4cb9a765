package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/storefront-next/internal/commerce"

	"github.com/google/uuid"
)

// AddressKind 默认地址类型
type AddressKind string

const (
	AddressKindShipping AddressKind = "shipping"
	AddressKindBilling  AddressKind = "billing"
)

// ParseAddressKind 解析默认地址类型
func ParseAddressKind(raw string) (AddressKind, error) {
	switch AddressKind(strings.ToLower(strings.TrimSpace(raw))) {
	case AddressKindShipping:
		return AddressKindShipping, nil
	case AddressKindBilling:
		return AddressKindBilling, nil
	default:
		return "", ErrAddressKindInvalid
	}
}

// EditMode 地址编辑状态
type EditMode string

const (
	EditModeViewing EditMode = "viewing"
	EditModeEditing EditMode = "editing"
	EditModeAdding  EditMode = "adding"
	EditModeSaving  EditMode = "saving"
)

// newAddressErrorIndex 新增地址的错误下标
const newAddressErrorIndex = -1

// DefaultsState 默认地址派生状态
type DefaultsState struct {
	ShippingSet        bool        `json:"shipping_set"`
	BillingSet         bool        `json:"billing_set"`
	SameAddress        bool        `json:"same_address"`
	CanAddNewAddress   bool        `json:"can_add_new_address"`
	MissingAddressType AddressKind `json:"missing_address_type,omitempty"`
}

// AddressBookState 可序列化的编辑会话状态
type AddressBookState struct {
	Confirmed     commerce.Customer `json:"confirmed"`
	Working       commerce.Customer `json:"working"`
	Mode          EditMode          `json:"mode"`
	EditIndex     int               `json:"edit_index"`
	AddressErrors map[int]string    `json:"address_errors,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// PersistFunc 将更新动作提交到商务后端
type PersistFunc func(ctx context.Context, customerID string, version int64, actions []commerce.UpdateAction) (*commerce.Customer, error)

// AddressBook 地址簿：默认地址一致性与编辑状态机
type AddressBook struct {
	state      AddressBookState
	validators FieldValidators
	newID      func() string
}

// NewAddressBook 以已确认的顾客资料创建地址簿
func NewAddressBook(profile commerce.Customer, validators FieldValidators) *AddressBook {
	return RestoreAddressBook(AddressBookState{
		Confirmed: profile.Clone(),
		Working:   profile.Clone(),
		Mode:      EditModeViewing,
		EditIndex: -1,
	}, validators)
}

// RestoreAddressBook 从会话状态恢复
func RestoreAddressBook(state AddressBookState, validators FieldValidators) *AddressBook {
	if state.Mode == "" || state.Mode == EditModeSaving {
		state.Mode = EditModeViewing
	}
	if state.AddressErrors == nil {
		state.AddressErrors = map[int]string{}
	}
	return &AddressBook{state: state, validators: validators, newID: uuid.NewString}
}

// State 返回状态副本
func (b *AddressBook) State() AddressBookState {
	out := b.state
	out.Confirmed = b.state.Confirmed.Clone()
	out.Working = b.state.Working.Clone()
	out.AddressErrors = make(map[int]string, len(b.state.AddressErrors))
	for k, v := range b.state.AddressErrors {
		out.AddressErrors[k] = v
	}
	return out
}

// Confirmed 后端确认的资料
func (b *AddressBook) Confirmed() commerce.Customer { return b.state.Confirmed.Clone() }

// Working 编辑中的资料
func (b *AddressBook) Working() commerce.Customer { return b.state.Working.Clone() }

// Mode 当前编辑状态
func (b *AddressBook) Mode() EditMode { return b.state.Mode }

// EditIndex 当前编辑的地址下标
func (b *AddressBook) EditIndex() int { return b.state.EditIndex }

// AddressError 指定下标的校验提示
func (b *AddressBook) AddressError(index int) string { return b.state.AddressErrors[index] }

// TopLevelError 最近一次保存失败的提示
func (b *AddressBook) TopLevelError() string { return b.state.Error }

// BeginEdit 进入编辑状态
func (b *AddressBook) BeginEdit(index int) error {
	if b.state.Mode != EditModeViewing && b.state.Mode != EditModeEditing {
		return ErrEditStateInvalid
	}
	if index < 0 || index >= len(b.state.Working.Addresses) {
		return ErrAddressIndexInvalid
	}
	b.state.Mode = EditModeEditing
	b.state.EditIndex = index
	return nil
}

// BeginAdd 进入新增地址状态
func (b *AddressBook) BeginAdd() error {
	if b.state.Mode != EditModeViewing && b.state.Mode != EditModeAdding {
		return ErrEditStateInvalid
	}
	if !b.addAllowed("") {
		return ErrAddressAddNotAllowed
	}
	b.state.Mode = EditModeAdding
	b.state.EditIndex = -1
	return nil
}

// Cancel 丢弃编辑副本，回到已确认状态
func (b *AddressBook) Cancel() {
	b.state.Working = b.state.Confirmed.Clone()
	b.state.Mode = EditModeViewing
	b.state.EditIndex = -1
	b.state.AddressErrors = map[int]string{}
	b.state.Error = ""
}

// UpdateAddressField 更新编辑副本中的单个字段，修改国家会清空邮编及该地址的错误
func (b *AddressBook) UpdateAddressField(index int, field, value string) error {
	if b.state.Mode != EditModeEditing && b.state.Mode != EditModeAdding {
		return ErrEditStateInvalid
	}
	if index < 0 || index >= len(b.state.Working.Addresses) {
		return ErrAddressIndexInvalid
	}
	addr := &b.state.Working.Addresses[index]
	switch normalizeAddressField(field) {
	case "street_name":
		addr.StreetName = value
	case "postal_code":
		addr.PostalCode = value
	case "city":
		addr.City = value
	case "state":
		addr.State = value
	case "country":
		addr.Country = strings.ToUpper(strings.TrimSpace(value))
		addr.PostalCode = ""
		delete(b.state.AddressErrors, index)
	default:
		return ErrAddressFieldInvalid
	}
	return nil
}

func normalizeAddressField(field string) string {
	switch strings.TrimSpace(field) {
	case "streetName", "street_name", "street":
		return "street_name"
	case "postalCode", "postal_code":
		return "postal_code"
	case "city":
		return "city"
	case "country":
		return "country"
	case "state":
		return "state"
	default:
		return ""
	}
}

// ValidateAddress 先校验必填字段，再按国家校验邮编格式
func (b *AddressBook) ValidateAddress(addr commerce.Address) string {
	v := b.validators
	switch {
	case strings.TrimSpace(addr.StreetName) == "":
		return v.t("validation.street_required")
	case strings.TrimSpace(addr.City) == "":
		return v.t("validation.city_required")
	case strings.TrimSpace(addr.Country) == "":
		return v.t("validation.country_required")
	case strings.TrimSpace(addr.PostalCode) == "":
		return v.t("validation.postal_required")
	}
	return v.ValidatePostalCode(addr.Country, addr.PostalCode)
}

// SetDefaultAddress 切换默认地址：已是默认则清除，否则设为默认
func (b *AddressBook) SetDefaultAddress(addressID string, kind AddressKind) error {
	if b.state.Mode == EditModeSaving {
		return ErrEditStateInvalid
	}
	if _, err := ParseAddressKind(string(kind)); err != nil {
		return err
	}
	if _, ok := b.state.Working.AddressByID(addressID); !ok {
		return ErrAddressNotFound
	}
	current := b.defaultFor(kind)
	if *current == addressID {
		*current = ""
	} else {
		*current = addressID
	}
	return nil
}

func (b *AddressBook) defaultFor(kind AddressKind) *string {
	if kind == AddressKindBilling {
		return &b.state.Working.DefaultBillingAddressID
	}
	return &b.state.Working.DefaultShippingAddressID
}

// DefaultsState 计算默认地址派生状态
func (b *AddressBook) DefaultsState() DefaultsState {
	return computeDefaultsState(b.state.Working)
}

func computeDefaultsState(profile commerce.Customer) DefaultsState {
	shipping := profile.DefaultShippingAddressID
	billing := profile.DefaultBillingAddressID
	ds := DefaultsState{
		ShippingSet: shipping != "",
		BillingSet:  billing != "",
		SameAddress: shipping != "" && shipping == billing,
	}
	ds.CanAddNewAddress = ds.ShippingSet != ds.BillingSet && !ds.SameAddress
	if ds.CanAddNewAddress {
		if ds.ShippingSet {
			ds.MissingAddressType = AddressKindBilling
		} else {
			ds.MissingAddressType = AddressKindShipping
		}
	}
	return ds
}

// addAllowed 恰好缺一个默认类型时只允许新增该类型；两者都未设置时允许任意类型
func (b *AddressBook) addAllowed(kind AddressKind) bool {
	ds := b.DefaultsState()
	if !ds.ShippingSet && !ds.BillingSet {
		return true
	}
	return ds.CanAddNewAddress && (kind == "" || kind == ds.MissingAddressType)
}

// AddAddress 校验通过后追加地址，并立即设为 kind 类型的默认地址
func (b *AddressBook) AddAddress(addr commerce.Address, kind AddressKind) (commerce.Address, error) {
	if b.state.Mode == EditModeSaving {
		return commerce.Address{}, ErrEditStateInvalid
	}
	if _, err := ParseAddressKind(string(kind)); err != nil {
		return commerce.Address{}, err
	}
	if !b.addAllowed(kind) {
		return commerce.Address{}, ErrAddressAddNotAllowed
	}

	b.state.Mode = EditModeAdding
	b.state.EditIndex = -1
	addr.Country = strings.ToUpper(strings.TrimSpace(addr.Country))
	if msg := b.ValidateAddress(addr); msg != "" {
		b.state.AddressErrors[newAddressErrorIndex] = msg
		return commerce.Address{}, FieldErrors{"address": msg}
	}
	delete(b.state.AddressErrors, newAddressErrorIndex)

	addr.ID = b.newID()
	b.state.Working.Addresses = append(b.state.Working.Addresses, addr)
	*b.defaultFor(kind) = addr.ID
	return addr, nil
}

// AddAndSave 新增地址并立即提交；提交失败时撤销新增，保留错误提示与新增状态
func (b *AddressBook) AddAndSave(ctx context.Context, addr commerce.Address, kind AddressKind, persist PersistFunc) (commerce.Address, error) {
	before := b.state.Working.Clone()
	added, err := b.AddAddress(addr, kind)
	if err != nil {
		return commerce.Address{}, err
	}
	if _, err := b.Save(ctx, persist); err != nil {
		b.state.Working = before
		return commerce.Address{}, err
	}
	return added, nil
}

// RemoveAddress 删除地址并清除指向它的默认设置
func (b *AddressBook) RemoveAddress(addressID string) error {
	if b.state.Mode == EditModeSaving {
		return ErrEditStateInvalid
	}
	idx, ok := b.state.Working.AddressByID(addressID)
	if !ok {
		return ErrAddressNotFound
	}
	addrs := b.state.Working.Addresses
	b.state.Working.Addresses = append(addrs[:idx:idx], addrs[idx+1:]...)
	if b.state.Working.DefaultShippingAddressID == addressID {
		b.state.Working.DefaultShippingAddressID = ""
	}
	if b.state.Working.DefaultBillingAddressID == addressID {
		b.state.Working.DefaultBillingAddressID = ""
	}
	b.state.AddressErrors = map[int]string{}
	if b.state.Mode == EditModeEditing {
		switch {
		case idx == b.state.EditIndex:
			b.state.Mode = EditModeViewing
			b.state.EditIndex = -1
		case idx < b.state.EditIndex:
			b.state.EditIndex--
		}
	}
	return nil
}

// PersonalDetails 顾客个人信息
type PersonalDetails struct {
	FirstName   string
	LastName    string
	Email       string
	DateOfBirth string
}

// SetPersonalDetails 写入编辑副本
func (b *AddressBook) SetPersonalDetails(details PersonalDetails) error {
	if b.state.Mode == EditModeSaving {
		return ErrEditStateInvalid
	}
	b.state.Working.FirstName = strings.TrimSpace(details.FirstName)
	b.state.Working.LastName = strings.TrimSpace(details.LastName)
	b.state.Working.Email = strings.TrimSpace(details.Email)
	b.state.Working.DateOfBirth = strings.TrimSpace(details.DateOfBirth)
	return nil
}

// PendingActions 计算编辑副本相对已确认资料的更新动作
func (b *AddressBook) PendingActions() []commerce.UpdateAction {
	return diffCustomer(b.state.Confirmed, b.state.Working)
}

// Save 校验编辑副本并提交；后端失败时保留已确认资料与用户编辑，回到原编辑状态
func (b *AddressBook) Save(ctx context.Context, persist PersistFunc) (commerce.Customer, error) {
	if b.state.Mode == EditModeSaving {
		return commerce.Customer{}, ErrEditStateInvalid
	}
	returnMode := b.state.Mode
	b.state.Error = ""

	if errs := b.validateWorking(); len(errs) > 0 {
		if returnMode == EditModeViewing {
			b.state.Mode = EditModeEditing
			b.state.EditIndex = firstErrorIndex(b.state.AddressErrors)
		}
		return commerce.Customer{}, errs
	}

	actions := b.PendingActions()
	if len(actions) == 0 {
		b.finish(b.state.Confirmed)
		return b.state.Confirmed.Clone(), nil
	}

	b.state.Mode = EditModeSaving
	updated, err := persist(ctx, b.state.Confirmed.ID, b.state.Confirmed.Version, actions)
	if err == nil && updated == nil {
		err = commerce.ErrCustomerNotFound
	}
	if err != nil {
		b.state.Mode = returnMode
		if returnMode == EditModeViewing {
			b.state.Working = b.state.Confirmed.Clone()
		}
		b.state.Error = b.validators.t("error.customer_update_failed")
		return commerce.Customer{}, fmt.Errorf("%w: %w", ErrCustomerUpdateFailed, err)
	}

	b.finish(*updated)
	return updated.Clone(), nil
}

func (b *AddressBook) finish(confirmed commerce.Customer) {
	b.state.Confirmed = confirmed.Clone()
	b.state.Working = confirmed.Clone()
	b.state.Mode = EditModeViewing
	b.state.EditIndex = -1
	b.state.AddressErrors = map[int]string{}
	b.state.Error = ""
}

func (b *AddressBook) validateWorking() FieldErrors {
	errs := FieldErrors{}
	b.state.AddressErrors = map[int]string{}
	for i, addr := range b.state.Working.Addresses {
		if msg := b.ValidateAddress(addr); msg != "" {
			b.state.AddressErrors[i] = msg
			errs["addresses."+strconv.Itoa(i)] = msg
		}
	}
	return errs
}

func firstErrorIndex(errs map[int]string) int {
	first := -1
	for idx := range errs {
		if idx >= 0 && (first < 0 || idx < first) {
			first = idx
		}
	}
	return first
}

// diffCustomer 生成有序更新动作：地址删除、修改、新增，然后默认地址，最后个人信息
func diffCustomer(confirmed, working commerce.Customer) []commerce.UpdateAction {
	var actions []commerce.UpdateAction

	confirmedByID := make(map[string]commerce.Address, len(confirmed.Addresses))
	for _, addr := range confirmed.Addresses {
		confirmedByID[addr.ID] = addr
	}
	workingIDs := make(map[string]struct{}, len(working.Addresses))
	for _, addr := range working.Addresses {
		workingIDs[addr.ID] = struct{}{}
	}

	for _, addr := range confirmed.Addresses {
		if _, ok := workingIDs[addr.ID]; !ok {
			actions = append(actions, commerce.UpdateAction{Action: commerce.ActionRemoveAddress, AddressID: addr.ID})
		}
	}
	var additions []commerce.UpdateAction
	for _, addr := range working.Addresses {
		addr := addr
		before, ok := confirmedByID[addr.ID]
		switch {
		case !ok:
			additions = append(additions, commerce.UpdateAction{Action: commerce.ActionAddAddress, Address: &addr})
		case before != addr:
			actions = append(actions, commerce.UpdateAction{Action: commerce.ActionChangeAddress, AddressID: addr.ID, Address: &addr})
		}
	}
	actions = append(actions, additions...)

	if working.DefaultShippingAddressID != confirmed.DefaultShippingAddressID {
		actions = append(actions, commerce.UpdateAction{Action: commerce.ActionSetDefaultShippingAddress, AddressID: working.DefaultShippingAddressID})
	}
	if working.DefaultBillingAddressID != confirmed.DefaultBillingAddressID {
		actions = append(actions, commerce.UpdateAction{Action: commerce.ActionSetDefaultBillingAddress, AddressID: working.DefaultBillingAddressID})
	}

	personal := []struct {
		action      string
		before, now string
	}{
		{commerce.ActionSetFirstName, confirmed.FirstName, working.FirstName},
		{commerce.ActionSetLastName, confirmed.LastName, working.LastName},
		{commerce.ActionChangeEmail, confirmed.Email, working.Email},
		{commerce.ActionSetDateOfBirth, confirmed.DateOfBirth, working.DateOfBirth},
	}
	for _, p := range personal {
		if p.before != p.now {
			actions = append(actions, commerce.UpdateAction{Action: p.action, Value: p.now})
		}
	}
	return actions
}
