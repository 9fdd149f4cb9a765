package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/storefront-next/internal/commerce"
	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/queue"
)

const profileLockStripes = 64

// ProfileView 资料页视图
type ProfileView struct {
	Profile       commerce.Customer `json:"profile"`
	Mode          EditMode          `json:"mode"`
	EditIndex     int               `json:"edit_index"`
	AddressErrors map[int]string    `json:"address_errors,omitempty"`
	Error         string            `json:"error,omitempty"`
	Defaults      DefaultsState     `json:"defaults"`
}

// ProfileService 顾客资料与地址簿服务
type ProfileService struct {
	cfg        config.ProfileConfig
	commerce   commerce.Client
	sessions   EditSessionStore
	audit      *ProfileAuditService
	queue      *queue.Client
	validators FieldValidators
	locks      [profileLockStripes]sync.Mutex
}

// NewProfileService 创建资料服务
func NewProfileService(cfg config.ProfileConfig, client commerce.Client, sessions EditSessionStore, audit *ProfileAuditService, queueClient *queue.Client) *ProfileService {
	if sessions == nil {
		sessions = NewEditSessionStore(time.Duration(cfg.EditSessionTTLSeconds) * time.Second)
	}
	validators := NewFieldValidators("")
	if cfg.MinimumAge > 0 {
		validators.MinimumAge = cfg.MinimumAge
	}
	return &ProfileService{
		cfg:        cfg,
		commerce:   client,
		sessions:   sessions,
		audit:      audit,
		queue:      queueClient,
		validators: validators,
	}
}

// Validators 返回指定语言的字段校验器
func (s *ProfileService) Validators(locale string) FieldValidators {
	return s.validators.WithLocale(locale)
}

// Get 返回资料视图，存在未完成的编辑会话时返回会话中的编辑副本
func (s *ProfileService) Get(ctx context.Context, customerID, locale string) (*ProfileView, error) {
	return s.withBook(ctx, customerID, locale, func(*AddressBook) error { return nil })
}

// UpdatePersonalDetails 校验并保存个人信息
func (s *ProfileService) UpdatePersonalDetails(ctx context.Context, customerID, locale string, details PersonalDetails) (*ProfileView, error) {
	v := s.Validators(locale)
	errs := FieldErrors{}
	errs.Add("first_name", v.ValidateName(details.FirstName))
	errs.Add("last_name", v.ValidateName(details.LastName))
	errs.Add("email", v.ValidateEmail(details.Email))
	if strings.TrimSpace(details.DateOfBirth) != "" {
		errs.Add("date_of_birth", v.ValidateAge(details.DateOfBirth, 0))
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	details.Email = strings.ToLower(strings.TrimSpace(details.Email))
	return s.withBook(ctx, customerID, locale, func(b *AddressBook) error {
		if b.Mode() != EditModeViewing {
			return ErrEditStateInvalid
		}
		if err := b.SetPersonalDetails(details); err != nil {
			return err
		}
		_, err := b.Save(ctx, s.persistFunc())
		return err
	})
}

// BeginEdit 开始编辑指定地址
func (s *ProfileService) BeginEdit(ctx context.Context, customerID, locale string, index int) (*ProfileView, error) {
	return s.withBook(ctx, customerID, locale, func(b *AddressBook) error {
		return b.BeginEdit(index)
	})
}

// BeginAdd 开始新增地址
func (s *ProfileService) BeginAdd(ctx context.Context, customerID, locale string) (*ProfileView, error) {
	return s.withBook(ctx, customerID, locale, func(b *AddressBook) error {
		return b.BeginAdd()
	})
}

// UpdateAddressField 修改编辑副本中的地址字段
func (s *ProfileService) UpdateAddressField(ctx context.Context, customerID, locale string, index int, field, value string) (*ProfileView, error) {
	return s.withBook(ctx, customerID, locale, func(b *AddressBook) error {
		return b.UpdateAddressField(index, field, value)
	})
}

// CancelEdit 放弃编辑
func (s *ProfileService) CancelEdit(ctx context.Context, customerID, locale string) (*ProfileView, error) {
	return s.withBook(ctx, customerID, locale, func(b *AddressBook) error {
		b.Cancel()
		return nil
	})
}

// SaveAddresses 校验并提交编辑副本
func (s *ProfileService) SaveAddresses(ctx context.Context, customerID, locale string) (*ProfileView, error) {
	return s.withBook(ctx, customerID, locale, func(b *AddressBook) error {
		_, err := b.Save(ctx, s.persistFunc())
		return err
	})
}

// AddAddress 新增地址并设为 kind 类型的默认地址，随即提交
func (s *ProfileService) AddAddress(ctx context.Context, customerID, locale string, addr commerce.Address, kind AddressKind) (*ProfileView, error) {
	return s.withBook(ctx, customerID, locale, func(b *AddressBook) error {
		_, err := b.AddAndSave(ctx, addr, kind, s.persistFunc())
		return err
	})
}

// SetDefaultAddress 切换默认地址；编辑中仅修改编辑副本，否则立即提交，失败时回滚
func (s *ProfileService) SetDefaultAddress(ctx context.Context, customerID, locale, addressID string, kind AddressKind) (*ProfileView, error) {
	return s.withBook(ctx, customerID, locale, func(b *AddressBook) error {
		if err := b.SetDefaultAddress(addressID, kind); err != nil {
			return err
		}
		return s.saveUnlessEditing(ctx, b)
	})
}

// RemoveAddress 删除地址；编辑中仅修改编辑副本，否则立即提交
func (s *ProfileService) RemoveAddress(ctx context.Context, customerID, locale, addressID string) (*ProfileView, error) {
	return s.withBook(ctx, customerID, locale, func(b *AddressBook) error {
		if err := b.RemoveAddress(addressID); err != nil {
			return err
		}
		return s.saveUnlessEditing(ctx, b)
	})
}

// ValidateAddress 无状态地址校验
func (s *ProfileService) ValidateAddress(locale string, addr commerce.Address) string {
	return NewAddressBook(commerce.Customer{}, s.Validators(locale)).ValidateAddress(addr)
}

func (s *ProfileService) saveUnlessEditing(ctx context.Context, b *AddressBook) error {
	if b.Mode() == EditModeEditing {
		return nil
	}
	_, err := b.Save(ctx, s.persistFunc())
	return err
}

// withBook 加载会话、执行操作并回写会话状态
func (s *ProfileService) withBook(ctx context.Context, customerID, locale string, fn func(b *AddressBook) error) (*ProfileView, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, ErrCustomerNotFound
	}
	lock := s.lockFor(customerID)
	lock.Lock()
	defer lock.Unlock()

	book, err := s.open(ctx, customerID, locale)
	if err != nil {
		return nil, err
	}
	opErr := fn(book)
	if errors.Is(opErr, ErrVersionConflict) {
		// 已确认资料过期，丢弃会话让下次请求重新拉取
		if err := s.sessions.Delete(ctx, customerID); err != nil {
			logger.Ctx(ctx).Warnw("profile_edit_session_delete_failed", "customer_id", customerID, "error", err)
		}
		return buildProfileView(book), opErr
	}
	s.storeSession(ctx, customerID, book)
	return buildProfileView(book), opErr
}

func (s *ProfileService) open(ctx context.Context, customerID, locale string) (*AddressBook, error) {
	validators := s.Validators(locale)
	state, ok, err := s.sessions.Load(ctx, customerID)
	if err != nil {
		logger.Ctx(ctx).Warnw("profile_edit_session_load_failed", "customer_id", customerID, "error", err)
	}
	if ok && state != nil && state.Confirmed.ID == customerID {
		return RestoreAddressBook(*state, validators), nil
	}
	customer, err := s.commerce.GetCustomer(ctx, customerID)
	if err != nil {
		switch {
		case errors.Is(err, commerce.ErrCustomerNotFound):
			return nil, ErrCustomerNotFound
		case errors.Is(err, commerce.ErrUnavailable):
			return nil, ErrCommerceUnavailable
		default:
			return nil, fmt.Errorf("%w: %v", ErrCustomerFetchFailed, err)
		}
	}
	return NewAddressBook(*customer, validators), nil
}

func (s *ProfileService) storeSession(ctx context.Context, customerID string, book *AddressBook) {
	var err error
	if book.Mode() == EditModeViewing && book.TopLevelError() == "" {
		err = s.sessions.Delete(ctx, customerID)
	} else {
		err = s.sessions.Save(ctx, customerID, book.State())
	}
	if err != nil {
		logger.Ctx(ctx).Warnw("profile_edit_session_store_failed", "customer_id", customerID, "error", err)
	}
}

func (s *ProfileService) persistFunc() PersistFunc {
	return func(ctx context.Context, customerID string, version int64, actions []commerce.UpdateAction) (*commerce.Customer, error) {
		updated, err := s.commerce.UpdateCustomer(ctx, customerID, version, actions)
		if err != nil {
			logger.Ctx(ctx).Warnw("customer_update_failed",
				"customer_id", customerID,
				"version", version,
				"actions", commerce.ActionNames(actions),
				"error", err,
			)
			switch {
			case errors.Is(err, commerce.ErrVersionConflict):
				return nil, ErrVersionConflict
			case errors.Is(err, commerce.ErrUnavailable):
				return nil, ErrCommerceUnavailable
			case errors.Is(err, commerce.ErrEmailTaken):
				return nil, ErrCustomerExists
			case errors.Is(err, commerce.ErrCustomerNotFound):
				return nil, ErrCustomerNotFound
			default:
				return nil, err
			}
		}
		s.recordAudit(ctx, updated, actions)
		return updated, nil
	}
}

func (s *ProfileService) recordAudit(ctx context.Context, updated *commerce.Customer, actions []commerce.UpdateAction) {
	if updated == nil {
		return
	}
	payload := queue.ProfileAuditPayload{
		CustomerID: updated.ID,
		Version:    updated.Version,
		Actions:    commerce.ActionNames(actions),
		RequestID:  logger.RequestID(ctx),
		OccurredAt: time.Now(),
	}
	if s.queue.Enabled() {
		err := s.queue.EnqueueProfileAudit(payload)
		if err == nil {
			return
		}
		logger.Ctx(ctx).Warnw("profile_audit_enqueue_failed", "customer_id", updated.ID, "error", err)
	}
	_ = s.audit.Record(ctx, payload)
}

func (s *ProfileService) lockFor(customerID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(customerID))
	return &s.locks[h.Sum32()%profileLockStripes]
}

func buildProfileView(b *AddressBook) *ProfileView {
	state := b.State()
	return &ProfileView{
		Profile:       state.Working,
		Mode:          state.Mode,
		EditIndex:     state.EditIndex,
		AddressErrors: state.AddressErrors,
		Error:         state.Error,
		Defaults:      b.DefaultsState(),
	}
}
