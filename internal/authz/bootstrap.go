package authz

import (
	"fmt"

	"github.com/storefront-next/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 店面角色矩阵：顾客继承访客
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.RoleGuest,
			Policies: []Policy{
				{Object: "/config", Action: "GET"},
				{Object: "/captcha/image", Action: "GET"},
				{Object: "/auth/register", Action: "POST"},
				{Object: "/auth/login", Action: "POST"},
				{Object: "/validate/fields", Action: "POST"},
				{Object: "/products", Action: "GET"},
				{Object: "/products/search", Action: "GET"},
				{Object: "/products/:id", Action: "GET"},
				{Object: "/categories", Action: "GET"},
				{Object: "/cart", Action: "*"},
				{Object: "/cart/items", Action: "POST"},
				{Object: "/cart/items/:product_id", Action: "*"},
				{Object: "/cart/items/:product_id/increment", Action: "POST"},
				{Object: "/cart/items/:product_id/decrement", Action: "POST"},
				{Object: "/cart/promo", Action: "*"},
			},
		},
		{
			Role:     constants.RoleCustomer,
			Inherits: []string{constants.RoleGuest},
			Policies: []Policy{
				{Object: "/auth/logout", Action: "POST"},
				{Object: "/me", Action: "*"},
				{Object: "/me/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	changed := false
	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			added, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole)
			if err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
			if added {
				changed = true
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			added, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action)
			if err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
			if added {
				changed = true
			}
		}
	}

	if changed {
		return s.reload()
	}
	return nil
}
