package authz

import (
	"fmt"

	"github.com/padala-next/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵
// ops 负责派单调度，finance 负责分账与打款，driver 仅能访问 /driver 下的自助接口
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.RoleDriver,
			Policies: []Policy{
				{Object: "/driver/location", Action: "POST"},
				{Object: "/driver/orders/:id/reject", Action: "POST"},
				{Object: "/driver/earnings", Action: "GET"},
			},
		},
		{
			Role: constants.RoleOps,
			Policies: []Policy{
				{Object: "/dispatch/*", Action: "*"},
				{Object: "/finance/settlements", Action: "GET"},
				{Object: "/finance/analytics", Action: "GET"},
			},
		},
		{
			Role: constants.RoleFinance,
			Policies: []Policy{
				{Object: "/finance/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略，可重复执行
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return errUnavailable
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := s.EnsureRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}
		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
