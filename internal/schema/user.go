package schema

import (
	"strings"

	json "github.com/goccy/go-json"

	"github.com/coachpo/brokerlink/errs"
)

// Permission enumerates account capabilities granted to an API key.
type Permission string

const (
	// PermissionView allows read-only queries.
	PermissionView Permission = "view"
	// PermissionTrade allows creating and accepting broker orders.
	PermissionTrade Permission = "trade"
	// PermissionWithdraw allows withdrawals to external addresses.
	PermissionWithdraw Permission = "withdraw"
	// PermissionManage allows account mutations such as password changes.
	PermissionManage Permission = "manage"
)

var permissions = map[string]Permission{
	"view":     PermissionView,
	"trade":    PermissionTrade,
	"withdraw": PermissionWithdraw,
	"manage":   PermissionManage,
}

// ParsePermission maps a wire permission string onto the closed enumeration.
func ParsePermission(raw string) (Permission, error) {
	permission, ok := permissions[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", errs.New("schema/permission", errs.KindNetwork,
			errs.WithMessage("unknown permission "+strings.TrimSpace(raw)))
	}
	return permission, nil
}

// UnmarshalJSON decodes a permission string, rejecting unknown values.
func (p *Permission) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	permission, err := ParsePermission(raw)
	if err != nil {
		return err
	}
	*p = permission
	return nil
}

// Role enumerates account roles assigned server-side.
type Role string

const (
	// RoleUser is a regular customer account.
	RoleUser Role = "user"
	// RoleBroker is a brokerage operator account.
	RoleBroker Role = "broker"
	// RoleAdmin is an administrative account.
	RoleAdmin Role = "admin"
)

var roles = map[string]Role{
	"user":   RoleUser,
	"broker": RoleBroker,
	"admin":  RoleAdmin,
}

// ParseRole maps a wire role string onto the closed enumeration.
func ParseRole(raw string) (Role, error) {
	role, ok := roles[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", errs.New("schema/role", errs.KindNetwork,
			errs.WithMessage("unknown role "+strings.TrimSpace(raw)))
	}
	return role, nil
}

// UnmarshalJSON decodes a role string, rejecting unknown values.
func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	role, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// UserInfo describes the authenticated account. Identity is the email.
// Not every update source includes the permission set, so it decodes through
// Optional and merges with carry-over semantics.
type UserInfo struct {
	Email            string                 `json:"email"`
	Photo            Optional[string]       `json:"photo"`
	PhotoContentType Optional[string]       `json:"photoContentType"`
	Permissions      Optional[[]Permission] `json:"permissions"`
	Roles            []Role                 `json:"roles"`
	KYCValidated     bool                   `json:"kycValidated"`
	KYCURL           Optional[string]       `json:"kycUrl"`
}

// Merge layers incoming onto the receiver and returns the result.
// The permission set carries over from the existing value when the incoming
// update omits it; a present permission set, even an empty one, replaces it.
func (u UserInfo) Merge(incoming UserInfo) UserInfo {
	merged := incoming
	if !incoming.Permissions.Present() {
		merged.Permissions = u.Permissions
	}
	return merged
}

// HasPermission reports whether the decoded permission set grants p.
// An absent set grants nothing.
func (u UserInfo) HasPermission(p Permission) bool {
	set, ok := u.Permissions.Get()
	if !ok {
		return false
	}
	for _, granted := range set {
		if granted == p {
			return true
		}
	}
	return false
}
