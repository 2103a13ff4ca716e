package entity

import (
	"database/sql"

	"github.com/checkin-lab/backend/pkg/enum"
)

type GlobalRole string

var (
	RoleNormal     = enum.New(GlobalRole("normal"))
	RoleStaff      = enum.New(GlobalRole("staff"))
	RoleManager    = enum.New(GlobalRole("manager"))
	RoleSuperAdmin = enum.New(GlobalRole("super_admin"))
)

var GlobalAdminRoles = []GlobalRole{RoleSuperAdmin}

type User struct {
	Base
	Name string

	// An account is reachable through its WeChat OpenID, its phone, or both
	// after binding. The raw phone number is never stored, only its keyed hash
	// and a masked display form.
	OpenID      sql.NullString `gorm:"unique"`
	PhoneHash   sql.NullString `gorm:"unique"`
	PhoneMasked string

	Role     GlobalRole `gorm:"default:normal"`
	Verified bool

	PasswordSalt string
	PasswordHash string

	CurrentCommunityID sql.NullString
	CommunityJoinedAt  sql.NullTime
}
