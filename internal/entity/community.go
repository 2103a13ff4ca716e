package entity

import (
	"time"

	"github.com/checkin-lab/backend/pkg/enum"
)

type CommunityStatus string

var (
	CommunityEnabled  = enum.New(CommunityStatus("enabled"))
	CommunityDisabled = enum.New(CommunityStatus("disabled"))
)

type Community struct {
	Base
	Name          string `gorm:"unique"`
	Status        CommunityStatus
	CreatedBy     string
	CreatedByUser User `gorm:"foreignKey:CreatedBy"`

	// Exactly one community carries each of these flags. The default community
	// receives new users; the blackhouse receives users removed for cause.
	IsDefault    bool
	IsBlackhouse bool

	LogoPicture string
}

type StaffRole string

var (
	StaffRoleManager = enum.New(StaffRole("manager"))
	StaffRoleStaff   = enum.New(StaffRole("staff"))

	StaffRoles = []StaffRole{StaffRoleManager, StaffRoleStaff}
)

// CommunityStaff ties a user to a community with a staff role. A user may hold
// staff roles in several communities; each community has at most one manager.
type CommunityStaff struct {
	CreatedAt time.Time

	UserID string `gorm:"primaryKey"`
	User   User   `gorm:"foreignKey:UserID"`

	CommunityID string    `gorm:"primaryKey"`
	Community   Community `gorm:"foreignKey:CommunityID"`

	Role StaffRole
}
