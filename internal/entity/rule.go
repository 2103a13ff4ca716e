package entity

import (
	"database/sql"
	"time"

	"github.com/checkin-lab/backend/pkg/enum"
)

type Frequency string

var (
	FrequencyDaily       = enum.New(Frequency("daily"))
	FrequencyWeekly      = enum.New(Frequency("weekly"))
	FrequencyWeekdays    = enum.New(Frequency("weekdays"))
	FrequencyCustomRange = enum.New(Frequency("custom_range"))
)

type TimeSlot string

var (
	TimeSlotMorning   = enum.New(TimeSlot("morning"))
	TimeSlotAfternoon = enum.New(TimeSlot("afternoon"))
	TimeSlotEvening   = enum.New(TimeSlot("evening"))
	TimeSlotCustom    = enum.New(TimeSlot("custom"))
)

type RuleStatus string

var (
	RuleActive   = enum.New(RuleStatus("active"))
	RuleDisabled = enum.New(RuleStatus("disabled"))
	RuleDeleted  = enum.New(RuleStatus("deleted"))
)

// RuleSpec is the schedule shared by personal and community rules. WeekDays is
// a 7-bit mask (bit 0 = Monday) significant only for weekly rules. CustomTime
// holds "HH:MM" and is significant only for the custom time slot.
type RuleSpec struct {
	Name string
	Icon string

	Frequency Frequency
	WeekDays  uint8

	TimeSlot        TimeSlot
	CustomTime      sql.NullString
	CustomStartDate sql.NullTime
	CustomEndDate   sql.NullTime

	Status RuleStatus
}

type PersonalRule struct {
	Base
	RuleSpec

	UserID string `gorm:"index"`
	User   User   `gorm:"foreignKey:UserID"`
}

type CommunityRule struct {
	Base
	RuleSpec

	CommunityID string    `gorm:"index"`
	Community   Community `gorm:"foreignKey:CommunityID"`

	CreatedBy string
}

// UserCommunityRuleMapping activates a community rule for one user. Rows are
// created when the user joins the community and flipped inactive when they
// leave; history is kept.
type UserCommunityRuleMapping struct {
	CreatedAt time.Time
	UpdatedAt time.Time

	UserID string `gorm:"primaryKey"`
	User   User   `gorm:"foreignKey:UserID"`

	CommunityRuleID string        `gorm:"primaryKey"`
	CommunityRule   CommunityRule `gorm:"foreignKey:CommunityRuleID"`

	IsActive bool
}

type RuleType string

var (
	RulePersonal  = enum.New(RuleType("personal"))
	RuleCommunity = enum.New(RuleType("community"))
)

// RuleRef is the tagged reference used everywhere the core must address either
// kind of rule. Exactly one kind applies to a given record.
type RuleRef struct {
	Type RuleType
	ID   string
}

func PersonalRuleRef(id string) RuleRef {
	return RuleRef{Type: RulePersonal, ID: id}
}

func CommunityRuleRef(id string) RuleRef {
	return RuleRef{Type: RuleCommunity, ID: id}
}
