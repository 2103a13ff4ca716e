package entity

import (
	"database/sql"
	"time"

	"github.com/checkin-lab/backend/pkg/enum"
)

type RecordStatus string

var (
	RecordPending = enum.New(RecordStatus("pending"))
	RecordChecked = enum.New(RecordStatus("checked"))
	RecordRevoked = enum.New(RecordStatus("revoked"))
	RecordMissed  = enum.New(RecordStatus("missed"))
)

// CheckinRecord is one obligation instance for a (rule, user, date). Exactly
// one of PersonalRuleID and CommunityRuleID is set. For any (user, rule, date)
// at most one row has a status other than revoked; revoked rows are kept as
// audit and never removed.
type CheckinRecord struct {
	Base

	UserID string `gorm:"index:idx_records_user_date"`
	User   User   `gorm:"foreignKey:UserID"`

	PersonalRuleID  sql.NullString `gorm:"index:idx_records_rule_date"`
	CommunityRuleID sql.NullString `gorm:"index:idx_records_rule_date"`

	// Date is the calendar date (local midnight) the obligation belongs to.
	Date time.Time `gorm:"index:idx_records_user_date;index:idx_records_rule_date"`

	PlannedTime time.Time
	CheckinTime sql.NullTime

	Status RecordStatus
}

func (r *CheckinRecord) RuleRef() RuleRef {
	if r.PersonalRuleID.Valid {
		return PersonalRuleRef(r.PersonalRuleID.String)
	}

	return CommunityRuleRef(r.CommunityRuleID.String)
}
