package entity

import (
	"database/sql"

	"github.com/checkin-lab/backend/pkg/enum"
)

type SupervisionStatus string

var (
	SupervisionPending  = enum.New(SupervisionStatus("pending"))
	SupervisionAccepted = enum.New(SupervisionStatus("accepted"))
	SupervisionRejected = enum.New(SupervisionStatus("rejected"))
	SupervisionRemoved  = enum.New(SupervisionStatus("removed"))
)

// SupervisionLink grants an observer read access to a subject's records.
// ObserverUserID is null while the link waits behind an unclaimed invite
// token. A null rule reference means all of the subject's rules.
type SupervisionLink struct {
	Base

	SubjectUserID string `gorm:"index"`
	SubjectUser   User   `gorm:"foreignKey:SubjectUserID"`

	ObserverUserID sql.NullString `gorm:"index"`

	RuleType sql.NullString
	RuleID   sql.NullString

	Status SupervisionStatus

	InviteToken     sql.NullString `gorm:"unique"`
	InviteExpiresAt sql.NullTime
}

// Rule returns the scoped rule reference, or ok=false for an all-rules link.
func (l *SupervisionLink) Rule() (RuleRef, bool) {
	if !l.RuleID.Valid {
		return RuleRef{}, false
	}

	return RuleRef{Type: RuleType(l.RuleType.String), ID: l.RuleID.String}, true
}
