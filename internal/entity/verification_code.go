package entity

import (
	"time"

	"github.com/checkin-lab/backend/pkg/enum"
)

type VerificationPurpose string

var (
	PurposeRegister = enum.New(VerificationPurpose("register"))
	PurposeLogin    = enum.New(VerificationPurpose("login"))
	PurposeBind     = enum.New(VerificationPurpose("bind"))
)

// VerificationCode stores one outstanding single-use code per (phone,
// purpose). The plaintext code is never persisted; only the salted hash bound
// to the phone hash.
type VerificationCode struct {
	Base

	PhoneHash string              `gorm:"uniqueIndex:idx_verification_phone_purpose"`
	Purpose   VerificationPurpose `gorm:"uniqueIndex:idx_verification_phone_purpose"`

	CodeHash string
	Salt     string

	ExpiresAt time.Time
	Used      bool
}
