package repository

import (
	"context"

	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type VerificationCodeRepository interface {
	GetCurrentAny(ctx context.Context, phoneHash string, purposes []entity.VerificationPurpose) ([]entity.VerificationCode, error)
	Upsert(ctx context.Context, code *entity.VerificationCode) error
	MarkUsed(ctx context.Context, id string) error
}

type verificationCodeRepository struct{}

func NewVerificationCodeRepository() *verificationCodeRepository {
	return &verificationCodeRepository{}
}

func (r *verificationCodeRepository) GetCurrentAny(
	ctx context.Context, phoneHash string, purposes []entity.VerificationPurpose,
) ([]entity.VerificationCode, error) {
	var result []entity.VerificationCode
	err := xcontext.DB(ctx).
		Find(&result, "phone_hash=? AND purpose IN (?)", phoneHash, purposes).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Upsert replaces any prior row for the same (phone, purpose), used or not.
// One outstanding code per purpose is an invariant of the table.
func (r *verificationCodeRepository) Upsert(ctx context.Context, code *entity.VerificationCode) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "phone_hash"}, {Name: "purpose"}},
			DoUpdates: clause.Assignments(map[string]any{
				"code_hash":  code.CodeHash,
				"salt":       code.Salt,
				"expires_at": code.ExpiresAt,
				"used":       false,
			}),
		}).
		Create(code).Error
}

func (r *verificationCodeRepository) MarkUsed(ctx context.Context, id string) error {
	return update(xcontext.DB(ctx).
		Model(&entity.VerificationCode{}).
		Where("id=? AND used=?", id, false).
		Update("used", true))
}
