package repository

import (
	"context"
	"database/sql"

	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/pkg/xcontext"
)

type SupervisionRepository interface {
	Create(ctx context.Context, link *entity.SupervisionLink) error
	GetByID(ctx context.Context, id string) (*entity.SupervisionLink, error)
	GetByToken(ctx context.Context, token string) (*entity.SupervisionLink, error)
	GetByObserver(ctx context.Context, observerID string, statuses []entity.SupervisionStatus) ([]entity.SupervisionLink, error)
	GetBySubject(ctx context.Context, subjectID string) ([]entity.SupervisionLink, error)
	Claim(ctx context.Context, id, observerID string) error
	UpdateStatus(ctx context.Context, id string, status entity.SupervisionStatus) error
}

type supervisionRepository struct{}

func NewSupervisionRepository() *supervisionRepository {
	return &supervisionRepository{}
}

func (r *supervisionRepository) Create(ctx context.Context, link *entity.SupervisionLink) error {
	return xcontext.DB(ctx).Create(link).Error
}

func (r *supervisionRepository) GetByID(ctx context.Context, id string) (*entity.SupervisionLink, error) {
	var result entity.SupervisionLink
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *supervisionRepository) GetByToken(ctx context.Context, token string) (*entity.SupervisionLink, error) {
	var result entity.SupervisionLink
	if err := xcontext.DB(ctx).Take(&result, "invite_token=?", token).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *supervisionRepository) GetByObserver(
	ctx context.Context, observerID string, statuses []entity.SupervisionStatus,
) ([]entity.SupervisionLink, error) {
	tx := xcontext.DB(ctx).Where("observer_user_id=?", observerID)
	if len(statuses) > 0 {
		tx = tx.Where("status IN (?)", statuses)
	}

	var result []entity.SupervisionLink
	if err := tx.Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *supervisionRepository) GetBySubject(ctx context.Context, subjectID string) ([]entity.SupervisionLink, error) {
	var result []entity.SupervisionLink
	err := xcontext.DB(ctx).Find(&result, "subject_user_id=?", subjectID).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Claim binds the observer and clears the invite token in one statement so a
// token cannot be claimed twice.
func (r *supervisionRepository) Claim(ctx context.Context, id, observerID string) error {
	return update(xcontext.DB(ctx).
		Model(&entity.SupervisionLink{}).
		Where("id=? AND observer_user_id IS NULL", id).
		Updates(map[string]any{
			"observer_user_id":  observerID,
			"status":            entity.SupervisionAccepted,
			"invite_token":      sql.NullString{},
			"invite_expires_at": sql.NullTime{},
		}))
}

func (r *supervisionRepository) UpdateStatus(ctx context.Context, id string, status entity.SupervisionStatus) error {
	return update(xcontext.DB(ctx).
		Model(&entity.SupervisionLink{}).
		Where("id=?", id).
		Update("status", status))
}
