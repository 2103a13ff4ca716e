package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByOpenID(ctx context.Context, openID string) (*entity.User, error)
	GetByPhoneHash(ctx context.Context, phoneHash string) (*entity.User, error)
	UpdateName(ctx context.Context, id, name string) error
	UpdateCredentials(ctx context.Context, id, salt, hash string) error
	BindPhone(ctx context.Context, id, phoneHash, phoneMasked string) error
	SetCommunity(ctx context.Context, id, communityID string, joinedAt time.Time) error
}

type userRepository struct{}

func NewUserRepository() *userRepository {
	return &userRepository{}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return xcontext.DB(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var result entity.User
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *userRepository) GetByOpenID(ctx context.Context, openID string) (*entity.User, error) {
	var result entity.User
	if err := xcontext.DB(ctx).Take(&result, "open_id=?", openID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *userRepository) GetByPhoneHash(ctx context.Context, phoneHash string) (*entity.User, error) {
	var result entity.User
	if err := xcontext.DB(ctx).Take(&result, "phone_hash=?", phoneHash).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *userRepository) UpdateName(ctx context.Context, id, name string) error {
	return update(xcontext.DB(ctx).
		Model(&entity.User{}).
		Where("id=?", id).
		Update("name", name))
}

func (r *userRepository) UpdateCredentials(ctx context.Context, id, salt, hash string) error {
	return update(xcontext.DB(ctx).
		Model(&entity.User{}).
		Where("id=?", id).
		Updates(map[string]any{
			"password_salt": salt,
			"password_hash": hash,
		}))
}

func (r *userRepository) BindPhone(ctx context.Context, id, phoneHash, phoneMasked string) error {
	return update(xcontext.DB(ctx).
		Model(&entity.User{}).
		Where("id=? AND phone_hash IS NULL", id).
		Updates(map[string]any{
			"phone_hash":   phoneHash,
			"phone_masked": phoneMasked,
			"verified":     true,
		}))
}

func (r *userRepository) SetCommunity(ctx context.Context, id, communityID string, joinedAt time.Time) error {
	return update(xcontext.DB(ctx).
		Model(&entity.User{}).
		Where("id=?", id).
		Updates(map[string]any{
			"current_community_id": sql.NullString{String: communityID, Valid: communityID != ""},
			"community_joined_at":  sql.NullTime{Time: joinedAt, Valid: true},
		}))
}

func update(tx *gorm.DB) error {
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected > 1 {
		return errors.New("the number of affected rows is invalid")
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
