package repository

import (
	"context"

	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/pkg/xcontext"
)

type CommunityRepository interface {
	Create(ctx context.Context, community *entity.Community) error
	GetByID(ctx context.Context, id string) (*entity.Community, error)
	GetByName(ctx context.Context, name string) (*entity.Community, error)
	GetDefault(ctx context.Context) (*entity.Community, error)
	GetList(ctx context.Context) ([]entity.Community, error)
	UpdateStatus(ctx context.Context, id string, status entity.CommunityStatus) error
	UpdateLogo(ctx context.Context, id, logo string) error
	CountMembers(ctx context.Context, id string) (int64, error)
	GetMemberIDs(ctx context.Context, id string) ([]string, error)

	AssignStaff(ctx context.Context, staff *entity.CommunityStaff) error
	GetStaff(ctx context.Context, userID, communityID string) (*entity.CommunityStaff, error)
	GetStaffByUser(ctx context.Context, userID string) ([]entity.CommunityStaff, error)
	GetStaffByCommunity(ctx context.Context, communityID string) ([]entity.CommunityStaff, error)
	GetManager(ctx context.Context, communityID string) (*entity.CommunityStaff, error)
	RemoveStaff(ctx context.Context, userID, communityID string) error
}

type communityRepository struct{}

func NewCommunityRepository() *communityRepository {
	return &communityRepository{}
}

func (r *communityRepository) Create(ctx context.Context, community *entity.Community) error {
	return xcontext.DB(ctx).Create(community).Error
}

func (r *communityRepository) GetByID(ctx context.Context, id string) (*entity.Community, error) {
	var result entity.Community
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *communityRepository) GetByName(ctx context.Context, name string) (*entity.Community, error) {
	var result entity.Community
	if err := xcontext.DB(ctx).Take(&result, "name=?", name).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *communityRepository) GetDefault(ctx context.Context) (*entity.Community, error) {
	var result entity.Community
	if err := xcontext.DB(ctx).Take(&result, "is_default=?", true).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *communityRepository) GetList(ctx context.Context) ([]entity.Community, error) {
	var result []entity.Community
	if err := xcontext.DB(ctx).Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *communityRepository) UpdateStatus(ctx context.Context, id string, status entity.CommunityStatus) error {
	return update(xcontext.DB(ctx).
		Model(&entity.Community{}).
		Where("id=?", id).
		Update("status", status))
}

func (r *communityRepository) UpdateLogo(ctx context.Context, id, logo string) error {
	return update(xcontext.DB(ctx).
		Model(&entity.Community{}).
		Where("id=?", id).
		Update("logo_picture", logo))
}

func (r *communityRepository) CountMembers(ctx context.Context, id string) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).
		Model(&entity.User{}).
		Where("current_community_id=?", id).
		Count(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}

func (r *communityRepository) GetMemberIDs(ctx context.Context, id string) ([]string, error) {
	var result []string
	err := xcontext.DB(ctx).
		Model(&entity.User{}).
		Where("current_community_id=?", id).
		Pluck("id", &result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *communityRepository) AssignStaff(ctx context.Context, staff *entity.CommunityStaff) error {
	return xcontext.DB(ctx).Create(staff).Error
}

func (r *communityRepository) GetStaff(ctx context.Context, userID, communityID string) (*entity.CommunityStaff, error) {
	var result entity.CommunityStaff
	err := xcontext.DB(ctx).
		Take(&result, "user_id=? AND community_id=?", userID, communityID).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *communityRepository) GetStaffByUser(ctx context.Context, userID string) ([]entity.CommunityStaff, error) {
	var result []entity.CommunityStaff
	if err := xcontext.DB(ctx).Find(&result, "user_id=?", userID).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *communityRepository) GetStaffByCommunity(ctx context.Context, communityID string) ([]entity.CommunityStaff, error) {
	var result []entity.CommunityStaff
	if err := xcontext.DB(ctx).Find(&result, "community_id=?", communityID).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *communityRepository) GetManager(ctx context.Context, communityID string) (*entity.CommunityStaff, error) {
	var result entity.CommunityStaff
	err := xcontext.DB(ctx).
		Take(&result, "community_id=? AND role=?", communityID, entity.StaffRoleManager).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *communityRepository) RemoveStaff(ctx context.Context, userID, communityID string) error {
	return xcontext.DB(ctx).
		Where("user_id=? AND community_id=?", userID, communityID).
		Delete(&entity.CommunityStaff{}).Error
}
