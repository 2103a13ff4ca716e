package repository

import (
	"context"

	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RuleRepository interface {
	CreatePersonal(ctx context.Context, rule *entity.PersonalRule) error
	GetPersonal(ctx context.Context, id string) (*entity.PersonalRule, error)
	GetActivePersonalByUser(ctx context.Context, userID string) ([]entity.PersonalRule, error)
	UpdatePersonal(ctx context.Context, id string, spec entity.RuleSpec) error
	UpdatePersonalStatus(ctx context.Context, id string, status entity.RuleStatus) error

	CreateCommunity(ctx context.Context, rule *entity.CommunityRule) error
	GetCommunity(ctx context.Context, id string) (*entity.CommunityRule, error)
	GetActiveByCommunity(ctx context.Context, communityID string) ([]entity.CommunityRule, error)
	UpdateCommunityStatus(ctx context.Context, id string, status entity.RuleStatus) error

	GetMapping(ctx context.Context, userID, communityRuleID string) (*entity.UserCommunityRuleMapping, error)
	GetMappingsByUser(ctx context.Context, userID string, onlyActive bool) ([]entity.UserCommunityRuleMapping, error)
	ActiveMappingUserIDs(ctx context.Context, communityRuleID string) ([]string, error)
	UpsertMapping(ctx context.Context, userID, communityRuleID string, active bool) error
	DeactivateMappingsByCommunity(ctx context.Context, userID, communityID string) error

	// IterateActivePersonal and IterateActiveCommunity stream active rules in
	// batches for the missed sweeper.
	IterateActivePersonal(ctx context.Context, batchSize int, fn func([]entity.PersonalRule) error) error
	IterateActiveCommunity(ctx context.Context, batchSize int, fn func([]entity.CommunityRule) error) error
}

type ruleRepository struct{}

func NewRuleRepository() *ruleRepository {
	return &ruleRepository{}
}

func (r *ruleRepository) CreatePersonal(ctx context.Context, rule *entity.PersonalRule) error {
	return xcontext.DB(ctx).Create(rule).Error
}

func (r *ruleRepository) GetPersonal(ctx context.Context, id string) (*entity.PersonalRule, error) {
	var result entity.PersonalRule
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *ruleRepository) GetActivePersonalByUser(ctx context.Context, userID string) ([]entity.PersonalRule, error) {
	var result []entity.PersonalRule
	err := xcontext.DB(ctx).
		Find(&result, "user_id=? AND status=?", userID, entity.RuleActive).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *ruleRepository) UpdatePersonal(ctx context.Context, id string, spec entity.RuleSpec) error {
	return update(xcontext.DB(ctx).
		Model(&entity.PersonalRule{}).
		Where("id=?", id).
		Updates(map[string]any{
			"name":              spec.Name,
			"icon":              spec.Icon,
			"frequency":         spec.Frequency,
			"week_days":         spec.WeekDays,
			"time_slot":         spec.TimeSlot,
			"custom_time":       spec.CustomTime,
			"custom_start_date": spec.CustomStartDate,
			"custom_end_date":   spec.CustomEndDate,
		}))
}

func (r *ruleRepository) UpdatePersonalStatus(ctx context.Context, id string, status entity.RuleStatus) error {
	return update(xcontext.DB(ctx).
		Model(&entity.PersonalRule{}).
		Where("id=?", id).
		Update("status", status))
}

func (r *ruleRepository) CreateCommunity(ctx context.Context, rule *entity.CommunityRule) error {
	return xcontext.DB(ctx).Create(rule).Error
}

func (r *ruleRepository) GetCommunity(ctx context.Context, id string) (*entity.CommunityRule, error) {
	var result entity.CommunityRule
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *ruleRepository) GetActiveByCommunity(ctx context.Context, communityID string) ([]entity.CommunityRule, error) {
	var result []entity.CommunityRule
	err := xcontext.DB(ctx).
		Find(&result, "community_id=? AND status=?", communityID, entity.RuleActive).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *ruleRepository) UpdateCommunityStatus(ctx context.Context, id string, status entity.RuleStatus) error {
	return update(xcontext.DB(ctx).
		Model(&entity.CommunityRule{}).
		Where("id=?", id).
		Update("status", status))
}

func (r *ruleRepository) GetMapping(ctx context.Context, userID, communityRuleID string) (*entity.UserCommunityRuleMapping, error) {
	var result entity.UserCommunityRuleMapping
	err := xcontext.DB(ctx).
		Take(&result, "user_id=? AND community_rule_id=?", userID, communityRuleID).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *ruleRepository) GetMappingsByUser(ctx context.Context, userID string, onlyActive bool) ([]entity.UserCommunityRuleMapping, error) {
	tx := xcontext.DB(ctx).Where("user_id=?", userID)
	if onlyActive {
		tx = tx.Where("is_active=?", true)
	}

	var result []entity.UserCommunityRuleMapping
	if err := tx.Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *ruleRepository) ActiveMappingUserIDs(ctx context.Context, communityRuleID string) ([]string, error) {
	var result []string
	err := xcontext.DB(ctx).
		Model(&entity.UserCommunityRuleMapping{}).
		Where("community_rule_id=? AND is_active=?", communityRuleID, true).
		Pluck("user_id", &result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *ruleRepository) UpsertMapping(ctx context.Context, userID, communityRuleID string, active bool) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "community_rule_id"}},
			DoUpdates: clause.Assignments(map[string]any{"is_active": active}),
		}).
		Create(&entity.UserCommunityRuleMapping{
			UserID:          userID,
			CommunityRuleID: communityRuleID,
			IsActive:        active,
		}).Error
}

func (r *ruleRepository) DeactivateMappingsByCommunity(ctx context.Context, userID, communityID string) error {
	return xcontext.DB(ctx).
		Model(&entity.UserCommunityRuleMapping{}).
		Where("user_id=? AND community_rule_id IN (?)",
			userID,
			xcontext.DB(ctx).
				Model(&entity.CommunityRule{}).
				Select("id").
				Where("community_id=?", communityID),
		).
		Update("is_active", false).Error
}

func (r *ruleRepository) IterateActivePersonal(ctx context.Context, batchSize int, fn func([]entity.PersonalRule) error) error {
	var batch []entity.PersonalRule
	return xcontext.DB(ctx).
		Where("status=?", entity.RuleActive).
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}

func (r *ruleRepository) IterateActiveCommunity(ctx context.Context, batchSize int, fn func([]entity.CommunityRule) error) error {
	var batch []entity.CommunityRule
	return xcontext.DB(ctx).
		Where("status=?", entity.RuleActive).
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}
