package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RulePair addresses records of one rule belonging to one user, used by the
// supervision visibility query.
type RulePair struct {
	UserID string
	Rule   entity.RuleRef
}

type CheckinRecordRepository interface {
	Create(ctx context.Context, record *entity.CheckinRecord) error
	GetByID(ctx context.Context, id string) (*entity.CheckinRecord, error)
	GetByRuleUserOnDate(ctx context.Context, ref entity.RuleRef, userID string, date time.Time) ([]entity.CheckinRecord, error)
	GetByRuleUserOnDateForUpdate(ctx context.Context, ref entity.RuleRef, userID string, date time.Time) ([]entity.CheckinRecord, error)
	GetByUserInRange(ctx context.Context, userID string, start, end time.Time) ([]entity.CheckinRecord, error)
	GetBySubjectsInRange(ctx context.Context, userIDs []string, start, end time.Time) ([]entity.CheckinRecord, error)
	GetByPairsInRange(ctx context.Context, pairs []RulePair, start, end time.Time) ([]entity.CheckinRecord, error)
	UpdateStatus(ctx context.Context, id string, checkinTime sql.NullTime, status entity.RecordStatus) error
}

type checkinRecordRepository struct{}

func NewCheckinRecordRepository() *checkinRecordRepository {
	return &checkinRecordRepository{}
}

func (r *checkinRecordRepository) Create(ctx context.Context, record *entity.CheckinRecord) error {
	return xcontext.DB(ctx).Create(record).Error
}

func (r *checkinRecordRepository) GetByID(ctx context.Context, id string) (*entity.CheckinRecord, error) {
	var result entity.CheckinRecord
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func ruleCondition(tx *gorm.DB, ref entity.RuleRef) *gorm.DB {
	if ref.Type == entity.RulePersonal {
		return tx.Where("personal_rule_id=?", ref.ID)
	}

	return tx.Where("community_rule_id=?", ref.ID)
}

func (r *checkinRecordRepository) GetByRuleUserOnDate(
	ctx context.Context, ref entity.RuleRef, userID string, date time.Time,
) ([]entity.CheckinRecord, error) {
	tx := xcontext.DB(ctx).Where("user_id=? AND date=?", userID, date)

	var result []entity.CheckinRecord
	if err := ruleCondition(tx, ref).Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

// GetByRuleUserOnDateForUpdate locks the matched rows for the rest of the
// transaction. Under InnoDB the FOR UPDATE gap lock on (user_id, date) also
// blocks a concurrent insert for the same day, so a read-then-write cannot
// double-create the day's record. SQLite rejects FOR UPDATE and serializes
// writers on its own, so the clause is skipped there.
func (r *checkinRecordRepository) GetByRuleUserOnDateForUpdate(
	ctx context.Context, ref entity.RuleRef, userID string, date time.Time,
) ([]entity.CheckinRecord, error) {
	tx := xcontext.DB(ctx)
	if tx.Dialector.Name() != "sqlite" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	tx = tx.Where("user_id=? AND date=?", userID, date)

	var result []entity.CheckinRecord
	if err := ruleCondition(tx, ref).Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *checkinRecordRepository) GetByUserInRange(
	ctx context.Context, userID string, start, end time.Time,
) ([]entity.CheckinRecord, error) {
	var result []entity.CheckinRecord
	err := xcontext.DB(ctx).
		Where("user_id=? AND planned_time>=? AND planned_time<?", userID, start, end).
		Order("planned_time DESC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *checkinRecordRepository) GetBySubjectsInRange(
	ctx context.Context, userIDs []string, start, end time.Time,
) ([]entity.CheckinRecord, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var result []entity.CheckinRecord
	err := xcontext.DB(ctx).
		Where("user_id IN (?) AND planned_time>=? AND planned_time<?", userIDs, start, end).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *checkinRecordRepository) GetByPairsInRange(
	ctx context.Context, pairs []RulePair, start, end time.Time,
) ([]entity.CheckinRecord, error) {
	var result []entity.CheckinRecord
	for _, pair := range pairs {
		tx := xcontext.DB(ctx).
			Where("user_id=? AND planned_time>=? AND planned_time<?", pair.UserID, start, end)

		var records []entity.CheckinRecord
		if err := ruleCondition(tx, pair.Rule).Find(&records).Error; err != nil {
			return nil, err
		}

		result = append(result, records...)
	}

	return result, nil
}

func (r *checkinRecordRepository) UpdateStatus(
	ctx context.Context, id string, checkinTime sql.NullTime, status entity.RecordStatus,
) error {
	return update(xcontext.DB(ctx).
		Model(&entity.CheckinRecord{}).
		Where("id=?", id).
		Updates(map[string]any{
			"checkin_time": checkinTime,
			"status":       status,
		}))
}
