package domain

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/checkin-lab/backend/internal/domain/schedule"
	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/internal/model"
	"github.com/checkin-lab/backend/internal/repository"
	"github.com/checkin-lab/backend/pkg/enum"
	"github.com/checkin-lab/backend/pkg/errorx"
	"github.com/checkin-lab/backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CheckinDomain interface {
	Check(context.Context, *model.CheckinRequest) (*model.CheckinResponse, error)
	Cancel(context.Context, *model.CancelCheckinRequest) (*model.CancelCheckinResponse, error)
	GetMyRecords(context.Context, *model.GetMyRecordsRequest) (*model.GetMyRecordsResponse, error)
}

type checkinDomain struct {
	recordRepo repository.CheckinRecordRepository
	ruleRepo   repository.RuleRepository
}

func NewCheckinDomain(
	recordRepo repository.CheckinRecordRepository,
	ruleRepo repository.RuleRepository,
) *checkinDomain {
	return &checkinDomain{recordRepo: recordRepo, ruleRepo: ruleRepo}
}

func (d *checkinDomain) Check(
	ctx context.Context, req *model.CheckinRequest,
) (*model.CheckinResponse, error) {
	ruleType, err := enum.ToEnum[entity.RuleType](req.RuleType)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid rule type")
	}

	ref := entity.RuleRef{Type: ruleType, ID: req.RuleID}
	userID := xcontext.RequestUserID(ctx)

	spec, err := d.resolveRuleForUser(ctx, ref, userID)
	if err != nil {
		return nil, err
	}

	// The read-then-write below must not interleave with a concurrent
	// check-in of the same (rule, user, day), so the read takes a row lock
	// for the rest of the transaction.
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	now := xcontext.Clock(ctx).Now()
	today := xcontext.Clock(ctx).Today()

	records, err := d.recordRepo.GetByRuleUserOnDateForUpdate(ctx, ref, userID, today)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get today records: %v", err)
		return nil, errorx.Unknown
	}

	var updatable *entity.CheckinRecord
	for i := range records {
		switch records[i].Status {
		case entity.RecordChecked:
			return nil, errorx.New(errorx.AlreadyChecked, "Already checked in today")
		case entity.RecordPending, entity.RecordMissed:
			// Sweeper-created or stale row; a late check-in still counts.
			updatable = &records[i]
		}
	}

	checkinTime := sql.NullTime{Time: now, Valid: true}
	var recordID string
	if updatable != nil {
		recordID = updatable.ID
		err = d.recordRepo.UpdateStatus(ctx, recordID, checkinTime, entity.RecordChecked)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot update record: %v", err)
			return nil, errorx.Unknown
		}
	} else {
		record := &entity.CheckinRecord{
			Base:        entity.Base{ID: uuid.NewString()},
			UserID:      userID,
			Date:        today,
			PlannedTime: schedule.PlannedTime(ctx, spec, today),
			CheckinTime: checkinTime,
			Status:      entity.RecordChecked,
		}
		applyRuleRef(record, ref)

		if err := d.recordRepo.Create(ctx, record); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create record: %v", err)
			return nil, errorx.Unknown
		}

		recordID = record.ID
	}

	xcontext.WithCommitDBTransaction(ctx)

	return &model.CheckinResponse{
		RecordID:    recordID,
		CheckinTime: now.Format(time.RFC3339),
		Status:      "ok",
	}, nil
}

func (d *checkinDomain) Cancel(
	ctx context.Context, req *model.CancelCheckinRequest,
) (*model.CancelCheckinResponse, error) {
	record, err := d.recordRepo.GetByID(ctx, req.RecordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found record")
		}

		xcontext.Logger(ctx).Errorf("Cannot get record: %v", err)
		return nil, errorx.Unknown
	}

	if record.UserID != xcontext.RequestUserID(ctx) {
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	now := xcontext.Clock(ctx).Now()
	window := xcontext.Configs(ctx).Checkin.CancelWindow
	if record.Status != entity.RecordChecked || !record.CheckinTime.Valid ||
		now.Sub(record.CheckinTime.Time) > window {
		return nil, errorx.New(errorx.OutsideCancelWindow, "Cancel window has passed")
	}

	// The revoked row stays as audit; a later check-in creates a new record.
	err = d.recordRepo.UpdateStatus(ctx, record.ID, sql.NullTime{}, entity.RecordRevoked)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot revoke record: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CancelCheckinResponse{}, nil
}

func (d *checkinDomain) GetMyRecords(
	ctx context.Context, req *model.GetMyRecordsRequest,
) (*model.GetMyRecordsResponse, error) {
	start, end, err := parseDateRange(req.Start, req.End)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid date range")
	}

	records, err := d.recordRepo.GetByUserInRange(ctx, xcontext.RequestUserID(ctx), start, end)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get records: %v", err)
		return nil, errorx.Unknown
	}

	result := make([]model.CheckinRecord, 0, len(records))
	for i := range records {
		result = append(result, model.ConvertCheckinRecord(&records[i]))
	}

	return &model.GetMyRecordsResponse{Records: result}, nil
}

// resolveRuleForUser checks existence and permission of the referenced rule
// and returns its schedule.
func (d *checkinDomain) resolveRuleForUser(
	ctx context.Context, ref entity.RuleRef, userID string,
) (entity.RuleSpec, error) {
	switch ref.Type {
	case entity.RulePersonal:
		rule, err := d.ruleRepo.GetPersonal(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return entity.RuleSpec{}, errorx.New(errorx.NotFound, "Not found rule")
			}

			xcontext.Logger(ctx).Errorf("Cannot get personal rule: %v", err)
			return entity.RuleSpec{}, errorx.Unknown
		}

		if rule.Status == entity.RuleDeleted {
			return entity.RuleSpec{}, errorx.New(errorx.NotFound, "Not found rule")
		}

		if rule.UserID != userID {
			return entity.RuleSpec{}, errorx.New(errorx.PermissionDenied, "Permission denied")
		}

		return rule.RuleSpec, nil

	case entity.RuleCommunity:
		rule, err := d.ruleRepo.GetCommunity(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return entity.RuleSpec{}, errorx.New(errorx.NotFound, "Not found rule")
			}

			xcontext.Logger(ctx).Errorf("Cannot get community rule: %v", err)
			return entity.RuleSpec{}, errorx.Unknown
		}

		if rule.Status == entity.RuleDeleted {
			return entity.RuleSpec{}, errorx.New(errorx.NotFound, "Not found rule")
		}

		mapping, err := d.ruleRepo.GetMapping(ctx, userID, ref.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return entity.RuleSpec{}, errorx.New(errorx.PermissionDenied, "Permission denied")
			}

			xcontext.Logger(ctx).Errorf("Cannot get rule mapping: %v", err)
			return entity.RuleSpec{}, errorx.Unknown
		}

		if !mapping.IsActive {
			return entity.RuleSpec{}, errorx.New(errorx.PermissionDenied, "Permission denied")
		}

		return rule.RuleSpec, nil
	}

	return entity.RuleSpec{}, errorx.New(errorx.BadRequest, "Invalid rule type")
}

func applyRuleRef(record *entity.CheckinRecord, ref entity.RuleRef) {
	if ref.Type == entity.RulePersonal {
		record.PersonalRuleID = sql.NullString{String: ref.ID, Valid: true}
	} else {
		record.CommunityRuleID = sql.NullString{String: ref.ID, Valid: true}
	}
}

// MarkMissed materializes a missed record for the obligation at planned,
// unless the day already ended in a terminal state. Safe to call repeatedly;
// the missed sweeper is the only caller. The returned bool reports whether a
// record was actually marked on this call.
func MarkMissed(
	ctx context.Context,
	recordRepo repository.CheckinRecordRepository,
	ref entity.RuleRef,
	userID string,
	planned time.Time,
) (bool, error) {
	date := time.Date(planned.Year(), planned.Month(), planned.Day(), 0, 0, 0, 0, planned.Location())

	records, err := recordRepo.GetByRuleUserOnDate(ctx, ref, userID, date)
	if err != nil {
		return false, err
	}

	for i := range records {
		switch records[i].Status {
		case entity.RecordChecked, entity.RecordRevoked, entity.RecordMissed:
			return false, nil
		case entity.RecordPending:
			err := recordRepo.UpdateStatus(ctx, records[i].ID, sql.NullTime{}, entity.RecordMissed)
			if err != nil {
				return false, err
			}

			return true, nil
		}
	}

	record := &entity.CheckinRecord{
		Base:        entity.Base{ID: uuid.NewString()},
		UserID:      userID,
		Date:        date,
		PlannedTime: planned,
		Status:      entity.RecordMissed,
	}
	applyRuleRef(record, ref)

	if err := recordRepo.Create(ctx, record); err != nil {
		return false, err
	}

	return true, nil
}
