package domain

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/checkin-lab/backend/internal/common"
	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/internal/model"
	"github.com/checkin-lab/backend/internal/repository"
	"github.com/checkin-lab/backend/pkg/enum"
	"github.com/checkin-lab/backend/pkg/errorx"
	"github.com/checkin-lab/backend/pkg/storage"
	"github.com/checkin-lab/backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RuleDomain interface {
	CreatePersonal(context.Context, *model.CreatePersonalRuleRequest) (*model.CreatePersonalRuleResponse, error)
	UpdatePersonal(context.Context, *model.UpdatePersonalRuleRequest) (*model.UpdatePersonalRuleResponse, error)
	DeletePersonal(context.Context, *model.DeletePersonalRuleRequest) (*model.DeletePersonalRuleResponse, error)
	GetMyRules(context.Context, *model.GetMyRulesRequest) (*model.GetMyRulesResponse, error)
	CreateCommunity(context.Context, *model.CreateCommunityRuleRequest) (*model.CreateCommunityRuleResponse, error)
	UpdateCommunityStatus(context.Context, *model.UpdateCommunityRuleStatusRequest) (*model.UpdateCommunityRuleStatusResponse, error)
	UploadIcon(context.Context, *model.UploadRuleIconRequest) (*model.UploadRuleIconResponse, error)
}

type ruleDomain struct {
	ruleRepo              repository.RuleRepository
	communityRepo         repository.CommunityRepository
	communityRoleVerifier *common.CommunityRoleVerifier
	storage               storage.Storage
}

func NewRuleDomain(
	ruleRepo repository.RuleRepository,
	communityRepo repository.CommunityRepository,
	communityRoleVerifier *common.CommunityRoleVerifier,
	storage storage.Storage,
) *ruleDomain {
	return &ruleDomain{
		ruleRepo:              ruleRepo,
		communityRepo:         communityRepo,
		communityRoleVerifier: communityRoleVerifier,
		storage:               storage,
	}
}

func (d *ruleDomain) CreatePersonal(
	ctx context.Context, req *model.CreatePersonalRuleRequest,
) (*model.CreatePersonalRuleResponse, error) {
	spec, err := parseRuleSpec(req)
	if err != nil {
		return nil, err
	}

	rule := &entity.PersonalRule{
		Base:     entity.Base{ID: uuid.NewString()},
		RuleSpec: spec,
		UserID:   xcontext.RequestUserID(ctx),
	}

	if err := d.ruleRepo.CreatePersonal(ctx, rule); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create personal rule: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreatePersonalRuleResponse{ID: rule.ID}, nil
}

func (d *ruleDomain) UpdatePersonal(
	ctx context.Context, req *model.UpdatePersonalRuleRequest,
) (*model.UpdatePersonalRuleResponse, error) {
	rule, err := d.getOwnedPersonal(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	spec, err := parseRuleSpec(&req.CreatePersonalRuleRequest)
	if err != nil {
		return nil, err
	}

	if err := d.ruleRepo.UpdatePersonal(ctx, rule.ID, spec); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update personal rule: %v", err)
		return nil, errorx.Unknown
	}

	return &model.UpdatePersonalRuleResponse{}, nil
}

func (d *ruleDomain) DeletePersonal(
	ctx context.Context, req *model.DeletePersonalRuleRequest,
) (*model.DeletePersonalRuleResponse, error) {
	rule, err := d.getOwnedPersonal(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	// Soft delete. Existing records keep pointing at the rule; the sweeper
	// skips non-active rules.
	if err := d.ruleRepo.UpdatePersonalStatus(ctx, rule.ID, entity.RuleDeleted); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete personal rule: %v", err)
		return nil, errorx.Unknown
	}

	return &model.DeletePersonalRuleResponse{}, nil
}

func (d *ruleDomain) GetMyRules(
	ctx context.Context, req *model.GetMyRulesRequest,
) (*model.GetMyRulesResponse, error) {
	userID := xcontext.RequestUserID(ctx)

	personal, err := d.ruleRepo.GetActivePersonalByUser(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get personal rules: %v", err)
		return nil, errorx.Unknown
	}

	mappings, err := d.ruleRepo.GetMappingsByUser(ctx, userID, true)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get rule mappings: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetMyRulesResponse{
		PersonalRules:  make([]model.Rule, 0, len(personal)),
		CommunityRules: make([]model.Rule, 0, len(mappings)),
	}

	for i := range personal {
		resp.PersonalRules = append(resp.PersonalRules, model.ConvertPersonalRule(&personal[i]))
	}

	for _, mapping := range mappings {
		rule, err := d.ruleRepo.GetCommunity(ctx, mapping.CommunityRuleID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get community rule: %v", err)
			return nil, errorx.Unknown
		}

		if rule.Status != entity.RuleActive {
			continue
		}

		resp.CommunityRules = append(resp.CommunityRules, model.ConvertCommunityRule(rule))
	}

	return resp, nil
}

func (d *ruleDomain) CreateCommunity(
	ctx context.Context, req *model.CreateCommunityRuleRequest,
) (*model.CreateCommunityRuleResponse, error) {
	if err := d.communityRoleVerifier.Verify(ctx, req.CommunityID, entity.StaffRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	spec, err := parseRuleSpec(&req.CreatePersonalRuleRequest)
	if err != nil {
		return nil, err
	}

	rule := &entity.CommunityRule{
		Base:        entity.Base{ID: uuid.NewString()},
		RuleSpec:    spec,
		CommunityID: req.CommunityID,
		CreatedBy:   xcontext.RequestUserID(ctx),
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.ruleRepo.CreateCommunity(ctx, rule); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create community rule: %v", err)
		return nil, errorx.Unknown
	}

	// New rules apply to everyone currently in the community.
	memberIDs, err := d.communityRepo.GetMemberIDs(ctx, req.CommunityID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get community members: %v", err)
		return nil, errorx.Unknown
	}

	for _, memberID := range memberIDs {
		if err := d.ruleRepo.UpsertMapping(ctx, memberID, rule.ID, true); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create rule mapping: %v", err)
			return nil, errorx.Unknown
		}
	}

	xcontext.WithCommitDBTransaction(ctx)

	return &model.CreateCommunityRuleResponse{ID: rule.ID}, nil
}

func (d *ruleDomain) UpdateCommunityStatus(
	ctx context.Context, req *model.UpdateCommunityRuleStatusRequest,
) (*model.UpdateCommunityRuleStatusResponse, error) {
	status, err := enum.ToEnum[entity.RuleStatus](req.Status)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid status")
	}

	rule, err := d.ruleRepo.GetCommunity(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found rule")
		}

		xcontext.Logger(ctx).Errorf("Cannot get community rule: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.communityRoleVerifier.Verify(ctx, rule.CommunityID, entity.StaffRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	if err := d.ruleRepo.UpdateCommunityStatus(ctx, rule.ID, status); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update community rule: %v", err)
		return nil, errorx.Unknown
	}

	return &model.UpdateCommunityRuleStatusResponse{}, nil
}

func (d *ruleDomain) UploadIcon(
	ctx context.Context, req *model.UploadRuleIconRequest,
) (*model.UploadRuleIconResponse, error) {
	resp, err := common.ProcessImage(ctx, d.storage, "image", "icons", common.IconSize)
	if err != nil {
		return nil, err
	}

	return &model.UploadRuleIconResponse{URL: resp.URL}, nil
}

func (d *ruleDomain) getOwnedPersonal(ctx context.Context, id string) (*entity.PersonalRule, error) {
	rule, err := d.ruleRepo.GetPersonal(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found rule")
		}

		xcontext.Logger(ctx).Errorf("Cannot get personal rule: %v", err)
		return nil, errorx.Unknown
	}

	if rule.Status == entity.RuleDeleted {
		return nil, errorx.New(errorx.NotFound, "Not found rule")
	}

	if rule.UserID != xcontext.RequestUserID(ctx) {
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	return rule, nil
}

func parseRuleSpec(req *model.CreatePersonalRuleRequest) (entity.RuleSpec, error) {
	if req.Name == "" {
		return entity.RuleSpec{}, errorx.New(errorx.BadRequest, "Not allow an empty name")
	}

	frequency, err := enum.ToEnum[entity.Frequency](req.Frequency)
	if err != nil {
		return entity.RuleSpec{}, errorx.New(errorx.BadRequest, "Invalid frequency")
	}

	timeSlot, err := enum.ToEnum[entity.TimeSlot](req.TimeSlot)
	if err != nil {
		return entity.RuleSpec{}, errorx.New(errorx.BadRequest, "Invalid time slot")
	}

	spec := entity.RuleSpec{
		Name:      req.Name,
		Icon:      req.Icon,
		Frequency: frequency,
		TimeSlot:  timeSlot,
		Status:    entity.RuleActive,
	}

	switch frequency {
	case entity.FrequencyWeekly:
		if req.WeekDays == 0 || req.WeekDays > 0x7f {
			return entity.RuleSpec{}, errorx.New(errorx.BadRequest, "Invalid week days")
		}
		spec.WeekDays = req.WeekDays

	case entity.FrequencyCustomRange:
		start, err := time.ParseInLocation(dateLayout, req.CustomStartDate, time.Local)
		if err != nil {
			return entity.RuleSpec{}, errorx.New(errorx.BadRequest, "Invalid start date")
		}

		end, err := time.ParseInLocation(dateLayout, req.CustomEndDate, time.Local)
		if err != nil {
			return entity.RuleSpec{}, errorx.New(errorx.BadRequest, "Invalid end date")
		}

		if end.Before(start) {
			return entity.RuleSpec{}, errorx.New(errorx.BadRequest, "End date is before start date")
		}

		spec.CustomStartDate = sql.NullTime{Time: start, Valid: true}
		spec.CustomEndDate = sql.NullTime{Time: end, Valid: true}
	}

	if timeSlot == entity.TimeSlotCustom {
		if _, err := time.Parse("15:04", req.CustomTime); err != nil {
			return entity.RuleSpec{}, errorx.New(errorx.BadRequest, "Invalid custom time")
		}

		spec.CustomTime = sql.NullString{String: req.CustomTime, Valid: true}
	}

	return spec, nil
}
