package domain

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/internal/model"
	"github.com/checkin-lab/backend/internal/repository"
	"github.com/checkin-lab/backend/pkg/enum"
	"github.com/checkin-lab/backend/pkg/errorx"
	"github.com/checkin-lab/backend/pkg/xcontext"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

type SupervisionDomain interface {
	CreateInvite(context.Context, *model.CreateInviteRequest) (*model.CreateInviteResponse, error)
	ClaimInvite(context.Context, *model.ClaimInviteRequest) (*model.ClaimInviteResponse, error)
	RejectLink(context.Context, *model.RejectLinkRequest) (*model.RejectLinkResponse, error)
	GetVisibleRecords(context.Context, *model.GetVisibleRecordsRequest) (*model.GetVisibleRecordsResponse, error)
	GetMyLinks(context.Context, *model.GetMyLinksRequest) (*model.GetMyLinksResponse, error)
}

type supervisionDomain struct {
	supervisionRepo repository.SupervisionRepository
	recordRepo      repository.CheckinRecordRepository
	ruleRepo        repository.RuleRepository
}

func NewSupervisionDomain(
	supervisionRepo repository.SupervisionRepository,
	recordRepo repository.CheckinRecordRepository,
	ruleRepo repository.RuleRepository,
) *supervisionDomain {
	return &supervisionDomain{
		supervisionRepo: supervisionRepo,
		recordRepo:      recordRepo,
		ruleRepo:        ruleRepo,
	}
}

func (d *supervisionDomain) CreateInvite(
	ctx context.Context, req *model.CreateInviteRequest,
) (*model.CreateInviteResponse, error) {
	userID := xcontext.RequestUserID(ctx)

	link := &entity.SupervisionLink{
		Base:          entity.Base{ID: uuid.NewString()},
		SubjectUserID: userID,
		Status:        entity.SupervisionPending,
	}

	if req.RuleID != "" {
		ruleType, err := enum.ToEnum[entity.RuleType](req.RuleType)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid rule type")
		}

		// The subject can only share a rule they actually check in against.
		ref := entity.RuleRef{Type: ruleType, ID: req.RuleID}
		if _, err := d.resolveSubjectRule(ctx, ref, userID); err != nil {
			return nil, err
		}

		link.RuleType = sql.NullString{String: string(ruleType), Valid: true}
		link.RuleID = sql.NullString{String: req.RuleID, Valid: true}
	}

	expiresAt := xcontext.Clock(ctx).Now().Add(xcontext.Configs(ctx).Supervision.InviteTTL)
	link.InviteToken = sql.NullString{String: uuid.NewString(), Valid: true}
	link.InviteExpiresAt = sql.NullTime{Time: expiresAt, Valid: true}

	if err := d.supervisionRepo.Create(ctx, link); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create supervision link: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateInviteResponse{
		Token:     link.InviteToken.String,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}, nil
}

func (d *supervisionDomain) ClaimInvite(
	ctx context.Context, req *model.ClaimInviteRequest,
) (*model.ClaimInviteResponse, error) {
	link, err := d.supervisionRepo.GetByToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found invite")
		}

		xcontext.Logger(ctx).Errorf("Cannot get supervision link: %v", err)
		return nil, errorx.Unknown
	}

	now := xcontext.Clock(ctx).Now()
	if link.InviteExpiresAt.Valid && now.After(link.InviteExpiresAt.Time) {
		return nil, errorx.New(errorx.InviteTokenExpired, "Invite has expired")
	}

	if link.ObserverUserID.Valid {
		return nil, errorx.New(errorx.AlreadyExists, "Invite has already been claimed")
	}

	userID := xcontext.RequestUserID(ctx)
	if link.SubjectUserID == userID {
		return nil, errorx.New(errorx.SelfSupervision, "Cannot supervise yourself")
	}

	if err := d.supervisionRepo.Claim(ctx, link.ID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Another claimant won the race.
			return nil, errorx.New(errorx.AlreadyExists, "Invite has already been claimed")
		}

		xcontext.Logger(ctx).Errorf("Cannot claim supervision link: %v", err)
		return nil, errorx.Unknown
	}

	claimed, err := d.supervisionRepo.GetByID(ctx, link.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get supervision link: %v", err)
		return nil, errorx.Unknown
	}

	return &model.ClaimInviteResponse{Link: model.ConvertSupervisionLink(claimed)}, nil
}

func (d *supervisionDomain) RejectLink(
	ctx context.Context, req *model.RejectLinkRequest,
) (*model.RejectLinkResponse, error) {
	link, err := d.supervisionRepo.GetByID(ctx, req.LinkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found link")
		}

		xcontext.Logger(ctx).Errorf("Cannot get supervision link: %v", err)
		return nil, errorx.Unknown
	}

	userID := xcontext.RequestUserID(ctx)

	// The subject rejects an accepted link; an observer may also drop a link
	// they claimed.
	var status entity.SupervisionStatus
	switch userID {
	case link.SubjectUserID:
		status = entity.SupervisionRejected
	default:
		if !link.ObserverUserID.Valid || link.ObserverUserID.String != userID {
			return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
		}
		status = entity.SupervisionRemoved
	}

	if err := d.supervisionRepo.UpdateStatus(ctx, link.ID, status); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update supervision link: %v", err)
		return nil, errorx.Unknown
	}

	return &model.RejectLinkResponse{}, nil
}

func (d *supervisionDomain) GetVisibleRecords(
	ctx context.Context, req *model.GetVisibleRecordsRequest,
) (*model.GetVisibleRecordsResponse, error) {
	start, end, err := parseDateRange(req.Start, req.End)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid date range")
	}

	links, err := d.supervisionRepo.GetByObserver(
		ctx, xcontext.RequestUserID(ctx), []entity.SupervisionStatus{entity.SupervisionAccepted})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get supervision links: %v", err)
		return nil, errorx.Unknown
	}

	var allRulesSubjects []string
	var pairs []repository.RulePair
	for i := range links {
		if ref, ok := links[i].Rule(); ok {
			pairs = append(pairs, repository.RulePair{UserID: links[i].SubjectUserID, Rule: ref})
		} else {
			allRulesSubjects = append(allRulesSubjects, links[i].SubjectUserID)
		}
	}

	var records []entity.CheckinRecord
	if len(allRulesSubjects) > 0 {
		records, err = d.recordRepo.GetBySubjectsInRange(ctx, allRulesSubjects, start, end)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get subject records: %v", err)
			return nil, errorx.Unknown
		}
	}

	if len(pairs) > 0 {
		pairRecords, err := d.recordRepo.GetByPairsInRange(ctx, pairs, start, end)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get pair records: %v", err)
			return nil, errorx.Unknown
		}

		records = append(records, pairRecords...)
	}

	// A subject shared both ways can surface the same record twice.
	seen := map[string]bool{}
	result := make([]model.CheckinRecord, 0, len(records))
	for i := range records {
		if seen[records[i].ID] {
			continue
		}

		seen[records[i].ID] = true
		result = append(result, model.ConvertCheckinRecord(&records[i]))
	}

	// PlannedTime is RFC3339, which sorts lexicographically within one zone.
	slices.SortFunc(result, func(a, b model.CheckinRecord) bool {
		return a.PlannedTime > b.PlannedTime
	})

	return &model.GetVisibleRecordsResponse{Records: result}, nil
}

func (d *supervisionDomain) GetMyLinks(
	ctx context.Context, req *model.GetMyLinksRequest,
) (*model.GetMyLinksResponse, error) {
	userID := xcontext.RequestUserID(ctx)

	asObserver, err := d.supervisionRepo.GetByObserver(ctx, userID, nil)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get observer links: %v", err)
		return nil, errorx.Unknown
	}

	asSubject, err := d.supervisionRepo.GetBySubject(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get subject links: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetMyLinksResponse{
		AsObserver: make([]model.SupervisionLink, 0, len(asObserver)),
		AsSubject:  make([]model.SupervisionLink, 0, len(asSubject)),
	}

	for i := range asObserver {
		resp.AsObserver = append(resp.AsObserver, model.ConvertSupervisionLink(&asObserver[i]))
	}

	for i := range asSubject {
		resp.AsSubject = append(resp.AsSubject, model.ConvertSupervisionLink(&asSubject[i]))
	}

	return resp, nil
}

func (d *supervisionDomain) resolveSubjectRule(
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

		if _, err := d.ruleRepo.GetMapping(ctx, userID, ref.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return entity.RuleSpec{}, errorx.New(errorx.PermissionDenied, "Permission denied")
			}

			xcontext.Logger(ctx).Errorf("Cannot get rule mapping: %v", err)
			return entity.RuleSpec{}, errorx.Unknown
		}

		return rule.RuleSpec, nil
	}

	return entity.RuleSpec{}, errorx.New(errorx.BadRequest, "Invalid rule type")
}
