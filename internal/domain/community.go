package domain

import (
	"context"
	"errors"

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

type CommunityDomain interface {
	Create(context.Context, *model.CreateCommunityRequest) (*model.CreateCommunityResponse, error)
	Disable(context.Context, *model.DisableCommunityRequest) (*model.DisableCommunityResponse, error)
	GetList(context.Context, *model.GetCommunitiesRequest) (*model.GetCommunitiesResponse, error)
	AssignStaff(context.Context, *model.AssignStaffRequest) (*model.AssignStaffResponse, error)
	Join(context.Context, *model.JoinCommunityRequest) (*model.JoinCommunityResponse, error)
	ChangeCommunity(context.Context, *model.ChangeCommunityRequest) (*model.ChangeCommunityResponse, error)
	UploadLogo(context.Context, *model.UploadCommunityLogoRequest) (*model.UploadCommunityLogoResponse, error)
}

type communityDomain struct {
	communityRepo         repository.CommunityRepository
	userRepo              repository.UserRepository
	ruleRepo              repository.RuleRepository
	globalRoleVerifier    *common.GlobalRoleVerifier
	communityRoleVerifier *common.CommunityRoleVerifier
	storage               storage.Storage
}

func NewCommunityDomain(
	communityRepo repository.CommunityRepository,
	userRepo repository.UserRepository,
	ruleRepo repository.RuleRepository,
	globalRoleVerifier *common.GlobalRoleVerifier,
	communityRoleVerifier *common.CommunityRoleVerifier,
	storage storage.Storage,
) *communityDomain {
	return &communityDomain{
		communityRepo:         communityRepo,
		userRepo:              userRepo,
		ruleRepo:              ruleRepo,
		globalRoleVerifier:    globalRoleVerifier,
		communityRoleVerifier: communityRoleVerifier,
		storage:               storage,
	}
}

func (d *communityDomain) Create(
	ctx context.Context, req *model.CreateCommunityRequest,
) (*model.CreateCommunityResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	if req.Name == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty name")
	}

	_, err := d.communityRepo.GetByName(ctx, req.Name)
	if err == nil {
		return nil, errorx.New(errorx.AlreadyExists, "Duplicated community name")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get community: %v", err)
		return nil, errorx.Unknown
	}

	community := &entity.Community{
		Base:      entity.Base{ID: uuid.NewString()},
		Name:      req.Name,
		Status:    entity.CommunityEnabled,
		CreatedBy: xcontext.RequestUserID(ctx),
	}

	if err := d.communityRepo.Create(ctx, community); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create community: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateCommunityResponse{ID: community.ID}, nil
}

func (d *communityDomain) Disable(
	ctx context.Context, req *model.DisableCommunityRequest,
) (*model.DisableCommunityResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	community, err := d.communityRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found community")
		}

		xcontext.Logger(ctx).Errorf("Cannot get community: %v", err)
		return nil, errorx.Unknown
	}

	if community.IsDefault || community.IsBlackhouse {
		return nil, errorx.New(errorx.Unavailable, "Cannot disable a system community")
	}

	if err := d.communityRepo.UpdateStatus(ctx, community.ID, entity.CommunityDisabled); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot disable community: %v", err)
		return nil, errorx.Unknown
	}

	return &model.DisableCommunityResponse{}, nil
}

func (d *communityDomain) GetList(
	ctx context.Context, req *model.GetCommunitiesRequest,
) (*model.GetCommunitiesResponse, error) {
	communities, err := d.communityRepo.GetList(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get communities: %v", err)
		return nil, errorx.Unknown
	}

	result := make([]model.Community, 0, len(communities))
	for i := range communities {
		result = append(result, model.ConvertCommunity(&communities[i]))
	}

	return &model.GetCommunitiesResponse{Communities: result}, nil
}

func (d *communityDomain) AssignStaff(
	ctx context.Context, req *model.AssignStaffRequest,
) (*model.AssignStaffResponse, error) {
	role, err := enum.ToEnum[entity.StaffRole](req.Role)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid role")
	}

	// Assigning a manager needs a global admin; a manager may add staff to
	// their own community.
	if role == entity.StaffRoleManager {
		err = d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...)
	} else {
		err = d.communityRoleVerifier.Verify(ctx, req.CommunityID, entity.StaffRoleManager)
	}
	if err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	if _, err := d.userRepo.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if role == entity.StaffRoleManager {
		_, err := d.communityRepo.GetManager(ctx, req.CommunityID)
		if err == nil {
			return nil, errorx.New(errorx.AlreadyExists, "Community already has a manager")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get manager: %v", err)
			return nil, errorx.Unknown
		}
	}

	err = d.communityRepo.AssignStaff(ctx, &entity.CommunityStaff{
		UserID:      req.UserID,
		CommunityID: req.CommunityID,
		Role:        role,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot assign staff: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(ctx)

	return &model.AssignStaffResponse{}, nil
}

func (d *communityDomain) Join(
	ctx context.Context, req *model.JoinCommunityRequest,
) (*model.JoinCommunityResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	if err := d.moveUser(ctx, userID, req.CommunityID); err != nil {
		return nil, err
	}

	return &model.JoinCommunityResponse{}, nil
}

func (d *communityDomain) ChangeCommunity(
	ctx context.Context, req *model.ChangeCommunityRequest,
) (*model.ChangeCommunityResponse, error) {
	if err := d.communityRoleVerifier.Verify(ctx, req.CommunityID, entity.StaffRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	if err := d.moveUser(ctx, req.UserID, req.CommunityID); err != nil {
		return nil, err
	}

	return &model.ChangeCommunityResponse{}, nil
}

// moveUser switches the user to another community: old rule mappings are
// deactivated before new ones activate, so at no point do both communities'
// rules apply.
func (d *communityDomain) moveUser(ctx context.Context, userID, communityID string) error {
	user, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return errorx.Unknown
	}

	community, err := d.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.NotFound, "Not found community")
		}

		xcontext.Logger(ctx).Errorf("Cannot get community: %v", err)
		return errorx.Unknown
	}

	if community.Status != entity.CommunityEnabled {
		return errorx.New(errorx.Unavailable, "Community is disabled")
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if user.CurrentCommunityID.Valid {
		if user.CurrentCommunityID.String == communityID {
			return nil
		}

		err = d.ruleRepo.DeactivateMappingsByCommunity(ctx, userID, user.CurrentCommunityID.String)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot deactivate rule mappings: %v", err)
			return errorx.Unknown
		}
	}

	rules, err := d.ruleRepo.GetActiveByCommunity(ctx, communityID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get community rules: %v", err)
		return errorx.Unknown
	}

	for i := range rules {
		if err := d.ruleRepo.UpsertMapping(ctx, userID, rules[i].ID, true); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create rule mapping: %v", err)
			return errorx.Unknown
		}
	}

	now := xcontext.Clock(ctx).Now()
	if err := d.userRepo.SetCommunity(ctx, userID, communityID, now); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot set community: %v", err)
		return errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(ctx)

	return nil
}

func (d *communityDomain) UploadLogo(
	ctx context.Context, req *model.UploadCommunityLogoRequest,
) (*model.UploadCommunityLogoResponse, error) {
	if err := d.communityRoleVerifier.Verify(ctx, req.CommunityID, entity.StaffRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	resp, err := common.ProcessImage(ctx, d.storage, "image", "logos", common.LogoSize)
	if err != nil {
		return nil, err
	}

	if err := d.communityRepo.UpdateLogo(ctx, req.CommunityID, resp.URL); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update logo: %v", err)
		return nil, errorx.Unknown
	}

	return &model.UploadCommunityLogoResponse{URL: resp.URL}, nil
}
