package domain

import (
	"context"

	"github.com/checkin-lab/backend/internal/model"
	"github.com/checkin-lab/backend/internal/repository"
	"github.com/checkin-lab/backend/pkg/errorx"
	"github.com/checkin-lab/backend/pkg/xcontext"
)

type UserDomain interface {
	GetMe(context.Context, *model.GetMeRequest) (*model.GetMeResponse, error)
	UpdateName(context.Context, *model.UpdateNameRequest) (*model.UpdateNameResponse, error)
}

type userDomain struct {
	userRepo repository.UserRepository
}

func NewUserDomain(userRepo repository.UserRepository) *userDomain {
	return &userDomain{userRepo: userRepo}
}

func (d *userDomain) GetMe(
	ctx context.Context, req *model.GetMeRequest,
) (*model.GetMeResponse, error) {
	user, err := d.userRepo.GetByID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	resp := model.GetMeResponse(model.ConvertUser(user))
	return &resp, nil
}

func (d *userDomain) UpdateName(
	ctx context.Context, req *model.UpdateNameRequest,
) (*model.UpdateNameResponse, error) {
	if req.Name == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty name")
	}

	if err := d.userRepo.UpdateName(ctx, xcontext.RequestUserID(ctx), req.Name); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update name: %v", err)
		return nil, errorx.Unknown
	}

	return &model.UpdateNameResponse{}, nil
}
