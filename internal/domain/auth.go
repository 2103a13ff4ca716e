package domain

import (
	"context"
	"database/sql"
	"errors"
	"net"

	"github.com/checkin-lab/backend/internal/common"
	"github.com/checkin-lab/backend/internal/domain/verification"
	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/internal/model"
	"github.com/checkin-lab/backend/internal/repository"
	"github.com/checkin-lab/backend/pkg/crypto"
	"github.com/checkin-lab/backend/pkg/enum"
	"github.com/checkin-lab/backend/pkg/errorx"
	"github.com/checkin-lab/backend/pkg/token"
	"github.com/checkin-lab/backend/pkg/wechat"
	"github.com/checkin-lab/backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthDomain interface {
	RequestCode(context.Context, *model.RequestCodeRequest) (*model.RequestCodeResponse, error)
	PhoneRegister(context.Context, *model.PhoneRegisterRequest) (*model.PhoneRegisterResponse, error)
	PhoneLogin(context.Context, *model.PhoneLoginRequest) (*model.PhoneLoginResponse, error)
	PasswordLogin(context.Context, *model.PasswordLoginRequest) (*model.PasswordLoginResponse, error)
	WeChatLogin(context.Context, *model.WeChatLoginRequest) (*model.WeChatLoginResponse, error)
	BindPhone(context.Context, *model.BindPhoneRequest) (*model.BindPhoneResponse, error)
}

type authDomain struct {
	userRepo      repository.UserRepository
	communityRepo repository.CommunityRepository
	ruleRepo      repository.RuleRepository
	verification  *verification.Service
	tokenEngine   token.Engine
	wechat        wechat.IdentityProvider
}

func NewAuthDomain(
	userRepo repository.UserRepository,
	communityRepo repository.CommunityRepository,
	ruleRepo repository.RuleRepository,
	verification *verification.Service,
	tokenEngine token.Engine,
	wechat wechat.IdentityProvider,
) *authDomain {
	return &authDomain{
		userRepo:      userRepo,
		communityRepo: communityRepo,
		ruleRepo:      ruleRepo,
		verification:  verification,
		tokenEngine:   tokenEngine,
		wechat:        wechat,
	}
}

func (d *authDomain) RequestCode(
	ctx context.Context, req *model.RequestCodeRequest,
) (*model.RequestCodeResponse, error) {
	if !common.IsValidPhone(req.Phone) {
		return nil, errorx.New(errorx.BadRequest, "Invalid phone number")
	}

	purpose, err := enum.ToEnum[entity.VerificationPurpose](req.Purpose)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid purpose")
	}

	if _, err := d.verification.Issue(ctx, req.Phone, requestIP(ctx), purpose); err != nil {
		var rateErr errorx.RateLimitError
		if errors.As(err, &rateErr) {
			return nil, err
		}

		xcontext.Logger(ctx).Errorf("Cannot issue verification code: %v", err)
		return nil, errorx.Unknown
	}

	return &model.RequestCodeResponse{}, nil
}

func (d *authDomain) PhoneRegister(
	ctx context.Context, req *model.PhoneRegisterRequest,
) (*model.PhoneRegisterResponse, error) {
	if !common.IsValidPhone(req.Phone) {
		return nil, errorx.New(errorx.BadRequest, "Invalid phone number")
	}

	ok, err := d.verification.Verify(ctx, req.Phone, req.Code,
		[]entity.VerificationPurpose{entity.PurposeRegister})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot verify code: %v", err)
		return nil, errorx.Unknown
	}

	if !ok {
		return nil, errorx.New(errorx.CodeInvalid, "Invalid verification code")
	}

	phoneHash := crypto.HashPhone(req.Phone, xcontext.Configs(ctx).Auth.PhonePepper)
	if _, err := d.userRepo.GetByPhoneHash(ctx, phoneHash); err == nil {
		return nil, errorx.New(errorx.AlreadyExists, "Phone number is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	user := &entity.User{
		Base:        entity.Base{ID: uuid.NewString()},
		Name:        req.Name,
		PhoneHash:   sql.NullString{String: phoneHash, Valid: true},
		PhoneMasked: common.MaskPhone(req.Phone),
		Role:        entity.RoleNormal,
		Verified:    true,
	}

	if user.Name == "" {
		user.Name = "user_" + crypto.GenerateRandomAlphabet(8)
	}

	if req.Password != "" {
		salt := crypto.GenerateSalt()
		hash, err := crypto.HashPassword(req.Password, salt)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot hash password: %v", err)
			return nil, errorx.Unknown
		}

		user.PasswordSalt = salt
		user.PasswordHash = hash
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.userRepo.Create(ctx, user); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create user: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.joinDefaultCommunity(ctx, user.ID); err != nil {
		return nil, err
	}

	xcontext.WithCommitDBTransaction(ctx)

	return &model.PhoneRegisterResponse{
		AccessToken: d.generateAccessToken(ctx, user),
		User:        model.ConvertUser(user),
	}, nil
}

func (d *authDomain) PhoneLogin(
	ctx context.Context, req *model.PhoneLoginRequest,
) (*model.PhoneLoginResponse, error) {
	if !common.IsValidPhone(req.Phone) {
		return nil, errorx.New(errorx.BadRequest, "Invalid phone number")
	}

	// A code issued for registration also logs in, so a client who registered
	// moments ago is not forced through another SMS.
	ok, err := d.verification.Verify(ctx, req.Phone, req.Code,
		[]entity.VerificationPurpose{entity.PurposeLogin, entity.PurposeRegister})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot verify code: %v", err)
		return nil, errorx.Unknown
	}

	if !ok {
		return nil, errorx.New(errorx.CodeInvalid, "Invalid verification code")
	}

	phoneHash := crypto.HashPhone(req.Phone, xcontext.Configs(ctx).Auth.PhonePepper)
	user, err := d.userRepo.GetByPhoneHash(ctx, phoneHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	return &model.PhoneLoginResponse{
		AccessToken: d.generateAccessToken(ctx, user),
		User:        model.ConvertUser(user),
	}, nil
}

func (d *authDomain) PasswordLogin(
	ctx context.Context, req *model.PasswordLoginRequest,
) (*model.PasswordLoginResponse, error) {
	if !common.IsValidPhone(req.Phone) {
		return nil, errorx.New(errorx.BadRequest, "Invalid phone number")
	}

	phoneHash := crypto.HashPhone(req.Phone, xcontext.Configs(ctx).Auth.PhonePepper)
	user, err := d.userRepo.GetByPhoneHash(ctx, phoneHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.Unauthenticated, "Invalid phone or password")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	if user.PasswordHash == "" || !crypto.VerifyPassword(req.Password, user.PasswordSalt, user.PasswordHash) {
		return nil, errorx.New(errorx.Unauthenticated, "Invalid phone or password")
	}

	return &model.PasswordLoginResponse{
		AccessToken: d.generateAccessToken(ctx, user),
		User:        model.ConvertUser(user),
	}, nil
}

func (d *authDomain) WeChatLogin(
	ctx context.Context, req *model.WeChatLoginRequest,
) (*model.WeChatLoginResponse, error) {
	openID, err := d.wechat.GetOpenID(ctx, req.Code)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot resolve openid: %v", err)
		return nil, errorx.New(errorx.Unauthenticated, "Invalid login code")
	}

	user, err := d.userRepo.GetByOpenID(ctx, openID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
			return nil, errorx.Unknown
		}

		// First login creates the account.
		user = &entity.User{
			Base:   entity.Base{ID: uuid.NewString()},
			Name:   "user_" + crypto.GenerateRandomAlphabet(8),
			OpenID: sql.NullString{String: openID, Valid: true},
			Role:   entity.RoleNormal,
		}

		ctx = xcontext.WithDBTransaction(ctx)
		defer xcontext.WithRollbackDBTransaction(ctx)

		if err := d.userRepo.Create(ctx, user); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create user: %v", err)
			return nil, errorx.Unknown
		}

		if err := d.joinDefaultCommunity(ctx, user.ID); err != nil {
			return nil, err
		}

		xcontext.WithCommitDBTransaction(ctx)
	}

	return &model.WeChatLoginResponse{
		AccessToken: d.generateAccessToken(ctx, user),
		User:        model.ConvertUser(user),
	}, nil
}

func (d *authDomain) BindPhone(
	ctx context.Context, req *model.BindPhoneRequest,
) (*model.BindPhoneResponse, error) {
	if !common.IsValidPhone(req.Phone) {
		return nil, errorx.New(errorx.BadRequest, "Invalid phone number")
	}

	userID := xcontext.RequestUserID(ctx)
	user, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	if user.PhoneHash.Valid {
		return nil, errorx.New(errorx.AlreadyExists, "Account already has a phone number")
	}

	ok, err := d.verification.Verify(ctx, req.Phone, req.Code,
		[]entity.VerificationPurpose{entity.PurposeBind})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot verify code: %v", err)
		return nil, errorx.Unknown
	}

	if !ok {
		return nil, errorx.New(errorx.CodeInvalid, "Invalid verification code")
	}

	phoneHash := crypto.HashPhone(req.Phone, xcontext.Configs(ctx).Auth.PhonePepper)
	if _, err := d.userRepo.GetByPhoneHash(ctx, phoneHash); err == nil {
		return nil, errorx.New(errorx.AlreadyExists, "Phone number is already bound")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	err = d.userRepo.BindPhone(ctx, userID, phoneHash, common.MaskPhone(req.Phone))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot bind phone: %v", err)
		return nil, errorx.Unknown
	}

	return &model.BindPhoneResponse{}, nil
}

// joinDefaultCommunity puts a fresh account into the default community and
// activates its rules. Must run inside the caller's transaction.
func (d *authDomain) joinDefaultCommunity(ctx context.Context, userID string) error {
	community, err := d.communityRepo.GetDefault(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get default community: %v", err)
		return errorx.Unknown
	}

	rules, err := d.ruleRepo.GetActiveByCommunity(ctx, community.ID)
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
	if err := d.userRepo.SetCommunity(ctx, userID, community.ID, now); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot set community: %v", err)
		return errorx.Unknown
	}

	return nil
}

func (d *authDomain) generateAccessToken(ctx context.Context, user *entity.User) string {
	cfg := xcontext.Configs(ctx).Auth
	t, err := d.tokenEngine.Generate(cfg.AccessToken.Expiration, model.AccessToken{
		ID:   user.ID,
		Name: user.Name,
		Role: string(user.Role),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate access token: %v", err)
		return ""
	}

	return t
}

func requestIP(ctx context.Context) string {
	req := xcontext.HTTPRequest(ctx)
	if req == nil {
		return ""
	}

	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}

	return host
}
