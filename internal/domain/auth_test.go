package domain

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/checkin-lab/backend/internal/domain/ratelimit"
	"github.com/checkin-lab/backend/internal/domain/verification"
	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/internal/model"
	"github.com/checkin-lab/backend/internal/repository"
	"github.com/checkin-lab/backend/pkg/errorx"
	"github.com/checkin-lab/backend/pkg/sms"
	"github.com/checkin-lab/backend/pkg/testutil"
	"github.com/checkin-lab/backend/pkg/token"
	"github.com/checkin-lab/backend/pkg/wechat"
	"github.com/checkin-lab/backend/pkg/xcontext"

	"github.com/stretchr/testify/require"
)

const newPhone = "13912345678"

func newAuthDomain(wechatProvider wechat.IdentityProvider) (*authDomain, *sms.MockSender) {
	sender := sms.NewMockSender()
	verificationService := verification.NewService(
		repository.NewVerificationCodeRepository(),
		ratelimit.NewLimiter(ratelimit.NewMemoryStore()),
		sender,
	)

	if wechatProvider == nil {
		wechatProvider = wechat.NewMockProvider()
	}

	domain := NewAuthDomain(
		repository.NewUserRepository(),
		repository.NewCommunityRepository(),
		repository.NewRuleRepository(),
		verificationService,
		token.NewEngine("secret"),
		wechatProvider,
	)
	return domain, sender
}

func Test_authDomain_RequestCode(t *testing.T) {
	ctx := testutil.NewMockContext()
	domain, sender := newAuthDomain(nil)

	_, err := domain.RequestCode(ctx, &model.RequestCodeRequest{
		Phone:   newPhone,
		Purpose: string(entity.PurposeRegister),
	})
	require.NoError(t, err)
	require.NotEmpty(t, sender.Sent[newPhone])

	_, err = domain.RequestCode(ctx, &model.RequestCodeRequest{
		Phone:   "12345",
		Purpose: string(entity.PurposeRegister),
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.BadRequest, errx.Code)

	_, err = domain.RequestCode(ctx, &model.RequestCodeRequest{
		Phone:   newPhone,
		Purpose: "unsubscribe",
	})
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.BadRequest, errx.Code)
}

func Test_authDomain_RequestCode_rateLimited(t *testing.T) {
	ctx := testutil.NewMockContext()
	domain, _ := newAuthDomain(nil)

	for i := 0; i < 3; i++ {
		_, err := domain.RequestCode(ctx, &model.RequestCodeRequest{
			Phone:   newPhone,
			Purpose: string(entity.PurposeLogin),
		})
		require.NoError(t, err)
	}

	// The rate limit error carries its retry metadata to the caller instead
	// of collapsing into an internal error.
	_, err := domain.RequestCode(ctx, &model.RequestCodeRequest{
		Phone:   newPhone,
		Purpose: string(entity.PurposeLogin),
	})
	var rateErr errorx.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	require.Equal(t, ratelimit.DimensionPhoneHour, rateErr.Dimension)
}

func Test_authDomain_PhoneRegisterAndLogin(t *testing.T) {
	ctx := testutil.NewMockContext()
	domain, sender := newAuthDomain(nil)

	_, err := domain.RequestCode(ctx, &model.RequestCodeRequest{
		Phone:   newPhone,
		Purpose: string(entity.PurposeRegister),
	})
	require.NoError(t, err)

	resp, err := domain.PhoneRegister(ctx, &model.PhoneRegisterRequest{
		Phone:    newPhone,
		Code:     sender.Sent[newPhone],
		Name:     "New User",
		Password: "hunter22",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, "New User", resp.User.Name)
	require.Equal(t, "139****5678", resp.User.Phone)
	require.True(t, resp.User.Verified)

	// Fresh accounts land in the default community with its rules active.
	require.Equal(t, testutil.Community1.ID, resp.User.CurrentCommunityID)

	var mapping entity.UserCommunityRuleMapping
	tx := xcontext.DB(ctx).Take(&mapping,
		"user_id=? AND community_rule_id=?", resp.User.ID, testutil.CommunityRule1.ID)
	require.NoError(t, tx.Error)
	require.True(t, mapping.IsActive)

	// The raw phone number must not appear anywhere in the user row.
	var user entity.User
	tx = xcontext.DB(ctx).Take(&user, "id=?", resp.User.ID)
	require.NoError(t, tx.Error)
	require.NotContains(t, user.PhoneHash.String, newPhone)
	require.NotEqual(t, newPhone, user.PhoneMasked)

	// The register code also logs in.
	_, err = domain.RequestCode(ctx, &model.RequestCodeRequest{
		Phone:   newPhone,
		Purpose: string(entity.PurposeRegister),
	})
	require.NoError(t, err)

	loginResp, err := domain.PhoneLogin(ctx, &model.PhoneLoginRequest{
		Phone: newPhone,
		Code:  sender.Sent[newPhone],
	})
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, loginResp.User.ID)

	// And so does the password.
	passwordResp, err := domain.PasswordLogin(ctx, &model.PasswordLoginRequest{
		Phone:    newPhone,
		Password: "hunter22",
	})
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, passwordResp.User.ID)
}

func Test_authDomain_PhoneRegister_duplicate(t *testing.T) {
	ctx := testutil.NewMockContext()
	domain, sender := newAuthDomain(nil)

	// User1's phone from the fixtures.
	registered := "13800138000"

	_, err := domain.RequestCode(ctx, &model.RequestCodeRequest{
		Phone:   registered,
		Purpose: string(entity.PurposeRegister),
	})
	require.NoError(t, err)

	_, err = domain.PhoneRegister(ctx, &model.PhoneRegisterRequest{
		Phone: registered,
		Code:  sender.Sent[registered],
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.AlreadyExists, errx.Code)
}

func Test_authDomain_PhoneRegister_badCode(t *testing.T) {
	ctx := testutil.NewMockContext()
	domain, _ := newAuthDomain(nil)

	_, err := domain.PhoneRegister(ctx, &model.PhoneRegisterRequest{
		Phone: newPhone,
		Code:  "123456",
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.CodeInvalid, errx.Code)
}

func Test_authDomain_PasswordLogin_failures(t *testing.T) {
	ctx := testutil.NewMockContext()
	domain, _ := newAuthDomain(nil)

	// Unknown phone and wrong password produce the same answer.
	_, err := domain.PasswordLogin(ctx, &model.PasswordLoginRequest{
		Phone:    newPhone,
		Password: "whatever",
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.Unauthenticated, errx.Code)

	// User1 has no password set.
	_, err = domain.PasswordLogin(ctx, &model.PasswordLoginRequest{
		Phone:    "13800138000",
		Password: "whatever",
	})
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.Unauthenticated, errx.Code)
}

func Test_authDomain_WeChatLogin(t *testing.T) {
	ctx := testutil.NewMockContext()
	provider := wechat.NewMockProvider()
	provider.OpenIDs["good-code"] = "openid-1"
	domain, _ := newAuthDomain(provider)

	// First login creates the account.
	resp, err := domain.WeChatLogin(ctx, &model.WeChatLoginRequest{Code: "good-code"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, testutil.Community1.ID, resp.User.CurrentCommunityID)
	require.False(t, resp.User.Verified)

	// Subsequent logins reuse it.
	again, err := domain.WeChatLogin(ctx, &model.WeChatLoginRequest{Code: "good-code"})
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, again.User.ID)

	var count int64
	tx := xcontext.DB(ctx).Model(&entity.User{}).Where("open_id=?", "openid-1").Count(&count)
	require.NoError(t, tx.Error)
	require.Equal(t, int64(1), count)

	_, err = domain.WeChatLogin(ctx, &model.WeChatLoginRequest{Code: "bad-code"})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.Unauthenticated, errx.Code)
}

func Test_authDomain_BindPhone(t *testing.T) {
	ctx := testutil.NewMockContext()
	provider := wechat.NewMockProvider()
	provider.OpenIDs["good-code"] = "openid-1"
	domain, sender := newAuthDomain(provider)

	resp, err := domain.WeChatLogin(ctx, &model.WeChatLoginRequest{Code: "good-code"})
	require.NoError(t, err)

	ctx = xcontext.WithRequestUserID(ctx, resp.User.ID)

	_, err = domain.RequestCode(ctx, &model.RequestCodeRequest{
		Phone:   newPhone,
		Purpose: string(entity.PurposeBind),
	})
	require.NoError(t, err)

	_, err = domain.BindPhone(ctx, &model.BindPhoneRequest{
		Phone: newPhone,
		Code:  sender.Sent[newPhone],
	})
	require.NoError(t, err)

	var user entity.User
	tx := xcontext.DB(ctx).Take(&user, "id=?", resp.User.ID)
	require.NoError(t, tx.Error)
	require.True(t, user.PhoneHash.Valid)
	require.True(t, user.Verified)
	require.Equal(t, "139****5678", user.PhoneMasked)

	// Binding a second number is rejected.
	_, err = domain.BindPhone(ctx, &model.BindPhoneRequest{
		Phone: "13700137000",
		Code:  "123456",
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.AlreadyExists, errx.Code)
}

func Test_authDomain_BindPhone_alreadyBoundElsewhere(t *testing.T) {
	ctx := testutil.NewMockContext()
	provider := wechat.NewMockProvider()
	provider.OpenIDs["good-code"] = "openid-1"
	domain, sender := newAuthDomain(provider)

	resp, err := domain.WeChatLogin(ctx, &model.WeChatLoginRequest{Code: "good-code"})
	require.NoError(t, err)

	ctx = xcontext.WithRequestUserID(ctx, resp.User.ID)

	// User1 already owns this number.
	registered := "13800138000"
	_, err = domain.RequestCode(ctx, &model.RequestCodeRequest{
		Phone:   registered,
		Purpose: string(entity.PurposeBind),
	})
	require.NoError(t, err)

	_, err = domain.BindPhone(ctx, &model.BindPhoneRequest{
		Phone: registered,
		Code:  sender.Sent[registered],
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.AlreadyExists, errx.Code)
}

func Test_requestIP(t *testing.T) {
	// Cron jobs and tests carry no HTTP request in their context.
	require.Empty(t, requestIP(testutil.NewMockContext()))

	req := httptest.NewRequest(http.MethodPost, "/requestCode", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	ctx := xcontext.WithHTTPRequest(testutil.NewMockContext(), req)
	require.Equal(t, "203.0.113.7", requestIP(ctx))

	req.Header.Set("X-Forwarded-For", "198.51.100.9")
	require.Equal(t, "198.51.100.9", requestIP(ctx))
}
