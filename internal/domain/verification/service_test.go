package verification

import (
	"testing"
	"time"

	"github.com/checkin-lab/backend/internal/domain/ratelimit"
	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/internal/repository"
	"github.com/checkin-lab/backend/pkg/clock"
	"github.com/checkin-lab/backend/pkg/errorx"
	"github.com/checkin-lab/backend/pkg/sms"
	"github.com/checkin-lab/backend/pkg/testutil"
	"github.com/checkin-lab/backend/pkg/xcontext"

	"github.com/stretchr/testify/require"
)

const (
	testPhone = "13900139000"
	testIP    = "10.0.0.1"
)

func newTestService() (*Service, *sms.MockSender) {
	sender := sms.NewMockSender()
	service := NewService(
		repository.NewVerificationCodeRepository(),
		ratelimit.NewLimiter(ratelimit.NewMemoryStore()),
		sender,
	)
	return service, sender
}

func TestService_IssueAndVerify(t *testing.T) {
	ctx := testutil.NewMockContext()
	service, sender := newTestService()

	code, err := service.Issue(ctx, testPhone, testIP, entity.PurposeRegister)
	require.NoError(t, err)
	require.Len(t, code, 6)
	require.Equal(t, code, sender.Sent[testPhone])

	ok, err := service.Verify(ctx, testPhone, code,
		[]entity.VerificationPurpose{entity.PurposeRegister})
	require.NoError(t, err)
	require.True(t, ok)

	// The code is single-use.
	ok, err = service.Verify(ctx, testPhone, code,
		[]entity.VerificationPurpose{entity.PurposeRegister})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestService_Verify_wrongCode(t *testing.T) {
	ctx := testutil.NewMockContext()
	service, _ := newTestService()

	code, err := service.Issue(ctx, testPhone, testIP, entity.PurposeLogin)
	require.NoError(t, err)

	ok, err := service.Verify(ctx, testPhone, "000001",
		[]entity.VerificationPurpose{entity.PurposeLogin})
	require.NoError(t, err)
	require.False(t, ok)

	// A failed attempt does not consume the code.
	ok, err = service.Verify(ctx, testPhone, code,
		[]entity.VerificationPurpose{entity.PurposeLogin})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestService_Verify_expired(t *testing.T) {
	ctx := testutil.NewMockContext()
	service, _ := newTestService()

	code, err := service.Issue(ctx, testPhone, testIP, entity.PurposeLogin)
	require.NoError(t, err)

	xcontext.Clock(ctx).(*clock.Mock).Advance(6 * time.Minute)

	ok, err := service.Verify(ctx, testPhone, code,
		[]entity.VerificationPurpose{entity.PurposeLogin})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestService_Verify_purposeSets(t *testing.T) {
	ctx := testutil.NewMockContext()
	service, _ := newTestService()

	code, err := service.Issue(ctx, testPhone, testIP, entity.PurposeRegister)
	require.NoError(t, err)

	// A register code is not valid for binding.
	ok, err := service.Verify(ctx, testPhone, code,
		[]entity.VerificationPurpose{entity.PurposeBind})
	require.NoError(t, err)
	require.False(t, ok)

	// But login accepts register codes.
	ok, err = service.Verify(ctx, testPhone, code,
		[]entity.VerificationPurpose{entity.PurposeLogin, entity.PurposeRegister})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestService_Issue_replacesPriorCode(t *testing.T) {
	ctx := testutil.NewMockContext()
	service, _ := newTestService()

	first, err := service.Issue(ctx, testPhone, testIP, entity.PurposeLogin)
	require.NoError(t, err)

	second, err := service.Issue(ctx, testPhone, testIP, entity.PurposeLogin)
	require.NoError(t, err)

	purposes := []entity.VerificationPurpose{entity.PurposeLogin}
	if first != second {
		ok, err := service.Verify(ctx, testPhone, first, purposes)
		require.NoError(t, err)
		require.False(t, ok)
	}

	ok, err := service.Verify(ctx, testPhone, second, purposes)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestService_Issue_rateLimited(t *testing.T) {
	ctx := testutil.NewMockContext()
	service, _ := newTestService()

	// The per-phone hourly budget is three.
	for i := 0; i < 3; i++ {
		_, err := service.Issue(ctx, testPhone, testIP, entity.PurposeLogin)
		require.NoError(t, err)
	}

	_, err := service.Issue(ctx, testPhone, testIP, entity.PurposeLogin)
	var rateErr errorx.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	require.Equal(t, ratelimit.DimensionPhoneHour, rateErr.Dimension)
	require.Equal(t, 3, rateErr.Limit)
	require.True(t, rateErr.RetryAfter > 0 && rateErr.RetryAfter <= time.Hour)

	// Another phone is unaffected.
	_, err = service.Issue(ctx, "13700137000", testIP, entity.PurposeLogin)
	require.NoError(t, err)

	// The window resets.
	xcontext.Clock(ctx).(*clock.Mock).Advance(time.Hour)
	_, err = service.Issue(ctx, testPhone, testIP, entity.PurposeLogin)
	require.NoError(t, err)
}

func TestService_Verify_mockMode(t *testing.T) {
	ctx := testutil.NewMockContext()

	cfg := testutil.MockConfigs()
	cfg.Verification.UseMockSms = true
	ctx = xcontext.WithConfigs(ctx, cfg)

	service, _ := newTestService()

	ok, err := service.Verify(ctx, testPhone, "424242",
		[]entity.VerificationPurpose{entity.PurposeLogin})
	require.NoError(t, err)
	require.True(t, ok)

	for _, rejected := range []string{"000000", "999999", "", "  "} {
		ok, err := service.Verify(ctx, testPhone, rejected,
			[]entity.VerificationPurpose{entity.PurposeLogin})
		require.NoError(t, err)
		require.False(t, ok)
	}
}
