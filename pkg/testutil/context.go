package testutil

import (
	"context"
	"time"

	"github.com/checkin-lab/backend/config"
	"github.com/checkin-lab/backend/pkg/clock"
	"github.com/checkin-lab/backend/pkg/logger"
	"github.com/checkin-lab/backend/pkg/xcontext"
)

// MockTime is the instant every mock clock starts at, a Wednesday morning.
var MockTime = time.Date(2023, time.June, 14, 10, 0, 0, 0, time.Local)

func MockConfigs() config.Configs {
	return config.Configs{
		Env: "testing",
		Auth: config.AuthConfigs{
			TokenSecret: "secret",
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: time.Hour,
			},
			PhonePepper: "pepper",
		},
		Checkin: config.CheckinConfigs{
			CancelWindow:  30 * time.Minute,
			SweepInterval: 5 * time.Minute,
			Grace:         0,
		},
		Verification: config.VerificationConfigs{
			CodeTTL:    5 * time.Minute,
			CodeLength: 6,
		},
		Supervision: config.SupervisionConfigs{
			InviteTTL: 24 * time.Hour,
		},
		SmsLimits: config.DefaultSmsLimits(),
	}
}

// NewMockContext builds a context backed by an in-memory sqlite database with
// fixtures loaded, a frozen clock, and a silent logger.
func NewMockContext() context.Context {
	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, MockConfigs())
	ctx = xcontext.WithLogger(ctx, logger.NewSilence())
	ctx = xcontext.WithDB(ctx, CreateFixtureDb())
	ctx = xcontext.WithClock(ctx, clock.NewMock(MockTime))
	return ctx
}

func NewMockContextWithUserID(userID string) context.Context {
	return xcontext.WithRequestUserID(NewMockContext(), userID)
}
