package middleware

import (
	"context"
	"strings"

	"github.com/checkin-lab/backend/internal/model"
	"github.com/checkin-lab/backend/pkg/errorx"
	"github.com/checkin-lab/backend/pkg/router"
	"github.com/checkin-lab/backend/pkg/token"
	"github.com/checkin-lab/backend/pkg/xcontext"
)

// ParseAccessToken resolves the bearer token (or access-token cookie) into the
// request user id. Missing or invalid tokens leave the request anonymous.
func ParseAccessToken(engine token.Engine) router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		raw := extractAccessToken(ctx)
		if raw == "" {
			return nil, nil
		}

		var accessToken model.AccessToken
		if err := engine.Verify(raw, &accessToken); err != nil {
			xcontext.Logger(ctx).Debugf("Cannot verify access token: %v", err)
			return nil, nil
		}

		return xcontext.WithRequestUserID(ctx, accessToken.ID), nil
	}
}

// Authenticate rejects anonymous requests. Register after ParseAccessToken.
func Authenticate() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		if xcontext.RequestUserID(ctx) == "" {
			return nil, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
		}

		return nil, nil
	}
}

func extractAccessToken(ctx context.Context) string {
	req := xcontext.HTTPRequest(ctx)

	authorization := req.Header.Get("Authorization")
	if auth, t, found := strings.Cut(authorization, " "); found {
		if auth == "Bearer" {
			return t
		}

		return ""
	}

	cookie, err := req.Cookie(xcontext.Configs(ctx).Auth.AccessToken.Name)
	if err != nil {
		return ""
	}

	return cookie.Value
}
