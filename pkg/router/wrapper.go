package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/checkin-lab/backend/pkg/errorx"
	"github.com/checkin-lab/backend/pkg/xcontext"
	"github.com/gin-gonic/gin"
)

type binderFunc[Request any] func(*gin.Context, *Request) error

func bindQuery[Request any](ginCtx *gin.Context, req *Request) error {
	return ginCtx.ShouldBindQuery(req)
}

func bindJSON[Request any](ginCtx *gin.Context, req *Request) error {
	if ginCtx.Request.ContentLength == 0 {
		return nil
	}

	return ginCtx.ShouldBindJSON(req)
}

func wrapHandler[Request, Response any](
	r *Router,
	handler HandlerFunc[Request, Response],
	binder binderFunc[Request],
) gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		ctx := ginCtx.Request.Context()
		ctx = xcontext.WithConfigs(ctx, r.cfg)
		ctx = xcontext.WithLogger(ctx, r.logger)
		ctx = xcontext.WithDB(ctx, r.db)
		ctx = xcontext.WithHTTPRequest(ctx, ginCtx.Request)
		ctx = xcontext.WithStartTime(ctx, time.Now())
		ctx = xcontext.WithErrorHolder(ctx)

		defer func() {
			for _, closer := range r.afters {
				closer(ctx)
			}
		}()

		var req Request
		if err := binder(ginCtx, &req); err != nil {
			writeError(ginCtx, ctx, errorx.New(errorx.BadRequest, "Cannot bind the request"))
			return
		}

		for _, middleware := range r.befores {
			newCtx, err := middleware(ctx)
			if err != nil {
				writeError(ginCtx, ctx, err)
				return
			}

			if newCtx != nil {
				ctx = newCtx
			}
		}

		resp, err := handler(ctx, &req)
		if err != nil {
			writeError(ginCtx, ctx, err)
			return
		}

		ginCtx.JSON(http.StatusOK, newResponse(resp))
	}
}

func writeError(ginCtx *gin.Context, ctx context.Context, err error) {
	xcontext.SetError(ctx, err)

	status := http.StatusOK
	var rateErr errorx.RateLimitError
	if errors.As(err, &rateErr) {
		status = http.StatusTooManyRequests
		ginCtx.Header("Retry-After", fmt.Sprint(int(rateErr.RetryAfter.Seconds())))
	}

	ginCtx.JSON(status, newErrorResponse(err))
}
