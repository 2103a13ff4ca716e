package router

import (
	"errors"

	"github.com/checkin-lab/backend/pkg/errorx"
)

type response struct {
	Code  int64  `json:"code"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func newResponse(data any) response {
	return response{
		Code: 0,
		Data: data,
	}
}

func newErrorResponse(err error) response {
	var rateErr errorx.RateLimitError
	if errors.As(err, &rateErr) {
		return response{
			Code:  int64(errorx.TooManyRequests),
			Error: rateErr.Error(),
		}
	}

	var errx errorx.Error
	if errors.As(err, &errx) {
		return response{
			Code:  int64(errx.Code),
			Error: errx.Message,
		}
	}

	return response{
		Code:  int64(errorx.Unknown.Code),
		Error: errorx.Unknown.Message,
	}
}
