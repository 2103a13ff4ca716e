// Package router wraps gin with typed handlers working on plain
// context.Context. Requests are bound into a request struct, handlers return
// a response struct or an error, and every reply is wrapped into the standard
// envelope.
package router

import (
	"context"
	"net/http"

	"github.com/checkin-lab/backend/config"
	"github.com/checkin-lab/backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before the handler. A non-nil returned context replaces
// the request context; a non-nil error aborts the request.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// CloserFunc runs after the response is written, with the handler's error (if
// any) available through xcontext.Error.
type CloserFunc func(ctx context.Context)

type Router struct {
	inner gin.IRouter

	cfg    config.Configs
	logger logger.Logger
	db     *gorm.DB

	befores []MiddlewareFunc
	afters  []CloserFunc
}

func New(db *gorm.DB, cfg config.Configs, logger logger.Logger) *Router {
	gin.SetMode(gin.ReleaseMode)
	return &Router{inner: gin.New(), cfg: cfg, logger: logger, db: db}
}

func (r *Router) Before(middleware MiddlewareFunc) {
	r.befores = append(r.befores, middleware)
}

func (r *Router) After(closer CloserFunc) {
	r.afters = append(r.afters, closer)
}

func (r *Router) Branch() *Router {
	clone := &Router{
		inner:  r.inner,
		cfg:    r.cfg,
		logger: r.logger,
		db:     r.db,
	}

	clone.befores = append(clone.befores, r.befores...)
	clone.afters = append(clone.afters, r.afters...)
	return clone
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.GET(pattern, wrapHandler(r, handler, bindQuery[Request]))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.POST(pattern, wrapHandler(r, handler, bindJSON[Request]))
}

func (r *Router) Handler() http.Handler {
	return r.inner.(*gin.Engine)
}
