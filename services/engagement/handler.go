package engagement

import (
	"net/http"
	"strconv"

	"github.com/CleanExpo/LocalLift-sub000/pkg/authz"
	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const resource = "engagement"

type Handler struct {
	svc      *Service
	enforcer *authz.Enforcer
}

func NewHandler(svc *Service, enforcer *authz.Enforcer) *Handler {
	return &Handler{svc: svc, enforcer: enforcer}
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	g := r.Group("/engagement")
	g.GET("/:client_id/reports", h.enforcer.RequireSelfOr("client_id", resource, authz.ActRead), h.history)
	g.POST("/:client_id/reports", h.enforcer.RequireSelfOr("client_id", resource, authz.ActWrite), h.generate)
	g.GET("/reports/:id", h.get)
	g.POST("/reports/:id/viewed", h.viewed)
}

func (h *Handler) history(c *gin.Context) {
	limit := DefaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 52 {
			_ = c.Error(errutil.Invalid("limit must be between 1 and 52", err))
			return
		}
		limit = n
	}

	rows, err := h.svc.History(c.Request.Context(), c.Param("client_id"), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) generate(c *gin.Context) {
	rep, err := h.svc.Generate(c.Request.Context(), c.Param("client_id"), c.Query("week"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// owned loads the report and checks the caller is its client or holds read
// access to engagement data.
func (h *Handler) owned(c *gin.Context) (*Report, bool) {
	p, ok := authz.PrincipalFrom(c)
	if !ok {
		_ = c.Error(errutil.Unauthorized("missing caller principal", nil))
		return nil, false
	}

	rep, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return nil, false
	}
	if rep.ClientID == p.ID {
		return rep, true
	}

	allowed, err := h.enforcer.Allowed(p, resource, authz.ActRead)
	if err != nil {
		zap.L().Error("authorization check failed", zap.Error(err))
		_ = c.Error(errutil.Internal("authorization check failed", err))
		return nil, false
	}
	if !allowed {
		_ = c.Error(errutil.Forbidden("You don't have permission to perform this action", nil))
		return nil, false
	}
	return rep, true
}

func (h *Handler) get(c *gin.Context) {
	rep, ok := h.owned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *Handler) viewed(c *gin.Context) {
	rep, ok := h.owned(c)
	if !ok {
		return
	}

	rep, err := h.svc.MarkViewed(c.Request.Context(), rep.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rep)
}
