package leaderboard

import (
	"net/http"

	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	g := r.Group("/leaderboard")
	g.GET("", h.global)
	g.GET("/region/:region", h.scoped(ScopeRegion, "region"))
	g.GET("/franchise/:franchise", h.scoped(ScopeFranchise, "franchise"))
	g.GET("/client/:client_id/rank", h.rank)
}

type listRequest struct {
	Timeframe string `form:"timeframe"`
	Limit     int    `form:"limit,default=10" binding:"gte=1,lte=100"`
}

func (h *Handler) bind(c *gin.Context) (Query, bool) {
	var req listRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		_ = c.Error(errutil.Invalid("limit must be between 1 and 100", err))
		return Query{}, false
	}
	tf, err := ParseTimeframe(req.Timeframe)
	if err != nil {
		_ = c.Error(err)
		return Query{}, false
	}
	return Query{Timeframe: tf, Limit: req.Limit}, true
}

func (h *Handler) global(c *gin.Context) {
	q, ok := h.bind(c)
	if !ok {
		return
	}
	h.respond(c, q)
}

func (h *Handler) scoped(kind, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, ok := h.bind(c)
		if !ok {
			return
		}
		q.Scope = Scope{Kind: kind, ID: c.Param(param)}
		h.respond(c, q)
	}
}

func (h *Handler) respond(c *gin.Context, q Query) {
	entries, err := h.svc.Leaderboard(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) rank(c *gin.Context) {
	tf, err := ParseTimeframe(c.Query("timeframe"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	res, err := h.svc.RankOfClient(c.Request.Context(), c.Param("client_id"), tf)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}
