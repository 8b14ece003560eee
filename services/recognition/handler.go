package recognition

import (
	"net/http"
	"strconv"

	"github.com/CleanExpo/LocalLift-sub000/pkg/authz"
	"github.com/CleanExpo/LocalLift-sub000/pkg/db/pagination"
	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"

	"github.com/gin-gonic/gin"
)

const resource = "champions"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func RegisterRoutes(r *gin.Engine, h *Handler, enforcer *authz.Enforcer) {
	read := enforcer.Require(resource, authz.ActRead)
	write := enforcer.Require(resource, authz.ActWrite)

	g := r.Group("/champions")
	g.POST("/recognize", write, h.recognize)
	g.GET("/events", read, h.events)
	g.GET("/thresholds", read, h.thresholds)
	g.PUT("/thresholds/:type", write, h.updateThreshold)
	g.GET("/top", read, h.top)
}

func (h *Handler) recognize(c *gin.Context) {
	var req ManualRecognition
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.Invalid("client_id and achievement_type are required", err))
		return
	}
	if p, ok := authz.PrincipalFrom(c); ok {
		req.CreatedBy = p.ID
	}

	res, err := h.svc.Recognize(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) events(c *gin.Context) {
	var p pagination.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		_ = c.Error(errutil.Invalid("invalid pagination", err))
		return
	}

	page, err := h.svc.Events(c.Request.Context(), p)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) thresholds(c *gin.Context) {
	rows, err := h.svc.Thresholds(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) updateThreshold(c *gin.Context) {
	var req struct {
		Value int `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.Invalid("invalid request body", err))
		return
	}

	t, err := h.svc.UpdateThreshold(c.Request.Context(), c.Param("type"), req.Value)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) top(c *gin.Context) {
	limit := DefaultTopLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			_ = c.Error(errutil.Invalid("limit must be between 1 and 100", err))
			return
		}
		limit = n
	}

	rows, err := h.svc.TopChampions(c.Request.Context(), c.Query("region_id"), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
