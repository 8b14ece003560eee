package badge

import (
	"net/http"
	"strconv"

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
	g := r.Group("/badges/:client_id")
	g.GET("/status", h.status)
	g.GET("/history", h.history)
	g.GET("/statistics", h.statistics)
}

func (h *Handler) status(c *gin.Context) {
	res, err := h.svc.Status(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) history(c *gin.Context) {
	limit := DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 520 {
			_ = c.Error(errutil.Invalid("limit must be between 1 and 520", err))
			return
		}
		limit = n
	}

	entries, err := h.svc.History(c.Request.Context(), c.Param("client_id"), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client_id": c.Param("client_id"), "history": entries})
}

func (h *Handler) statistics(c *gin.Context) {
	stats, err := h.svc.Statistics(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
