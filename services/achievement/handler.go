package achievement

import (
	"net/http"

	"github.com/CleanExpo/LocalLift-sub000/pkg/authz"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func RegisterRoutes(r *gin.Engine, h *Handler, enforcer *authz.Enforcer) {
	r.GET("/achievement-types", h.types)

	g := r.Group("/achievements/:client_id")
	g.GET("", enforcer.RequireSelfOr("client_id", "achievements", authz.ActRead), h.list)
	g.POST("/check", enforcer.RequireSelfOr("client_id", "achievements", authz.ActWrite), h.check)
}

func (h *Handler) list(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) check(c *gin.Context) {
	added, err := h.svc.Check(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, added)
}

func (h *Handler) types(c *gin.Context) {
	c.JSON(http.StatusOK, Group(h.svc.Catalog()))
}
