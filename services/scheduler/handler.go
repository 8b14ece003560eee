package scheduler

import (
	"context"
	"net/http"

	"github.com/CleanExpo/LocalLift-sub000/pkg/authz"
	"github.com/CleanExpo/LocalLift-sub000/pkg/config"
	"github.com/CleanExpo/LocalLift-sub000/pkg/middleware"
	"github.com/CleanExpo/LocalLift-sub000/services/report"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const webhookSecretParam = "webhook_secret"

// Reports is the slice of the weekly report emitter the facade drives.
type Reports interface {
	SendAll(ctx context.Context) (*report.BulkResult, error)
	SendFor(ctx context.Context, clientID string, force bool) (bool, error)
}

// Scanner queues a champion scan.
type Scanner interface {
	DispatchScan(ctx context.Context) error
}

type Handler struct {
	reports Reports
	scanner Scanner
	logger  *zap.Logger
}

func NewHandler(reports Reports, scanner Scanner) *Handler {
	return &Handler{reports: reports, scanner: scanner, logger: zap.L().Named("scheduler.http")}
}

func RegisterRoutes(r *gin.Engine, h *Handler, cfg *config.Config, enforcer *authz.Enforcer) {
	admin := r.Group("/admin/badge-reports", middleware.APIKey(cfg.Admin.ApiKey))
	admin.POST("/send-all", h.sendAll)
	admin.POST("/test/:client_id", h.sendTest)

	r.POST("/webhooks/scheduled-tasks/weekly-badge-reports",
		middleware.SharedSecret(webhookSecretParam, cfg.Admin.WebhookSecret), h.sendAll)

	r.POST("/champions/scan", enforcer.Require("champions", authz.ActWrite), h.scan)
}

func (h *Handler) sendAll(c *gin.Context) {
	res, err := h.reports.SendAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) sendTest(c *gin.Context) {
	clientID := c.Param("client_id")
	sent, err := h.reports.SendFor(c.Request.Context(), clientID, true)
	if err != nil || !sent {
		if err != nil {
			h.logger.Error("test badge report failed", zap.String("client_id", clientID), zap.Error(err))
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to send test badge report to client " + clientID,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Test badge report sent to client " + clientID,
	})
}

func (h *Handler) scan(c *gin.Context) {
	if err := h.scanner.DispatchScan(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Champion scanning process started in background",
	})
}
