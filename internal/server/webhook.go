package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	obslogger "github.com/stylefold/wardrobe/internal/observability/logger"
	"github.com/stylefold/wardrobe/internal/reconcile"
	"go.uber.org/zap"
)

type adaptyEvent struct {
	EventType string `json:"event_type"`
	ProfileID string `json:"profile_id"`
}

// HandleAdaptyWebhook acknowledges every delivery with 200 so the platform
// never retries: webhooks are best-effort hints and the next /v1/users/sync
// heals any state a dropped event left behind.
func (s *Server) HandleAdaptyWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	var event adaptyEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Warn("undecodable webhook payload", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if event.ProfileID == "" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	ctx := obslogger.WithUserID(c.Request.Context(), event.ProfileID)
	outcome, record, err := s.reconciler.HandleEvent(ctx, event.EventType, event.ProfileID)
	s.metrics.Observe("webhook", err)
	if err != nil {
		// Acknowledge anyway; the failure is ours to retry via sync, not the
		// platform's to redeliver.
		obslogger.WithContext(ctx, s.log).Error("webhook reconciliation failed",
			zap.String("event_type", event.EventType),
			zap.String("profile_id", event.ProfileID),
			zap.Error(err),
		)
		c.JSON(http.StatusOK, gin.H{"status": "success"})
		return
	}

	switch outcome {
	case reconcile.OutcomeIgnored:
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "event_type": event.EventType})
	case reconcile.OutcomeProfileNotFound:
		c.JSON(http.StatusOK, gin.H{"status": "profile_not_found", "profile_id": event.ProfileID})
	default:
		resp := gin.H{"status": "success"}
		if record != nil {
			resp["tier"] = record.Tier
		}
		c.JSON(http.StatusOK, resp)
	}
}
