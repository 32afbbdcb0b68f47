package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	obslogger "github.com/stylefold/wardrobe/internal/observability/logger"
	stylistdomain "github.com/stylefold/wardrobe/internal/stylist/domain"
)

type userIDRequest struct {
	UUID string `json:"uuid"`
}

// SyncUser overwrites the stored tier and quota fields from a live
// entitlement fetch. Existing balances are replaced, not topped up.
func (s *Server) SyncUser(c *gin.Context) {
	var req userIDRequest
	if err := bindRequest(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}
	if req.UUID == "" {
		AbortWithError(c, stylistdomain.NewMissingFieldsError("uuid"))
		return
	}

	ctx := obslogger.WithUserID(c.Request.Context(), req.UUID)
	record, err := s.reconciler.Sync(ctx, req.UUID)
	s.metrics.Observe("user_sync", err)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (s *Server) GetUserInfo(c *gin.Context) {
	var req userIDRequest
	if err := bindRequest(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}
	if req.UUID == "" {
		AbortWithError(c, stylistdomain.NewMissingFieldsError("uuid"))
		return
	}

	record, err := s.userSvc.Get(c.Request.Context(), req.UUID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// InitializeUser provisions a record for a freshly onboarded user, falling
// back to the freemium allotment when the entitlement platform has no
// profile for them yet.
func (s *Server) InitializeUser(c *gin.Context) {
	var req userIDRequest
	if err := bindRequest(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}
	if req.UUID == "" {
		AbortWithError(c, stylistdomain.NewMissingFieldsError("uuid"))
		return
	}

	ctx := obslogger.WithUserID(c.Request.Context(), req.UUID)
	record, err := s.reconciler.Initialize(ctx, req.UUID)
	s.metrics.Observe("user_initialize", err)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": record})
}
