package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	obslogger "github.com/stylefold/wardrobe/internal/observability/logger"
	stylistdomain "github.com/stylefold/wardrobe/internal/stylist/domain"
)

func (s *Server) OutfitSuggestion(c *gin.Context) {
	var req stylistdomain.SuggestionRequest
	if err := bindRequest(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	if req.UUID == "" {
		AbortWithError(c, stylistdomain.NewMissingFieldsError("uuid"))
		return
	}
	if (req.UserRequest == "") == (req.Scenario == "") {
		AbortWithError(c, &stylistdomain.ValidationError{
			Message: "exactly one of user_request or scenario is required",
		})
		return
	}

	ctx := obslogger.WithUserID(c.Request.Context(), req.UUID)
	resp, err := s.stylistSvc.Suggest(ctx, req)
	s.metrics.Observe("suggestion", err)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
