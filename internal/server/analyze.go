package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	obslogger "github.com/stylefold/wardrobe/internal/observability/logger"
	stylistdomain "github.com/stylefold/wardrobe/internal/stylist/domain"
)

func (s *Server) AnalyzeClothing(c *gin.Context) {
	var req stylistdomain.AnalyzeRequest
	if err := bindRequest(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	var missing []string
	if req.UUID == "" {
		missing = append(missing, "uuid")
	}
	if req.ImageBase64 == "" {
		missing = append(missing, "image_base_64")
	}
	if len(missing) > 0 {
		AbortWithError(c, stylistdomain.NewMissingFieldsError(missing...))
		return
	}

	ctx := obslogger.WithUserID(c.Request.Context(), req.UUID)
	resp, err := s.stylistSvc.Analyze(ctx, req)
	s.metrics.Observe("analyze", err)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
