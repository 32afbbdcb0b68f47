package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	obslogger "github.com/stylefold/wardrobe/internal/observability/logger"
	stylistdomain "github.com/stylefold/wardrobe/internal/stylist/domain"
)

func (s *Server) VirtualTryOn(c *gin.Context) {
	var req stylistdomain.TryOnRequest
	if err := bindRequest(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	var missing []string
	if req.UUID == "" {
		missing = append(missing, "uuid")
	}
	if req.PoseImageBase64 == "" {
		missing = append(missing, "pose_image_base_64")
	}
	if len(req.ClothingItems) == 0 {
		missing = append(missing, "clothing_items")
	}
	if len(missing) > 0 {
		AbortWithError(c, stylistdomain.NewMissingFieldsError(missing...))
		return
	}
	for _, item := range req.ClothingItems {
		if item.Base64 == "" {
			AbortWithError(c, &stylistdomain.ValidationError{
				Message: "clothing_items entries must carry a base64 image",
			})
			return
		}
	}

	ctx := obslogger.WithUserID(c.Request.Context(), req.UUID)
	resp, err := s.stylistSvc.TryOn(ctx, req)
	s.metrics.Observe("tryon", err)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
