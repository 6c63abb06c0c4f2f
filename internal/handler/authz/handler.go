package authz

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medesk/helpdesk-api/internal/handler"
	"github.com/medesk/helpdesk-api/internal/middleware"
	authzservice "github.com/medesk/helpdesk-api/internal/service/authz"
)

type Handler struct {
	service *authzservice.Service
}

func NewHandler(service *authzservice.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/authz/check", h.Check)
}

type checkRequest struct {
	Resource string  `json:"resource" binding:"required"`
	Action   string  `json:"action" binding:"required"`
	TargetID *string `json:"target_id"`
}

// Check evaluates a permission for the authenticated caller. The result is
// always 200 with an allowed flag; denial is not an error.
func (h *Handler) Check(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	var targetID *uuid.UUID
	if req.TargetID != nil {
		id, err := uuid.Parse(*req.TargetID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid target ID"))
			return
		}
		targetID = &id
	}

	allowed, err := h.service.Check(c.Request.Context(), middleware.UserID(c), req.Resource, req.Action, targetID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"allowed": allowed}))
}
