package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medesk/helpdesk-api/internal/handler"
	seedservice "github.com/medesk/helpdesk-api/internal/service/seed"
)

// Handler exposes the seeding endpoints. The reset endpoint is registered
// only when the development reset flag is enabled.
type Handler struct {
	service    *seedservice.Service
	allowReset bool
}

func NewHandler(service *seedservice.Service, allowReset bool) *Handler {
	return &Handler{service: service, allowReset: allowReset}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	{
		admin.POST("/initialize", h.Initialize)
		if h.allowReset {
			admin.POST("/reset", h.Reset)
		}
	}
}

type initializeRequest struct {
	AdminPassword string `json:"admin_password" binding:"required,min=8"`
}

func (h *Handler) Initialize(c *gin.Context) {
	var req initializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	summary, err := h.service.InitializeDatabase(c.Request.Context(), req.AdminPassword)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(summary))
}

func (h *Handler) Reset(c *gin.Context) {
	if err := h.service.ResetDatabase(c.Request.Context()); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
