package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medesk/helpdesk-api/internal/handler"
	"github.com/medesk/helpdesk-api/internal/middleware"
	"github.com/medesk/helpdesk-api/internal/model"
	userservice "github.com/medesk/helpdesk-api/internal/service/user"
)

type Handler struct {
	service *userservice.Service
}

func NewHandler(service *userservice.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	users := r.Group("/users")
	{
		users.POST("", auth.RequirePermission("users", "write"), h.Create)
		users.GET("", auth.RequirePermission("users", "read"), h.List)
		users.GET("/stats", auth.RequirePermission("users", "read"), h.Stats)
		users.GET("/me", h.Me)
		users.PUT("/me/preferences", h.UpdatePreferences)
		users.GET("/:id", auth.RequirePermission("users", "read"), h.Get)
		users.PATCH("/:id", auth.RequirePermission("users", "write"), h.Update)
		users.POST("/:id/deactivate", auth.RequirePermission("users", "delete"), h.Deactivate)
	}
}

type createRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Name     string  `json:"name" binding:"required"`
	ClinicID *string `json:"clinic_id"`
	RoleID   *string `json:"role_id"`
	Auth0ID  *string `json:"auth0_id"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	clinicID, err := parseOptionalUUID(req.ClinicID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
		return
	}
	roleID, err := parseOptionalUUID(req.RoleID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid role ID"))
		return
	}

	user, err := h.service.Create(c.Request.Context(), middleware.UserID(c), userservice.CreateInput{
		Email:    req.Email,
		Name:     req.Name,
		ClinicID: clinicID,
		RoleID:   roleID,
		Auth0ID:  req.Auth0ID,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(user))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
		return
	}

	user, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(user))
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(user))
}

type updateRequest struct {
	Name     *string `json:"name"`
	RoleID   *string `json:"role_id"`
	ClinicID *string `json:"clinic_id"`
	IsActive *bool   `json:"is_active"`
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	roleID, err := parseOptionalUUID(req.RoleID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid role ID"))
		return
	}
	clinicID, err := parseOptionalUUID(req.ClinicID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
		return
	}

	user, err := h.service.Update(c.Request.Context(), middleware.UserID(c), id, userservice.UpdateInput{
		Name:     req.Name,
		RoleID:   roleID,
		ClinicID: clinicID,
		IsActive: req.IsActive,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(user))
}

func (h *Handler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), middleware.UserID(c), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) UpdatePreferences(c *gin.Context) {
	var prefs model.UserPreferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	user, err := h.service.UpdatePreferences(c.Request.Context(), middleware.UserID(c), prefs)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(user))
}

func (h *Handler) List(c *gin.Context) {
	clinicID, err := optionalClinicFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
		return
	}

	users, err := h.service.ListByClinic(c.Request.Context(), clinicID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(users))
}

func (h *Handler) Stats(c *gin.Context) {
	clinicID, err := optionalClinicFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), clinicID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func optionalClinicFilter(c *gin.Context) (*uuid.UUID, error) {
	raw := c.Query("clinic_id")
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
