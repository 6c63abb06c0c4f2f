package clinic

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medesk/helpdesk-api/internal/handler"
	"github.com/medesk/helpdesk-api/internal/middleware"
	"github.com/medesk/helpdesk-api/internal/model"
	clinicservice "github.com/medesk/helpdesk-api/internal/service/clinic"
)

type Handler struct {
	service *clinicservice.Service
}

func NewHandler(service *clinicservice.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	clinics := r.Group("/clinics")
	{
		clinics.POST("", auth.RequirePermission("clinics", "write"), h.Create)
		clinics.GET("", auth.RequirePermission("clinics", "read"), h.List)
		clinics.GET("/code/:code", auth.RequirePermission("clinics", "read"), h.GetByCode)
		clinics.GET("/:id", auth.RequirePermission("clinics", "read"), h.Get)
		clinics.PATCH("/:id", auth.RequirePermission("clinics", "write"), h.Update)
		clinics.GET("/:id/stats", auth.RequirePermission("reports", "read"), h.Stats)
	}
}

type createRequest struct {
	Name     string                `json:"name" binding:"required"`
	Code     string                `json:"code" binding:"required"`
	Address  string                `json:"address"`
	Phone    string                `json:"phone"`
	Email    string                `json:"email"`
	Settings *model.ClinicSettings `json:"settings"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	clinic, err := h.service.Create(c.Request.Context(), middleware.UserID(c), clinicservice.CreateInput{
		Name:     req.Name,
		Code:     req.Code,
		Address:  req.Address,
		Phone:    req.Phone,
		Email:    req.Email,
		Settings: req.Settings,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(clinic))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
		return
	}

	clinic, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(clinic))
}

func (h *Handler) GetByCode(c *gin.Context) {
	clinic, err := h.service.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(clinic))
}

type updateRequest struct {
	Name     *string               `json:"name"`
	Address  *string               `json:"address"`
	Phone    *string               `json:"phone"`
	Email    *string               `json:"email"`
	Settings *model.ClinicSettings `json:"settings"`
	IsActive *bool                 `json:"is_active"`
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	clinic, err := h.service.Update(c.Request.Context(), middleware.UserID(c), id, clinicservice.UpdateInput{
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
		Email:    req.Email,
		Settings: req.Settings,
		IsActive: req.IsActive,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(clinic))
}

func (h *Handler) List(c *gin.Context) {
	clinics, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(clinics))
}

func (h *Handler) Stats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}
