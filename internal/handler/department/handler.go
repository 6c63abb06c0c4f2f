package department

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medesk/helpdesk-api/internal/handler"
	"github.com/medesk/helpdesk-api/internal/middleware"
	departmentservice "github.com/medesk/helpdesk-api/internal/service/department"
)

type Handler struct {
	service *departmentservice.Service
}

func NewHandler(service *departmentservice.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	departments := r.Group("/departments")
	{
		departments.POST("", auth.RequirePermission("settings", "write"), h.Create)
		departments.GET("", auth.RequirePermission("settings", "read"), h.List)
		departments.GET("/:id", auth.RequirePermission("settings", "read"), h.Get)
		departments.PATCH("/:id", auth.RequirePermission("settings", "write"), h.Update)
		departments.DELETE("/:id", auth.RequirePermission("settings", "write"), h.Delete)
		departments.GET("/:id/stats", auth.RequirePermission("reports", "read"), h.Stats)
	}
}

type createRequest struct {
	Name      string  `json:"name" binding:"required"`
	ClinicID  *string `json:"clinic_id"`
	ManagerID *string `json:"manager_id"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	clinicID := middleware.ClinicID(c)
	if req.ClinicID != nil {
		id, err := uuid.Parse(*req.ClinicID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
			return
		}
		clinicID = id
	}

	var managerID *uuid.UUID
	if req.ManagerID != nil {
		id, err := uuid.Parse(*req.ManagerID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid manager ID"))
			return
		}
		managerID = &id
	}

	department, err := h.service.Create(c.Request.Context(), middleware.UserID(c), departmentservice.CreateInput{
		Name:      req.Name,
		ClinicID:  clinicID,
		ManagerID: managerID,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(department))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid department ID"))
		return
	}

	department, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(department))
}

type updateRequest struct {
	Name      *string `json:"name"`
	ManagerID *string `json:"manager_id"`
	IsActive  *bool   `json:"is_active"`
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid department ID"))
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	var managerID *uuid.UUID
	if req.ManagerID != nil {
		mid, err := uuid.Parse(*req.ManagerID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid manager ID"))
			return
		}
		managerID = &mid
	}

	department, err := h.service.Update(c.Request.Context(), middleware.UserID(c), id, departmentservice.UpdateInput{
		Name:      req.Name,
		ManagerID: managerID,
		IsActive:  req.IsActive,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(department))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid department ID"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) List(c *gin.Context) {
	clinicID := middleware.ClinicID(c)
	if raw := c.Query("clinic_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
			return
		}
		clinicID = id
	}

	departments, err := h.service.ListByClinic(c.Request.Context(), clinicID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(departments))
}

func (h *Handler) Stats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid department ID"))
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}
