package tag

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medesk/helpdesk-api/internal/handler"
	"github.com/medesk/helpdesk-api/internal/middleware"
	"github.com/medesk/helpdesk-api/internal/model"
	tagservice "github.com/medesk/helpdesk-api/internal/service/tag"
)

type Handler struct {
	service *tagservice.Service
}

func NewHandler(service *tagservice.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	tags := r.Group("/tags")
	{
		tags.POST("", auth.RequirePermission("categories", "write"), h.Create)
		tags.GET("", auth.RequirePermission("categories", "read"), h.List)
		tags.GET("/stats", auth.RequirePermission("reports", "read"), h.StatsByCategory)
		tags.GET("/:id", auth.RequirePermission("categories", "read"), h.Get)
		tags.PATCH("/:id", auth.RequirePermission("categories", "write"), h.Update)
		tags.DELETE("/:id", auth.RequirePermission("categories", "delete"), h.Delete)
		tags.POST("/:id/increment", auth.RequirePermission("categories", "write"), h.IncrementUsage)
	}
}

type createRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description *string  `json:"description"`
	ClinicID    *string  `json:"clinic_id"`
	CategoryID  *string  `json:"category_id"`
	Color       string   `json:"color"`
	Synonyms    []string `json:"synonyms"`
	AIGenerated bool     `json:"ai_generated"`
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

	var categoryID *uuid.UUID
	if req.CategoryID != nil {
		id, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid category ID"))
			return
		}
		categoryID = &id
	}

	tag, err := h.service.Create(c.Request.Context(), middleware.UserID(c), tagservice.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		ClinicID:    clinicID,
		CategoryID:  categoryID,
		Color:       req.Color,
		Synonyms:    req.Synonyms,
		AIGenerated: req.AIGenerated,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(tag))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid tag ID"))
		return
	}

	tag, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tag))
}

type updateRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	CategoryID  *string  `json:"category_id"`
	Color       *string  `json:"color"`
	IsActive    *bool    `json:"is_active"`
	Synonyms    []string `json:"synonyms"`
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid tag ID"))
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	var categoryID *uuid.UUID
	if req.CategoryID != nil {
		cid, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid category ID"))
			return
		}
		categoryID = &cid
	}

	tag, err := h.service.Update(c.Request.Context(), middleware.UserID(c), id, tagservice.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  categoryID,
		Color:       req.Color,
		IsActive:    req.IsActive,
		Synonyms:    req.Synonyms,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tag))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid tag ID"))
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

	var filter model.TagFilter
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid category ID"))
			return
		}
		filter.CategoryID = &id
	}
	if raw := c.Query("is_active"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}

	tags, err := h.service.ListByClinic(c.Request.Context(), clinicID, filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tags))
}

func (h *Handler) IncrementUsage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid tag ID"))
		return
	}

	count, err := h.service.IncrementUsage(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"usage_count": count}))
}

func (h *Handler) StatsByCategory(c *gin.Context) {
	clinicID := middleware.ClinicID(c)
	if raw := c.Query("clinic_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
			return
		}
		clinicID = id
	}

	stats, err := h.service.StatsByCategory(c.Request.Context(), clinicID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}
