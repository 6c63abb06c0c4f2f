package category

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medesk/helpdesk-api/internal/handler"
	"github.com/medesk/helpdesk-api/internal/middleware"
	"github.com/medesk/helpdesk-api/internal/model"
	categoryservice "github.com/medesk/helpdesk-api/internal/service/category"
)

type Handler struct {
	service *categoryservice.Service
}

func NewHandler(service *categoryservice.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	categories := r.Group("/categories")
	{
		categories.POST("", auth.RequirePermission("categories", "write"), h.Create)
		categories.GET("/tree", auth.RequirePermission("categories", "read"), h.GetTree)
		categories.GET("", auth.RequirePermission("categories", "read"), h.GetFlat)
		// Active public categories back the ticket form; any authenticated
		// user may read them.
		categories.GET("/public", h.GetPublic)
		categories.GET("/pending", auth.RequirePermission("categories", "approve"), h.GetPending)
		categories.GET("/:id", auth.RequirePermission("categories", "read"), h.Get)
		categories.PATCH("/:id", auth.RequirePermission("categories", "write"), h.Update)
		categories.DELETE("/:id", auth.RequirePermission("categories", "delete"), h.Delete)
		categories.POST("/:id/approve", auth.RequirePermission("categories", "approve"), h.Approve)
		categories.POST("/:id/reject", auth.RequirePermission("categories", "approve"), h.Reject)
		categories.POST("/initialize", auth.RequirePermission("categories", "write"), h.InitializeBase)
	}
}

type createRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  *string  `json:"description"`
	ClinicID     *string  `json:"clinic_id"`
	DepartmentID *string  `json:"department_id"`
	Visibility   string   `json:"visibility"`
	ParentID     *string  `json:"parent_id"`
	Synonyms     []string `json:"synonyms"`
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

	departmentID, err := parseOptionalUUID(req.DepartmentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid department ID"))
		return
	}
	parentID, err := parseOptionalUUID(req.ParentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid parent ID"))
		return
	}

	category, err := h.service.Create(c.Request.Context(), middleware.UserID(c), categoryservice.CreateInput{
		Name:         req.Name,
		Description:  req.Description,
		ClinicID:     clinicID,
		DepartmentID: departmentID,
		Visibility:   req.Visibility,
		ParentID:     parentID,
		Synonyms:     req.Synonyms,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(category))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid category ID"))
		return
	}

	category, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(category))
}

func (h *Handler) GetTree(c *gin.Context) {
	clinicID, filter, ok := h.listParams(c)
	if !ok {
		return
	}

	tree, err := h.service.GetTree(c.Request.Context(), clinicID, filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tree))
}

func (h *Handler) GetFlat(c *gin.Context) {
	clinicID, filter, ok := h.listParams(c)
	if !ok {
		return
	}

	categories, err := h.service.GetFlat(c.Request.Context(), clinicID, filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(categories))
}

func (h *Handler) GetPublic(c *gin.Context) {
	clinicID := middleware.ClinicID(c)
	if raw := c.Query("clinic_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
			return
		}
		clinicID = id
	}

	categories, err := h.service.GetPublic(c.Request.Context(), clinicID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(categories))
}

func (h *Handler) GetPending(c *gin.Context) {
	var clinicID *uuid.UUID
	if raw := c.Query("clinic_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
			return
		}
		clinicID = &id
	}

	pending, err := h.service.GetPending(c.Request.Context(), clinicID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(pending))
}

type updateRequest struct {
	Name             *string  `json:"name"`
	Description      *string  `json:"description"`
	DepartmentID     *string  `json:"department_id"`
	Visibility       *string  `json:"visibility"`
	RequiresApproval *bool    `json:"requires_approval"`
	IsActive         *bool    `json:"is_active"`
	Synonyms         []string `json:"synonyms"`
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid category ID"))
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	departmentID, err := parseOptionalUUID(req.DepartmentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid department ID"))
		return
	}

	category, err := h.service.Update(c.Request.Context(), middleware.UserID(c), id, categoryservice.UpdateInput{
		Name:             req.Name,
		Description:      req.Description,
		DepartmentID:     departmentID,
		Visibility:       req.Visibility,
		RequiresApproval: req.RequiresApproval,
		IsActive:         req.IsActive,
		Synonyms:         req.Synonyms,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(category))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid category ID"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid category ID"))
		return
	}

	category, err := h.service.Approve(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(category))
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid category ID"))
		return
	}

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.Reject(c.Request.Context(), middleware.UserID(c), id, req.Reason); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

type initializeRequest struct {
	ClinicID *string `json:"clinic_id"`
}

func (h *Handler) InitializeBase(c *gin.Context) {
	var req initializeRequest
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

	categories, err := h.service.InitializeBaseCategories(c.Request.Context(), middleware.UserID(c), clinicID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(categories))
}

func (h *Handler) listParams(c *gin.Context) (uuid.UUID, model.CategoryFilter, bool) {
	clinicID := middleware.ClinicID(c)
	if raw := c.Query("clinic_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
			return uuid.Nil, model.CategoryFilter{}, false
		}
		clinicID = id
	}

	var filter model.CategoryFilter
	if raw := c.Query("visibility"); raw != "" {
		filter.Visibility = &raw
	}
	if raw := c.Query("is_active"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}
	return clinicID, filter, true
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
