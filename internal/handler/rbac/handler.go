package rbac

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medesk/helpdesk-api/internal/handler"
	"github.com/medesk/helpdesk-api/internal/middleware"
	"github.com/medesk/helpdesk-api/internal/model"
	rbacservice "github.com/medesk/helpdesk-api/internal/service/rbac"
)

type Handler struct {
	service *rbacservice.Service
}

func NewHandler(service *rbacservice.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	rbac := r.Group("/rbac")
	{
		roles := rbac.Group("/roles")
		{
			roles.POST("", auth.RequirePermission("settings", "write"), h.CreateRole)
			roles.GET("", auth.RequirePermission("settings", "read"), h.ListRoles)
			roles.GET("/:id", auth.RequirePermission("settings", "read"), h.GetRole)
			roles.PATCH("/:id", auth.RequirePermission("settings", "write"), h.UpdateRole)
			roles.DELETE("/:id", auth.RequirePermission("settings", "write"), h.DeleteRole)
		}

		rbac.GET("/permissions", auth.RequirePermission("settings", "read"), h.ListPermissions)
	}
}

type createRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	ClinicID    *string  `json:"clinic_id"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) CreateRole(c *gin.Context) {
	var req createRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	var clinicID *uuid.UUID
	if req.ClinicID != nil {
		id, err := uuid.Parse(*req.ClinicID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
			return
		}
		clinicID = &id
	}

	permissions, err := parseUUIDs(req.Permissions)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid permission ID"))
		return
	}

	role := &model.Role{
		Name:        req.Name,
		Description: req.Description,
		ClinicID:    clinicID,
		Permissions: permissions,
	}
	if err := h.service.CreateRole(c.Request.Context(), middleware.UserID(c), role); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(role))
}

func (h *Handler) GetRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid role ID"))
		return
	}

	role, err := h.service.GetRole(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(role))
}

type updateRoleRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Permissions *[]string `json:"permissions"`
}

func (h *Handler) UpdateRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid role ID"))
		return
	}

	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	var permissions *model.UUIDList
	if req.Permissions != nil {
		parsed, err := parseUUIDs(*req.Permissions)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid permission ID"))
			return
		}
		permissions = &parsed
	}

	role, err := h.service.UpdateRole(c.Request.Context(), middleware.UserID(c), id, req.Name, req.Description, permissions)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(role))
}

func (h *Handler) DeleteRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid role ID"))
		return
	}

	if err := h.service.DeleteRole(c.Request.Context(), middleware.UserID(c), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ListRoles(c *gin.Context) {
	var clinicID *uuid.UUID
	if raw := c.Query("clinic_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
			return
		}
		clinicID = &id
	}
	includeSystem := c.DefaultQuery("include_system", "true") == "true"

	roles, err := h.service.ListRoles(c.Request.Context(), clinicID, includeSystem)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(roles))
}

func (h *Handler) ListPermissions(c *gin.Context) {
	permissions, err := h.service.ListPermissions(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(permissions))
}

func parseUUIDs(raw []string) (model.UUIDList, error) {
	out := make(model.UUIDList, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
