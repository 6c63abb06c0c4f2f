package ticket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medesk/helpdesk-api/internal/handler"
	"github.com/medesk/helpdesk-api/internal/middleware"
	"github.com/medesk/helpdesk-api/internal/model"
	ticketservice "github.com/medesk/helpdesk-api/internal/service/ticket"
)

type Handler struct {
	service *ticketservice.Service
}

func NewHandler(service *ticketservice.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	tickets := r.Group("/tickets")
	{
		tickets.POST("", auth.RequirePermission("tickets", "write"), h.Create)
		tickets.GET("", auth.RequirePermission("tickets", "read"), h.List)
		tickets.GET("/:id", auth.RequirePermission("tickets", "read"), h.Get)
		tickets.PATCH("/:id/status", auth.RequirePermission("tickets", "write"), h.UpdateStatus)
		tickets.POST("/:id/assign", auth.RequirePermission("tickets", "write"), h.Assign)
	}
}

type createRequest struct {
	Title        string        `json:"title" binding:"required"`
	Description  string        `json:"description"`
	Priority     string        `json:"priority"`
	CategoryID   string        `json:"category_id" binding:"required"`
	ClinicID     *string       `json:"clinic_id"`
	Visibility   string        `json:"visibility"`
	CustomFields model.JSONMap `json:"custom_fields"`
	Tags         []string      `json:"tags"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid category ID"))
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

	ticket, err := h.service.Create(c.Request.Context(), middleware.UserID(c), ticketservice.CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		CategoryID:   categoryID,
		ClinicID:     clinicID,
		Visibility:   req.Visibility,
		CustomFields: req.CustomFields,
		Tags:         req.Tags,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(ticket))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid ticket ID"))
		return
	}

	ticket, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(ticket))
}

func (h *Handler) List(c *gin.Context) {
	filter := model.TicketFilter{ClinicID: middleware.ClinicID(c)}

	if raw := c.Query("clinic_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
			return
		}
		filter.ClinicID = id
	}
	if raw := c.Query("creator_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid creator ID"))
			return
		}
		filter.CreatorID = id
	}
	if raw := c.Query("assignee_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid assignee ID"))
			return
		}
		filter.AssigneeID = id
	}
	filter.Status = c.Query("status")

	tickets, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tickets))
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid ticket ID"))
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	ticket, err := h.service.UpdateStatus(c.Request.Context(), middleware.UserID(c), id, req.Status)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(ticket))
}

type assignRequest struct {
	AssigneeID string `json:"assignee_id" binding:"required"`
}

func (h *Handler) Assign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid ticket ID"))
		return
	}

	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	assigneeID, err := uuid.Parse(req.AssigneeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid assignee ID"))
		return
	}

	ticket, err := h.service.Assign(c.Request.Context(), middleware.UserID(c), id, assigneeID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(ticket))
}
