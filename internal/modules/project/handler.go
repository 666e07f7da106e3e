package project

import (
	"errors"

	"github.com/clubworks/core/internal/pkg/markdown"
	"github.com/clubworks/core/internal/pkg/pagination"
	"github.com/clubworks/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler handles project HTTP requests. Reads are public, writes are
// admin-only.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts project routes under /projects.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	g := rg.Group("/projects")
	g.GET("", h.list)
	g.GET("/:id", h.get)

	a := g.Group("", authMW, adminMW)
	a.POST("", h.create)
	a.PUT("/:id", h.update)
	a.PUT("/:id/contributors", h.setContributors)
	a.DELETE("/:id", h.remove)
}

// list GET /projects
func (h *Handler) list(c *gin.Context) {
	projects, meta, err := h.svc.List(c.Request.Context(), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}

	out := make([]projectResponse, len(projects))
	for i := range projects {
		out[i] = toResponse(&projects[i], "")
	}
	response.Paged(c, out, meta)
}

// get GET /projects/:id — the markdown body is rendered for the detail view.
func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, toResponse(p, markdown.Render(p.Text)))
}

// create POST /projects
func (h *Handler) create(c *gin.Context) {
	var dto CreateProjectDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p, err := h.svc.Create(c.Request.Context(), dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, toResponse(p, ""))
}

// update PUT /projects/:id
func (h *Handler) update(c *gin.Context) {
	var dto UpdateProjectDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p, err := h.svc.Update(c.Request.Context(), c.Param("id"), dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, toResponse(p, ""))
}

// setContributors PUT /projects/:id/contributors
func (h *Handler) setContributors(c *gin.Context) {
	var body struct {
		Contributors []ContributorDTO `json:"contributors" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p, err := h.svc.SetContributors(c.Request.Context(), c.Param("id"), body.Contributors)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, toResponse(p, ""))
}

// remove DELETE /projects/:id
func (h *Handler) remove(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"success": true})
}

// fail maps service errors onto the HTTP error taxonomy.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrProjectNotFound):
		response.NotFound(c)
	case errors.Is(err, ErrNameTaken):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrContributorNotFound),
		errors.Is(err, ErrDuplicateContributor),
		errors.Is(err, ErrContributionOverflow),
		errors.Is(err, ErrInvalidPercent):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
