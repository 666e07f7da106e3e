package member

import (
	"errors"

	"github.com/clubworks/core/internal/pkg/pagination"
	"github.com/clubworks/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler handles the public member directory.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts member routes under /members. All routes are public.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/members")
	g.GET("", h.list)
	g.GET("/:id", h.get)
}

// list GET /members
func (h *Handler) list(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	cards, meta, err := h.svc.List(c.Request.Context(), q, pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, cards, meta)
}

// get GET /members/:id — accepts an id or a username.
func (h *Handler) get(c *gin.Context) {
	detail, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, detail)
}
