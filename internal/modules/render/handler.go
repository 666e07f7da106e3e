package render

import (
	"errors"

	"github.com/clubworks/core/internal/middleware"
	"github.com/clubworks/core/internal/modules/content/post"
	"github.com/clubworks/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler serves assembled post documents.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts GET /posts/:id/render.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/posts/:id/render", h.render)
}

// render GET /posts/:id/render — accepts an id or a slug.
func (h *Handler) render(c *gin.Context) {
	doc, err := h.svc.Render(c.Request.Context(), c.Param("id"),
		middleware.CurrentUserID(c), middleware.CurrentRole(c))
	if err != nil {
		if errors.Is(err, post.ErrPostNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, doc)
}
