package block

import (
	"errors"

	"github.com/clubworks/core/internal/middleware"
	"github.com/clubworks/core/internal/models"
	"github.com/clubworks/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// ImageURLResolver maps an image_id to a display URL for rendering, or ""
// when unknown. Resolution is best-effort and never part of validation.
type ImageURLResolver func(imageID string) string

// Handler handles block HTTP requests.
type Handler struct {
	svc        *Service
	resolveURL ImageURLResolver
}

func NewHandler(svc *Service, resolveURL ImageURLResolver) *Handler {
	return &Handler{svc: svc, resolveURL: resolveURL}
}

// RegisterRoutes mounts block routes under /posts/:id/blocks.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/posts/:id/blocks")
	g.GET("", h.list)

	a := g.Group("", authMW)
	a.POST("", h.add)
	a.PUT("/:blockId", h.update)
	a.DELETE("/:blockId", h.remove)
}

// list GET /posts/:id/blocks — public, ordered by order_index.
func (h *Handler) list(c *gin.Context) {
	blocks, err := h.svc.ListBlocks(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}

	out := make([]blockResponse, len(blocks))
	for i := range blocks {
		out[i] = toResponse(&blocks[i], h.imageURLFor(&blocks[i]))
	}
	c.JSON(200, gin.H{"blocks": out})
}

// add POST /posts/:id/blocks
func (h *Handler) add(c *gin.Context) {
	var dto AddBlockDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	b, err := h.svc.AddBlock(c.Request.Context(), c.Param("id"), &dto, middleware.CurrentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(201, gin.H{"block": toResponse(b, h.imageURLFor(b))})
}

// update PUT /posts/:id/blocks/:blockId
func (h *Handler) update(c *gin.Context) {
	var dto UpdateBlockDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	b, err := h.svc.UpdateBlock(c.Request.Context(), c.Param("id"), c.Param("blockId"), &dto, middleware.CurrentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"block": toResponse(b, h.imageURLFor(b))})
}

// remove DELETE /posts/:id/blocks/:blockId
func (h *Handler) remove(c *gin.Context) {
	err := h.svc.RemoveBlock(c.Request.Context(), c.Param("id"), c.Param("blockId"), middleware.CurrentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"success": true})
}

func (h *Handler) imageURLFor(b *models.PostBlockModel) string {
	if b.Type != models.BlockTypeImage || h.resolveURL == nil {
		return ""
	}
	return h.resolveURL(b.Content.ImageID)
}

// fail maps service errors onto the HTTP error taxonomy.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrPostNotFound), errors.Is(err, ErrBlockNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c)
	case errors.Is(err, ErrInvalidBlockType),
		errors.Is(err, ErrTextBlockInvalid),
		errors.Is(err, ErrTextTooLong),
		errors.Is(err, ErrQuoteBlockInvalid),
		errors.Is(err, ErrImageBlockInvalid),
		errors.Is(err, ErrYoutubeBlockInvalid),
		errors.Is(err, ErrTooManyBlocks),
		errors.Is(err, ErrTooManyImageBlocks),
		errors.Is(err, ErrConsecutiveTextBlocks):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
