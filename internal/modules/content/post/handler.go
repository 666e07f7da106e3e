package post

import (
	"errors"

	"github.com/clubworks/core/internal/middleware"
	"github.com/clubworks/core/internal/models"
	"github.com/clubworks/core/internal/pkg/pagination"
	"github.com/clubworks/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler handles post HTTP requests.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts post routes under /posts.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/posts")
	g.GET("", h.list)
	g.GET("/categories", h.categories)
	g.GET("/:id", h.get)
	g.GET("/:id/related", h.related)
	g.POST("/:id/upvote", h.upvote)

	a := g.Group("", authMW)
	a.POST("", h.create)
	a.PUT("/:id", h.update)
	a.PATCH("/:id/status", h.setStatus)
	a.DELETE("/:id", h.remove)
}

// list GET /posts
func (h *Handler) list(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	posts, meta, err := h.svc.List(c.Request.Context(), q, pagination.FromContext(c),
		middleware.CurrentUserID(c), middleware.CurrentRole(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	out := make([]postResponse, len(posts))
	for i := range posts {
		out[i] = toResponse(&posts[i])
	}
	response.Paged(c, out, meta)
}

// categories GET /posts/categories
func (h *Handler) categories(c *gin.Context) {
	response.OK(c, models.PostCategories)
}

// get GET /posts/:id — accepts an id or a slug. Reads on published posts are
// buffered for the read counter.
func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"),
		middleware.CurrentUserID(c), middleware.CurrentRole(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	if p.Status == models.PostStatusPublished {
		h.svc.RecordRead(c.Request.Context(), p.ID)
	}
	response.OK(c, toResponse(p))
}

// related GET /posts/:id/related
func (h *Handler) related(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"),
		middleware.CurrentUserID(c), middleware.CurrentRole(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	posts, err := h.svc.Related(c.Request.Context(), p)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := make([]postResponse, len(posts))
	for i := range posts {
		out[i] = toResponse(&posts[i])
	}
	response.OK(c, out)
}

// upvote POST /posts/:id/upvote — one vote per user, or per IP for guests.
func (h *Handler) upvote(c *gin.Context) {
	voterKey := middleware.CurrentUserID(c)
	if voterKey == "" {
		voterKey = "ip:" + c.ClientIP()
	}

	count, err := h.svc.Upvote(c.Request.Context(), c.Param("id"), voterKey)
	if err != nil {
		if errors.Is(err, ErrAlreadyUpvoted) {
			c.JSON(200, gin.H{"upvotes": count, "counted": false})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"upvotes": count, "counted": true})
}

// create POST /posts
func (h *Handler) create(c *gin.Context) {
	var dto CreatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p, err := h.svc.Create(c.Request.Context(), middleware.CurrentUserID(c), dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, toResponse(p))
}

// update PUT /posts/:id
func (h *Handler) update(c *gin.Context) {
	var dto UpdatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p, err := h.svc.Update(c.Request.Context(), c.Param("id"),
		middleware.CurrentUserID(c), middleware.CurrentRole(c), dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, toResponse(p))
}

// setStatus PATCH /posts/:id/status
func (h *Handler) setStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p, err := h.svc.SetStatus(c.Request.Context(), c.Param("id"),
		middleware.CurrentUserID(c), middleware.CurrentRole(c), body.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, toResponse(p))
}

// remove DELETE /posts/:id
func (h *Handler) remove(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("id"),
		middleware.CurrentUserID(c), middleware.CurrentRole(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"success": true})
}

// fail maps service errors onto the HTTP error taxonomy.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrPostNotFound):
		response.NotFound(c)
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c)
	case errors.Is(err, ErrSlugTaken):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrTooManyRelated),
		errors.Is(err, ErrRelatedNotFound),
		errors.Is(err, ErrSelfRelated):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
