package image

import (
	"errors"
	"io"

	"github.com/clubworks/core/internal/middleware"
	"github.com/clubworks/core/internal/models"
	"github.com/clubworks/core/internal/pkg/pagination"
	"github.com/clubworks/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler handles image upload HTTP requests.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts image routes under /images. Everything requires auth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/images", authMW)
	g.POST("", h.upload)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.remove)
}

// upload POST /images — multipart form with a "file" field.
func (h *Handler) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "缺少 file 字段")
		return
	}
	if fh.Size > MaxUploadBytes {
		response.BadRequest(c, ErrUploadTooLarge.Error())
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes+1))
	if err != nil {
		response.InternalError(c, err)
		return
	}

	img, err := h.svc.Upload(c.Request.Context(), middleware.CurrentUserID(c), data)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, img)
}

// list GET /images
func (h *Handler) list(c *gin.Context) {
	uploader := c.Query("uploader")
	if middleware.CurrentRole(c) != models.RoleAdmin {
		uploader = middleware.CurrentUserID(c)
	}

	images, meta, err := h.svc.List(c.Request.Context(), uploader, pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, images, meta)
}

// get GET /images/:id
func (h *Handler) get(c *gin.Context) {
	img, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, img)
}

// remove DELETE /images/:id
func (h *Handler) remove(c *gin.Context) {
	img, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if img.UploaderID != middleware.CurrentUserID(c) && middleware.CurrentRole(c) != models.RoleAdmin {
		response.Forbidden(c)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), img.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"success": true})
}

// fail maps service errors onto the HTTP error taxonomy.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrImageNotFound):
		response.NotFound(c)
	case errors.Is(err, ErrEmptyUpload),
		errors.Is(err, ErrUploadTooLarge),
		errors.Is(err, ErrUnsupportedMime):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
