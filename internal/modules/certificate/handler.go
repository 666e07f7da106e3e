package certificate

import (
	"errors"

	"github.com/clubworks/core/internal/middleware"
	"github.com/clubworks/core/internal/pkg/pagination"
	"github.com/clubworks/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler handles certificate HTTP requests.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts certificate routes. Verification is public; issuing
// and revoking are admin operations.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	rg.GET("/certificates/verify/:serial", h.verify)
	rg.GET("/me/certificates", authMW, h.mine)

	a := rg.Group("/certificates", authMW, adminMW)
	a.GET("", h.list)
	a.POST("", h.issue)
	a.DELETE("/:id", h.revoke)
}

// verify GET /certificates/verify/:serial
func (h *Handler) verify(c *gin.Context) {
	result, err := h.svc.Verify(c.Request.Context(), c.Param("serial"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, result)
}

// list GET /certificates?member=<id>
func (h *Handler) list(c *gin.Context) {
	certs, meta, err := h.svc.List(c.Request.Context(), c.Query("member"), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, certs, meta)
}

// mine GET /me/certificates
func (h *Handler) mine(c *gin.Context) {
	certs, meta, err := h.svc.List(c.Request.Context(), middleware.CurrentUserID(c), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, certs, meta)
}

// issue POST /certificates
func (h *Handler) issue(c *gin.Context) {
	var dto IssueDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	cert, err := h.svc.Issue(c.Request.Context(), middleware.CurrentUserID(c), dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, cert)
}

// revoke DELETE /certificates/:id
func (h *Handler) revoke(c *gin.Context) {
	cert, err := h.svc.Revoke(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, cert)
}

// fail maps service errors onto the HTTP error taxonomy.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrCertificateNotFound), errors.Is(err, ErrMemberNotFound):
		response.NotFound(c)
	case errors.Is(err, ErrAlreadyRevoked):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
