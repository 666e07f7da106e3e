package dashboard

import (
	"github.com/clubworks/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler serves the admin dashboard snapshot.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts GET /admin/dashboard behind the admin gate.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	rg.GET("/admin/dashboard", authMW, adminMW, h.snapshot)
}

// snapshot GET /admin/dashboard
func (h *Handler) snapshot(c *gin.Context) {
	overview, err := h.svc.Snapshot(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, overview)
}
