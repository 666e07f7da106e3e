package user

import (
	"errors"

	"github.com/clubworks/core/internal/middleware"
	"github.com/clubworks/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles account HTTP requests.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts auth and profile routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	g := rg.Group("/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)

	a := g.Group("", authMW)
	a.POST("/logout", h.logout)
	a.GET("/me", h.me)
	a.PUT("/me", h.updateProfile)
	a.PATCH("/me/password", h.changePassword)
	a.GET("/sessions", h.sessions)
	a.DELETE("/sessions/:sessionId", h.revokeSession)

	admin := rg.Group("/admin/users", authMW, adminMW)
	admin.PATCH("/:id/active", h.setActive)
	admin.PATCH("/:id/role", h.setRole)
}

// register POST /auth/register
func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	u, err := h.svc.Register(c.Request.Context(), dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, toProfile(u))
}

// login POST /auth/login
func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	token, u, err := h.svc.Login(c.Request.Context(), dto, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"token": token, "user": toProfile(u)})
}

// logout POST /auth/logout
func (h *Handler) logout(c *gin.Context) {
	err := h.svc.Logout(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentSessionID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.JSON(200, gin.H{"success": true})
}

// me GET /auth/me
func (h *Handler) me(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, toProfile(u))
}

// updateProfile PUT /auth/me
func (h *Handler) updateProfile(c *gin.Context) {
	var dto UpdateProfileDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	u, err := h.svc.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, toProfile(u))
}

// changePassword PATCH /auth/me/password
func (h *Handler) changePassword(c *gin.Context) {
	var dto ChangePasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	err := h.svc.ChangePassword(c.Request.Context(),
		middleware.CurrentUserID(c), middleware.CurrentSessionID(c), dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"success": true})
}

// sessions GET /auth/sessions
func (h *Handler) sessions(c *gin.Context) {
	list, err := h.svc.Sessions(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}

	current := middleware.CurrentSessionID(c)
	out := make([]sessionResponse, len(list))
	for i, s := range list {
		out[i] = sessionResponse{
			ID:       s.ID,
			IP:       s.IP,
			UA:       s.UA,
			Current:  s.ID == current,
			Expires:  s.ExpiresAt,
			LastSeen: s.UpdatedAt,
		}
	}
	response.OK(c, out)
}

// revokeSession DELETE /auth/sessions/:sessionId
func (h *Handler) revokeSession(c *gin.Context) {
	err := h.svc.RevokeSession(c.Request.Context(), middleware.CurrentUserID(c), c.Param("sessionId"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.JSON(200, gin.H{"success": true})
}

// setActive PATCH /admin/users/:id/active
func (h *Handler) setActive(c *gin.Context) {
	var body struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	u, err := h.svc.SetActive(c.Request.Context(), c.Param("id"), *body.Active)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, toProfile(u))
}

// setRole PATCH /admin/users/:id/role
func (h *Handler) setRole(c *gin.Context) {
	var body struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	u, err := h.svc.SetRole(c.Request.Context(), c.Param("id"), body.Role)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, toProfile(u))
}

// fail maps service errors onto the HTTP error taxonomy.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		response.NotFound(c)
	case errors.Is(err, ErrUsernameTaken):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrBadCredentials), errors.Is(err, ErrWrongOldPassword):
		response.BadRequest(c, "用户名或密码不对哦")
	case errors.Is(err, ErrUnknownRole):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrAccountDisabled):
		response.ForbiddenMsg(c, "账号已被停用")
	default:
		response.InternalError(c, err)
	}
}
