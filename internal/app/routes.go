package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clubworks/core/internal/config"
	"github.com/clubworks/core/internal/middleware"
	"github.com/clubworks/core/internal/modules/auth/user"
	"github.com/clubworks/core/internal/modules/certificate"
	"github.com/clubworks/core/internal/modules/content/block"
	"github.com/clubworks/core/internal/modules/content/post"
	"github.com/clubworks/core/internal/modules/member"
	"github.com/clubworks/core/internal/modules/project"
	"github.com/clubworks/core/internal/modules/render"
	"github.com/clubworks/core/internal/modules/stats/dashboard"
	"github.com/clubworks/core/internal/modules/storage/image"
	"github.com/clubworks/core/internal/pkg/response"
)

var processStart = time.Now()

func (a *App) registerRoutes() {
	r := a.router
	db := a.db

	authMW := middleware.Auth(db)
	adminMW := middleware.RequireAdmin()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	staticDir := config.ResolveRuntimePath(a.cfg.Paths.Static, "static")
	r.Static("/static", staticDir)

	api := r.Group("", middleware.OptionalAuth(db), middleware.RateLimit(a.rc.Raw()))

	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"uptime": time.Since(processStart).Truncate(time.Second).String(),
		})
	})

	var store image.ObjectStore
	if a.cfg.S3.Enabled() {
		store = image.NewS3Store(a.cfg.S3)
	} else {
		store = image.NewLocalStore(staticDir, a.publicBase()+"/static")
	}

	userSvc := user.NewService(db)
	memberSvc := member.NewService(db)
	authz := block.NewAuthorizer(db, a.rc)
	postSvc := post.NewService(db, a.rc, authz)
	blockSvc := block.NewService(db, authz)
	projectSvc := project.NewService(db)
	certSvc := certificate.NewService(db)
	imageSvc := image.NewService(db, store)
	renderSvc := render.NewService(postSvc, blockSvc, imageSvc.URLFor)
	dashSvc := dashboard.NewService(db)

	a.postSvc = postSvc

	user.NewHandler(userSvc).RegisterRoutes(api, authMW, adminMW)
	member.NewHandler(memberSvc).RegisterRoutes(api)
	post.NewHandler(postSvc).RegisterRoutes(api, authMW)
	block.NewHandler(blockSvc, imageSvc.URLFor).RegisterRoutes(api, authMW)
	project.NewHandler(projectSvc).RegisterRoutes(api, authMW, adminMW)
	certificate.NewHandler(certSvc).RegisterRoutes(api, authMW, adminMW)
	image.NewHandler(imageSvc).RegisterRoutes(api, authMW)
	render.NewHandler(renderSvc).RegisterRoutes(api)
	dashboard.NewHandler(dashSvc).RegisterRoutes(api, authMW, adminMW)

	// member portfolio, backed by the project module
	api.GET("/members/:id/projects", func(c *gin.Context) {
		detail, err := memberSvc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			response.NotFound(c)
			return
		}
		projects, err := projectSvc.ForMember(c.Request.Context(), detail.ID)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		response.OK(c, projects)
	})

	// scheduler introspection for the admin panel
	cron := api.Group("/admin/cron", authMW, adminMW)
	cron.GET("", func(c *gin.Context) {
		response.OK(c, a.sched.List())
	})
	cron.GET("/:name", func(c *gin.Context) {
		task, err := a.sched.GetTask(c.Param("name"))
		if err != nil {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.OK(c, task)
	})
	cron.POST("/:name/run", func(c *gin.Context) {
		if err := a.sched.Run(c.Request.Context(), c.Param("name")); err != nil {
			response.NotFoundMsg(c, err.Error())
			return
		}
		c.JSON(200, gin.H{"success": true})
	})
}

// publicBase is the externally visible URL prefix for locally stored files.
func (a *App) publicBase() string {
	if base := strings.TrimSpace(a.cfg.PublicBaseURL); base != "" {
		return strings.TrimRight(base, "/")
	}
	return fmt.Sprintf("http://localhost:%d", a.cfg.Port)
}
