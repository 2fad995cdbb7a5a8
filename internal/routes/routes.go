package routes

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/01moynul/pixelpulse-golang/internal/handlers"
	"github.com/01moynul/pixelpulse-golang/internal/middleware"
	"github.com/01moynul/pixelpulse-golang/internal/models"
	"github.com/01moynul/pixelpulse-golang/internal/uploads"
	"github.com/gin-gonic/gin"
)

// Options are the router settings that don't belong to the handlers.
type Options struct {
	CORSOrigin string

	// UploadDir is served at /uploads when set (local upload backend).
	UploadDir string

	// FrontendDir is a built single-page app served for non-API paths.
	FrontendDir string
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(h.Logger))

	// --- APPLY THE CORS GUARD ---
	// This must run before any route so preflight requests are answered
	router.Use(middleware.CORSMiddleware(opts.CORSOrigin))

	if opts.UploadDir != "" {
		router.Static(uploads.PublicPrefix, opts.UploadDir)
	}

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "API is running...")
	})

	requireAuth := middleware.AuthMiddleware(h.Tokens, h.Store, h.Logger)
	requireAdmin := middleware.AdminMiddleware()

	api := router.Group("/api")
	{
		// --- Ping Route (Public) ---
		api.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Auth Routes (Public) ---
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", middleware.ValidateJSON[models.RegisterInput](), h.Register)
			authRoutes.POST("/login", middleware.ValidateJSON[models.LoginInput](), h.Login)
		}

		// --- Post Routes ---
		posts := api.Group("/posts")
		{
			posts.GET("", h.GetPosts)
			posts.GET("/:id", h.GetPostByID)

			posts.POST("", requireAuth, requireAdmin, middleware.ValidateJSON[models.PostInput](), h.CreatePost)
			posts.PUT("/:id", requireAuth, requireAdmin, middleware.ValidateJSON[models.PostInput](), h.UpdatePost)
			posts.DELETE("/:id", requireAuth, requireAdmin, h.DeletePost)

			posts.POST("/:id/like", requireAuth, h.LikePost)
			posts.POST("/:id/comment", requireAuth, middleware.ValidateJSON[models.CommentInput](), h.CommentOnPost)
			posts.POST("/:id/save", requireAuth, h.SavePost)
		}

		// --- User Routes ---
		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("/saved", h.GetSavedPosts)

			users.GET("", requireAdmin, h.GetUsers)
			users.GET("/:id", requireAdmin, h.GetUserByID)
			users.PUT("/:id", requireAdmin, middleware.ValidateJSON[models.UpdateUserInput](), h.UpdateUser)
			users.DELETE("/:id", requireAdmin, h.DeleteUser)
		}

		// --- Category Routes ---
		categories := api.Group("/categories")
		{
			categories.GET("", h.GetCategories)
			categories.GET("/:id", h.GetCategory)

			categories.POST("", requireAuth, requireAdmin, middleware.ValidateJSON[models.CategoryInput](), h.CreateCategory)
			categories.PUT("/:id", requireAuth, requireAdmin, middleware.ValidateJSON[models.CategoryInput](), h.UpdateCategory)
			categories.DELETE("/:id", requireAuth, requireAdmin, h.DeleteCategory)
		}

		// --- Upload Routes ---
		upload := api.Group("/upload")
		upload.Use(requireAuth)
		{
			upload.POST("", h.UploadImage)
			upload.DELETE("/:filename", h.DeleteImage)
		}
	}

	if opts.FrontendDir != "" {
		serveFrontend(router, opts.FrontendDir)
	}

	return router
}

// serveFrontend serves the built SPA: existing files as-is, any other
// non-API path falls back to index.html so client-side routes work.
func serveFrontend(router *gin.Engine, dir string) {
	index := filepath.Join(dir, "index.html")
	files := http.Dir(dir)

	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, gin.H{"message": "Not found - " + path})
			return
		}
		if f, err := files.Open(path); err == nil {
			stat, statErr := f.Stat()
			f.Close()
			if statErr == nil && !stat.IsDir() {
				c.File(filepath.Join(dir, filepath.FromSlash(path)))
				return
			}
		}
		c.File(index)
	})
}
