package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inkwell/auth"
	"inkwell/comments"
	"inkwell/models"
	"inkwell/posts"
	"inkwell/users"
)

// Module is the JSON API over the managers. It owns no logic of its own:
// authorization decisions come from the auth package and all state changes
// go through the stores.
type Module struct {
	users    *users.Directory
	posts    *posts.Store
	comments *comments.Store
	tokens   *auth.TokenService
	log      *zap.Logger
}

func NewModule(directory *users.Directory, postStore *posts.Store, commentStore *comments.Store, tokens *auth.TokenService, logger *zap.Logger) *Module {
	return &Module{
		users:    directory,
		posts:    postStore,
		comments: commentStore,
		tokens:   tokens,
		log:      logger.Named("api"),
	}
}

func (m *Module) RegisterRoutes(router *gin.Engine) {
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register", m.register)
		authGroup.POST("/login", m.login)
		authGroup.GET("/me", m.requireAuth, m.me)
		authGroup.POST("/change-password", m.requireAuth, m.changePassword)
	}

	postGroup := router.Group("/api/posts")
	{
		postGroup.GET("", m.listPosts)
		postGroup.GET("/:id", m.getPost)
		postGroup.GET("/user/:userId", m.listPostsByUser)
		postGroup.POST("", m.requireAuth, m.requireWriter, m.createPost)
		postGroup.PUT("/:id", m.requireAuth, m.updatePost)
		postGroup.POST("/:id/publish", m.requireAuth, m.publishPost)
		postGroup.DELETE("/:id", m.requireAuth, m.deletePost)
	}

	commentGroup := router.Group("/api/comments")
	{
		commentGroup.GET("/post/:postId", m.optionalAuth, m.listComments)
		commentGroup.POST("", m.requireAuth, m.createComment)
		commentGroup.POST("/:id/approve", m.requireAuth, m.requireAdmin, m.approveComment)
		commentGroup.DELETE("/:id", m.requireAuth, m.deleteComment)
	}

	adminGroup := router.Group("/api/admin", m.requireAuth, m.requireAdmin)
	{
		adminGroup.GET("/users", m.adminListUsers)
		adminGroup.POST("/users/:userId/assign-writer", m.assignWriter)
		adminGroup.POST("/users/:userId/remove-writer", m.removeWriter)
		adminGroup.GET("/posts", m.adminListPosts)
		adminGroup.GET("/comments", m.adminListComments)
		adminGroup.GET("/comments/pending", m.adminListPendingComments)
		adminGroup.GET("/stats", m.adminStats)
	}
}

// authorRef is the slim author block embedded in enriched responses. Email
// is only filled on single-post reads.
type authorRef struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

func (m *Module) authorOf(userID string) authorRef {
	if u := m.users.GetByID(userID); u != nil {
		return authorRef{ID: u.ID, Username: u.Username}
	}
	return authorRef{Username: "Unknown"}
}

// authorDetailOf is authorOf plus the author's email.
func (m *Module) authorDetailOf(userID string) authorRef {
	ref := m.authorOf(userID)
	if u := m.users.GetByID(userID); u != nil {
		ref.Email = u.Email
	}
	return ref
}

// fail translates domain errors into HTTP statuses.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case models.IsConflict(err):
		status = http.StatusConflict
	case errors.Is(err, models.ErrInvalidRole):
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

func forbidden(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msg})
}
