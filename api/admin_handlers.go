package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"inkwell/models"
)

func (m *Module) adminListUsers(c *gin.Context) {
	all := m.users.ListAll()
	safe := []models.User{}
	for _, u := range all {
		safe = append(safe, u.Sanitized())
	}
	c.JSON(http.StatusOK, safe)
}

func (m *Module) setWriterRole(c *gin.Context, role models.Role, message string) {
	user := m.users.GetByID(c.Param("userId"))
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	updated, err := m.users.UpdateRole(user.ID, role)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf(message, user.Username),
		"user":    updated.Sanitized(),
	})
}

func (m *Module) assignWriter(c *gin.Context) {
	m.setWriterRole(c, models.RoleWriter, "User %s is now a writer")
}

func (m *Module) removeWriter(c *gin.Context) {
	m.setWriterRole(c, models.RoleUser, "Writer role removed from %s")
}

func (m *Module) adminListPosts(c *gin.Context) {
	c.JSON(http.StatusOK, m.enrichPosts(m.posts.ListAll()))
}

func (m *Module) adminListComments(c *gin.Context) {
	c.JSON(http.StatusOK, m.enrichComments(m.comments.ListAll(), true))
}

func (m *Module) adminListPendingComments(c *gin.Context) {
	c.JSON(http.StatusOK, m.enrichComments(m.comments.ListPending(), true))
}

func (m *Module) adminStats(c *gin.Context) {
	allUsers := m.users.ListAll()
	allPosts := m.posts.ListAll()
	allComments := m.comments.ListAll()

	writers, published, approved := 0, 0, 0
	for _, u := range allUsers {
		if u.Role == models.RoleWriter {
			writers++
		}
	}
	for _, p := range allPosts {
		if p.Published {
			published++
		}
	}
	for _, cm := range allComments {
		if cm.Approved {
			approved++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"totalUsers":       len(allUsers),
		"totalWriters":     writers,
		"totalPosts":       len(allPosts),
		"publishedPosts":   published,
		"totalComments":    len(allComments),
		"approvedComments": approved,
		"pendingComments":  len(allComments) - approved,
	})
}
