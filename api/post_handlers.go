package api

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"inkwell/auth"
	"inkwell/models"
	"inkwell/posts"
)

// markdown renderer for post bodies, GFM feature set
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
)

func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return content
	}
	return buf.String()
}

// postView is a post enriched with its author; ContentHTML is only set on
// single-post reads.
type postView struct {
	models.Post
	Author      authorRef `json:"author"`
	ContentHTML string    `json:"contentHtml,omitempty"`
}

func (m *Module) enrichPosts(list []models.Post) []postView {
	views := []postView{}
	for _, p := range list {
		views = append(views, postView{Post: p, Author: m.authorOf(p.AuthorID)})
	}
	return views
}

func publishedOnly(list []models.Post) []models.Post {
	published := []models.Post{}
	for _, p := range list {
		if p.Published {
			published = append(published, p)
		}
	}
	return published
}

func (m *Module) listPosts(c *gin.Context) {
	c.JSON(http.StatusOK, m.enrichPosts(publishedOnly(m.posts.ListAll())))
}

func (m *Module) getPost(c *gin.Context) {
	post := m.posts.GetByID(c.Param("id"))
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if !post.Published {
		forbidden(c, "Post not published")
		return
	}

	if counted := m.posts.IncrementViews(post.ID); counted != nil {
		post = counted
	}

	c.JSON(http.StatusOK, postView{
		Post:        *post,
		Author:      m.authorDetailOf(post.AuthorID),
		ContentHTML: renderMarkdown(post.Content),
	})
}

func (m *Module) listPostsByUser(c *gin.Context) {
	posts := publishedOnly(m.posts.ListByAuthor(c.Param("userId")))
	c.JSON(http.StatusOK, m.enrichPosts(posts))
}

type createPostRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func (m *Module) createPost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if req.Title == "" || req.Content == "" || req.Slug == "" {
		badRequest(c, "Title, content, and slug are required")
		return
	}

	post, err := m.posts.Create(currentUser(c).ID, req.Title, req.Content, req.Slug, req.Description, req.Category)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created successfully",
		"post":    post,
	})
}

type updatePostRequest struct {
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
}

// editablePost loads the post and checks the caller may edit it. Responds
// and returns nil when not.
func (m *Module) editablePost(c *gin.Context) *models.Post {
	post := m.posts.GetByID(c.Param("id"))
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return nil
	}
	if !auth.CanEditPost(currentUser(c), post) {
		forbidden(c, "You can only modify your own posts")
		return nil
	}
	return post
}

func (m *Module) updatePost(c *gin.Context) {
	post := m.editablePost(c)
	if post == nil {
		return
	}

	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	updated := m.posts.Update(post.ID, posts.Update{
		Title:       req.Title,
		Content:     req.Content,
		Description: req.Description,
		Category:    req.Category,
	})
	if updated == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Post updated successfully",
		"post":    updated,
	})
}

func (m *Module) publishPost(c *gin.Context) {
	post := m.editablePost(c)
	if post == nil {
		return
	}

	published := m.posts.Publish(post.ID)
	if published == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Post published successfully",
		"post":    published,
	})
}

func (m *Module) deletePost(c *gin.Context) {
	post := m.editablePost(c)
	if post == nil {
		return
	}

	m.posts.Delete(post.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}
