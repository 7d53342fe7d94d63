package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"inkwell/auth"
	"inkwell/models"
)

const maxCommentLength = 5000

// commentView is a comment enriched with its author, and for the admin
// listings with the post it belongs to.
type commentView struct {
	models.Comment
	Author authorRef `json:"author"`
	Post   *postRef  `json:"post,omitempty"`
}

type postRef struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
}

func (m *Module) commentAuthorOf(userID string) authorRef {
	if u := m.users.GetByID(userID); u != nil {
		return authorRef{ID: u.ID, Username: u.Username}
	}
	return authorRef{Username: "Anonymous"}
}

func (m *Module) postRefOf(postID string) *postRef {
	if p := m.posts.GetByID(postID); p != nil {
		return &postRef{ID: p.ID, Title: p.Title}
	}
	return &postRef{Title: "Unknown"}
}

func (m *Module) enrichComments(list []models.Comment, withPost bool) []commentView {
	views := []commentView{}
	for _, cm := range list {
		view := commentView{Comment: cm, Author: m.commentAuthorOf(cm.AuthorID)}
		if withPost {
			view.Post = m.postRefOf(cm.PostID)
		}
		views = append(views, view)
	}
	return views
}

func (m *Module) listComments(c *gin.Context) {
	all := m.comments.ListByPost(c.Param("postId"))
	visible := auth.VisibleComments(currentUser(c), all)
	c.JSON(http.StatusOK, m.enrichComments(visible, false))
}

type createCommentRequest struct {
	PostID  string `json:"postId"`
	Content string `json:"content"`
}

func (m *Module) createComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if req.PostID == "" || req.Content == "" {
		badRequest(c, "Post ID and content are required")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		badRequest(c, "Comment cannot be empty")
		return
	}
	if len(req.Content) > maxCommentLength {
		badRequest(c, "Comment is too long (max 5000 characters)")
		return
	}

	user := currentUser(c)
	comment, err := m.comments.Create(req.PostID, user.ID, req.Content)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Comment created successfully (pending approval)",
		"comment": commentView{
			Comment: *comment,
			Author:  authorRef{ID: user.ID, Username: user.Username},
		},
	})
}

func (m *Module) approveComment(c *gin.Context) {
	comment := m.comments.Approve(c.Param("id"))
	if comment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment approved",
		"comment": comment,
	})
}

func (m *Module) deleteComment(c *gin.Context) {
	comment := m.comments.GetByID(c.Param("id"))
	if comment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	if !auth.CanDeleteComment(currentUser(c), comment) {
		forbidden(c, "You can only delete your own comments")
		return
	}

	m.comments.Delete(comment.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
