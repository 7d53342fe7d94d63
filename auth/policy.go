package auth

import "inkwell/models"

// Access decisions consumed by the HTTP layer. All of these are pure; a nil
// user means an unauthenticated caller.

// CanEditPost allows the post's author and admins. Editing covers updates,
// publishing and deletion.
func CanEditPost(user *models.User, post *models.Post) bool {
	if user == nil || post == nil {
		return false
	}
	return user.ID == post.AuthorID || user.Role == models.RoleAdmin
}

// CanModerate allows admins only.
func CanModerate(user *models.User) bool {
	return user != nil && user.Role == models.RoleAdmin
}

// CanAuthor allows writers and admins to create posts.
func CanAuthor(user *models.User) bool {
	if user == nil {
		return false
	}
	return user.Role == models.RoleWriter || user.Role == models.RoleAdmin
}

// CanDeleteComment allows the comment's author and admins.
func CanDeleteComment(user *models.User, comment *models.Comment) bool {
	if user == nil || comment == nil {
		return false
	}
	return user.ID == comment.AuthorID || user.Role == models.RoleAdmin
}

// VisibleComments returns the comments the viewer may see: everything for
// admins, approved ones for everyone else.
func VisibleComments(user *models.User, comments []models.Comment) []models.Comment {
	if CanModerate(user) {
		return comments
	}
	visible := []models.Comment{}
	for _, c := range comments {
		if c.Approved {
			visible = append(visible, c)
		}
	}
	return visible
}
