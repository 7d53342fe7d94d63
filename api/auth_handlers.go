package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const minPasswordLength = 6

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (m *Module) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" || req.ConfirmPassword == "" {
		badRequest(c, "All fields are required")
		return
	}
	if req.Password != req.ConfirmPassword {
		badRequest(c, "Passwords do not match")
		return
	}
	if len(req.Password) < minPasswordLength {
		badRequest(c, "Password must be at least 6 characters")
		return
	}

	user, err := m.users.Create(req.Username, req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	token, err := m.tokens.Issue(user.ID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
		"token":   token,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (m *Module) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		badRequest(c, "Username and password are required")
		return
	}

	user := m.users.GetByUsername(req.Username)
	if user == nil || !m.users.VerifyPassword(req.Password, user.PasswordHash) {
		m.log.Info("failed login attempt", zap.String("username", req.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	token, err := m.tokens.Issue(user.ID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user.Sanitized(),
		"token":   token,
	})
}

func (m *Module) me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": currentUser(c).Sanitized()})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (m *Module) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		badRequest(c, "All fields are required")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		badRequest(c, "Passwords do not match")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		badRequest(c, "Password must be at least 6 characters")
		return
	}

	user := currentUser(c)
	if !m.users.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	if !m.users.UpdatePassword(user.ID, req.NewPassword) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}
