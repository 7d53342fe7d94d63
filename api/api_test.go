package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inkwell/auth"
	"inkwell/comments"
	"inkwell/models"
	"inkwell/posts"
	"inkwell/storage"
	"inkwell/users"
)

type testEnv struct {
	router    *gin.Engine
	directory *users.Directory
	posts     *posts.Store
	comments  *comments.Store
	tokens    *auth.TokenService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	store := storage.NewMemStore()
	directory := users.NewDirectory(store, logger)
	postStore := posts.NewStore(store, logger)
	commentStore := comments.NewStore(store, logger)
	tokens := auth.NewTokenService("test-secret", 7*24*time.Hour, directory, logger)

	router := gin.New()
	NewModule(directory, postStore, commentStore, tokens, logger).RegisterRoutes(router)

	return &testEnv{
		router:    router,
		directory: directory,
		posts:     postStore,
		comments:  commentStore,
		tokens:    tokens,
	}
}

// registerUser creates a user with the given role and returns it with a
// valid bearer token.
func (e *testEnv) registerUser(t *testing.T, username string, role models.Role) (*models.User, string) {
	t.Helper()
	user, err := e.directory.Create(username, username+"@x.com", "secret1")
	require.NoError(t, err)
	if role != models.RoleUser {
		user, err = e.directory.UpdateRole(user.ID, role)
		require.NoError(t, err)
	}
	token, err := e.tokens.Issue(user.ID)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestRegisterLoginMe(t *testing.T) {
	env := setupEnv(t)

	w := env.do("POST", "/api/auth/register", "", gin.H{
		"username":        "alice",
		"email":           "a@x.com",
		"password":        "secret1",
		"confirmPassword": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var registered struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	decode(t, w, &registered)
	assert.NotEmpty(t, registered.User.ID)
	assert.Empty(t, registered.User.PasswordHash)
	require.NotEmpty(t, registered.Token)

	// the issued token resolves back to the same user
	w = env.do("GET", "/api/auth/me", registered.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		User models.User `json:"user"`
	}
	decode(t, w, &me)
	assert.Equal(t, registered.User.ID, me.User.ID)

	w = env.do("POST", "/api/auth/login", "", gin.H{"username": "alice", "password": "secret1"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do("POST", "/api/auth/login", "", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister_DuplicateUsernameAnyCase(t *testing.T) {
	env := setupEnv(t)

	body := gin.H{"username": "alice", "email": "a@x.com", "password": "secret1", "confirmPassword": "secret1"}
	require.Equal(t, http.StatusCreated, env.do("POST", "/api/auth/register", "", body).Code)

	dup := gin.H{"username": "ALICE", "email": "b@x.com", "password": "secret1", "confirmPassword": "secret1"}
	assert.Equal(t, http.StatusConflict, env.do("POST", "/api/auth/register", "", dup).Code)
}

func TestRegister_Validation(t *testing.T) {
	env := setupEnv(t)

	cases := []gin.H{
		{"username": "", "email": "a@x.com", "password": "secret1", "confirmPassword": "secret1"},
		{"username": "alice", "email": "a@x.com", "password": "secret1", "confirmPassword": "other"},
		{"username": "alice", "email": "a@x.com", "password": "short", "confirmPassword": "short"},
	}
	for _, body := range cases {
		assert.Equal(t, http.StatusBadRequest, env.do("POST", "/api/auth/register", "", body).Code)
	}
}

func TestChangePassword(t *testing.T) {
	env := setupEnv(t)
	_, token := env.registerUser(t, "alice", models.RoleUser)

	w := env.do("POST", "/api/auth/change-password", token, gin.H{
		"currentPassword": "wrong",
		"newPassword":     "newsecret",
		"confirmPassword": "newsecret",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("POST", "/api/auth/change-password", token, gin.H{
		"currentPassword": "secret1",
		"newPassword":     "newsecret",
		"confirmPassword": "newsecret",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do("POST", "/api/auth/login", "", gin.H{"username": "alice", "password": "newsecret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreatePost_RoleGating(t *testing.T) {
	env := setupEnv(t)
	_, readerToken := env.registerUser(t, "reader", models.RoleUser)
	_, writerToken := env.registerUser(t, "writer", models.RoleWriter)

	body := gin.H{"title": "Hello", "content": "Body", "slug": "hello-world"}

	assert.Equal(t, http.StatusUnauthorized, env.do("POST", "/api/posts", "", body).Code)
	assert.Equal(t, http.StatusForbidden, env.do("POST", "/api/posts", readerToken, body).Code)
	assert.Equal(t, http.StatusCreated, env.do("POST", "/api/posts", writerToken, body).Code)
}

func TestCreatePost_SlugConflictBetweenWriters(t *testing.T) {
	env := setupEnv(t)
	_, first := env.registerUser(t, "writer1", models.RoleWriter)
	_, second := env.registerUser(t, "writer2", models.RoleWriter)

	body := gin.H{"title": "Hello", "content": "Body", "slug": "hello-world"}
	require.Equal(t, http.StatusCreated, env.do("POST", "/api/posts", first, body).Code)
	assert.Equal(t, http.StatusConflict, env.do("POST", "/api/posts", second, body).Code)
}

func TestPostVisibilityAndViews(t *testing.T) {
	env := setupEnv(t)
	writer, writerToken := env.registerUser(t, "writer", models.RoleWriter)

	post, err := env.posts.Create(writer.ID, "Hello", "# Heading\n\nBody", "hello", "", "")
	require.NoError(t, err)

	// unpublished: hidden from the public list, forbidden on direct read
	w := env.do("GET", "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []postView
	decode(t, w, &listed)
	assert.Empty(t, listed)

	assert.Equal(t, http.StatusForbidden, env.do("GET", "/api/posts/"+post.ID, "", nil).Code)

	require.Equal(t, http.StatusOK, env.do("POST", "/api/posts/"+post.ID+"/publish", writerToken, nil).Code)

	// published: listed with author, readable, views counted, markdown rendered
	w = env.do("GET", "/api/posts", "", nil)
	decode(t, w, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, "writer", listed[0].Author.Username)
	assert.Empty(t, listed[0].Author.Email, "list reads carry the slim author block")

	w = env.do("GET", "/api/posts/"+post.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var read postView
	decode(t, w, &read)
	assert.Equal(t, 1, read.Views)
	assert.Equal(t, "writer@x.com", read.Author.Email)
	assert.Contains(t, read.ContentHTML, "<h1>Heading</h1>")

	env.do("GET", "/api/posts/"+post.ID, "", nil)
	assert.Equal(t, 2, env.posts.GetByID(post.ID).Views, "each public read increments views")
}

func TestUpdatePost_OwnershipEnforced(t *testing.T) {
	env := setupEnv(t)
	writer, writerToken := env.registerUser(t, "writer", models.RoleWriter)
	_, otherToken := env.registerUser(t, "other", models.RoleWriter)
	_, adminToken := env.registerUser(t, "boss", models.RoleAdmin)

	post, err := env.posts.Create(writer.ID, "Hello", "Body", "hello", "", "")
	require.NoError(t, err)

	update := gin.H{"title": "Renamed"}
	assert.Equal(t, http.StatusForbidden, env.do("PUT", "/api/posts/"+post.ID, otherToken, update).Code)
	assert.Equal(t, http.StatusOK, env.do("PUT", "/api/posts/"+post.ID, writerToken, update).Code)
	assert.Equal(t, http.StatusOK, env.do("PUT", "/api/posts/"+post.ID, adminToken, gin.H{"category": "Life"}).Code)

	updated := env.posts.GetByID(post.ID)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "Life", updated.Category)
	assert.Equal(t, "Body", updated.Content)
}

func TestDeletePost(t *testing.T) {
	env := setupEnv(t)
	writer, writerToken := env.registerUser(t, "writer", models.RoleWriter)
	_, otherToken := env.registerUser(t, "other", models.RoleUser)

	post, err := env.posts.Create(writer.ID, "Hello", "Body", "hello", "", "")
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, env.do("DELETE", "/api/posts/"+post.ID, otherToken, nil).Code)
	assert.Equal(t, http.StatusOK, env.do("DELETE", "/api/posts/"+post.ID, writerToken, nil).Code)
	assert.Nil(t, env.posts.GetByID(post.ID))
	assert.Equal(t, http.StatusNotFound, env.do("DELETE", "/api/posts/"+post.ID, writerToken, nil).Code)
}

func TestCommentModerationFlow(t *testing.T) {
	env := setupEnv(t)
	writer, _ := env.registerUser(t, "writer", models.RoleWriter)
	reader, readerToken := env.registerUser(t, "reader", models.RoleUser)
	_, adminToken := env.registerUser(t, "boss", models.RoleAdmin)

	post, err := env.posts.Create(writer.ID, "Hello", "Body", "hello", "", "")
	require.NoError(t, err)
	env.posts.Publish(post.ID)

	w := env.do("POST", "/api/comments", readerToken, gin.H{"postId": post.ID, "content": "First!"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Comment commentView `json:"comment"`
	}
	decode(t, w, &created)
	assert.False(t, created.Comment.Approved)
	assert.Equal(t, reader.ID, created.Comment.AuthorID)

	// pending comment: hidden from regular viewers, visible to admins
	var visible []commentView
	w = env.do("GET", "/api/comments/post/"+post.ID, readerToken, nil)
	decode(t, w, &visible)
	assert.Empty(t, visible)

	w = env.do("GET", "/api/comments/post/"+post.ID, adminToken, nil)
	decode(t, w, &visible)
	assert.Len(t, visible, 1)

	// approval is admin-only
	approvePath := "/api/comments/" + created.Comment.ID + "/approve"
	assert.Equal(t, http.StatusForbidden, env.do("POST", approvePath, readerToken, nil).Code)
	require.Equal(t, http.StatusOK, env.do("POST", approvePath, adminToken, nil).Code)

	w = env.do("GET", "/api/comments/post/"+post.ID, "", nil)
	decode(t, w, &visible)
	require.Len(t, visible, 1)
	assert.True(t, visible[0].Approved)
	assert.Equal(t, "reader", visible[0].Author.Username)
}

func TestCommentValidation(t *testing.T) {
	env := setupEnv(t)
	_, token := env.registerUser(t, "reader", models.RoleUser)

	assert.Equal(t, http.StatusBadRequest, env.do("POST", "/api/comments", token, gin.H{"postId": "", "content": "hi"}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do("POST", "/api/comments", token, gin.H{"postId": "p", "content": "   "}).Code)

	long := make([]byte, maxCommentLength+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.Equal(t, http.StatusBadRequest, env.do("POST", "/api/comments", token, gin.H{"postId": "p", "content": string(long)}).Code)
}

func TestDeleteComment_Ownership(t *testing.T) {
	env := setupEnv(t)
	reader, readerToken := env.registerUser(t, "reader", models.RoleUser)
	_, otherToken := env.registerUser(t, "other", models.RoleUser)
	_, adminToken := env.registerUser(t, "boss", models.RoleAdmin)

	first, err := env.comments.Create("post-1", reader.ID, "mine")
	require.NoError(t, err)
	second, err := env.comments.Create("post-1", reader.ID, "also mine")
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, env.do("DELETE", "/api/comments/"+first.ID, otherToken, nil).Code)
	assert.Equal(t, http.StatusOK, env.do("DELETE", "/api/comments/"+first.ID, readerToken, nil).Code)
	assert.Equal(t, http.StatusOK, env.do("DELETE", "/api/comments/"+second.ID, adminToken, nil).Code)
	assert.Empty(t, env.comments.ListAll())
}

func TestAdminEndpoints_RequireAdmin(t *testing.T) {
	env := setupEnv(t)
	_, readerToken := env.registerUser(t, "reader", models.RoleUser)

	paths := []string{
		"/api/admin/users",
		"/api/admin/posts",
		"/api/admin/comments",
		"/api/admin/comments/pending",
		"/api/admin/stats",
	}
	for _, path := range paths {
		assert.Equal(t, http.StatusUnauthorized, env.do("GET", path, "", nil).Code, path)
		assert.Equal(t, http.StatusForbidden, env.do("GET", path, readerToken, nil).Code, path)
	}
}

func TestAdminRoleManagement(t *testing.T) {
	env := setupEnv(t)
	reader, _ := env.registerUser(t, "reader", models.RoleUser)
	_, adminToken := env.registerUser(t, "boss", models.RoleAdmin)

	w := env.do("POST", "/api/admin/users/"+reader.ID+"/assign-writer", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleWriter, env.directory.GetByID(reader.ID).Role)

	w = env.do("POST", "/api/admin/users/"+reader.ID+"/remove-writer", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleUser, env.directory.GetByID(reader.ID).Role)

	assert.Equal(t, http.StatusNotFound, env.do("POST", "/api/admin/users/ghost/assign-writer", adminToken, nil).Code)
}

func TestAdminListUsers_StripsHashes(t *testing.T) {
	env := setupEnv(t)
	env.registerUser(t, "reader", models.RoleUser)
	_, adminToken := env.registerUser(t, "boss", models.RoleAdmin)

	w := env.do("GET", "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listed []models.User
	decode(t, w, &listed)
	require.Len(t, listed, 2)
	for _, u := range listed {
		assert.Empty(t, u.PasswordHash)
	}
}

func TestAdminStats(t *testing.T) {
	env := setupEnv(t)
	writer, _ := env.registerUser(t, "writer", models.RoleWriter)
	reader, _ := env.registerUser(t, "reader", models.RoleUser)
	_, adminToken := env.registerUser(t, "boss", models.RoleAdmin)

	published, err := env.posts.Create(writer.ID, "One", "Body", "one", "", "")
	require.NoError(t, err)
	env.posts.Publish(published.ID)
	_, err = env.posts.Create(writer.ID, "Two", "Body", "two", "", "")
	require.NoError(t, err)

	first, err := env.comments.Create(published.ID, reader.ID, "hi")
	require.NoError(t, err)
	env.comments.Approve(first.ID)
	_, err = env.comments.Create(published.ID, reader.ID, "pending")
	require.NoError(t, err)

	w := env.do("GET", "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats map[string]int
	decode(t, w, &stats)
	assert.Equal(t, 3, stats["totalUsers"])
	assert.Equal(t, 1, stats["totalWriters"])
	assert.Equal(t, 2, stats["totalPosts"])
	assert.Equal(t, 1, stats["publishedPosts"])
	assert.Equal(t, 2, stats["totalComments"])
	assert.Equal(t, 1, stats["approvedComments"])
	assert.Equal(t, 1, stats["pendingComments"])
}

func TestExpiredTokenRejected(t *testing.T) {
	env := setupEnv(t)
	user, _ := env.registerUser(t, "alice", models.RoleUser)

	expired := auth.NewTokenService("test-secret", -time.Minute, env.directory, zap.NewNop())
	token, err := expired.Issue(user.ID)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, env.do("GET", "/api/auth/me", token, nil).Code)
}
