package users

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"inkwell/models"
	"inkwell/storage"
)

const collection = "users"

// Directory manages the user collection: lookups, registration, password
// hashing and role changes. A single mutex serializes the load-mutate-save
// cycles so concurrent callers cannot lose updates.
type Directory struct {
	mu    sync.Mutex
	store storage.Store
	log   *zap.Logger
}

func NewDirectory(store storage.Store, logger *zap.Logger) *Directory {
	return &Directory{store: store, log: logger.Named("users")}
}

func (d *Directory) load() []models.User {
	all := []models.User{}
	d.store.Load(collection, &all)
	return all
}

func (d *Directory) ListAll() []models.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load()
}

func (d *Directory) GetByID(id string) *models.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.load() {
		if u.ID == id {
			return &u
		}
	}
	return nil
}

func (d *Directory) GetByUsername(username string) *models.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.load() {
		if strings.EqualFold(u.Username, username) {
			return &u
		}
	}
	return nil
}

// Create registers a new user with the default role. Username and email
// uniqueness is case-insensitive. The returned record has the password hash
// stripped.
func (d *Directory) Create(username, email, password string) (*models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	all := d.load()
	for _, u := range all {
		if strings.EqualFold(u.Username, username) {
			d.log.Warn("registration conflict on username", zap.String("username", username))
			return nil, models.ErrUsernameTaken
		}
	}
	for _, u := range all {
		if strings.EqualFold(u.Email, email) {
			d.log.Warn("registration conflict on email", zap.String("email", email))
			return nil, models.ErrEmailTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}

	all = append(all, user)
	if !d.store.Save(collection, all) {
		return nil, models.ErrStorage
	}

	d.log.Info("user created", zap.String("id", user.ID), zap.String("username", user.Username))
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// VerifyPassword checks plain against a stored bcrypt hash.
func (d *Directory) VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// UpdateRole sets the user's role. The role must be one of the known values.
func (d *Directory) UpdateRole(id string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, models.ErrInvalidRole
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	all := d.load()
	for i := range all {
		if all[i].ID == id {
			all[i].Role = role
			if !d.store.Save(collection, all) {
				return nil, models.ErrStorage
			}
			d.log.Info("user role updated", zap.String("id", id), zap.String("role", string(role)))
			u := all[i]
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

// UpdatePassword rehashes and stores a new password. Returns false when the
// user does not exist or the write did not take effect.
func (d *Directory) UpdatePassword(id, newPassword string) bool {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	all := d.load()
	for i := range all {
		if all[i].ID == id {
			all[i].PasswordHash = string(hash)
			if !d.store.Save(collection, all) {
				return false
			}
			d.log.Info("user password updated", zap.String("id", id))
			return true
		}
	}
	return false
}
