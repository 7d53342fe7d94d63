package posts

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"inkwell/models"
	"inkwell/storage"
)

const collection = "posts"

// Store manages the post collection.
type Store struct {
	mu    sync.Mutex
	store storage.Store
	log   *zap.Logger
}

// Update carries the fields a partial post update may change. Nil fields are
// left untouched.
type Update struct {
	Title       *string
	Content     *string
	Description *string
	Category    *string
}

func NewStore(store storage.Store, logger *zap.Logger) *Store {
	return &Store{store: store, log: logger.Named("posts")}
}

func (s *Store) load() []models.Post {
	all := []models.Post{}
	s.store.Load(collection, &all)
	return all
}

func sortByNewest(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

// ListAll returns every post, newest first.
func (s *Store) ListAll() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.load()
	sortByNewest(all)
	return all
}

func (s *Store) GetByID(id string) *models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.load() {
		if p.ID == id {
			return &p
		}
	}
	return nil
}

// ListByAuthor returns the author's posts, newest first.
func (s *Store) ListByAuthor(authorID string) []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	byAuthor := []models.Post{}
	for _, p := range s.load() {
		if p.AuthorID == authorID {
			byAuthor = append(byAuthor, p)
		}
	}
	sortByNewest(byAuthor)
	return byAuthor
}

// Create adds an unpublished post. The slug must not be used by any existing
// post (exact match).
func (s *Store) Create(authorID, title, content, slug, description, category string) (*models.Post, error) {
	if category == "" {
		category = "Uncategorized"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load()
	for _, p := range all {
		if p.Slug == slug {
			s.log.Warn("post creation conflict on slug", zap.String("slug", slug))
			return nil, models.ErrSlugTaken
		}
	}

	now := time.Now().UTC()
	post := models.Post{
		ID:          uuid.NewString(),
		AuthorID:    authorID,
		Title:       title,
		Content:     content,
		Slug:        slug,
		Description: description,
		Category:    category,
		CreatedAt:   now,
		UpdatedAt:   now,
		Published:   false,
		Views:       0,
	}

	all = append(all, post)
	if !s.store.Save(collection, all) {
		return nil, models.ErrStorage
	}

	s.log.Info("post created", zap.String("id", post.ID), zap.String("slug", post.Slug))
	return &post, nil
}

// Update merges non-nil fields of upd into the post and stamps UpdatedAt.
// Slug uniqueness is not re-checked here; the slug itself cannot change.
func (s *Store) Update(id string, upd Update) *models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load()
	for i := range all {
		if all[i].ID != id {
			continue
		}
		if upd.Title != nil {
			all[i].Title = *upd.Title
		}
		if upd.Content != nil {
			all[i].Content = *upd.Content
		}
		if upd.Description != nil {
			all[i].Description = *upd.Description
		}
		if upd.Category != nil {
			all[i].Category = *upd.Category
		}
		all[i].UpdatedAt = time.Now().UTC()
		if !s.store.Save(collection, all) {
			return nil
		}
		p := all[i]
		return &p
	}
	return nil
}

// Publish flips the post to published. Re-publishing an already published
// post only refreshes UpdatedAt.
func (s *Store) Publish(id string) *models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load()
	for i := range all {
		if all[i].ID != id {
			continue
		}
		all[i].Published = true
		all[i].UpdatedAt = time.Now().UTC()
		if !s.store.Save(collection, all) {
			return nil
		}
		s.log.Info("post published", zap.String("id", id))
		p := all[i]
		return &p
	}
	return nil
}

// Delete removes the post. It reports success whether or not the id existed;
// callers needing an existence check must do it beforehand.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load()
	kept := all[:0]
	for _, p := range all {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.store.Save(collection, kept)
	return true
}

// IncrementViews bumps the view counter by one.
func (s *Store) IncrementViews(id string) *models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load()
	for i := range all {
		if all[i].ID != id {
			continue
		}
		all[i].Views++
		if !s.store.Save(collection, all) {
			return nil
		}
		p := all[i]
		return &p
	}
	return nil
}
