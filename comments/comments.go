package comments

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"inkwell/models"
	"inkwell/storage"
)

const collection = "comments"

// Store manages the comment collection.
type Store struct {
	mu    sync.Mutex
	store storage.Store
	log   *zap.Logger
}

func NewStore(store storage.Store, logger *zap.Logger) *Store {
	return &Store{store: store, log: logger.Named("comments")}
}

func (s *Store) load() []models.Comment {
	all := []models.Comment{}
	s.store.Load(collection, &all)
	return all
}

// ListByPost returns a post's comments, oldest first.
func (s *Store) ListByPost(postID string) []models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	byPost := []models.Comment{}
	for _, c := range s.load() {
		if c.PostID == postID {
			byPost = append(byPost, c)
		}
	}
	sort.SliceStable(byPost, func(i, j int) bool {
		return byPost[i].CreatedAt.Before(byPost[j].CreatedAt)
	})
	return byPost
}

func (s *Store) ListAll() []models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// ListPending returns the moderation queue: comments not yet approved.
func (s *Store) ListPending() []models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := []models.Comment{}
	for _, c := range s.load() {
		if !c.Approved {
			pending = append(pending, c)
		}
	}
	return pending
}

func (s *Store) GetByID(id string) *models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.load() {
		if c.ID == id {
			return &c
		}
	}
	return nil
}

// Create adds a comment awaiting approval. The post id is taken as given;
// referential integrity against the post collection is the caller's concern.
func (s *Store) Create(postID, authorID, content string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment := models.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
		Approved:  false,
	}

	all := append(s.load(), comment)
	if !s.store.Save(collection, all) {
		return nil, models.ErrStorage
	}

	s.log.Info("comment created", zap.String("id", comment.ID), zap.String("postId", postID))
	return &comment, nil
}

// Approve marks the comment approved. Approving twice is a no-op.
func (s *Store) Approve(id string) *models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load()
	for i := range all {
		if all[i].ID != id {
			continue
		}
		all[i].Approved = true
		if !s.store.Save(collection, all) {
			return nil
		}
		s.log.Info("comment approved", zap.String("id", id))
		c := all[i]
		return &c
	}
	return nil
}

// Delete removes the comment, reporting success whether or not it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load()
	kept := all[:0]
	for _, c := range all {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.store.Save(collection, kept)
	return true
}
