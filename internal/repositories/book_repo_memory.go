package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"bookshelf/internal/models"

	"github.com/google/uuid"
)

// MemoryBookRepository is an in-memory implementation of BookRepository.
// Owners are resolved through users when listing.
type MemoryBookRepository struct {
	books map[string]models.Book
	users UserRepository
	mu    sync.RWMutex
}

// NewMemoryBookRepository creates a new instance of MemoryBookRepository.
func NewMemoryBookRepository(users UserRepository) *MemoryBookRepository {
	return &MemoryBookRepository{
		books: make(map[string]models.Book),
		users: users,
	}
}

// Create adds a new book. The owner must exist.
func (r *MemoryBookRepository) Create(ctx context.Context, book *models.Book) error {
	if _, err := r.users.GetByID(ctx, book.UserID); err != nil {
		return fmt.Errorf("failed to create book: owner %s: %w", book.UserID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if book.ID == "" {
		book.ID = uuid.New().String()
	}
	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = now
	stored := *book
	stored.Owner = nil
	r.books[book.ID] = stored
	return nil
}

// GetByID returns a book by its ID.
func (r *MemoryBookRepository) GetByID(_ context.Context, id string) (*models.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	book, ok := r.books[id]
	if !ok {
		return nil, fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	return &book, nil
}

// ListByUser returns one window of the user's books.
func (r *MemoryBookRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]models.Book, error) {
	books, err := r.ListAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if offset < 0 || offset >= len(books) {
		return []models.Book{}, nil
	}
	end := len(books)
	if limit >= 0 && limit < end-offset {
		end = offset + limit
	}
	return books[offset:end], nil
}

// ListAllByUser returns every book of the user.
func (r *MemoryBookRepository) ListAllByUser(ctx context.Context, userID string) ([]models.Book, error) {
	r.mu.RLock()
	books := make([]models.Book, 0)
	for _, b := range r.books {
		if b.UserID == userID {
			books = append(books, b)
		}
	}
	r.mu.RUnlock()

	sort.Slice(books, func(i, j int) bool {
		return books[i].CreatedAt.After(books[j].CreatedAt)
	})

	owner, err := r.users.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if owner != nil {
		summary := &models.User{ID: owner.ID, Username: owner.Username, ProfileImage: owner.ProfileImage}
		for i := range books {
			books[i].Owner = summary
		}
	}
	return books, nil
}

// CountByUser counts the user's books.
func (r *MemoryBookRepository) CountByUser(_ context.Context, userID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, b := range r.books {
		if b.UserID == userID {
			count++
		}
	}
	return count, nil
}

// Delete removes a book by its ID.
func (r *MemoryBookRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[id]; !ok {
		return fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	delete(r.books, id)
	return nil
}
