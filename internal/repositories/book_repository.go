package repositories

import (
	"context"

	"bookshelf/internal/models"
)

// BookRepository defines the interface for book data access.
// Listing methods return books newest first with the owner preloaded.
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id string) (*models.Book, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]models.Book, error)
	ListAllByUser(ctx context.Context, userID string) ([]models.Book, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id string) error
}
