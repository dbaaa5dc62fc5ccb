package repositories

import (
	"context"
	"errors"
	"fmt"

	"bookshelf/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMBookRepository is a GORM implementation of BookRepository.
type GORMBookRepository struct {
	db *gorm.DB
}

// NewGORMBookRepository creates a new instance of GORMBookRepository.
func NewGORMBookRepository(db *gorm.DB) *GORMBookRepository {
	return &GORMBookRepository{
		db: db,
	}
}

// Create inserts a new book.
func (r *GORMBookRepository) Create(ctx context.Context, book *models.Book) error {
	if book.ID == "" {
		book.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit("Owner").Create(book).Error; err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

// GetByID retrieves a single book by its ID.
func (r *GORMBookRepository) GetByID(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("book %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get book %s: %w", id, err)
	}
	return &book, nil
}

// ListByUser returns one window of the user's books.
func (r *GORMBookRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]models.Book, error) {
	var books []models.Book
	err := r.ownedBy(ctx, userID).
		Offset(offset).
		Limit(limit).
		Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list books for user %s: %w", userID, err)
	}
	return books, nil
}

// ListAllByUser returns every book of the user.
func (r *GORMBookRepository) ListAllByUser(ctx context.Context, userID string) ([]models.Book, error) {
	var books []models.Book
	if err := r.ownedBy(ctx, userID).Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to list books for user %s: %w", userID, err)
	}
	return books, nil
}

// CountByUser counts the user's books, ignoring pagination.
func (r *GORMBookRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count books for user %s: %w", userID, err)
	}
	return count, nil
}

// Delete deletes a book by its ID.
func (r *GORMBookRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Book{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete book: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GORMBookRepository) ownedBy(ctx context.Context, userID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Preload("Owner", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "profile_image")
		})
}
