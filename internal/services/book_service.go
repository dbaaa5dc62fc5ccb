package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"bookshelf/internal/media"
	"bookshelf/internal/models"
	"bookshelf/internal/repositories"
)

// Pagination defaults for book listings.
const (
	DefaultPage  = 1
	DefaultLimit = 5
	MaxLimit     = 50
)

// EventPublisher publishes book events to a message broker.
type EventPublisher interface {
	PublishBookEvent(event models.BookEvent) error
}

// CreateBookInput carries the fields of a new book post.
type CreateBookInput struct {
	Title   string
	Author  string
	Caption string
	Rating  float64
	Image   media.Image
}

// BookService handles business logic related to books.
type BookService struct {
	repo   repositories.BookRepository
	media  media.Store
	events EventPublisher // nil disables events
	log    *slog.Logger
}

// NewBookService creates a new BookService. events may be nil.
func NewBookService(repo repositories.BookRepository, store media.Store, events EventPublisher, log *slog.Logger) *BookService {
	return &BookService{
		repo:   repo,
		media:  store,
		events: events,
		log:    log,
	}
}

// CreateBook uploads the cover image and stores the book for owner. If the
// record cannot be stored the uploaded image is removed again.
func (s *BookService) CreateBook(ctx context.Context, ownerID string, in CreateBookInput) (*models.Book, error) {
	imageURL, err := s.media.Upload(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	book := &models.Book{
		Title:   in.Title,
		Author:  in.Author,
		Caption: in.Caption,
		Rating:  in.Rating,
		Image:   imageURL,
		UserID:  ownerID,
	}
	if err := s.repo.Create(ctx, book); err != nil {
		if key, ok := s.media.KeyFromURL(imageURL); ok {
			if delErr := s.media.Delete(ctx, key); delErr != nil {
				s.log.WarnContext(ctx, "failed to remove orphaned image", "key", key, "error", delErr)
			}
		}
		return nil, err
	}

	s.publish(ctx, models.EventBookCreated, book)
	return book, nil
}

// ListBooks returns one page of the user's books, newest first. Page and
// limit below 1 fall back to the defaults; limit is capped at MaxLimit.
func (s *BookService) ListBooks(ctx context.Context, userID string, page, limit int) (*models.BookPage, error) {
	page, limit = normalizePage(page, limit)

	books := []models.Book{}
	if offset, ok := pageOffset(page, limit); ok {
		var err error
		books, err = s.repo.ListByUser(ctx, userID, offset, limit)
		if err != nil {
			return nil, err
		}
	}
	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.BookPage{
		Books:       withOwners(books),
		CurrentPage: page,
		TotalBooks:  total,
		TotalPages:  (total + int64(limit) - 1) / int64(limit),
	}, nil
}

// ListUserBooks returns all of the user's books, newest first.
func (s *BookService) ListUserBooks(ctx context.Context, userID string) ([]models.BookWithOwner, error) {
	books, err := s.repo.ListAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return withOwners(books), nil
}

// DeleteBook deletes a book owned by userID. An image hosted on the media
// store is deleted first; if that fails the book is kept.
func (s *BookService) DeleteBook(ctx context.Context, userID, bookID string) error {
	book, err := s.repo.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrBookNotFound
		}
		return err
	}
	if book.UserID != userID {
		return ErrNotBookOwner
	}

	if key, ok := s.media.KeyFromURL(book.Image); ok {
		if err := s.media.Delete(ctx, key); err != nil {
			return fmt.Errorf("%w: %v", ErrImageDelete, err)
		}
	}

	if err := s.repo.Delete(ctx, book.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrBookNotFound
		}
		return err
	}

	s.publish(ctx, models.EventBookDeleted, book)
	return nil
}

func (s *BookService) publish(ctx context.Context, eventType string, book *models.Book) {
	if s.events == nil {
		return
	}
	event := models.BookEvent{
		Type:       eventType,
		BookID:     book.ID,
		UserID:     book.UserID,
		Title:      book.Title,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.PublishBookEvent(event); err != nil {
		s.log.WarnContext(ctx, "failed to publish book event", "type", eventType, "book_id", book.ID, "error", err)
	}
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// pageOffset returns the number of books to skip before page. ok is false
// when the offset does not fit in an int; such a page is always empty.
func pageOffset(page, limit int) (offset int, ok bool) {
	if page-1 > math.MaxInt/limit {
		return 0, false
	}
	return (page - 1) * limit, true
}

func withOwners(books []models.Book) []models.BookWithOwner {
	out := make([]models.BookWithOwner, 0, len(books))
	for _, b := range books {
		out = append(out, b.WithOwner())
	}
	return out
}
