package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"bookshelf/internal/media"
	"bookshelf/internal/middleware"
	"bookshelf/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// BookHandler handles HTTP requests for books.
type BookHandler struct {
	service  *services.BookService
	validate *validator.Validate
	log      *slog.Logger
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(service *services.BookService, log *slog.Logger) *BookHandler {
	return &BookHandler{
		service:  service,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes registers the book routes behind the auth gate.
func (h *BookHandler) RegisterRoutes(router fiber.Router, gate fiber.Handler) {
	bookRoutes := router.Group("/books", gate)
	bookRoutes.Post("/", h.HandleCreateBook)
	bookRoutes.Get("/", h.HandleGetBooks)
	bookRoutes.Get("/user", h.HandleGetUserBooks)
	bookRoutes.Delete("/:id", h.HandleDeleteBook)
}

// CreateBookRequest is the body of a create request. Image is a base64
// string or data URI; multipart requests may send it as a file part instead.
type CreateBookRequest struct {
	Title   string  `json:"title" form:"title" validate:"required"`
	Author  string  `json:"author" form:"author" validate:"required"`
	Caption string  `json:"caption" form:"caption" validate:"required"`
	Rating  float64 `json:"rating" form:"rating" validate:"required"`
	Image   string  `json:"image" form:"image"`
}

// HandleCreateBook creates a book owned by the caller.
func (h *BookHandler) HandleCreateBook(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	var req CreateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": msgAllFieldsRequired})
	}

	img, present, err := h.readImage(c, req.Image)
	if !present {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": msgAllFieldsRequired})
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	book, err := h.service.CreateBook(c.UserContext(), user.ID, services.CreateBookInput{
		Title:   req.Title,
		Author:  req.Author,
		Caption: req.Caption,
		Rating:  req.Rating,
		Image:   img,
	})
	if err != nil {
		h.log.ErrorContext(c.UserContext(), "error creating book", "user_id", user.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(book)
}

// readImage takes the image from the body field or, failing that, from a
// multipart file part named "image". present is false when neither exists.
func (h *BookHandler) readImage(c *fiber.Ctx, encoded string) (img media.Image, present bool, err error) {
	if strings.TrimSpace(encoded) != "" {
		img, err = media.DecodeBase64(encoded)
		return img, true, err
	}

	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return media.Image{}, false, nil
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return media.Image{}, false, nil
	}
	f, err := fh.Open()
	if err != nil {
		return media.Image{}, true, fmt.Errorf("failed to read image: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return media.Image{}, true, fmt.Errorf("failed to read image: %w", err)
	}
	img, err = media.NewImage(data)
	return img, true, err
}

// HandleGetBooks returns one page of the caller's books.
func (h *BookHandler) HandleGetBooks(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	page := c.QueryInt("page", services.DefaultPage)
	limit := c.QueryInt("limit", services.DefaultLimit)

	result, err := h.service.ListBooks(c.UserContext(), user.ID, page, limit)
	if err != nil {
		h.log.ErrorContext(c.UserContext(), "error fetching books", "user_id", user.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(result)
}

// HandleGetUserBooks returns all of the caller's books.
func (h *BookHandler) HandleGetUserBooks(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	books, err := h.service.ListUserBooks(c.UserContext(), user.ID)
	if err != nil {
		h.log.ErrorContext(c.UserContext(), "error fetching user books", "user_id", user.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(books)
}

// HandleDeleteBook deletes one of the caller's books.
func (h *BookHandler) HandleDeleteBook(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}
	bookID := c.Params("id")

	err := h.service.DeleteBook(c.UserContext(), user.ID, bookID)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"message": "Book deleted successfully"})
	case errors.Is(err, services.ErrBookNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Book not found"})
	case errors.Is(err, services.ErrNotBookOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Unauthorized"})
	case errors.Is(err, services.ErrImageDelete):
		h.log.ErrorContext(c.UserContext(), "error deleting image", "book_id", bookID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to delete image"})
	default:
		h.log.ErrorContext(c.UserContext(), "error deleting book", "book_id", bookID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
