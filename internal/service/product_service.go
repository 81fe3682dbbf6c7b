package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shelflife/internal/domain"
	"shelflife/internal/recognition"
	"shelflife/internal/repository"
	"shelflife/internal/watch"

	"github.com/google/uuid"
)

var (
	ErrBrandRequired          = errors.New("brand is required")
	ErrNameRequired           = errors.New("name is required")
	ErrInvalidDate            = errors.New("invalid date")
	ErrInvalidPhoto           = errors.New("photo must be a data URI")
	ErrRecognitionUnavailable = errors.New("recognition is not configured")
)

// ProductInput carries the user-editable fields of a product. Dates may
// arrive in any form CanonicalDate accepts.
type ProductInput struct {
	Brand        string
	Name         string
	ExpiryDate   string
	OpenedDate   string
	PurchaseDate string
	Notes        string
	Photo        string
}

// ProductView is a product decorated with its derived display status.
type ProductView struct {
	domain.Product
	Status domain.Status `json:"status"`
}

// ProductService is the business layer between transport and storage.
type ProductService interface {
	Create(ctx context.Context, ownerID string, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, ownerID, id string, input ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, ownerID, id string) error
	List(ctx context.Context, ownerID string) ([]*ProductView, error)
	Recognize(ctx context.Context, image []byte, mimeType string, draft recognition.Result) (recognition.Result, error)
	Watch(ownerID string) (<-chan struct{}, func())
}

type productService struct {
	repo       repository.ProductRepository
	hub        *watch.Hub
	recognizer recognition.Recognizer
	now        func() time.Time
}

// NewProductService wires the business layer. recognizer may be nil when the
// feature is disabled; Recognize then fails with a clear operation error.
func NewProductService(
	repo repository.ProductRepository,
	hub *watch.Hub,
	recognizer recognition.Recognizer,
) ProductService {
	return &productService{
		repo:       repo,
		hub:        hub,
		recognizer: recognizer,
		now:        time.Now,
	}
}

// Create validates and stores a new product. Validation failures are local:
// the repository is never called for them.
func (s *productService) Create(ctx context.Context, ownerID string, input ProductInput) (*domain.Product, error) {
	product, err := s.buildProduct(ownerID, input)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	product.ID = uuid.NewString()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.repo.Insert(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.hub.Notify(ownerID)
	return product, nil
}

// Update overwrites all mutable fields of an existing product and bumps
// updatedAt. The owner and creation timestamp never change.
func (s *productService) Update(ctx context.Context, ownerID, id string, input ProductInput) (*domain.Product, error) {
	product, err := s.buildProduct(ownerID, input)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = s.now().UTC()
	if !product.UpdatedAt.After(existing.UpdatedAt) {
		// Guard against coarse clocks: updatedAt must move forward.
		product.UpdatedAt = existing.UpdatedAt.Add(time.Millisecond)
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.hub.Notify(ownerID)
	return product, nil
}

// Delete removes a product permanently and immediately.
func (s *productService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.hub.Notify(ownerID)
	return nil
}

// List returns the owner's products in display order, each decorated with
// its derived status.
func (s *productService) List(ctx context.Context, ownerID string) ([]*ProductView, error) {
	products, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	domain.SortForDisplay(products)

	now := s.now()
	views := make([]*ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, &ProductView{
			Product: *p,
			Status:  domain.ComputeStatus(p.ExpiryDate, p.OpenedDate, now),
		})
	}
	return views, nil
}

// Recognize runs the photo through the inference service and merges the
// guess into the caller's draft, never clobbering user-entered values.
func (s *productService) Recognize(ctx context.Context, image []byte, mimeType string, draft recognition.Result) (recognition.Result, error) {
	if s.recognizer == nil {
		return draft, ErrRecognitionUnavailable
	}

	result, err := s.recognizer.Recognize(ctx, image, mimeType)
	if err != nil {
		return draft, err
	}

	return recognition.MergePrefill(draft, result), nil
}

// Watch subscribes to change ticks for the owner's product list.
func (s *productService) Watch(ownerID string) (<-chan struct{}, func()) {
	return s.hub.Subscribe(ownerID)
}

// buildProduct validates and canonicalizes user input into a product owned
// by ownerID.
func (s *productService) buildProduct(ownerID string, input ProductInput) (*domain.Product, error) {
	brand := strings.TrimSpace(input.Brand)
	name := strings.TrimSpace(input.Name)
	if brand == "" {
		return nil, ErrBrandRequired
	}
	if name == "" {
		return nil, ErrNameRequired
	}

	product := &domain.Product{
		UserID: ownerID,
		Brand:  brand,
		Name:   name,
		Notes:  strings.TrimSpace(input.Notes),
		Photo:  input.Photo,
	}

	if product.Photo != "" && !strings.HasPrefix(product.Photo, "data:") {
		return nil, ErrInvalidPhoto
	}

	var err error
	if product.ExpiryDate, err = domain.CanonicalDate(input.ExpiryDate); err != nil {
		return nil, fmt.Errorf("%w: expiry date: %v", ErrInvalidDate, err)
	}
	if product.OpenedDate, err = domain.CanonicalDate(input.OpenedDate); err != nil {
		return nil, fmt.Errorf("%w: opened date: %v", ErrInvalidDate, err)
	}
	if product.PurchaseDate, err = domain.CanonicalDate(input.PurchaseDate); err != nil {
		return nil, fmt.Errorf("%w: purchase date: %v", ErrInvalidDate, err)
	}

	return product, nil
}
