package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/bidhaus/bidhaus-backend/pkg/db"
	"github.com/bidhaus/bidhaus-backend/pkg/db/models"
	pkgerrors "github.com/bidhaus/bidhaus-backend/pkg/errors"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// CreateCategoryInput carries a new browsing category.
type CreateCategoryInput struct {
	Name string
}

// CreateSellerInput registers a consigning party.
type CreateSellerInput struct {
	Name         string
	ContactEmail *string
	ContactPhone *string
}

// CreateOrganizerInput registers an auction organizer.
type CreateOrganizerInput struct {
	Name         string
	ContactEmail *string
}

// Service manages catalog reference data.
type Service interface {
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateSeller(ctx context.Context, input CreateSellerInput) (*models.Seller, error)
	GetSeller(ctx context.Context, id uuid.UUID) (*models.Seller, error)
	CreateOrganizer(ctx context.Context, input CreateOrganizerInput) (*models.Organizer, error)
	GetOrganizer(ctx context.Context, id uuid.UUID) (*models.Organizer, error)
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}

	category := &models.Category{
		Name: name,
		Slug: Slugify(name),
	}
	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "slug") || dbpkg.IsUniqueViolation(err, "name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return created, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

func (s *service) CreateSeller(ctx context.Context, input CreateSellerInput) (*models.Seller, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller name required")
	}
	seller := &models.Seller{
		Name:         name,
		ContactEmail: input.ContactEmail,
		ContactPhone: input.ContactPhone,
	}
	created, err := s.repo.CreateSeller(ctx, seller)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create seller")
	}
	return created, nil
}

func (s *service) GetSeller(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	seller, err := s.repo.FindSeller(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller")
	}
	return seller, nil
}

func (s *service) CreateOrganizer(ctx context.Context, input CreateOrganizerInput) (*models.Organizer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organizer name required")
	}
	organizer := &models.Organizer{
		Name:         name,
		ContactEmail: input.ContactEmail,
	}
	created, err := s.repo.CreateOrganizer(ctx, organizer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create organizer")
	}
	return created, nil
}

func (s *service) GetOrganizer(ctx context.Context, id uuid.UUID) (*models.Organizer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organizer id required")
	}
	organizer, err := s.repo.FindOrganizer(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organizer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organizer")
	}
	return organizer, nil
}

// Slugify lowercases a name and collapses runs of non-alphanumerics to
// single hyphens.
func Slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
