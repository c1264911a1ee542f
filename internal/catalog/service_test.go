package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bidhaus/bidhaus-backend/pkg/db/models"
	pkgerrors "github.com/bidhaus/bidhaus-backend/pkg/errors"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  slug TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS sellers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  contact_email TEXT,
  contact_phone TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS organizers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  contact_email TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	require.NoError(t, db.Exec(`DELETE FROM categories`).Error)
	require.NoError(t, db.Exec(`DELETE FROM sellers`).Error)
	require.NoError(t, db.Exec(`DELETE FROM organizers`).Error)
	return db
}

func newCatalogService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(newRepoWithIDs(setupCatalogTestDB(t)))
	require.NoError(t, err)
	return svc
}

// sqlite has no gen_random_uuid, so assign IDs before insert.
type idAssigningRepo struct {
	Repository
}

func newRepoWithIDs(db *gorm.DB) Repository {
	return &idAssigningRepo{Repository: NewRepository(db)}
}

func (r *idAssigningRepo) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	return r.Repository.CreateCategory(ctx, category)
}

func (r *idAssigningRepo) CreateSeller(ctx context.Context, seller *models.Seller) (*models.Seller, error) {
	if seller.ID == uuid.Nil {
		seller.ID = uuid.New()
	}
	return r.Repository.CreateSeller(ctx, seller)
}

func (r *idAssigningRepo) CreateOrganizer(ctx context.Context, organizer *models.Organizer) (*models.Organizer, error) {
	if organizer.ID == uuid.Nil {
		organizer.ID = uuid.New()
	}
	return r.Repository.CreateOrganizer(ctx, organizer)
}

func TestCreateCategorySlugAndConflict(t *testing.T) {
	svc := newCatalogService(t)

	created, err := svc.CreateCategory(context.Background(), CreateCategoryInput{Name: "Fine Art & Antiques"})
	require.NoError(t, err)
	assert.Equal(t, "fine-art-antiques", created.Slug)

	_, err = svc.CreateCategory(context.Background(), CreateCategoryInput{Name: "Fine Art & Antiques"})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestCreateCategoryValidation(t *testing.T) {
	svc := newCatalogService(t)
	_, err := svc.CreateCategory(context.Background(), CreateCategoryInput{Name: "   "})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestSellerAndOrganizerRoundtrip(t *testing.T) {
	svc := newCatalogService(t)

	email := "consign@example.com"
	seller, err := svc.CreateSeller(context.Background(), CreateSellerInput{Name: "Estate of J. Doe", ContactEmail: &email})
	require.NoError(t, err)

	got, err := svc.GetSeller(context.Background(), seller.ID)
	require.NoError(t, err)
	assert.Equal(t, "Estate of J. Doe", got.Name)

	organizer, err := svc.CreateOrganizer(context.Background(), CreateOrganizerInput{Name: "Bidhaus Jakarta"})
	require.NoError(t, err)

	gotOrg, err := svc.GetOrganizer(context.Background(), organizer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bidhaus Jakarta", gotOrg.Name)

	_, err = svc.GetSeller(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Fine Art":           "fine-art",
		"  Watches / Coins ": "watches-coins",
		"已": "",
	}
	for input, want := range cases {
		if got := Slugify(input); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", input, got, want)
		}
	}
}
