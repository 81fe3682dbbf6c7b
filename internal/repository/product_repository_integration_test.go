package repository

import (
	"context"
	"database/sql"
	"log"
	"testing"
	"time"

	"shelflife/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var testDB *sql.DB

func setupTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, err
	}

	connStr := "postgres://" + dbUser + ":" + dbPwd + "@" + dbHost + ":" + dbPort.Port() + "/" + dbName + "?sslmode=disable"
	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	// Bring the schema up through the real migrations.
	if err := goose.SetDialect("postgres"); err != nil {
		return dbContainer.Terminate, err
	}
	if err := goose.Up(testDB, "../../migrations"); err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	teardown, err := setupTestDB()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
}

func clearProducts(t *testing.T) {
	t.Helper()
	if _, err := testDB.Exec("DELETE FROM products"); err != nil {
		t.Fatalf("failed to clear products table: %v", err)
	}
}

func newStoredProduct(owner string) *domain.Product {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Product{
		ID:           uuid.NewString(),
		UserID:       owner,
		Brand:        "CeraVe",
		Name:         "Moisturising Lotion",
		ExpiryDate:   "2026-08-01",
		OpenedDate:   "2025-01-15",
		PurchaseDate: "2024-12-24",
		Notes:        "bathroom shelf",
		Photo:        "data:image/png;base64,iVBORw0KGgo=",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestPostgresRepositoryRoundTrip(t *testing.T) {
	clearProducts(t)
	repo := NewPostgresProductRepository(testDB)
	ctx := context.Background()

	p := newStoredProduct("owner-a")
	if err := repo.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.FindByID(ctx, "owner-a", p.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}

	if got.Brand != p.Brand || got.Name != p.Name || got.Notes != p.Notes || got.Photo != p.Photo {
		t.Errorf("stored fields differ: got %+v", got)
	}
	if got.ExpiryDate != p.ExpiryDate || got.OpenedDate != p.OpenedDate || got.PurchaseDate != p.PurchaseDate {
		t.Errorf("dates did not round-trip canonically: got %q/%q/%q",
			got.ExpiryDate, got.OpenedDate, got.PurchaseDate)
	}
	if !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Errorf("created_at %v != updated_at %v on a fresh row", got.CreatedAt, got.UpdatedAt)
	}
}

func TestPostgresRepositoryAbsentDatesStayAbsent(t *testing.T) {
	clearProducts(t)
	repo := NewPostgresProductRepository(testDB)
	ctx := context.Background()

	p := newStoredProduct("owner-a")
	p.ExpiryDate = ""
	p.OpenedDate = ""
	p.PurchaseDate = ""
	if err := repo.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.FindByID(ctx, "owner-a", p.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.ExpiryDate != "" || got.OpenedDate != "" || got.PurchaseDate != "" {
		t.Errorf("absent dates came back non-empty: %q/%q/%q",
			got.ExpiryDate, got.OpenedDate, got.PurchaseDate)
	}
}

func TestPostgresRepositoryOwnerIsolation(t *testing.T) {
	clearProducts(t)
	repo := NewPostgresProductRepository(testDB)
	ctx := context.Background()

	mine := newStoredProduct("owner-a")
	theirs := newStoredProduct("owner-b")
	if err := repo.Insert(ctx, mine); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := repo.Insert(ctx, theirs); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	list, err := repo.List(ctx, "owner-a")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != mine.ID {
		t.Fatalf("owner-a sees %d products, want exactly their own", len(list))
	}

	if _, err := repo.FindByID(ctx, "owner-a", theirs.ID); err != ErrProductNotFound {
		t.Errorf("cross-owner FindByID = %v, want ErrProductNotFound", err)
	}
	if err := repo.Delete(ctx, "owner-a", theirs.ID); err != ErrProductNotFound {
		t.Errorf("cross-owner Delete = %v, want ErrProductNotFound", err)
	}
	if _, err := repo.FindByID(ctx, "owner-b", theirs.ID); err != nil {
		t.Errorf("owner-b lost their product to a cross-owner delete attempt: %v", err)
	}
}

func TestPostgresRepositoryUpdateAndDelete(t *testing.T) {
	clearProducts(t)
	repo := NewPostgresProductRepository(testDB)
	ctx := context.Background()

	p := newStoredProduct("owner-a")
	if err := repo.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	p.Name = "Moisturising Cream"
	p.ExpiryDate = ""
	p.UpdatedAt = p.UpdatedAt.Add(time.Minute)
	if err := repo.Update(ctx, p); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.FindByID(ctx, "owner-a", p.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.Name != "Moisturising Cream" || got.ExpiryDate != "" {
		t.Errorf("update not applied: %+v", got)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("updated_at %v not bumped past created_at %v", got.UpdatedAt, got.CreatedAt)
	}

	missing := newStoredProduct("owner-a")
	if err := repo.Update(ctx, missing); err != ErrProductNotFound {
		t.Errorf("Update on missing row = %v, want ErrProductNotFound", err)
	}

	if err := repo.Delete(ctx, "owner-a", p.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repo.Delete(ctx, "owner-a", p.ID); err != ErrProductNotFound {
		t.Errorf("second Delete = %v, want ErrProductNotFound", err)
	}
}

func TestProperty_CalendarDatesRoundTripCanonically(t *testing.T) {
	clearProducts(t)
	repo := NewPostgresProductRepository(testDB)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("any calendar day survives a store and load unchanged", prop.ForAll(
		func(offset int) bool {
			day := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).
				AddDate(0, 0, offset).Format("2006-01-02")

			p := newStoredProduct("owner-prop")
			p.ExpiryDate = day
			if err := repo.Insert(ctx, p); err != nil {
				t.Logf("Insert failed: %v", err)
				return false
			}
			got, err := repo.FindByID(ctx, "owner-prop", p.ID)
			if err != nil {
				t.Logf("FindByID failed: %v", err)
				return false
			}
			return got.ExpiryDate == day
		},
		gen.IntRange(0, 20000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
