package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/domain"
	"storefront/internal/provider"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	setupOnce sync.Once
	setupErr  error
	testDB    *sql.DB
	container *postgres.PostgresContainer
)

func startPostgres() error {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	ctx := context.Background()
	var err error
	container, err = postgres.Run(
		ctx,
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return err
	}
	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return err
	}

	return database.RunMigrations(ctx, testDB, "../../migrations", zap.NewNop())
}

// requireDB starts one postgres container for the package, skipping when no container
// runtime is reachable
func requireDB(t *testing.T) *sql.DB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	setupOnce.Do(func() { setupErr = startPostgres() })
	if setupErr != nil {
		t.Skipf("postgres container unavailable: %v", setupErr)
	}

	_, err := testDB.Exec(`TRUNCATE products RESTART IDENTITY`)
	require.NoError(t, err)
	return testDB
}

func TestMain(m *testing.M) {
	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	if container != nil {
		if err := container.Terminate(context.Background()); err != nil {
			log.Printf("could not terminate postgres container: %v", err)
		}
	}
	os.Exit(code)
}

func TestSeedAndListPreserveInsertionOrder(t *testing.T) {
	db := requireDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	seeded, err := repo.SeedIfEmpty(ctx, provider.BuiltinProducts())
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = repo.SeedIfEmpty(ctx, provider.BuiltinProducts())
	require.NoError(t, err)
	assert.False(t, seeded, "a populated table is left alone")

	products, err := repo.FetchCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, products, 7)
	require.NoError(t, domain.ValidateCatalog(products))

	for i, want := range provider.BuiltinProducts() {
		got := products[i]
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Category, got.Category)
		assert.True(t, want.Price.Equal(got.Price), "%s: %s != %s", want.ID, want.Price, got.Price)
		assert.Equal(t, want.Tags, got.Tags)
	}
}

func TestFindByID(t *testing.T) {
	db := requireDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	p := provider.BuiltinProducts()[3]
	require.NoError(t, repo.Create(ctx, p))
	assert.ErrorIs(t, repo.Create(ctx, p), ErrProductAlreadyExists)

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.ReviewCount, got.ReviewCount)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestListHonoursCatalogLimit(t *testing.T) {
	db := requireDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	base := provider.BuiltinProducts()[0]
	for i := 0; i < domain.MaxCatalogSize+5; i++ {
		p := base
		p.ID = fmt.Sprintf("p-%02d", i)
		require.NoError(t, repo.Create(ctx, p))
	}

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxCatalogSize+5, total)

	products, err := repo.FetchCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, products, domain.MaxCatalogSize)
	assert.Equal(t, "p-00", products[0].ID)
	assert.Equal(t, fmt.Sprintf("p-%02d", domain.MaxCatalogSize-1), products[len(products)-1].ID)
}

func TestCategoryConstraintRejectsUnknownCategory(t *testing.T) {
	db := requireDB(t)
	repo := NewProductRepository(db)

	p := provider.BuiltinProducts()[0]
	p.Category = domain.CategoryAll
	assert.Error(t, repo.Create(context.Background(), p))
}

// Property: a stored product reads back with every attribute intact
func TestProperty_ProductRoundTripPreservesAttributes(t *testing.T) {
	db := requireDB(t)
	repo := NewProductRepository(db)

	properties := gopter.NewProperties(nil)
	counter := 0

	properties.Property("create then find preserves attributes", prop.ForAll(
		func(name string, cents int64, rating int, tags []string) bool {
			counter++
			p := domain.Product{
				ID:          fmt.Sprintf("gen-%d", counter),
				Name:        name,
				Brand:       "Brand",
				Category:    domain.Categories[counter%len(domain.Categories)],
				Price:       decimal.New(cents, -2),
				Rating:      rating,
				ReviewCount: counter,
				Tags:        tags,
			}
			ctx := context.Background()
			if err := repo.Create(ctx, p); err != nil {
				t.Logf("FAIL: create: %v", err)
				return false
			}
			got, err := repo.FindByID(ctx, p.ID)
			if err != nil {
				t.Logf("FAIL: find: %v", err)
				return false
			}
			return got.Name == p.Name &&
				got.Category == p.Category &&
				got.Price.Equal(p.Price) &&
				got.Rating == p.Rating &&
				len(got.Tags) == len(p.Tags)
		},
		gen.Identifier(),
		gen.Int64Range(0, 9999999),
		gen.IntRange(0, 5),
		gen.SliceOfN(3, gen.Identifier()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
