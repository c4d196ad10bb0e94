package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storefront/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const migrationsDir = "../../migrations"

func readMigration(t *testing.T, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(migrationsDir, name))
	require.NoError(t, err)
	return string(content)
}

func TestMigrationFilesExist(t *testing.T) {
	for _, migration := range []string{
		"00001_create_products_table.sql",
		"00002_create_category_check.sql",
	} {
		_, err := os.Stat(filepath.Join(migrationsDir, migration))
		assert.NoError(t, err, migration)
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	files, err := os.ReadDir(migrationsDir)
	require.NoError(t, err)

	sqlFileCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}
		sqlFileCount++
		content := readMigration(t, file.Name())

		for _, directive := range []string{
			"-- +goose Up",
			"-- +goose Down",
			"-- +goose StatementBegin",
			"-- +goose StatementEnd",
		} {
			assert.Contains(t, content, directive, file.Name())
		}
		assert.Less(t, strings.Index(content, "-- +goose Up"), strings.Index(content, "-- +goose Down"), file.Name())
	}

	assert.NotZero(t, sqlFileCount, "no SQL migration files found")
}

func TestProductsTableHasRequiredColumns(t *testing.T) {
	content := readMigration(t, "00001_create_products_table.sql")

	assert.Contains(t, content, "CREATE TABLE IF NOT EXISTS products")
	assert.Contains(t, content, "DROP TABLE IF EXISTS products")

	for _, column := range []string{
		"id VARCHAR(64) PRIMARY KEY",
		"position BIGSERIAL",
		"name VARCHAR",
		"brand VARCHAR",
		"category VARCHAR",
		"price NUMERIC(10, 2)",
		"image_url VARCHAR",
		"description TEXT",
		"rating SMALLINT",
		"review_count INTEGER",
		"size VARCHAR",
		"tags TEXT[]",
	} {
		assert.Contains(t, content, column)
	}
}

func TestCategoryCheckCoversEveryCategory(t *testing.T) {
	content := readMigration(t, "00002_create_category_check.sql")

	for _, c := range domain.Categories {
		assert.Contains(t, content, "'"+string(c)+"'")
	}
	assert.NotContains(t, content, "'"+string(domain.CategoryAll)+"'")
}
