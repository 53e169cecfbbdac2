//go:build integration

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hal_bridge/internal/domain"
	mysqlrepo "hal_bridge/internal/storage/mysql"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	ents, err := os.ReadDir(dir)
	require.NoError(t, err, "read migrations dir %s", dir)

	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	require.NotEmpty(t, files, "no .sql files in %s", dir)
	sort.Strings(files)

	for _, f := range files {
		b, err := os.ReadFile(f)
		require.NoError(t, err)
		_, err = db.Exec(string(b))
		require.NoError(t, err, "exec %s", f)
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	require.NoError(t, err)

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=hal",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/hal?multiStatements=true&charset=utf8mb4",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	require.NoError(t, pool.Retry(func() error {
		var e error
		db, e = mysqlrepo.Open(context.Background(), dsn)
		return e
	}))
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func TestRepo_MySQL_UpsertAndList(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))

	first := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	c := domain.Company{
		ExternalID: "101",
		Name:       "Кондитерська",
		NameRu:     "Кондитерская",
		Category:   "other",
		Location:   domain.Location{City: "Kyiv"},
		Images:     []string{},
		IsActive:   true,
		CreatedAt:  first,
		UpdatedAt:  first,
	}
	res, err := repo.SaveCompany(ctx, &c)
	require.NoError(t, err)
	assert.Equal(t, domain.Inserted, res)
	require.NotEmpty(t, c.ID)
	originalID := c.ID

	// a re-import maps to a fresh id; the store keeps the first one
	again := c
	again.ID = "00000000-0000-0000-0000-000000000001"
	again.Name = "Кондитерська Merry"
	again.CreatedAt = first.Add(time.Hour)
	again.UpdatedAt = first.Add(time.Hour)
	res, err = repo.SaveCompany(ctx, &again)
	require.NoError(t, err)
	assert.Equal(t, domain.Updated, res)
	assert.Equal(t, originalID, again.ID)
	assert.Equal(t, first, again.CreatedAt)

	noExt := domain.Company{Name: "Без ідентифікатора", Images: []string{}}
	res, err = repo.SaveCompany(ctx, &noExt)
	require.NoError(t, err)
	assert.Equal(t, domain.Inserted, res)

	companies, err := repo.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, originalID, companies[0].ID)
	assert.Equal(t, "Кондитерська Merry", companies[0].Name)
	assert.Equal(t, first, companies[0].CreatedAt)
	assert.Equal(t, noExt.ID, companies[1].ID)

	p := domain.BlogPost{ExternalID: "7", TitleUk: "Новини", Author: domain.DefaultAuthor, PublishedAt: first}
	res, err = repo.SaveBlogPost(ctx, &p)
	require.NoError(t, err)
	assert.Equal(t, domain.Inserted, res)

	posts, err := repo.ListBlogPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, p.ID, posts[0].ID)
	assert.Equal(t, first, posts[0].PublishedAt)
}

func TestOpen_UnreachableIsPersistenceError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := mysqlrepo.Open(ctx, "root:root@tcp(127.0.0.1:1)/hal?timeout=1s")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}
