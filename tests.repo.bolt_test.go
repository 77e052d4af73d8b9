package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestBoltStore returns a new bolt store in a temporary path removed at test end.
func newTestBoltStore(t *testing.T) BookStorage {
	t.Helper()
	testConfig := &Config{
		BoltDB: BoltDBConfig{
			FilePath:   filepath.Join(t.TempDir(), "tmp.bolt.db"),
			Timeout:    5 * time.Second,
			BucketName: "test.books",
		},
	}
	client, err := GetBoltDBClient(testConfig)
	require.NoError(t, err, "failed in creating a test bolt store")
	bs := NewBoltBookStorage(zap.NewNop(), &testConfig.BoltDB, client)
	t.Cleanup(func() { _ = bs.Close() })
	return bs
}

func TestBoltStore(t *testing.T) {
	bs := newTestBoltStore(t)
	ctx := context.TODO()

	t.Run("Empty store", func(t *testing.T) {
		books, err := bs.GetAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []Book{}, books)
	})

	t.Run("Add assigns sequence ids", func(t *testing.T) {
		for i, isbn := range []string{"100", "200", "300"} {
			book := newStoredBook("Bolt test book title", isbn)
			require.NoError(t, bs.Add(ctx, book))
			assert.Equal(t, uint64(i+1), book.ID)
		}
	})

	t.Run("Add duplicate isbn", func(t *testing.T) {
		assert.ErrorIs(t, bs.Add(ctx, newStoredBook("Copy", "200")), ErrDuplicateISBN)
	})

	t.Run("Get existent book", func(t *testing.T) {
		book, err := bs.GetOne(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), book.ID)
		assert.Equal(t, "200", book.ISBN)
		assert.Equal(t, "Bolt test book title", book.Title)
	})

	t.Run("Get nonexistent book", func(t *testing.T) {
		_, err := bs.GetOne(ctx, 99)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Update moves isbn index", func(t *testing.T) {
		isbn := "201"
		book, err := bs.Update(ctx, 2, BookChanges{ISBN: &isbn, UpdatedAt: time.Now().UTC()})
		require.NoError(t, err)
		assert.Equal(t, "201", book.ISBN)
		// the previous isbn is free again.
		assert.NoError(t, bs.Add(ctx, newStoredBook("Reuse", "200")))
	})

	t.Run("Update to a taken isbn", func(t *testing.T) {
		isbn, title := "100", "Not written"
		_, err := bs.Update(ctx, 2, BookChanges{ISBN: &isbn, Title: &title, UpdatedAt: time.Now().UTC()})
		assert.ErrorIs(t, err, ErrDuplicateISBN)
		book, err := bs.GetOne(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "Bolt test book title", book.Title)
	})

	t.Run("Update nonexistent book", func(t *testing.T) {
		_, err := bs.Update(ctx, 99, BookChanges{})
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Get all ordered by id", func(t *testing.T) {
		books, err := bs.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, books, 4)
		for i, book := range books {
			assert.Equal(t, uint64(i+1), book.ID)
		}
	})

	t.Run("Delete existent book", func(t *testing.T) {
		require.NoError(t, bs.Delete(ctx, 1))
		_, err := bs.GetOne(ctx, 1)
		assert.ErrorIs(t, err, ErrBookNotFound)
		assert.NoError(t, bs.Add(ctx, newStoredBook("Reuse", "100")))
	})

	t.Run("Delete nonexistent book", func(t *testing.T) {
		assert.ErrorIs(t, bs.Delete(ctx, 1), ErrBookNotFound)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, bs.Ping(ctx))
	})
}
