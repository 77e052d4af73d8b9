package main

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func newTestGormStore(t *testing.T) BookStorage {
	t.Helper()
	config := &Config{
		Storage: StorageConfig{Driver: DriverSQLite},
		SQLite:  SQLiteConfig{FilePath: filepath.Join(t.TempDir(), "library.db")},
	}
	db, err := GetGormDB(zap.NewNop(), config)
	require.NoError(t, err, "failed in creating a test sqlite store")
	gs := NewGormBookStorage(zap.NewNop(), db)
	t.Cleanup(func() { _ = gs.Close() })
	return gs
}

func newStoredBook(title, isbn string) *Book {
	now := NewMockClocker().Now()
	return &Book{
		Title:       title,
		Author:      "Jerome Amon",
		ISBN:        isbn,
		PublishDate: time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestGormStore(t *testing.T) {
	gs := newTestGormStore(t)
	ctx := context.Background()

	t.Run("Empty store", func(t *testing.T) {
		books, err := gs.GetAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, books)
		assert.Len(t, books, 0)
	})

	t.Run("Add assigns increasing ids", func(t *testing.T) {
		first, second := newStoredBook("First", "111"), newStoredBook("Second", "222")
		require.NoError(t, gs.Add(ctx, first))
		require.NoError(t, gs.Add(ctx, second))
		assert.Equal(t, uint64(1), first.ID)
		assert.Equal(t, uint64(2), second.ID)
	})

	t.Run("Add duplicate isbn", func(t *testing.T) {
		err := gs.Add(ctx, newStoredBook("Copy", "111"))
		assert.ErrorIs(t, err, ErrDuplicateISBN)
	})

	t.Run("Get existent book", func(t *testing.T) {
		book, err := gs.GetOne(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "First", book.Title)
		assert.Equal(t, "111", book.ISBN)
		assert.Equal(t, "2021-03-04", book.PublishDate.Format(PublishDateLayout))
	})

	t.Run("Get nonexistent book", func(t *testing.T) {
		_, err := gs.GetOne(ctx, 42)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Update present fields only", func(t *testing.T) {
		title := "First, revised"
		updatedAt := NewMockClocker().Now().Add(time.Hour)
		book, err := gs.Update(ctx, 1, BookChanges{Title: &title, UpdatedAt: updatedAt})
		require.NoError(t, err)
		assert.Equal(t, title, book.Title)
		assert.Equal(t, "Jerome Amon", book.Author)
		assert.Equal(t, "111", book.ISBN)
		assert.True(t, book.UpdatedAt.Equal(updatedAt))
		assert.True(t, book.CreatedAt.Equal(NewMockClocker().Now()))
	})

	t.Run("Update to a taken isbn", func(t *testing.T) {
		isbn, title := "222", "Should not be written"
		_, err := gs.Update(ctx, 1, BookChanges{Title: &title, ISBN: &isbn, UpdatedAt: time.Now()})
		assert.ErrorIs(t, err, ErrDuplicateISBN)
		book, err := gs.GetOne(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "First, revised", book.Title)
	})

	t.Run("Update keeping own isbn", func(t *testing.T) {
		isbn := "111"
		_, err := gs.Update(ctx, 1, BookChanges{ISBN: &isbn, UpdatedAt: time.Now()})
		assert.NoError(t, err)
	})

	t.Run("Update nonexistent book", func(t *testing.T) {
		_, err := gs.Update(ctx, 42, BookChanges{UpdatedAt: time.Now()})
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Get all ordered by id", func(t *testing.T) {
		books, err := gs.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, uint64(1), books[0].ID)
		assert.Equal(t, uint64(2), books[1].ID)
	})

	t.Run("Delete existent book", func(t *testing.T) {
		require.NoError(t, gs.Delete(ctx, 1))
		_, err := gs.GetOne(ctx, 1)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Delete nonexistent book", func(t *testing.T) {
		assert.ErrorIs(t, gs.Delete(ctx, 1), ErrBookNotFound)
	})

	t.Run("Isbn is reusable after delete", func(t *testing.T) {
		assert.NoError(t, gs.Add(ctx, newStoredBook("Again", "111")))
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, gs.Ping(ctx))
	})
}

func TestGetGormDB_UnsupportedDriver(t *testing.T) {
	_, err := GetGormDB(zap.NewNop(), &Config{Storage: StorageConfig{Driver: DriverBolt}})
	assert.Error(t, err)
}

// TestBookSchema_NoLengthLimits ensures text columns are unbounded so every
// driver accepts the same payloads.
func TestBookSchema_NoLengthLimits(t *testing.T) {
	s, err := schema.Parse(&Book{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	for _, name := range []string{"Title", "Author", "ISBN"} {
		field := s.LookUpField(name)
		require.NotNil(t, field, name)
		assert.Equal(t, schema.String, field.DataType, name)
		assert.Zero(t, field.Size, name)
		assert.True(t, field.NotNull, name)
	}
	assert.Contains(t, s.LookUpField("ISBN").TagSettings, "UNIQUEINDEX")
}

func TestGormStore_LongValues(t *testing.T) {
	gs := newTestGormStore(t)
	ctx := context.Background()

	book := newStoredBook(strings.Repeat("t", 150), "978-0-13-419044-0000")
	book.Author = strings.Repeat("a", 150)
	require.NoError(t, gs.Add(ctx, book))

	stored, err := gs.GetOne(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "978-0-13-419044-0000", stored.ISBN)
	assert.Len(t, stored.Title, 150)
	assert.Len(t, stored.Author, 150)
}

func TestGormLogger(t *testing.T) {
	query := func() (string, int64) { return "SELECT * FROM books", 1 }

	t.Run("statements logged at info level", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Info)
		gl.Trace(context.Background(), time.Now(), query, nil)
		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, "sql statement", entry.Message)
		assert.Equal(t, "SELECT * FROM books", entry.ContextMap()["sql.query"])
	})

	t.Run("failures logged at error level", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Error)
		gl.Trace(context.Background(), time.Now(), query, nil)
		gl.Trace(context.Background(), time.Now(), query, gorm.ErrRecordNotFound)
		gl.Trace(context.Background(), time.Now(), query, errors.New("disk I/O error"))
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
	})

	t.Run("slow statements logged at warn level", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn)
		gl.Trace(context.Background(), time.Now().Add(-time.Second), query, nil)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "slow sql statement", logs.All()[0].Message)
	})

	t.Run("silent", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Info).LogMode(gormlogger.Silent)
		gl.Trace(context.Background(), time.Now(), query, errors.New("boom"))
		gl.Error(context.Background(), "boom %d", 1)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("store statements reach the application logger", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		config := &Config{
			Storage: StorageConfig{Driver: DriverSQLite, SQLLogLevel: "info"},
			SQLite:  SQLiteConfig{FilePath: filepath.Join(t.TempDir(), "library.db")},
		}
		db, err := GetGormDB(zap.New(core), config)
		require.NoError(t, err)
		gs := NewGormBookStorage(zap.NewNop(), db)
		defer gs.Close()
		_, err = gs.GetAll(context.Background())
		require.NoError(t, err)
		assert.NotZero(t, logs.FilterMessage("sql statement").FilterField(zap.String("component", "sql")).Len())
	})
}
