package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestBookService(storage BookStorage) BookServiceProvider {
	return NewBookService(zap.NewNop(), &Config{}, NewMockClocker(), storage)
}

func TestBookService_List(t *testing.T) {
	bs := newTestBookService(&MockBookStorage{
		GetAllFunc: func(ctx context.Context) ([]Book, error) { return nil, nil },
	})
	books, err := bs.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestBookService_Create(t *testing.T) {
	t.Run("stamps timestamps and stores", func(t *testing.T) {
		var stored Book
		bs := newTestBookService(&MockBookStorage{
			AddFunc: func(ctx context.Context, book *Book) error {
				book.ID = 7
				stored = *book
				return nil
			},
		})
		book, err := bs.Create(context.Background(), validPayload())
		require.NoError(t, err)
		assert.Equal(t, uint64(7), book.ID)
		assert.Equal(t, NewMockClocker().Now(), book.CreatedAt)
		assert.Equal(t, book.CreatedAt, book.UpdatedAt)
		assert.Equal(t, book, stored)
	})

	t.Run("invalid payload never reaches storage", func(t *testing.T) {
		bs := newTestBookService(&MockBookStorage{
			AddFunc: func(ctx context.Context, book *Book) error {
				t.Fatal("storage must not be called")
				return nil
			},
		})
		payload := validPayload()
		delete(payload, "author")
		_, err := bs.Create(context.Background(), payload)
		assert.True(t, IsInvalidInput(err))
	})

	t.Run("storage error", func(t *testing.T) {
		bs := newTestBookService(&MockBookStorage{
			AddFunc: func(ctx context.Context, book *Book) error { return ErrDuplicateISBN },
		})
		_, err := bs.Create(context.Background(), validPayload())
		assert.ErrorIs(t, err, ErrDuplicateISBN)
	})
}

func TestBookService_Update(t *testing.T) {
	t.Run("missing book checked first", func(t *testing.T) {
		bs := newTestBookService(&MockBookStorage{
			GetOneFunc: func(ctx context.Context, id uint64) (Book, error) { return Book{}, ErrBookNotFound },
		})
		_, err := bs.Update(context.Background(), 3, map[string]interface{}{"publish_date": "bad"})
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("changes carry the clock", func(t *testing.T) {
		var got BookChanges
		bs := newTestBookService(&MockBookStorage{
			GetOneFunc: func(ctx context.Context, id uint64) (Book, error) { return testBook(id, "111"), nil },
			UpdateFunc: func(ctx context.Context, id uint64, changes BookChanges) (Book, error) {
				got = changes
				book := testBook(id, "111")
				changes.Apply(&book)
				return book, nil
			},
		})
		book, err := bs.Update(context.Background(), 3, map[string]interface{}{"title": "New"})
		require.NoError(t, err)
		assert.Equal(t, "New", book.Title)
		assert.Equal(t, NewMockClocker().Now(), got.UpdatedAt)
		assert.Nil(t, got.ISBN)
	})

	t.Run("invalid value never reaches storage", func(t *testing.T) {
		bs := newTestBookService(&MockBookStorage{
			GetOneFunc: func(ctx context.Context, id uint64) (Book, error) { return testBook(id, "111"), nil },
			UpdateFunc: func(ctx context.Context, id uint64, changes BookChanges) (Book, error) {
				t.Fatal("storage must not be called")
				return Book{}, nil
			},
		})
		_, err := bs.Update(context.Background(), 3, map[string]interface{}{"publish_date": "2020/01/01"})
		assert.ErrorIs(t, err, ErrInvalidPublishDate)
	})
}
