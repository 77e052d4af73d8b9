package main

import (
	"context"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	List(ctx context.Context) ([]Book, error)
	GetOne(ctx context.Context, id uint64) (Book, error)
	Create(ctx context.Context, payload map[string]interface{}) (Book, error)
	Update(ctx context.Context, id uint64, payload map[string]interface{}) (Book, error)
	Delete(ctx context.Context, id uint64) error
	Ping(ctx context.Context) error
}

type BookService struct {
	logger  *zap.Logger
	config  *Config
	clock   Clocker
	storage BookStorage
}

func NewBookService(logger *zap.Logger, config *Config, clock Clocker, storage BookStorage) BookServiceProvider {
	return &BookService{
		logger:  logger,
		config:  config,
		clock:   clock,
		storage: storage,
	}
}

// List returns every book ordered by id.
func (bs *BookService) List(ctx context.Context) ([]Book, error) {
	books, err := bs.storage.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []Book{}
	}
	return books, nil
}

func (bs *BookService) GetOne(ctx context.Context, id uint64) (Book, error) {
	return bs.storage.GetOne(ctx, id)
}

// Create validates the payload then stores a new book. Both timestamps
// get the same clock reading and the store assigns the id.
func (bs *BookService) Create(ctx context.Context, payload map[string]interface{}) (Book, error) {
	book, err := BookFromPayload(payload)
	if err != nil {
		return Book{}, err
	}
	now := BookTimestamp(bs.clock)
	book.CreatedAt = now
	book.UpdatedAt = now
	if err = bs.storage.Add(ctx, &book); err != nil {
		return Book{}, err
	}
	bs.logger.Debug("service: book created", zap.Uint64("book.id", book.ID))
	return book, nil
}

// Update applies the fields present in payload to an existing book.
// Nothing is written when the book is missing or a value is invalid.
func (bs *BookService) Update(ctx context.Context, id uint64, payload map[string]interface{}) (Book, error) {
	if _, err := bs.storage.GetOne(ctx, id); err != nil {
		return Book{}, err
	}
	changes, err := ChangesFromPayload(payload)
	if err != nil {
		return Book{}, err
	}
	changes.UpdatedAt = BookTimestamp(bs.clock)
	return bs.storage.Update(ctx, id, changes)
}

func (bs *BookService) Delete(ctx context.Context, id uint64) error {
	return bs.storage.Delete(ctx, id)
}

// Ping reports whether the underlying store is reachable.
func (bs *BookService) Ping(ctx context.Context) error {
	return bs.storage.Ping(ctx)
}
