package main

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	AddFunc    func(ctx context.Context, book *Book) error
	GetOneFunc func(ctx context.Context, id uint64) (Book, error)
	GetAllFunc func(ctx context.Context) ([]Book, error)
	UpdateFunc func(ctx context.Context, id uint64, changes BookChanges) (Book, error)
	DeleteFunc func(ctx context.Context, id uint64) error
	PingFunc   func(ctx context.Context) error
}

// Add mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Add(ctx context.Context, book *Book) error {
	return m.AddFunc(ctx, book)
}

// GetOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetOne(ctx context.Context, id uint64) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

// GetAll mocks the behavior of retrieving all books by the repository.
func (m *MockBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	return m.GetAllFunc(ctx)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, id uint64, changes BookChanges) (Book, error) {
	return m.UpdateFunc(ctx, id, changes)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, id uint64) error {
	return m.DeleteFunc(ctx, id)
}

// Ping mocks the repository health check. A nil PingFunc means healthy.
func (m *MockBookStorage) Ping(ctx context.Context) error {
	if m.PingFunc == nil {
		return nil
	}
	return m.PingFunc(ctx)
}

func (m *MockBookStorage) Close() error {
	return nil
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
	Valid     bool
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id, Valid: valid}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// IsValid mocks IsValid behavior by providing configured status.
func (muid *MockUIDHandler) IsValid(_, _ string) bool {
	return muid.Valid
}

const testAPIKey = "test-key"

// newTestAPIHandler builds an api handler on top of the given storage
// with a fixed clock, predictable request ids and the `test-key` secret.
func newTestAPIHandler(storage BookStorage, config *Config) *APIHandler {
	if config == nil {
		config = &Config{}
	}
	config.APIKey = testAPIKey
	clock := NewMockClocker()
	bs := NewBookService(zap.NewNop(), config, clock, storage)
	return NewAPIHandler(
		zap.NewNop(),
		config,
		&Statistics{started: clock.Now()},
		clock,
		NewMockUIDHandler("abc", false),
		NewAPIKeyAuthenticator(config),
		NewMetrics(),
		bs,
	)
}

// newTestRouter returns the fully wired router of api with the real middlewares stacks.
func newTestRouter(api *APIHandler) http.Handler {
	public, ops := api.MiddlewaresStacks()
	return api.SetupRoutes(httprouter.New(), &MiddlewareMap{public: public.Chain, ops: ops.Chain})
}

// noopMiddlewares returns a map of empty middlewares chains.
func noopMiddlewares() *MiddlewareMap {
	return &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
}
