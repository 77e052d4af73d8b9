package main

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// ListBooks godoc
// @Summary      List all books
// @Description  Returns every book ordered by id. No api key is required.
// @Tags         books
// @Produce      json
// @Success      200  {array}   BookView
// @Failure      500  {object}  APIError
// @Router       /api/books [get]
func (api *APIHandler) ListBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	books, err := api.bookService.List(r.Context())
	if err != nil {
		api.writeBookError(w, r, logger, err, "failed to list books")
		return
	}
	views := make([]BookView, 0, len(books))
	for _, book := range books {
		views = append(views, book.View())
	}
	logger.Info("success to list books", zap.Int("books.total", len(views)))
	if err = WriteResponse(r.Context(), w, http.StatusOK, views); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// GetOneBook godoc
// @Summary      Get a book
// @Description  Returns a single book by its id.
// @Tags         books
// @Produce      json
// @Param        id   path      int  true  "Book ID"
// @Success      200  {object}  BookView
// @Failure      401  {object}  APIError
// @Failure      404  {object}  APIError
// @Failure      500  {object}  APIError
// @Security     APIKeyHeader
// @Router       /api/books/{id} [get]
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", ps.ByName("id")))
	id, err := ParseBookID(ps.ByName("id"))
	if err != nil {
		api.writeBookError(w, r, logger, err, "invalid book id")
		return
	}
	book, err := api.bookService.GetOne(r.Context(), id)
	if err != nil {
		api.writeBookError(w, r, logger, err, "failed to get book")
		return
	}
	logger.Info("success to get book")
	if err = WriteResponse(r.Context(), w, http.StatusOK, book.View()); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// CreateBook godoc
// @Summary      Add a book
// @Description  Creates a book. All of title, author, isbn and publish_date (YYYY-MM-DD) are required.
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        book  body      BookPayload  true  "Book to add"
// @Success      201   {object}  MessageResponse
// @Failure      400   {object}  APIError
// @Failure      401   {object}  APIError
// @Failure      409   {object}  APIError
// @Failure      500   {object}  APIError
// @Security     APIKeyHeader
// @Router       /api/books [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	payload, err := DecodeBookRequestBody(r)
	if err != nil {
		api.writeBookError(w, r, logger, err, "failed to decode book")
		return
	}
	book, err := api.bookService.Create(r.Context(), payload)
	if err != nil {
		api.writeBookError(w, r, logger, err, "failed to create book")
		return
	}
	logger.Info("success to create book", zap.Uint64("book.id", book.ID))
	if err = WriteResponse(r.Context(), w, http.StatusCreated, &MessageResponse{Message: MsgBookAdded, ID: &book.ID}); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// UpdateBook godoc
// @Summary      Update a book
// @Description  Updates the fields present in the payload. Absent fields are left untouched.
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id    path      int          true  "Book ID"
// @Param        book  body      BookPayload  true  "Fields to update"
// @Success      200   {object}  MessageResponse
// @Failure      400   {object}  APIError
// @Failure      401   {object}  APIError
// @Failure      404   {object}  APIError
// @Failure      409   {object}  APIError
// @Failure      500   {object}  APIError
// @Security     APIKeyHeader
// @Router       /api/books/{id} [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", ps.ByName("id")))
	id, err := ParseBookID(ps.ByName("id"))
	if err != nil {
		api.writeBookError(w, r, logger, err, "invalid book id")
		return
	}
	// a missing book is reported before any payload problem.
	if _, err = api.bookService.GetOne(r.Context(), id); err != nil {
		api.writeBookError(w, r, logger, err, "failed to get book")
		return
	}
	payload, err := DecodeBookRequestBody(r)
	if err != nil {
		api.writeBookError(w, r, logger, err, "failed to decode book")
		return
	}
	if _, err = api.bookService.Update(r.Context(), id, payload); err != nil {
		api.writeBookError(w, r, logger, err, "failed to update book")
		return
	}
	logger.Info("success to update book")
	if err = WriteResponse(r.Context(), w, http.StatusOK, &MessageResponse{Message: MsgBookUpdated}); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// DeleteOneBook godoc
// @Summary      Delete a book
// @Description  Removes a book permanently.
// @Tags         books
// @Produce      json
// @Param        id   path      int  true  "Book ID"
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  APIError
// @Failure      404  {object}  APIError
// @Failure      500  {object}  APIError
// @Security     APIKeyHeader
// @Router       /api/books/{id} [delete]
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", ps.ByName("id")))
	id, err := ParseBookID(ps.ByName("id"))
	if err != nil {
		api.writeBookError(w, r, logger, err, "invalid book id")
		return
	}
	if err = api.bookService.Delete(r.Context(), id); err != nil {
		api.writeBookError(w, r, logger, err, "failed to delete book")
		return
	}
	logger.Info("success to delete book")
	if err = WriteResponse(r.Context(), w, http.StatusOK, &MessageResponse{Message: MsgBookDeleted}); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// BookPayload documents the json body of book creation and update requests.
type BookPayload struct {
	Title       string `json:"title" example:"The Go Programming Language"`
	Author      string `json:"author" example:"Alan Donovan"`
	ISBN        string `json:"isbn" example:"9780134190440"`
	PublishDate string `json:"publish_date" example:"2015-10-26"`
}

// writeBookError maps a service error to its status code and sends it.
// A malformed id is reported like a missing book.
func (api *APIHandler) writeBookError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, msg string) {
	status, message := http.StatusInternalServerError, MsgInternalError
	switch {
	case errors.Is(err, ErrBookNotFound), errors.Is(err, ErrInvalidBookID):
		status, message = http.StatusNotFound, MsgBookNotFound
	case errors.Is(err, ErrDuplicateISBN):
		status, message = http.StatusConflict, MsgDuplicateISBN
	case errors.Is(err, ErrInvalidJSONBody):
		status, message = http.StatusBadRequest, MsgInvalidJSONBody
	case IsInvalidInput(err):
		status, message = http.StatusBadRequest, err.Error()
	}

	if status == http.StatusInternalServerError {
		logger.Error(msg, zap.Error(err))
	} else {
		logger.Info(msg, zap.Int("response.status", status), zap.Error(err))
	}
	if err := WriteErrorResponse(r.Context(), w, status, message); err != nil {
		logger.Error("failed to send error response", zap.Error(err))
	}
}
