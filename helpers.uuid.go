package main

import (
	"strings"

	"github.com/gofrs/uuid"
)

var _ UIDHandler = (*IDsHandler)(nil)

// UIDHandler builds and checks ids of the form `<prefix>:<uuid>`.
type UIDHandler interface {
	Generate(prefix string) string
	IsValid(id, prefix string) bool
}

// IDsHandler issues random v4 ids.
type IDsHandler struct {
	gen uuid.Generator
}

func NewIDsHandler() *IDsHandler {
	return &IDsHandler{gen: uuid.NewGen()}
}

// Generate returns a new prefixed id. A failing entropy source yields the nil uuid.
func (idh *IDsHandler) Generate(prefix string) string {
	id, err := idh.gen.NewV4()
	if err != nil {
		id = uuid.Nil
	}
	return prefix + ":" + id.String()
}

// IsValid reports whether id carries the prefix followed by a non-nil uuid.
func (idh *IDsHandler) IsValid(id, prefix string) bool {
	raw, found := strings.CutPrefix(id, prefix+":")
	if !found {
		return false
	}
	return uuid.FromStringOrNil(raw) != uuid.Nil
}

// ResolveRequestID keeps the request id presented by the caller when it is
// well formed and issues a fresh one otherwise.
func ResolveRequestID(h UIDHandler, presented string) string {
	if h.IsValid(presented, RequestIDPrefix) {
		return presented
	}
	return h.Generate(RequestIDPrefix)
}
