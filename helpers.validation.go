package main

import (
	"errors"
	"time"
)

// Book payload keys, in the order they are checked.
const (
	FieldTitle       = "title"
	FieldAuthor      = "author"
	FieldISBN        = "isbn"
	FieldPublishDate = "publish_date"
)

var requiredBookFields = []string{FieldTitle, FieldAuthor, FieldISBN, FieldPublishDate}

// invalidInputError is returned for any request payload the service rejects.
// Its text is sent as is to the client.
type invalidInputError string

func (e invalidInputError) Error() string {
	return string(e)
}

const ErrInvalidPublishDate = invalidInputError("Invalid date format for publish_date. Use YYYY-MM-DD.")

func missingFieldError(field string) error {
	return invalidInputError("Missing field: " + field)
}

func invalidFieldTypeError(field string) error {
	return invalidInputError("Invalid value for field: " + field + ". Expected a string.")
}

// IsInvalidInput reports whether err is a payload validation failure.
func IsInvalidInput(err error) bool {
	var e invalidInputError
	return errors.As(err, &e)
}

// ValidateBookPayload checks a book creation payload. Only the first problem
// found is reported: missing keys in the order title, author, isbn,
// publish_date, then non-string values, then the publish date layout.
func ValidateBookPayload(payload map[string]interface{}) error {
	for _, field := range requiredBookFields {
		if _, ok := payload[field]; !ok {
			return missingFieldError(field)
		}
	}

	for _, field := range requiredBookFields {
		if _, ok := payload[field].(string); !ok {
			return invalidFieldTypeError(field)
		}
	}

	_, err := ParsePublishDate(payload[FieldPublishDate].(string))
	return err
}

// ParsePublishDate parses a YYYY-MM-DD calendar date. Any other layout,
// including a time of day or a timezone, is rejected.
func ParsePublishDate(value string) (time.Time, error) {
	date, err := time.Parse(PublishDateLayout, value)
	if err != nil {
		return time.Time{}, ErrInvalidPublishDate
	}
	return date, nil
}

// BookFromPayload builds a new book from an already validated payload.
func BookFromPayload(payload map[string]interface{}) (Book, error) {
	if err := ValidateBookPayload(payload); err != nil {
		return Book{}, err
	}
	date, _ := ParsePublishDate(payload[FieldPublishDate].(string))
	return Book{
		Title:       payload[FieldTitle].(string),
		Author:      payload[FieldAuthor].(string),
		ISBN:        payload[FieldISBN].(string),
		PublishDate: date,
	}, nil
}

// ChangesFromPayload extracts the partial update carried by payload. Keys
// that are absent stay nil. A bad value aborts the whole change set.
func ChangesFromPayload(payload map[string]interface{}) (BookChanges, error) {
	var changes BookChanges
	fields := map[string]**string{
		FieldTitle:  &changes.Title,
		FieldAuthor: &changes.Author,
		FieldISBN:   &changes.ISBN,
	}
	for _, field := range requiredBookFields[:3] {
		raw, ok := payload[field]
		if !ok {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			return BookChanges{}, invalidFieldTypeError(field)
		}
		*fields[field] = &value
	}

	if raw, ok := payload[FieldPublishDate]; ok {
		value, ok := raw.(string)
		if !ok {
			return BookChanges{}, ErrInvalidPublishDate
		}
		date, err := ParsePublishDate(value)
		if err != nil {
			return BookChanges{}, err
		}
		changes.PublishDate = &date
	}
	return changes, nil
}
