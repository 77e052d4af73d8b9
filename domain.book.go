package main

import (
	"context"
	"time"
)

// PublishDateLayout is the only accepted wire format of a book publish date.
const PublishDateLayout = "2006-01-02"

// Book represents a book entity. It is persisted as a single `books` row.
type Book struct {
	ID          uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string    `json:"title" gorm:"not null"`
	Author      string    `json:"author" gorm:"not null"`
	ISBN        string    `json:"isbn" gorm:"column:isbn;uniqueIndex;not null"`
	PublishDate time.Time `json:"publish_date" gorm:"type:date;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null"`
}

// TableName specifies the table name for Book model.
func (Book) TableName() string {
	return "books"
}

// BookView is the json representation of a book sent to clients.
type BookView struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	ISBN        string    `json:"isbn"`
	PublishDate string    `json:"publish_date" example:"2024-01-01"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// View renders the book with its publish date as YYYY-MM-DD text.
func (b Book) View() BookView {
	return BookView{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		ISBN:        b.ISBN,
		PublishDate: b.PublishDate.Format(PublishDateLayout),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// BookChanges holds the fields of a partial update. A nil field is left untouched.
type BookChanges struct {
	Title       *string
	Author      *string
	ISBN        *string
	PublishDate *time.Time
	UpdatedAt   time.Time
}

// Apply copies every set field onto the book.
func (c BookChanges) Apply(b *Book) {
	if c.Title != nil {
		b.Title = *c.Title
	}
	if c.Author != nil {
		b.Author = *c.Author
	}
	if c.ISBN != nil {
		b.ISBN = *c.ISBN
	}
	if c.PublishDate != nil {
		b.PublishDate = *c.PublishDate
	}
	b.UpdatedAt = c.UpdatedAt
}

// BookStorage defines possible operations on book entity. Implementations
// assign the id on Add and apply each mutation atomically.
type BookStorage interface {
	Add(ctx context.Context, book *Book) error
	GetOne(ctx context.Context, id uint64) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
	Update(ctx context.Context, id uint64, changes BookChanges) (Book, error)
	Delete(ctx context.Context, id uint64) error
	Ping(ctx context.Context) error
	Close() error
}
