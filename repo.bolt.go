package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

type boltBookStorage struct {
	logger *zap.Logger
	client *bolt.DB
	books  []byte
	isbns  []byte
}

// GetBoltDBClient setup the database and the buckets then provides a ready to use client.
// Books live in the configured bucket and a second bucket maps each isbn to its book id.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{config.BoltDB.BucketName, isbnBucketName(config.BoltDB.BucketName)} {
			if _, errB := tx.CreateBucketIfNotExists([]byte(name)); errB != nil {
				return fmt.Errorf("failed to create %s bucket: %v", name, errB)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

func isbnBucketName(books string) string {
	return books + ".isbn"
}

// NewBoltBookStorage provides an instance of bolt-based book storage.
func NewBoltBookStorage(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB) BookStorage {
	return &boltBookStorage{
		logger: logger,
		client: client,
		books:  []byte(boltConfig.BucketName),
		isbns:  []byte(isbnBucketName(boltConfig.BucketName)),
	}
}

// itob returns an 8-byte big endian representation of v.
// Keys sort by id with this encoding.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Close shuts down the bolt-based book storage.
func (bs *boltBookStorage) Close() error {
	return bs.client.Close()
}

// Ping ensures the database file is still usable.
func (bs *boltBookStorage) Ping(_ context.Context) error {
	return bs.client.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bs.books) == nil {
			return fmt.Errorf("bucket %s not found", bs.books)
		}
		return nil
	})
}

// Add inserts a new book record with the next bucket sequence as id.
func (bs *boltBookStorage) Add(_ context.Context, book *Book) error {
	return bs.client.Update(func(tx *bolt.Tx) error {
		books, isbns := tx.Bucket(bs.books), tx.Bucket(bs.isbns)
		if isbns.Get([]byte(book.ISBN)) != nil {
			return ErrDuplicateISBN
		}
		id, err := books.NextSequence()
		if err != nil {
			return err
		}
		record := *book
		record.ID = id
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if err = books.Put(itob(id), data); err != nil {
			return err
		}
		if err = isbns.Put([]byte(record.ISBN), itob(id)); err != nil {
			return err
		}
		book.ID = id
		return nil
	})
}

// GetOne retrieves a book record based on its ID from boltdb store.
func (bs *boltBookStorage) GetOne(_ context.Context, id uint64) (Book, error) {
	var book Book
	// initialize a readable transaction.
	tx, err := bs.client.Begin(false)
	if err != nil {
		return book, err
	}
	defer tx.Rollback()

	result := tx.Bucket(bs.books).Get(itob(id))
	if result == nil {
		return book, ErrBookNotFound
	}
	err = json.Unmarshal(result, &book)
	return book, err
}

// Delete removes a book record and its isbn index entry.
func (bs *boltBookStorage) Delete(_ context.Context, id uint64) error {
	return bs.client.Update(func(tx *bolt.Tx) error {
		books := tx.Bucket(bs.books)
		data := books.Get(itob(id))
		if data == nil {
			return ErrBookNotFound
		}
		var book Book
		if err := json.Unmarshal(data, &book); err != nil {
			return err
		}
		if err := tx.Bucket(bs.isbns).Delete([]byte(book.ISBN)); err != nil {
			return err
		}
		return books.Delete(itob(id))
	})
}

// Update applies the change set to an existing book record. The isbn index
// and the record are rewritten in the same transaction.
func (bs *boltBookStorage) Update(_ context.Context, id uint64, changes BookChanges) (Book, error) {
	var book Book
	err := bs.client.Update(func(tx *bolt.Tx) error {
		books, isbns := tx.Bucket(bs.books), tx.Bucket(bs.isbns)
		data := books.Get(itob(id))
		if data == nil {
			return ErrBookNotFound
		}
		if err := json.Unmarshal(data, &book); err != nil {
			return err
		}

		previousISBN := book.ISBN
		changes.Apply(&book)
		if book.ISBN != previousISBN {
			if isbns.Get([]byte(book.ISBN)) != nil {
				return ErrDuplicateISBN
			}
			if err := isbns.Delete([]byte(previousISBN)); err != nil {
				return err
			}
			if err := isbns.Put([]byte(book.ISBN), itob(id)); err != nil {
				return err
			}
		}

		updated, err := json.Marshal(book)
		if err != nil {
			return err
		}
		return books.Put(itob(id), updated)
	})
	if err != nil {
		return Book{}, err
	}
	return book, nil
}

// GetAll retrieves a list of all books stored in the bolt database.
// The cursor walks keys in id order.
func (bs *boltBookStorage) GetAll(_ context.Context) ([]Book, error) {
	tx, err := bs.client.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Create a cursor on the books' bucket.
	c := tx.Bucket(bs.books).Cursor()

	books := []Book{}
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var book Book
		if err = json.Unmarshal(v, &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}
