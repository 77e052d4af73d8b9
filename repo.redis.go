package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HBooks     string = "books"
	HBookISBNs string = "books:isbn"
	KBookSeq   string = "books:seq"
)

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisBookStorage provides an instance of redis-based book storage.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client) BookStorage {
	return &redisBookStorage{
		logger: logger,
		client: client,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

func bookField(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// Add inserts a new book record. Its id comes from the books sequence counter
// and is only allocated once the isbn is known to be free. The isbn index is
// watched so that a concurrent insert of the same isbn aborts.
func (rs *redisBookStorage) Add(ctx context.Context, book *Book) error {
	var id uint64
	err := rs.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, HBookISBNs, book.ISBN).Result()
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateISBN
		}
		id, err = tx.Incr(ctx, KBookSeq).Uint64()
		if err != nil {
			return fmt.Errorf("failed to allocate book id: %w", err)
		}
		record := *book
		record.ID = id
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, HBooks, bookField(id), data)
			pipe.HSet(ctx, HBookISBNs, record.ISBN, bookField(id))
			return nil
		})
		return err
	}, HBookISBNs)
	if err != nil {
		return err
	}
	book.ID = id
	return nil
}

// GetOne retrieves a book record based on its ID.
func (rs *redisBookStorage) GetOne(ctx context.Context, id uint64) (Book, error) {
	return getRedisBook(ctx, rs.client, id)
}

// hashGetter is satisfied by both *redis.Client and *redis.Tx.
type hashGetter interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
}

func getRedisBook(ctx context.Context, c hashGetter, id uint64) (Book, error) {
	var book Book
	bookJSONString, err := c.HGet(ctx, HBooks, bookField(id)).Result()
	if errors.Is(err, redis.Nil) {
		return book, ErrBookNotFound
	}
	if err != nil {
		return book, err
	}
	err = json.Unmarshal([]byte(bookJSONString), &book)
	return book, err
}

// Delete removes a book record and its isbn index entry.
func (rs *redisBookStorage) Delete(ctx context.Context, id uint64) error {
	return rs.client.Watch(ctx, func(tx *redis.Tx) error {
		book, err := getRedisBook(ctx, tx, id)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, HBooks, bookField(id))
			pipe.HDel(ctx, HBookISBNs, book.ISBN)
			return nil
		})
		return err
	}, HBooks, HBookISBNs)
}

// Update applies the change set to an existing book record. A concurrent write
// on the watched keys makes the transaction fail with redis.TxFailedErr.
func (rs *redisBookStorage) Update(ctx context.Context, id uint64, changes BookChanges) (Book, error) {
	var book Book
	err := rs.client.Watch(ctx, func(tx *redis.Tx) error {
		var err error
		book, err = getRedisBook(ctx, tx, id)
		if err != nil {
			return err
		}

		previousISBN := book.ISBN
		changes.Apply(&book)
		if book.ISBN != previousISBN {
			exists, err := tx.HExists(ctx, HBookISBNs, book.ISBN).Result()
			if err != nil {
				return err
			}
			if exists {
				return ErrDuplicateISBN
			}
		}

		data, err := json.Marshal(book)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, HBooks, bookField(id), data)
			if book.ISBN != previousISBN {
				pipe.HDel(ctx, HBookISBNs, previousISBN)
				pipe.HSet(ctx, HBookISBNs, book.ISBN, bookField(id))
			}
			return nil
		})
		return err
	}, HBooks, HBookISBNs)
	if err != nil {
		return Book{}, err
	}
	return book, nil
}

// GetAll retrieves a list of all books stored in the redis database, sorted by id.
func (rs *redisBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	mapBooks, err := rs.client.HVals(ctx, HBooks).Result()
	if err != nil {
		return nil, err
	}
	books := []Book{}
	for _, bookJSONString := range mapBooks {
		var book Book
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books, nil
}

// Ping checks the redis server is reachable.
func (rs *redisBookStorage) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (rs *redisBookStorage) Close() error {
	return rs.client.Close()
}
