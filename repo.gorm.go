package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type gormBookStorage struct {
	logger *zap.Logger
	db     *gorm.DB
}

// GetGormDB opens the relational database selected by the storage driver,
// applies the connection pool settings and creates the books table if missing.
// SQL logs go to logger at the configured sql log level.
func GetGormDB(logger *zap.Logger, config *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch config.Storage.Driver {
	case DriverPostgres:
		dialector = postgres.Open(config.Postgres.DSN)
	case DriverSQLite:
		dialector = sqlite.Open(config.SQLite.FilePath)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", config.Storage.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(logger, gormLogLevel(config.Storage.SQLLogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database: %w", err)
	}

	if config.Storage.Driver == DriverPostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		if config.Postgres.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(config.Postgres.MaxIdleConns)
		}
		if config.Postgres.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		}
		if config.Postgres.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(config.Postgres.ConnMaxLifetime)
		}
	}

	if err := db.AutoMigrate(&Book{}); err != nil {
		return nil, fmt.Errorf("failed to create books table: %w", err)
	}
	return db, nil
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "error":
		return gormlogger.Error
	case "warn":
		return gormlogger.Warn
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Silent
	}
}

// NewGormBookStorage provides an instance of sql-based book storage.
func NewGormBookStorage(logger *zap.Logger, db *gorm.DB) BookStorage {
	return &gormBookStorage{
		logger: logger,
		db:     db,
	}
}

// Add inserts a new book record. The database assigns its id.
func (gs *gormBookStorage) Add(ctx context.Context, book *Book) error {
	err := gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := isbnTaken(tx, book.ISBN, 0); err != nil {
			return err
		}
		return tx.Create(book).Error
	})
	return translateGormError(err)
}

// GetOne retrieves a book record based on its ID.
func (gs *gormBookStorage) GetOne(ctx context.Context, id uint64) (Book, error) {
	var book Book
	err := gs.db.WithContext(ctx).First(&book, id).Error
	return book, translateGormError(err)
}

// GetAll retrieves all book records ordered by id.
func (gs *gormBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	books := []Book{}
	if err := gs.db.WithContext(ctx).Order("id asc").Find(&books).Error; err != nil {
		return nil, err
	}
	if books == nil {
		books = []Book{}
	}
	return books, nil
}

// Update applies the set fields of changes to the book inside a single transaction.
func (gs *gormBookStorage) Update(ctx context.Context, id uint64, changes BookChanges) (Book, error) {
	var book Book
	err := gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"updated_at": changes.UpdatedAt}
		if changes.Title != nil {
			updates["title"] = *changes.Title
		}
		if changes.Author != nil {
			updates["author"] = *changes.Author
		}
		if changes.ISBN != nil {
			if *changes.ISBN != book.ISBN {
				if err := isbnTaken(tx, *changes.ISBN, id); err != nil {
					return err
				}
			}
			updates["isbn"] = *changes.ISBN
		}
		if changes.PublishDate != nil {
			updates["publish_date"] = *changes.PublishDate
		}

		if err := tx.Model(&Book{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&book, id).Error
	})
	if err != nil {
		return Book{}, translateGormError(err)
	}
	return book, nil
}

// Delete removes a book record based on its ID.
func (gs *gormBookStorage) Delete(ctx context.Context, id uint64) error {
	result := gs.db.WithContext(ctx).Delete(&Book{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// Ping checks the database connection is alive.
func (gs *gormBookStorage) Ping(ctx context.Context) error {
	sqlDB, err := gs.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (gs *gormBookStorage) Close() error {
	sqlDB, err := gs.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// isbnTaken returns ErrDuplicateISBN if a book other than exceptID owns isbn.
func isbnTaken(tx *gorm.DB, isbn string, exceptID uint64) error {
	var count int64
	query := tx.Model(&Book{}).Where("isbn = ?", isbn)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateISBN
	}
	return nil
}

func translateGormError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrBookNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateISBN
	}
	return err
}
