package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"filevault/internal/apperr"
	"filevault/internal/logging"
	"filevault/internal/models"
)

// UserStore persists user credentials. FindUserByName returns
// apperr.ErrUserNotFound for unknown names and CreateUser returns
// apperr.ErrUserExists when the name is taken.
type UserStore interface {
	FindUserByName(ctx context.Context, name string) (*models.User, error)
	CreateUser(ctx context.Context, name, passwordHash string) (*models.User, error)
	Close() error
}

// Open connects the credential backend named by driver.
func Open(ctx context.Context, driver, dsn, database string, logger *slog.Logger) (UserStore, error) {
	if driver == "mongodb" {
		return OpenMongo(ctx, dsn, database)
	}
	return Init(driver, dsn, logger)
}

type DB struct {
	*gorm.DB
}

var _ UserStore = (*DB)(nil)

// Init opens a SQL database through GORM and migrates the users table.
func Init(driver, dsn string, logger *slog.Logger) (*DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite3", "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.New(postgres.Config{DriverName: "postgres", DSN: dsn})
	case "mysql":
		dialector = gormmysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logging.GORM(logger),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if err := db.AutoMigrate(&models.User{}); err != nil {
		return nil, fmt.Errorf("failed to migrate users: %w", err)
	}

	return &DB{db}, nil
}

func (db *DB) FindUserByName(ctx context.Context, name string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("name = ?", name).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, apperr.Store("find user", err)
	}
	return &user, nil
}

func (db *DB) CreateUser(ctx context.Context, name, passwordHash string) (*models.User, error) {
	user := models.NewUser(name, passwordHash)
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ErrUserExists
		}
		return nil, apperr.Store("create user", err)
	}
	return user, nil
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// isUniqueViolation reports whether err is a duplicate key error from any of
// the supported SQL drivers.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}

	return false
}
