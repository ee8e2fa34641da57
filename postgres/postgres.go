package postgres

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	DBName   string
	DBUser   string
	Password string
	Host     string
	Port     string
	SSLMode  bool

	// MaxOpenConns caps the pool. Zero leaves database/sql's default.
	MaxOpenConns int
}

func (o Options) DSN() string {
	sslmode := "disable"
	if o.SSLMode {
		sslmode = "require"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		o.Host, o.Port, o.DBUser, o.Password, o.DBName, sslmode,
	)
}

func NewConnection(opts Options) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(opts.DSN()), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: open %s/%s: %w", opts.Host, opts.DBName, err)
	}

	if opts.MaxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	return db, nil
}
