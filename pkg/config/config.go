package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var Empty = new(Config)

const (
	DriverPostgres = "postgres"
	DriverDynamoDB = "dynamodb"
	DriverBolt     = "bolt"
	DriverMemory   = "memory"
)

type Config struct {
	AppEnv       string `envconfig:"APP_ENV"`
	Port         int    `envconfig:"PORT" default:"8080"`
	SentryDSN    string `envconfig:"SENTRY_DSN"`
	AllowOrigins string `envconfig:"ALLOW_ORIGINS"`
	// SeedContacts loads the three development contacts at startup.
	SeedContacts bool `envconfig:"SEED_CONTACTS"`

	DB struct {
		Driver    string `envconfig:"DB_DRIVER" default:"postgres"`
		Name      string `envconfig:"DB_NAME"`
		Host      string `envconfig:"DB_HOST"`
		Port      int    `envconfig:"DB_PORT"`
		User      string `envconfig:"DB_USER"`
		Pass      string `envconfig:"DB_PASS"`
		EnableSSL bool   `envconfig:"ENABLE_SSL"`
		MaxConns  int    `envconfig:"DB_MAX_CONNS" default:"10"`
	}
	Bolt struct {
		Path string `envconfig:"BOLT_PATH" default:"data/contacts.db"`
	}
	DynamoDB struct {
		Region        string `envconfig:"DDB_REGION"`
		Endpoint      string `envconfig:"DDB_ENDPOINT"`
		AccessKey     string `envconfig:"DDB_ACCESS_KEY"`
		SecretKey     string `envconfig:"DDB_SECRET_KEY"`
		SessionToken  string `envconfig:"DDB_SESSION_TOKEN"`
		ContactsTable string `envconfig:"DDB_CONTACTS_TABLE" default:"contacts"`
		// CreateTable creates the contacts table on startup, for DynamoDB Local.
		CreateTable bool `envconfig:"DDB_CREATE_TABLE"`
	}
}

func LoadConfig() (*Config, error) {
	// load default .env file, ignore the error
	_ = godotenv.Load()

	cfg := new(Config)
	err := envconfig.Process("", cfg)
	if err != nil {
		return nil, fmt.Errorf("load config error: %v", err)
	}

	switch cfg.DB.Driver {
	case DriverPostgres, DriverDynamoDB, DriverBolt, DriverMemory:
	default:
		return nil, fmt.Errorf("load config error: unknown DB_DRIVER %q", cfg.DB.Driver)
	}

	return cfg, nil
}
