package domain

import (
	"context"
)

// ReferenceSource supplies the reference table of a species. Implementations
// return ErrSpeciesNotFound when the species is unknown to them and must be
// safe for concurrent use.
type ReferenceSource interface {
	ReferenceTable(ctx context.Context, species string) (*ReferenceTable, error)
}

// ReferenceStore is a ReferenceSource that can also be written, used to sync
// the built-in tables into a database.
type ReferenceStore interface {
	ReferenceSource
	SaveReferenceTable(ctx context.Context, table *ReferenceTable) error
	Species(ctx context.Context) ([]string, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatabaseConfig() *DatabaseConfig
	GetReferenceConfig() *ReferenceConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
