package cli

import (
	"os"
	"path/filepath"

	"github.com/pointable/pointable/inifile"
	"github.com/pointable/pointable/pointers"
)

// Config holds the pointable configuration.
type Config struct {
	Database DatabaseConfig
	Pointers pointers.Config
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	URL string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
	}
}

// LoadConfig reads pointable.ini if present, falling back to defaults plus
// DATABASE_URL. The dir parameter names the directory holding the ini file;
// empty means the current working directory.
//
// Recognized keys:
//
//	[database]
//	url = postgres://...
//
//	[pointers]
//	table = pointers
//	registry = pointer_tables
//	insert_function = insert_pointer
//	insert_prefix = insert_pointer_
//	delete_function = delete_pointer
//	delete_prefix = delete_pointer_
func LoadConfig(dir string) (*Config, error) {
	cfg := DefaultConfig()

	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}

	path := filepath.Join(dir, "pointable.ini")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	file, err := inifile.ParseFile(path)
	if err != nil {
		return nil, err
	}

	if url, ok := file.Lookup("database", "url"); ok {
		cfg.Database.URL = url
	}
	cfg.Pointers = pointers.Config{
		PointerTable:   file.Get("pointers", "table"),
		RegistryTable:  file.Get("pointers", "registry"),
		InsertFunction: file.Get("pointers", "insert_function"),
		InsertPrefix:   file.Get("pointers", "insert_prefix"),
		DeleteFunction: file.Get("pointers", "delete_function"),
		DeletePrefix:   file.Get("pointers", "delete_prefix"),
	}
	return cfg, nil
}
