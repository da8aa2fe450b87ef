package config

import (
	"fmt"
	"time"

	"github.com/gopoolkit/poolkit/pkg/pool"
)

// File is the on-disk configuration shape.
type File struct {
	Pool PoolSection `yaml:"pool" json:"pool"`
}

// PoolSection configures a single pool. SubmitTimeout is a Go duration
// string such as "5s"; empty means the default.
type PoolSection struct {
	Workers       int    `yaml:"workers" json:"workers"`
	QueueCapacity int    `yaml:"queue_capacity" json:"queue_capacity"`
	SubmitTimeout string `yaml:"submit_timeout" json:"submit_timeout"`
}

// LoadFile loads and validates a pool configuration file, applying
// POOLKIT_* environment overrides.
func LoadFile(path string) (*File, error) {
	f := &File{}
	if err := LoadWithEnv(path, "POOLKIT", f); err != nil {
		return nil, err
	}
	if err := Validate(f, ValidatorFunc(validateFile)); err != nil {
		return nil, err
	}
	return f, nil
}

// PoolConfig maps the file onto a pool.Config, filling defaults for unset
// fields.
func (f *File) PoolConfig() (*pool.Config, error) {
	cfg := pool.DefaultConfig()

	if f.Pool.Workers > 0 {
		cfg.Workers = f.Pool.Workers
	}
	if f.Pool.QueueCapacity > 0 {
		cfg.QueueCapacity = f.Pool.QueueCapacity
	}
	if f.Pool.SubmitTimeout != "" {
		d, err := time.ParseDuration(f.Pool.SubmitTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid submit_timeout %q: %w", f.Pool.SubmitTimeout, err)
		}
		cfg.SubmitTimeout = d
	}

	return cfg, nil
}

func validateFile(config any) error {
	f, ok := config.(*File)
	if !ok {
		return fmt.Errorf("expected *File, got %T", config)
	}
	if f.Pool.Workers < 0 {
		return fmt.Errorf("pool.workers must not be negative, got %d", f.Pool.Workers)
	}
	if f.Pool.QueueCapacity < 0 {
		return fmt.Errorf("pool.queue_capacity must not be negative, got %d", f.Pool.QueueCapacity)
	}
	if f.Pool.SubmitTimeout != "" {
		if _, err := time.ParseDuration(f.Pool.SubmitTimeout); err != nil {
			return fmt.Errorf("invalid pool.submit_timeout %q: %w", f.Pool.SubmitTimeout, err)
		}
	}
	return nil
}
