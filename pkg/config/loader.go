package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// registry keeps one parsed copy per configuration type.
type registry struct {
	mu     sync.Mutex
	values map[reflect.Type]any
}

var (
	loaded = &registry{values: make(map[reflect.Type]any)}

	dotenvOnce sync.Once
)

// Load fills v from the process environment.
//
// The default .env file is read once per process before the first parse;
// a missing file is not an error. Each configuration type is parsed once and
// every later call for the same type receives a copy of the cached value, so
// service constructors can call Load freely.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	key := reflect.TypeFor[T]()

	loaded.mu.Lock()
	defer loaded.mu.Unlock()

	if cached, ok := loaded.values[key]; ok {
		typed, ok := cached.(T)
		if !ok {
			return ErrInvalidConfigType
		}
		*v = typed
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	loaded.values[key] = parsed
	*v = parsed

	return nil
}

// MustLoad works like Load but panics on failure.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// Reset drops every cached configuration. Intended for tests that change
// the environment between cases.
func Reset() {
	loaded.mu.Lock()
	defer loaded.mu.Unlock()
	loaded.values = make(map[reflect.Type]any)
}
