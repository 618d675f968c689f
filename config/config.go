package config

import (
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once
	cacheMu    sync.Mutex
	cache      = map[reflect.Type]any{}
)

func loadDotenv() {
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})
}

// Load populates cfg from environment variables, caching the result per
// concrete type so repeated calls return the same values without
// re-parsing the environment.
func Load[T any](cfg *T) error {
	loadDotenv()

	t := reflect.TypeOf(*cfg)

	cacheMu.Lock()
	if cached, ok := cache[t]; ok {
		cacheMu.Unlock()
		*cfg = *cached.(*T)
		return nil
	}
	cacheMu.Unlock()

	if err := env.Parse(cfg); err != nil {
		return err
	}

	cacheMu.Lock()
	cache[t] = cfg
	cacheMu.Unlock()
	return nil
}

// MustLoad is Load, panicking on failure. Intended for startup code paths
// where a missing or malformed configuration is unrecoverable.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
