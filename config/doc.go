// Package config provides type-safe environment variable loading with
// caching, using Go generics. Each configuration type is loaded once per
// process and cached for subsequent calls.
//
// The package automatically loads a .env file on first use (if present) and
// uses github.com/caarlos0/env to parse environment variables into struct
// fields.
//
// Basic usage:
//
//	import "github.com/tsignal-go/tsignal/config"
//
//	var dbg config.Debug
//	config.MustLoad(&dbg)
//
//	if dbg.Enabled {
//		// raise logger verbosity
//	}
//
// # Caching behavior
//
// Each configuration type is loaded only once per process lifetime:
//
//	var d1 config.Debug
//	config.Load(&d1) // loads from environment
//
//	var d2 config.Debug
//	config.Load(&d2) // returns the cached value, d1 == d2
//
// Different types are cached independently.
package config
