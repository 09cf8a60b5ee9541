// Package config loads typed configuration structs from environment variables.
//
// It combines github.com/joho/godotenv, which reads an optional .env file once
// per process, with github.com/caarlos0/env/v11, which maps variables onto
// struct fields through `env` and `envDefault` tags. Every package of the
// service declares its own Config struct; the binary loads each of them with
// Load and passes the values to constructors.
//
//	type Config struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Parsed values are cached per type. Reset clears the cache for tests.
package config
