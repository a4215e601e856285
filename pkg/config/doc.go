// Package config loads typed configuration structs from environment
// variables via `env` struct tags, with optional .env bootstrap for local
// development.
//
//	type ServerConfig struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg ServerConfig
//	config.MustLoad(&cfg)
package config
