// Package config loads env-tagged configuration structs with
// github.com/caarlos0/env, optionally reading dotenv files through
// github.com/joho/godotenv first.
//
// Every package that needs settings owns a Config struct with env and
// envDefault tags; the application loads them at startup:
//
//	var cfg app.Config
//	if err := config.Load(&cfg, config.WithEnvFiles(".env")); err != nil {
//	    log.Fatal(err)
//	}
//
// Nested structs are supported, so an application Config can embed the
// Config of every package it wires. Parse errors wrap ErrParsingConfig.
package config
