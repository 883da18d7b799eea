// Package config provides centralized configuration management for the yeogiro
// server. It handles loading configuration from multiple sources, validation,
// and provides a type-safe API for accessing configuration values.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern YEOGIRO_<SECTION>_<FIELD>:
//
//	YEOGIRO_SERVER_PORT=8000
//	YEOGIRO_STORES_MONGO_URI=mongodb://mongo:27017
//	YEOGIRO_STORES_PATH_DSN=postgres://...
//	YEOGIRO_LOGGING_LEVEL=debug
//	YEOGIRO_STORES_EMERGENCY_SEED_FILE=data/emergency.xlsx
//
// Field names are split on word boundaries (SeedFile becomes SEED_FILE).
// Only the prefixed name is read; a bare SEED_FILE or PORT is ignored.
//
// YEOGIRO_CONFIG_FILE selects the YAML file explicitly; otherwise config.yaml
// and configs/config.yaml are tried in that order.
//
// # Validation
//
// Every field carries a go-playground/validator tag and Load rejects a
// configuration that does not satisfy them.
package config
