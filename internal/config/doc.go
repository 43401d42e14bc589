// Package config loads engine configuration from environment variables with
// optional .env support.
package config
