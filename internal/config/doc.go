// Package config loads the service configuration from defaults, an optional
// config.yaml, a .env file and SHABELINGO_* environment variables, and
// validates the result before anything else starts.
package config
