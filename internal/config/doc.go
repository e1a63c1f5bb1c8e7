// Package config holds scan settings and loads them from defaults, the
// .notionscan YAML file, the environment (including a .env file) and CLI
// flags. Later sources win.
package config
