// Package config handles configuration management for fsmerge.
// It layers embedded defaults, an optional TOML file and FSMERGE_
// environment variables, in that order.
package config
