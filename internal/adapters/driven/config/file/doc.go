// Package file loads pipeline configuration from a TOML file in the
// tracksync config directory, with environment variable overrides for
// credentials.
package file
