// Package config loads the server's JSON/YAML configuration file, in the
// same two-format style as the teacher's root config.go.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// TCP holds the admission and per-connection tuning knobs from spec.md §6.
type TCP struct {
	BindAddr          string `json:"bind_addr" yaml:"bind_addr"`
	MaxConnections    int    `json:"max_connections" yaml:"max_connections"`
	RequestBufferSize int    `json:"request_buffer_size" yaml:"request_buffer_size"`
}

// Game holds the game-dialect validation knobs.
type Game struct {
	ClientVersion uint32 `json:"client_version" yaml:"client_version"`
}

// Log holds process logging configuration, mapped onto klog's -v flag by
// the caller (cmd/coreserver/serve.go).
type Log struct {
	Level int `json:"level" yaml:"level"`
}

// RSA carries the server's configured public key for the login handshake.
// Not named in spec.md §6's recognized-key table, but required to
// construct a protocol.RSAKey: spec.md itself describes the key as "the
// configured public (modulus, exponent)", i.e. operator-supplied, not a
// hardcoded constant.
type RSA struct {
	ModulusHex  string `json:"modulus_hex" yaml:"modulus_hex"`
	ExponentHex string `json:"exponent_hex" yaml:"exponent_hex"`
}

// Cache carries the on-disk cache directory spec.md §6's "External
// Interfaces" section describes but which the recognized-key table
// omits — the process cannot load the cache (spec.md §6's "process
// lifecycle" clause) without being told where it lives.
type Cache struct {
	Directory string `json:"directory" yaml:"directory"`
}

// Config is the top-level, fully-decoded configuration file.
type Config struct {
	TCP   TCP   `json:"tcp" yaml:"tcp"`
	Game  Game  `json:"game" yaml:"game"`
	Log   Log   `json:"log" yaml:"log"`
	RSA   RSA   `json:"rsa" yaml:"rsa"`
	Cache Cache `json:"cache" yaml:"cache"`

	originalFilepath string
	hashOfConfigFile string
}

// Default returns the zero-risk defaults a freshly-bootstrapped server
// should run with absent an explicit config file, mirroring the
// Default-constructor pattern SPEC_FULL.md's A3 section calls for.
func Default() *Config {
	return &Config{
		TCP: TCP{
			BindAddr:          "0.0.0.0:43594",
			MaxConnections:    2000,
			RequestBufferSize: 32,
		},
		Log: Log{Level: 2},
	}
}

// Load reads and decodes configFilepath, selected as JSON or YAML by file
// extension exactly like the teacher's LoadConfig/isJSONFile/isYAMLFile.
func Load(configFilepath string) (*Config, error) {
	config := Default()

	switch {
	case isJSONFile(configFilepath):
		if err := loadFromJSON(configFilepath, config); err != nil {
			return nil, err
		}
	case isYAMLFile(configFilepath):
		if err := loadFromYAML(configFilepath, config); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("config file %q must be JSON or YAML", configFilepath)
	}

	config.originalFilepath = configFilepath
	sum, err := hashFileSHA256(configFilepath)
	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", configFilepath, err)
	}
	config.hashOfConfigFile = sum
	return config, nil
}

// ConfigFilepath returns the path Load read this configuration from, or
// the empty string for a Default() instance never loaded from disk.
func (c *Config) ConfigFilepath() string { return c.originalFilepath }

// Hash returns the SHA-256 of the file this configuration was loaded
// from, hex-encoded.
func (c *Config) Hash() string { return c.hashOfConfigFile }

// ReloadedSince reports whether c and other were loaded from files with
// different contents (their SHA-256 hashes differ), per SPEC_FULL.md's
// config-change-detection supplemented feature. It compares the two
// loaded hashes only and does not read the file again; no hot reload is
// performed.
func (c *Config) ReloadedSince(other *Config) bool {
	return c.hashOfConfigFile != other.hashOfConfigFile
}

func hashFileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isJSONFile(path string) bool {
	return strings.HasSuffix(path, ".json")
}

func isYAMLFile(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}
