package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/ironspire/coreserver/protocol"
)

// Validate checks the required fields are present and well-formed,
// matching the teacher's own Config.Validate: collect every problem
// rather than stopping at the first.
func (c *Config) Validate() error {
	var errs []error

	if c.TCP.BindAddr == "" {
		errs = append(errs, errors.New("tcp.bind_addr must not be empty"))
	}
	if c.TCP.MaxConnections <= 0 {
		errs = append(errs, errors.New("tcp.max_connections must be positive"))
	}
	if c.TCP.RequestBufferSize <= 0 {
		errs = append(errs, errors.New("tcp.request_buffer_size must be positive"))
	}
	if c.Game.ClientVersion == 0 {
		errs = append(errs, errors.New("game.client_version must be set"))
	}
	if c.Cache.Directory == "" {
		errs = append(errs, errors.New("cache.directory must not be empty"))
	} else if info, err := os.Stat(c.Cache.Directory); err != nil {
		errs = append(errs, fmt.Errorf("cache.directory: %w", err))
	} else if !info.IsDir() {
		errs = append(errs, fmt.Errorf("cache.directory %q is not a directory", c.Cache.Directory))
	}
	if c.RSA.ModulusHex == "" || c.RSA.ExponentHex == "" {
		errs = append(errs, errors.New("rsa.modulus_hex and rsa.exponent_hex must both be set"))
	} else if _, err := c.RSAKey(); err != nil {
		errs = append(errs, fmt.Errorf("rsa: %w", err))
	}

	return errors.Join(errs...)
}

// RSAKey decodes the configured hex modulus and exponent into a
// protocol.RSAKey.
func (c *Config) RSAKey() (protocol.RSAKey, error) {
	modulusBytes, err := hex.DecodeString(c.RSA.ModulusHex)
	if err != nil {
		return protocol.RSAKey{}, fmt.Errorf("decode modulus_hex: %w", err)
	}
	exponentBytes, err := hex.DecodeString(c.RSA.ExponentHex)
	if err != nil {
		return protocol.RSAKey{}, fmt.Errorf("decode exponent_hex: %w", err)
	}
	return protocol.RSAKey{
		Modulus:  new(big.Int).SetBytes(modulusBytes),
		Exponent: new(big.Int).SetBytes(exponentBytes),
	}, nil
}
