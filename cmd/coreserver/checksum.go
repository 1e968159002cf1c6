package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ironspire/coreserver/cache"
)

func newCmd_ChecksumTable() *cli.Command {
	return &cli.Command{
		Name:      "checksum-table",
		Usage:     "print the client-bootstrap checksum table for a cache directory",
		ArgsUsage: "<cache-dir>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one argument, the cache directory")
			}
			gameCache, err := cache.Open(c.Args().First())
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer gameCache.Close()

			table := cache.BuildChecksumTable(gameCache)
			fmt.Println(hex.EncodeToString(table))
			return nil
		},
	}
}
