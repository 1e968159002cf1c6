package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/ironspire/coreserver/accounts"
	"github.com/ironspire/coreserver/cache"
	"github.com/ironspire/coreserver/config"
	"github.com/ironspire/coreserver/protocol"
	"github.com/ironspire/coreserver/server"
	"github.com/ironspire/coreserver/session"
	"github.com/ironspire/coreserver/world"
)

func newCmd_Serve() *cli.Command {
	return &cli.Command{
		Name:        "serve",
		Usage:       "run the game server",
		Description: "Loads a config file, opens the on-disk cache, and serves TCP connections until interrupted.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Usage:    "path to a JSON or YAML config file",
				Required: true,
				EnvVars:  []string{"CORESERVER_CONFIG"},
			},
		},
		Action: func(c *cli.Context) error {
			return runServe(c)
		},
	}
}

func runServe(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !c.IsSet("v") {
		SetVerbosity(cfg.Log.Level)
	}

	rsaKey, err := cfg.RSAKey()
	if err != nil {
		return err
	}

	server.RegisterNetworkCollector()

	gameCache, err := cache.Open(cfg.Cache.Directory)
	if err != nil {
		return fmt.Errorf("open cache %q: %w", cfg.Cache.Directory, err)
	}
	defer gameCache.Close()

	fileService := session.NewFileService(gameCache)
	accountService := accounts.NewMemoryService()
	players := world.NewInMemoryRegistry(2000)

	worldList := func(fullUpdate bool) protocol.WorldListPayload {
		payload := protocol.WorldListPayload{
			FullUpdate: fullUpdate,
			Worlds: []protocol.World{{
				ID:          1,
				Location:    0,
				Flags:       0,
				Activity:    "",
				Hostname:    cfg.TCP.BindAddr,
				SessionID:   1,
				PlayerCount: uint16(players.Count()),
			}},
		}
		if fullUpdate {
			payload.Countries = []protocol.Country{{Flag: 0, Name: ""}}
		}
		return payload
	}

	sessionCfg := session.Config{
		ClientVersion:     cfg.Game.ClientVersion,
		RequestBufferSize: cfg.TCP.RequestBufferSize,
		RSAKey:            rsaKey,
		FileService:       fileService,
		WorldList:         worldList,
		Accounts:          accountService,
		Players:           players,
	}

	acceptor, err := server.Listen(cfg.TCP.BindAddr, cfg.TCP.MaxConnections, func(ctx context.Context, conn net.Conn) error {
		return session.Dispatch(ctx, conn, sessionCfg)
	})
	if err != nil {
		return fmt.Errorf("listen on %q: %w", cfg.TCP.BindAddr, err)
	}

	manager := server.NewManager(c.Context)
	manager.Spawn("acceptor", func(ctx context.Context, ready func()) error {
		ready()
		return acceptor.Serve(ctx)
	})
	manager.Spawn("cache-disk-watch", func(ctx context.Context, ready func()) error {
		ready()
		server.WatchCacheDiskUtilization(ctx, cfg.Cache.Directory, 30*time.Second)
		return nil
	})

	return manager.Run(func() {
		klog.Infof("listening on %s (config=%s, hash=%s)", acceptor.Addr(), cfg.ConfigFilepath(), cfg.Hash())
	})
}
