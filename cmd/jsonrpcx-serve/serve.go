// file: cmd/jsonrpcx-serve/serve.go
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dkoosis/jsonrpcx/endpoint"
	"github.com/dkoosis/jsonrpcx/logging"
	"github.com/dkoosis/jsonrpcx/rpcconfig"
	"github.com/dkoosis/jsonrpcx/transport"
)

var log = logging.Get("jsonrpcx-serve")

var serveCmd = &cobra.Command{
	Use:   "serve [stdio|tcp <addr>]",
	Short: "Host a jsonrpcx endpoint",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := rpcconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logging.Init(os.Stderr, cfg.SlogLevel())

	switch args[0] {
	case "stdio":
		return serveOne(cfg, transport.NewStdio())
	case "tcp":
		if len(args) < 2 {
			return fmt.Errorf("serve tcp requires an address, e.g. serve tcp :7777")
		}
		return serveTCP(cfg, args[1])
	default:
		return fmt.Errorf("unknown serve target %q, want stdio or tcp", args[0])
	}
}

func serveTCP(cfg rpcconfig.Config, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("serve tcp: listen %s: %w", addr, err)
	}
	defer ln.Close()
	log.Info("listening", "addr", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("serve tcp: accept: %w", err)
		}
		go func() {
			if err := serveOne(cfg, transport.NewTCP(conn)); err != nil {
				log.Error("connection ended with error", "error", err)
			}
		}()
	}
}

func serveOne(cfg rpcconfig.Config, t transport.Transport) error {
	mode, err := cfg.DispatchMode()
	if err != nil {
		return err
	}
	s, err := cfg.NewStream(t, t, t)
	if err != nil {
		return err
	}

	ep := endpoint.New(s, endpoint.Options{
		Separator:      cfg.Separator,
		DefaultTimeout: cfg.DefaultTimeout,
		Logger:         log,
	})
	if err := ep.AttachDispatcher(systemService{}, "system", mode); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	ep.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		_ = ep.Close()
	}()

	ep.Join()
	return nil
}

// systemService is the endpoint's built-in "system" namespace, useful for
// liveness checks against a freshly started jsonrpcx-serve instance.
type systemService struct{}

func (systemService) Ping(_ context.Context) (string, error) {
	return "pong", nil
}

func (systemService) Echo(_ context.Context, msg string) (string, error) {
	return msg, nil
}

func (systemService) Version(_ context.Context) (string, error) {
	return version, nil
}
