package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Tyrowin/linechat/internal/logging"
	"github.com/Tyrowin/linechat/internal/server"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var flags server.Config

	cmd := &cobra.Command{
		Use:           "linechat",
		Short:         "Line-oriented TCP chat server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := server.NewConfigFromEnv()
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg, flags)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), *cfg)
		},
	}

	def := server.NewConfig()
	f := cmd.Flags()
	f.StringVar(&flags.Host, "host", def.Host, "address the chat listener binds to")
	f.IntVar(&flags.Port, "port", def.Port, "chat listener port")
	f.StringVar(&flags.HTTPAddr, "http-addr", def.HTTPAddr, "WebSocket gateway address, empty to disable")
	f.StringSliceVar(&flags.AllowedOrigins, "allowed-origins", def.AllowedOrigins, "origins allowed to open WebSocket sessions")
	f.IntVar(&flags.HistoryLimit, "history", def.HistoryLimit, "messages replayed to new joiners")
	f.DurationVar(&flags.ShutdownTimeout, "shutdown-timeout", def.ShutdownTimeout, "time allowed for sessions to close on shutdown")
	f.StringVar(&flags.LogLevel, "log-level", def.LogLevel, "trace, debug, info, warn or error")
	f.StringVar(&flags.LogFormat, "log-format", def.LogFormat, "console or json")

	return cmd
}

// applyFlags overrides environment values with flags set on the command line.
func applyFlags(cmd *cobra.Command, cfg *server.Config, flags server.Config) {
	f := cmd.Flags()
	if f.Changed("host") {
		cfg.Host = flags.Host
	}
	if f.Changed("port") {
		cfg.Port = flags.Port
	}
	if f.Changed("http-addr") {
		cfg.HTTPAddr = flags.HTTPAddr
	}
	if f.Changed("allowed-origins") {
		cfg.AllowedOrigins = flags.AllowedOrigins
	}
	if f.Changed("history") {
		cfg.HistoryLimit = flags.HistoryLimit
	}
	if f.Changed("shutdown-timeout") {
		cfg.ShutdownTimeout = flags.ShutdownTimeout
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flags.LogLevel
	}
	if f.Changed("log-format") {
		cfg.LogFormat = flags.LogFormat
	}
}

func run(parent context.Context, cfg server.Config) error {
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	hub := server.NewHub(cfg.HistoryLimit, cfg.SendBufferSize)

	tcpServer := server.NewTCPServer(hub, cfg)
	if err := tcpServer.Listen(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return tcpServer.Serve(ctx)
	})

	httpServer := server.CreateServer(cfg.HTTPAddr, server.SetupRoutes(server.NewGateway(hub, cfg)))
	if cfg.HTTPAddr != "" {
		eg.Go(func() error {
			return server.StartServer(httpServer)
		})
	}

	eg.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Server stopping")

		if cfg.HTTPAddr != "" {
			if err := server.ShutdownServer(httpServer, cfg.ShutdownTimeout); err != nil {
				log.Error().Err(err).Msg("HTTP gateway did not stop cleanly")
			}
		}
		if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
			return errors.Wrap(err, "hub shutdown")
		}
		log.Info().Msg("Server stopped")
		return nil
	})

	return eg.Wait()
}
