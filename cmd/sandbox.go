package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vkx/internal/server"
	"github.com/desertthunder/vkx/internal/shared"
)

// apiPrefix is the path part of api.base_url, where the sandbox mounts its routes.
func apiPrefix(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "/api"
	}
	return strings.TrimRight(u.Path, "/")
}

// newSandbox builds a seeded sandbox handler.
func (r *Runner) newSandbox(likeFailures int) (*server.Sandbox, server.Seeded) {
	store := server.NewStore()
	seeded := server.Seed(store)
	if likeFailures > 0 {
		store.SetFaults(server.Faults{LikeFailures: likeFailures})
	}
	return server.NewSandbox(store, shared.WithLogger(r.logger, "component", "sandbox"), apiPrefix(r.config.API.BaseURL)), seeded
}

// Sandbox serves an in-memory VinylKeeper API with demo data until interrupted.
func (r *Runner) Sandbox(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Sandbox
	if h := cmd.String("host"); h != "" {
		cfg.Host = h
	}
	if p := cmd.Int("port"); p > 0 {
		cfg.Port = p
	}

	handler, seeded := r.newSandbox(cmd.Int("like-failures"))
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	base := "http://" + net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)) + apiPrefix(r.config.API.BaseURL)
	r.writePlainHeader("VinylKeeper sandbox")
	r.writePlain("Listening: %s\n", base)
	r.writePlain("Demo login: %s / %s\n", server.DemoEmail, server.DemoPassword)
	r.writePlain("Collections: %v  Places: %v\n", seeded.Collections, seeded.Places)
	r.writePlainln("Point api.base_url at %s, then run 'vkx auth login'. Ctrl+C stops.", base)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down sandbox")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func sandboxCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sandbox",
		Usage: "Run an in-memory VinylKeeper API with demo data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default from sandbox.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default from sandbox.port)",
			},
			&cli.IntFlag{
				Name:  "like-failures",
				Usage: "Fail this many like calls with 503, to watch rollbacks",
			},
		},
		Action: r.Sandbox,
	}
}
