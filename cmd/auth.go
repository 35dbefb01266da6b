package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vkx/internal/shared"
)

// AuthLogin exchanges email and password for session cookies and stores them locally.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")
	if email == "" || password == "" {
		return fmt.Errorf("%w: --email and --password (or VKX_PASSWORD) are required", shared.ErrMissingArgument)
	}

	m, err := r.manager()
	if err != nil {
		return err
	}

	r.logger.Info("logging in", "email", email, "base_url", r.config.API.BaseURL)
	s, err := m.Login(ctx, email, password)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Logged in as %s\n", s.User().Username)
}

// AuthImport seeds the session from a browser request copied as cURL, then checks it against /users/me.
func (r *Runner) AuthImport(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var (
		headers *shared.CurlHeaders
		err     error
	)
	if curlFile != "" {
		headers, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		headers, err = shared.ParseCurlCommand([]byte(curlCmd))
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	m, err := r.manager()
	if err != nil {
		return err
	}
	s, err := m.Import(ctx, headers.Cookies())
	if err != nil {
		return err
	}

	r.writePlain("✓ Session imported for %s\n", s.User().Username)
	r.writePlain("Cookies stored: %d\n", len(s.Cookies()))
	return nil
}

// AuthLogout expires the session on the backend and forgets it locally.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	m, s, err := r.current()
	if err != nil {
		return err
	}

	if err := m.Logout(ctx, s); err != nil {
		r.writePlain("✓ Logged out locally\n")
		return fmt.Errorf("backend logout: %w", err)
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus reports the backend's health and who the stored cookies belong to.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	m, s, err := r.restoreOrAnonymous()
	if err != nil {
		return err
	}

	r.writePlainHeader("VinylKeeper")
	r.writePlain("Backend: %s\n", s.BaseURL())

	resp, err := s.Service().API().Get(ctx, "/health")
	switch {
	case err != nil:
		r.writePlain("Service: ✗ unreachable (%v)\n", err)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		r.writePlain("Service: ✓ healthy\n")
	default:
		r.writePlain("Service: ✗ status %d\n", resp.StatusCode)
	}

	if !s.Authenticated() {
		return r.writePlain("Authentication: ✗ Not logged in\n")
	}

	user, err := s.Service().Me(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, shared.ErrSessionExpired) {
			return r.writePlain("Authentication: ✗ Session expired for %s, log in again\n", s.User().Username)
		}
		return err
	}
	r.persist(m, s)

	r.writePlain("Authentication: ✓ %s <%s>\n", user.Username, user.Email)
	return nil
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the VinylKeeper session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "email",
						Aliases: []string{"e"},
						Usage:   "Account email",
						Sources: cli.EnvVars("VKX_EMAIL"),
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password",
						Sources: cli.EnvVars("VKX_PASSWORD"),
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "import",
				Usage: "Import a browser session from a 'Copy as cURL' command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command string",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to a file containing the cURL command",
					},
				},
				Action: r.AuthImport,
			},
			{
				Name:   "logout",
				Usage:  "Log out and forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Check backend health and the stored session",
				Action: r.AuthStatus,
			},
		},
	}
}
