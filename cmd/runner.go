package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vkx/internal/query"
	"github.com/desertthunder/vkx/internal/repositories"
	"github.com/desertthunder/vkx/internal/session"
	"github.com/desertthunder/vkx/internal/shared"
	"github.com/desertthunder/vkx/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	clock      clockwork.Clock
	db         *sql.DB
	cache      *query.Client
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Clock      clockwork.Clock
	// DB is opened from the config on first use when nil.
	DB *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		clock:      opts.Clock,
		db:         opts.DB,
	}
}

// SetLogger swaps the logger, e.g. to a file while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, collectionsCommand, placesCommand, wishlistCommand,
		searchCommand, addCommand, exportCommand, historyCommand, apiCommand, tuiCommand, sandboxCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// database opens the configured store on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database (run 'vkx setup' first?): %w", err)
	}
	r.db = db
	return db, nil
}

// queryClient builds the read cache from the [query] section.
func (r *Runner) queryClient() (*query.Client, error) {
	if r.cache != nil {
		return r.cache, nil
	}
	q := r.config.Query
	cache, err := query.NewClient(query.Options{
		Size:      q.CacheSize,
		StaleTime: q.StaleTime.Duration,
		Read:      query.RetryPolicy{Retries: q.ReadRetries, BaseDelay: query.ReadPolicy.BaseDelay, MaxBackoff: q.MaxBackoff.Duration},
		Mutation:  query.MutationPolicy,
		Clock:     r.clock,
		Logger:    r.logger,
	})
	if err != nil {
		return nil, err
	}
	r.cache = cache
	return cache, nil
}

func (r *Runner) sessionOptions() session.Options {
	return session.Options{
		BaseURL:   r.config.API.BaseURL,
		Timeout:   r.config.API.Timeout.Duration,
		UserAgent: r.config.API.UserAgent,
		Transport: r.httpClient.Transport,
		Logger:    r.logger,
	}
}

// manager wires the session manager to the local store and the read cache.
func (r *Runner) manager() (*session.Manager, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	cache, err := r.queryClient()
	if err != nil {
		return nil, err
	}
	return session.NewManager(r.sessionOptions(), repositories.NewSessionRepository(db), cache), nil
}

// current restores the stored session and fails when nobody is logged in.
func (r *Runner) current() (*session.Manager, *session.Session, error) {
	m, err := r.manager()
	if err != nil {
		return nil, nil, err
	}
	s, err := m.Restore()
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: run 'vkx auth login' first", shared.ErrNotAuthenticated)
		}
		return nil, nil, err
	}
	return m, s, nil
}

// restoreOrAnonymous returns the stored session, or an anonymous one for public reads.
func (r *Runner) restoreOrAnonymous() (*session.Manager, *session.Session, error) {
	m, err := r.manager()
	if err != nil {
		return nil, nil, err
	}
	s, err := m.Restore()
	if err != nil && s == nil {
		return nil, nil, err
	}
	return m, s, nil
}

// persist writes rotated cookies back after a command. Failures are only logged.
func (r *Runner) persist(m *session.Manager, s *session.Session) {
	if !s.Authenticated() {
		return
	}
	if err := m.Save(s); err != nil {
		r.logger.Warn("failed to save session", "error", err)
	}
}

func (r *Runner) engineOptions() []tasks.Option {
	return []tasks.Option{
		tasks.WithLogger(r.logger),
		tasks.WithClock(r.clock),
		tasks.WithCooldown(r.config.UI.LikeCooldown.Duration),
	}
}

func (r *Runner) likeEngine(s *session.Session) (*tasks.LikeEngine, error) {
	cache, err := r.queryClient()
	if err != nil {
		return nil, err
	}
	return tasks.NewLikeEngine(s.Service(), cache, r.engineOptions()...), nil
}

func (r *Runner) contentEngine(s *session.Session) (*tasks.ContentEngine, error) {
	cache, err := r.queryClient()
	if err != nil {
		return nil, err
	}
	return tasks.NewContentEngine(s.Service(), cache, s, r.engineOptions()...), nil
}

func (r *Runner) pageSize(cmd *cli.Command) int {
	if n := cmd.Int("limit"); n > 0 {
		return n
	}
	if r.config.UI.PageSize > 0 {
		return r.config.UI.PageSize
	}
	return 20
}

// idArg parses a positional numeric id.
func idArg(cmd *cli.Command, name string) (int64, error) {
	raw := cmd.StringArg(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return id, nil
}

// report prints a notice and turns error notices into a failed command.
func (r *Runner) report(n tasks.Notice, err error) error {
	if n.Message != "" {
		switch n.Severity {
		case tasks.Error:
			r.writePlain("✗ %s\n", n.Message)
		case tasks.Success:
			r.writePlain("✓ %s\n", n.Message)
		default:
			r.writePlain("• %s\n", n.Message)
		}
	}
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// output mode shared by listing commands
func wantJSON(cmd *cli.Command) (bool, bool) {
	return cmd.Bool("json"), cmd.Bool("pretty")
}
