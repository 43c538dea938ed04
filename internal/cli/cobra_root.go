package cli

import (
	"context"
	"fmt"
	"io"
	"taskboard/internal/config"
	"taskboard/internal/models/task"
	"taskboard/internal/service"
	"time"

	"github.com/spf13/cobra"
)

type TaskService interface {
	Now() time.Time
	Board(context.Context, task.Filter, bool) (*service.Board, error)
	BeginEdit(context.Context, task.ID) (service.FormMode, service.Draft, error)
	Submit(context.Context, service.FormMode, service.Draft) (*task.Task, error)
	Delete(context.Context, task.ID) error
}

// Runtime собранное приложение: сервис для команд и сервер для serve
type Runtime struct {
	Service TaskService
	Serve   func(context.Context) error
	Close   func()
}

// Factory собирает Runtime по конфигу. logToFile освобождает stdout и stderr для терминала и MCP.
type Factory func(ctx context.Context, cfg *config.Config, logToFile bool) (*Runtime, error)

// RootCommand represents the base command when called without any subcommands
type RootCommand struct {
	cmd     *cobra.Command
	factory Factory
	version string

	configPath string
	storeURL   string
	cacheType  string
	cachePath  string
	dev        bool
}

// NewRootCommand creates the root cobra command with global flags
func NewRootCommand(factory Factory, version string) *RootCommand {
	root := &RootCommand{
		factory: factory,
		version: version,
	}

	root.cmd = &cobra.Command{
		Use:     "taskboard",
		Short:   "Task board client with due-date priorities",
		Version: version,
		Long: `taskboard shows tasks from a remote task store, classifies them by due date
and keeps a local cache for instant display.

PRIORITY:
  High    due within 14 days
  Medium  due within 30 days
  Low     later, or when the due date cannot be parsed

EXAMPLES:
  taskboard serve                                  # Web board on localhost:8080
  taskboard list --filter high                     # Tasks due within two weeks
  taskboard add --title "Plan tests" --due 2026-05-01
  taskboard edit 3 --status "Test Execution"
  taskboard tui                                    # Terminal board

CONFIGURATION:
  config.yml in the working directory or ~/.taskboard, then TASKBOARD_* environment
  variables, then the flags below.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.addGlobalFlags()
	root.addSubcommands()

	return root
}

// Execute runs the root command
func (r *RootCommand) Execute(ctx context.Context, args []string) error {
	r.cmd.SetArgs(args)
	return r.cmd.ExecuteContext(ctx)
}

// SetOutput перенаправляет вывод команд, по умолчанию stdout и stderr
func (r *RootCommand) SetOutput(w io.Writer) {
	r.cmd.SetOut(w)
	r.cmd.SetErr(w)
}

func (r *RootCommand) addGlobalFlags() {
	flags := r.cmd.PersistentFlags()

	flags.StringVar(&r.configPath, "config", "", "Config file (default ./config.yml or ~/.taskboard/config.yml)")
	flags.StringVar(&r.storeURL, "store-url", "", "Task store base URL (overrides TASKBOARD_STORE_URL)")
	flags.StringVar(&r.cacheType, "cache-type", "", "Cache backend: inmemory, sqlite or postgres (overrides TASKBOARD_CACHE_TYPE)")
	flags.StringVar(&r.cachePath, "cache-path", "", "SQLite cache file (overrides TASKBOARD_CACHE_PATH)")
	flags.BoolVar(&r.dev, "dev", false, "Development logging (overrides TASKBOARD_LOGGING_DEVELOPMENT)")
}

// loadConfig читает конфиг и применяет флаги поверх него
func (r *RootCommand) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Read(r.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("store-url") {
		cfg.Store.URL = r.storeURL
	}
	if flags.Changed("cache-type") {
		cfg.Cache.Type = r.cacheType
	}
	if flags.Changed("cache-path") {
		cfg.Cache.Path = r.cachePath
	}
	if flags.Changed("dev") {
		cfg.Logging.Development = r.dev
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runtime собирает приложение под команду; вызывающий обязан вызвать Close
func (r *RootCommand) runtime(cmd *cobra.Command, logToFile bool) (*Runtime, error) {
	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	rt, err := r.factory(cmd.Context(), cfg, logToFile)
	if err != nil {
		return nil, fmt.Errorf("инициализация: %w", err)
	}
	if rt.Close == nil {
		rt.Close = func() {}
	}
	return rt, nil
}

func (r *RootCommand) addSubcommands() {
	r.cmd.AddCommand(
		r.serveCommand(),
		r.listCommand(),
		r.addCommand(),
		r.editCommand(),
		r.deleteCommand(),
		stagesCommand(),
		classifyCommand(),
		r.tuiCommand(),
		r.mcpCommand(),
	)
}
