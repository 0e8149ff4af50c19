package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2/app"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"shellview/internal/config"
	"shellview/internal/debugserver"
	"shellview/internal/fileinfo"
	"shellview/internal/jobs"
	"shellview/internal/logging"
	"shellview/internal/secret"
	"shellview/internal/shell"
	"shellview/internal/thumbcache"
	"shellview/internal/ui"
	"shellview/internal/view"
	"shellview/internal/watcher"
)

// env holds what both commands share once configuration is loaded.
type env struct {
	cfg      *config.Config
	manager  config.ManagerInterface
	log      *logging.Logger
	debug    logging.DebugFunc
	thumbs   *thumbcache.Cache
	provider *fileinfo.Provider
	watchers *watcher.Factory
}

func setup(cmd *cli.Command, prompt fileinfo.CredentialsProvider) (*env, error) {
	log := logging.New(os.Stderr, cmd.Bool("debug"))
	debug := log.DebugFunc()

	var manager config.ManagerInterface = config.NewManager()
	if path := cmd.String("config"); path != "" {
		manager = config.NewManagerWithPath(path)
	}
	cfg, err := manager.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	debug("config: loaded %s", manager.Path())

	store, err := secret.Open()
	if err != nil {
		log.Warn().Err(err).Msg("system keyring unavailable, credentials kept in memory")
		store = secret.NewMemoryStore()
	}
	chain := fileinfo.ChainCredentials{fileinfo.EnvCredentials{Prefix: "SHELLVIEW_SMB"}}
	if prompt != nil {
		chain = append(chain, prompt)
	}
	fileinfo.ConfigureCredentials(store, chain)

	e := &env{cfg: cfg, manager: manager, log: log, debug: debug}
	if !cfg.Thumbnails.Disabled {
		e.thumbs, err = thumbcache.Open(cfg.Thumbnails.CacheDir, cfg.Thumbnails.MaxBytes, cfg.Thumbnails.MaxFiles)
		if err != nil {
			log.Warn().Err(err).Str("dir", cfg.Thumbnails.CacheDir).Msg("thumbnail cache disabled")
		} else {
			e.thumbs.SetDebug(debug)
		}
	}
	e.provider = fileinfo.NewProvider(fileinfo.Options{
		Thumbnails:     e.thumbs,
		HiddenPatterns: cfg.Filters.HiddenPatterns,
		Locations:      cfg.Locations,
	})
	e.provider.SetDebug(debug)
	e.watchers = watcher.NewFactory(cfg.Watcher.PollInterval, cfg.Watcher.RenameWindow)
	e.watchers.SetDebug(debug)
	jobs.SetDebug(debug)
	return e, nil
}

func (e *env) close() {
	if e.thumbs != nil {
		if err := e.thumbs.Close(); err != nil {
			e.log.Warn().Err(err).Msg("closing thumbnail cache")
		}
	}
}

func (e *env) newSession(host shell.Host) (*view.Session, error) {
	return view.NewSession(view.Options{
		Provider: e.provider,
		Host:     host,
		Watcher:  e.watchers,
		Settings: view.SettingsFromConfig(e.cfg),
		Logger:   e.log,
		Debug:    e.debug,
	})
}

// serveDebug starts the metrics endpoint when an address is configured.
func (e *env) serveDebug(ctx context.Context, cmd *cli.Command, session *view.Session) {
	addr := cmd.String("metrics-addr")
	if addr == "" {
		addr = e.cfg.Debug.MetricsAddr
	}
	if addr == "" {
		return
	}
	go func() {
		if err := debugserver.Run(ctx, addr, func() any { return session.Stats() }, e.log); err != nil {
			e.log.Error().Err(err).Msg("debug server stopped")
		}
	}()
}

// startPath resolves the optional path argument. "~" expands to the home
// directory; no argument means the working directory.
func startPath(arg string) (string, error) {
	switch {
	case arg == "":
		return os.Getwd()
	case arg == "~" || strings.HasPrefix(arg, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, arg[1:]), nil
	case fileinfo.IsSMBDisplay(arg) || fileinfo.IsComputer(arg),
		strings.HasPrefix(arg, "//"), strings.HasPrefix(arg, `\\`):
		return arg, nil
	}
	return filepath.Abs(arg)
}

func browse(ctx context.Context, cmd *cli.Command) error {
	path, err := startPath(cmd.Args().First())
	if err != nil {
		return err
	}
	prompt := ui.NewSMBCredentialsProvider(nil)
	e, err := setup(cmd, prompt)
	if err != nil {
		return err
	}
	defer e.close()

	a := app.NewWithID("io.github.shellview")
	host := ui.NewListHost(e.cfg.View.IconSize, e.debug)
	session, err := e.newSession(host)
	if err != nil {
		return err
	}
	defer session.Close()
	host.Attach(session)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.serveDebug(ctx, cmd, session)

	browser := ui.NewBrowser(a, session, host, ui.BrowserOptions{
		Title:      "shellview",
		Width:      e.cfg.Window.Width,
		Height:     e.cfg.Window.Height,
		DebugPrint: e.debug,
		Config:     e.cfg,
		Saver:      e.manager,
	})
	prompt.SetParent(browser.Window())
	browser.NavigateTo(path)
	browser.Window().ShowAndRun()
	browser.Close()
	return nil
}

// listQuiet is how long the list command waits without redraws before it
// prints.
const listQuiet = 300 * time.Millisecond

func list(ctx context.Context, cmd *cli.Command) error {
	path, err := startPath(cmd.Args().First())
	if err != nil {
		return err
	}
	e, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer e.close()

	host := ui.NewHeadlessHost()
	session, err := e.newSession(host)
	if err != nil {
		return err
	}
	defer session.Close()
	if err := session.Navigate(ctx, path); err != nil {
		return err
	}
	if cmd.Bool("hidden") {
		if err := session.SetShowHidden(ctx, true); err != nil {
			return err
		}
	}

	// Touch every row so the workers resolve the columns, then wait for
	// the redraws to settle.
	for row := range session.Len() {
		session.Render(row)
		for col := range session.Columns() {
			session.CellText(row, col)
		}
	}
	deadline := time.After(cmd.Duration("wait"))
	quiet := time.NewTimer(listQuiet)
	defer quiet.Stop()
wait:
	for {
		select {
		case <-host.Changed():
			quiet.Reset(listQuiet)
		case <-quiet.C:
			break wait
		case <-deadline:
			break wait
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	cols := session.Columns()
	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.Title
	}
	fmt.Println(strings.Join(titles, "\t"))
	for row := range session.Len() {
		cells := make([]string, len(cols))
		for col := range cols {
			cells[col] = session.CellText(row, col)
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
	e.debug("list: %d items, %d redraws", session.Len(), host.Redraws())
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "shellview",
		Usage: "Browse folders, archives and SMB shares with lazily resolved icons and columns",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Sources: cli.EnvVars("SHELLVIEW_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug mode",
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "Serve /metrics and /debug/queues on this address",
				Sources: cli.EnvVars("SHELLVIEW_METRICS_ADDR"),
			},
		},
		ArgsUsage: "[path]",
		Action:    browse,
		Commands: []*cli.Command{
			{
				Name:      "browse",
				Usage:     "Open a browser window",
				ArgsUsage: "[path]",
				Action:    browse,
			},
			{
				Name:      "list",
				Usage:     "Print a folder with its columns",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "hidden",
						Usage: "Include hidden items",
					},
					&cli.DurationFlag{
						Name:  "wait",
						Usage: "Upper bound on waiting for columns to resolve",
						Value: 5 * time.Second,
					},
				},
				Action: list,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "shellview: %v\n", err)
		os.Exit(1)
	}
}
