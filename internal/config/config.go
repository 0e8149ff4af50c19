package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"shellview/internal/constants"
	"shellview/internal/shell"
)

// Config represents the application configuration
type Config struct {
	Window     WindowConfig    `yaml:"window"`
	View       ViewConfig      `yaml:"view"`
	Queues     QueueConfig     `yaml:"queues"`
	Gate       GateConfig      `yaml:"gate"`
	Watcher    WatcherConfig   `yaml:"watcher"`
	Thumbnails ThumbnailConfig `yaml:"thumbnails"`
	Filters    FilterConfig    `yaml:"filters"`
	Debug      DebugConfig     `yaml:"debug"`
	Locations  []string        `yaml:"locations"` // extra entries shown under Computer
}

// WindowConfig represents window-related settings
type WindowConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ViewConfig represents the list view settings
type ViewConfig struct {
	IconSize      int        `yaml:"iconSize"`
	ShowHidden    bool       `yaml:"showHidden"`
	DateLayout    string     `yaml:"dateLayout"`
	Columns       []string   `yaml:"columns"` // column titles, e.g. "Size"
	Sort          SortConfig `yaml:"sort"`
	GroupBy       string     `yaml:"groupBy"` // column title, empty for no grouping
	GroupReversed bool       `yaml:"groupReversed"`
}

// SortConfig represents item sorting settings
type SortConfig struct {
	By    string `yaml:"by"`    // column title
	Order string `yaml:"order"` // "asc", "desc"
}

// QueueConfig holds the capacity of each worker queue
type QueueConfig struct {
	Icon      int `yaml:"icon"`
	Thumbnail int `yaml:"thumbnail"`
	Overlay   int `yaml:"overlay"`
	Shield    int `yaml:"shield"`
	Subitem   int `yaml:"subitem"`
}

// GateConfig controls the scroll throttle
type GateConfig struct {
	ScrollResumeDelay time.Duration `yaml:"scrollResumeDelay"`
}

// WatcherConfig controls change notification sources
type WatcherConfig struct {
	PollInterval time.Duration `yaml:"pollInterval"`
	RenameWindow time.Duration `yaml:"renameWindow"`
}

// ThumbnailConfig controls the persistent thumbnail cache
type ThumbnailConfig struct {
	Disabled bool   `yaml:"disabled"`
	CacheDir string `yaml:"cacheDir"`
	MaxBytes int64  `yaml:"maxBytes"`
	MaxFiles int    `yaml:"maxFiles"`
}

// FilterConfig holds doublestar patterns matched against item names
type FilterConfig struct {
	TempPatterns   []string `yaml:"tempPatterns"`
	HiddenPatterns []string `yaml:"hiddenPatterns"`
}

// DebugConfig holds diagnostics settings
type DebugConfig struct {
	MetricsAddr string `yaml:"metricsAddr"` // e.g. "127.0.0.1:9095"; empty disables
}

// Manager provides configuration management functionality
type Manager struct {
	configPath string
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		configPath: getConfigPath(),
	}
}

// NewManagerWithPath creates a manager for an explicit file
func NewManagerWithPath(path string) *Manager {
	if path == "" {
		return NewManager()
	}
	return &Manager{configPath: path}
}

// Path returns the configuration file location
func (m *Manager) Path() string {
	return m.configPath
}

// Load loads configuration from file and merges with defaults.
// A missing file yields the defaults.
func (m *Manager) Load() (*Config, error) {
	config := getDefaultConfig()

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var fileConfig Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &fileConfig); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	mergeConfigs(config, &fileConfig)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// Save saves configuration to file
func (m *Manager) Save(config *Config) error {
	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// Default returns the built-in configuration
func Default() *Config {
	return getDefaultConfig()
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  constants.DefaultWindowWidth,
			Height: constants.DefaultWindowHeight,
		},
		View: ViewConfig{
			IconSize:   constants.DefaultIconSize,
			ShowHidden: false,
			DateLayout: constants.DefaultDateLayout,
			Columns:    []string{"Name", "Date modified", "Type", "Size"},
			Sort: SortConfig{
				By:    "Name",
				Order: constants.DefaultSortOrder,
			},
		},
		Queues: QueueConfig{
			Icon:      constants.IconQueueCapacity,
			Thumbnail: constants.ThumbnailQueueCapacity,
			Overlay:   constants.OverlayQueueCapacity,
			Shield:    constants.ShieldQueueCapacity,
			Subitem:   constants.SubitemQueueCapacity,
		},
		Gate: GateConfig{
			ScrollResumeDelay: constants.ScrollResumeDelay,
		},
		Watcher: WatcherConfig{
			PollInterval: constants.WatcherInterval,
			RenameWindow: constants.WatcherRenameWindow,
		},
		Thumbnails: ThumbnailConfig{
			CacheDir: defaultCacheDir(),
			MaxBytes: constants.ThumbnailDiskMaxBytes,
			MaxFiles: constants.ThumbnailDiskMaxFiles,
		},
		Filters: FilterConfig{
			TempPatterns:   append([]string(nil), constants.DefaultTempPatterns...),
			HiddenPatterns: []string{},
		},
	}
}

// getConfigPath returns the path to the configuration file following OS conventions
func getConfigPath() string {
	dir, err := configDir()
	if err != nil {
		return constants.ConfigFileName
	}
	return filepath.Join(dir, constants.ConfigFileName)
}

func configDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		// Windows: %APPDATA%\shellview
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, constants.ApplicationName), nil

	case "darwin":
		// macOS: ~/Library/Application Support/shellview
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", constants.ApplicationName), nil

	default:
		// Linux/Unix: $XDG_CONFIG_HOME/shellview or ~/.config/shellview
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			xdgConfigHome = filepath.Join(home, ".config")
		}
		return filepath.Join(xdgConfigHome, constants.ApplicationName), nil
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), constants.ApplicationName, "thumbnails")
	}
	return filepath.Join(dir, constants.ApplicationName, "thumbnails")
}

// mergeConfigs merges file config values into default config
func mergeConfigs(defaultConfig *Config, fileConfig *Config) {
	// Merge Window config
	if fileConfig.Window.Width != 0 {
		defaultConfig.Window.Width = fileConfig.Window.Width
	}
	if fileConfig.Window.Height != 0 {
		defaultConfig.Window.Height = fileConfig.Window.Height
	}

	// Merge View config
	// Note: for bool values, we can't distinguish between false and unset, so we always use file value
	defaultConfig.View.ShowHidden = fileConfig.View.ShowHidden
	defaultConfig.View.GroupReversed = fileConfig.View.GroupReversed
	if fileConfig.View.IconSize != 0 {
		defaultConfig.View.IconSize = fileConfig.View.IconSize
	}
	if fileConfig.View.DateLayout != "" {
		defaultConfig.View.DateLayout = fileConfig.View.DateLayout
	}
	if len(fileConfig.View.Columns) > 0 {
		defaultConfig.View.Columns = fileConfig.View.Columns
	}
	if fileConfig.View.Sort.By != "" {
		defaultConfig.View.Sort.By = fileConfig.View.Sort.By
	}
	if fileConfig.View.Sort.Order != "" {
		defaultConfig.View.Sort.Order = fileConfig.View.Sort.Order
	}
	if fileConfig.View.GroupBy != "" {
		defaultConfig.View.GroupBy = fileConfig.View.GroupBy
	}

	// Merge Queue capacities
	mergeInt(&defaultConfig.Queues.Icon, fileConfig.Queues.Icon)
	mergeInt(&defaultConfig.Queues.Thumbnail, fileConfig.Queues.Thumbnail)
	mergeInt(&defaultConfig.Queues.Overlay, fileConfig.Queues.Overlay)
	mergeInt(&defaultConfig.Queues.Shield, fileConfig.Queues.Shield)
	mergeInt(&defaultConfig.Queues.Subitem, fileConfig.Queues.Subitem)

	// Merge timing config
	if fileConfig.Gate.ScrollResumeDelay != 0 {
		defaultConfig.Gate.ScrollResumeDelay = fileConfig.Gate.ScrollResumeDelay
	}
	if fileConfig.Watcher.PollInterval != 0 {
		defaultConfig.Watcher.PollInterval = fileConfig.Watcher.PollInterval
	}
	if fileConfig.Watcher.RenameWindow != 0 {
		defaultConfig.Watcher.RenameWindow = fileConfig.Watcher.RenameWindow
	}

	// Merge Thumbnail config
	defaultConfig.Thumbnails.Disabled = fileConfig.Thumbnails.Disabled
	if fileConfig.Thumbnails.CacheDir != "" {
		defaultConfig.Thumbnails.CacheDir = fileConfig.Thumbnails.CacheDir
	}
	if fileConfig.Thumbnails.MaxBytes != 0 {
		defaultConfig.Thumbnails.MaxBytes = fileConfig.Thumbnails.MaxBytes
	}
	mergeInt(&defaultConfig.Thumbnails.MaxFiles, fileConfig.Thumbnails.MaxFiles)

	// Merge Filter config
	if fileConfig.Filters.TempPatterns != nil {
		defaultConfig.Filters.TempPatterns = fileConfig.Filters.TempPatterns
	}
	if fileConfig.Filters.HiddenPatterns != nil {
		defaultConfig.Filters.HiddenPatterns = fileConfig.Filters.HiddenPatterns
	}

	if fileConfig.Debug.MetricsAddr != "" {
		defaultConfig.Debug.MetricsAddr = fileConfig.Debug.MetricsAddr
	}
	if fileConfig.Locations != nil {
		defaultConfig.Locations = fileConfig.Locations
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.View),
		validation.Field(&c.Queues),
		validation.Field(&c.Gate),
		validation.Field(&c.Watcher),
		validation.Field(&c.Thumbnails),
		validation.Field(&c.Filters),
	)
}

// Validate checks view settings.
func (v ViewConfig) Validate() error {
	return validation.ValidateStruct(&v,
		validation.Field(&v.IconSize, validation.Required, validation.Min(constants.SmallIconSize), validation.Max(constants.LargeIconSize)),
		validation.Field(&v.DateLayout, validation.Required),
		validation.Field(&v.Columns, validation.Required, validation.Each(validation.By(knownColumn))),
		validation.Field(&v.Sort),
		validation.Field(&v.GroupBy, validation.When(v.GroupBy != "", validation.By(knownColumn))),
	)
}

// Validate checks sort settings.
func (s SortConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.By, validation.Required, validation.By(knownColumn)),
		validation.Field(&s.Order, validation.Required, validation.In("asc", "desc")),
	)
}

// Validate checks queue capacities.
func (q QueueConfig) Validate() error {
	capacity := []validation.Rule{validation.Required, validation.Min(1), validation.Max(100000)}
	return validation.ValidateStruct(&q,
		validation.Field(&q.Icon, capacity...),
		validation.Field(&q.Thumbnail, capacity...),
		validation.Field(&q.Overlay, capacity...),
		validation.Field(&q.Shield, capacity...),
		validation.Field(&q.Subitem, capacity...),
	)
}

// Validate checks gate timing.
func (g GateConfig) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.ScrollResumeDelay, validation.Min(time.Duration(0)), validation.Max(5*time.Second)),
	)
}

// Validate checks watcher timing.
func (w WatcherConfig) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.PollInterval, validation.Required, validation.Min(100*time.Millisecond)),
		validation.Field(&w.RenameWindow, validation.Required),
	)
}

// Validate checks thumbnail cache limits.
func (t ThumbnailConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.CacheDir, validation.When(!t.Disabled, validation.Required)),
		validation.Field(&t.MaxBytes, validation.Min(int64(0))),
		validation.Field(&t.MaxFiles, validation.Min(0)),
	)
}

// Validate checks every pattern compiles.
func (f FilterConfig) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.TempPatterns, validation.Each(validation.By(validPattern))),
		validation.Field(&f.HiddenPatterns, validation.Each(validation.By(validPattern))),
	)
}

func knownColumn(value interface{}) error {
	name, _ := value.(string)
	if _, ok := shell.KeyByName(name); !ok {
		return fmt.Errorf("unknown column %q", name)
	}
	return nil
}

func validPattern(value interface{}) error {
	p, _ := value.(string)
	if !doublestar.ValidatePattern(p) {
		return fmt.Errorf("invalid pattern %q", p)
	}
	return nil
}

// SortColumn returns the sort column and whether it is descending.
func (v ViewConfig) SortColumn() (shell.Column, bool) {
	key, ok := shell.KeyByName(v.Sort.By)
	if !ok {
		return shell.ColumnFor(shell.KeyName), false
	}
	return shell.ColumnFor(key), v.Sort.Order == "desc"
}

// ColumnSet returns the configured column descriptors; unknown names
// are skipped and the Name column is always first.
func (v ViewConfig) ColumnSet() []shell.Column {
	cols := []shell.Column{shell.ColumnFor(shell.KeyName)}
	for _, title := range v.Columns {
		key, ok := shell.KeyByName(title)
		if !ok || key == shell.KeyName {
			continue
		}
		cols = append(cols, shell.ColumnFor(key))
	}
	return cols
}

// GroupColumn returns the grouping column, if any.
func (v ViewConfig) GroupColumn() (shell.Column, bool) {
	if v.GroupBy == "" {
		return shell.Column{}, false
	}
	key, ok := shell.KeyByName(v.GroupBy)
	if !ok {
		return shell.Column{}, false
	}
	return shell.ColumnFor(key), true
}

// SetSort records the sort column and direction.
func (v *ViewConfig) SetSort(col shell.Column, descending bool) {
	v.Sort.By = col.Key.String()
	v.Sort.Order = "asc"
	if descending {
		v.Sort.Order = "desc"
	}
}

// SetGrouping records the grouping column; ok false clears it.
func (v *ViewConfig) SetGrouping(col shell.Column, reversed, ok bool) {
	if !ok {
		v.GroupBy, v.GroupReversed = "", false
		return
	}
	v.GroupBy, v.GroupReversed = col.Key.String(), reversed
}
