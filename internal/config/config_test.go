package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shellview/internal/shell"
)

func TestGetDefaultConfig(t *testing.T) {
	config := getDefaultConfig()

	if config.Window.Width != 900 || config.Window.Height != 600 {
		t.Errorf("Expected default window 900x600, got %dx%d", config.Window.Width, config.Window.Height)
	}
	if config.View.IconSize != 16 {
		t.Errorf("Expected default icon size 16, got %d", config.View.IconSize)
	}
	if config.View.ShowHidden {
		t.Error("Expected ShowHidden to be false by default")
	}
	if config.View.Sort.By != "Name" || config.View.Sort.Order != "asc" {
		t.Errorf("Expected default sort Name/asc, got %s/%s", config.View.Sort.By, config.View.Sort.Order)
	}
	if config.Queues.Icon != 3000 || config.Queues.Thumbnail != 5000 || config.Queues.Subitem != 5000 {
		t.Errorf("Unexpected queue defaults: %+v", config.Queues)
	}
	if config.Gate.ScrollResumeDelay != 200*time.Millisecond {
		t.Errorf("Expected 200ms scroll delay, got %v", config.Gate.ScrollResumeDelay)
	}
	if len(config.Filters.TempPatterns) != 3 {
		t.Errorf("Expected 3 temp patterns, got %v", config.Filters.TempPatterns)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestMergeConfigs(t *testing.T) {
	defaultConfig := getDefaultConfig()
	fileConfig := &Config{
		View: ViewConfig{
			IconSize:   48,
			ShowHidden: true,
			Sort:       SortConfig{Order: "desc"},
		},
		Queues: QueueConfig{Icon: 10},
		Thumbnails: ThumbnailConfig{
			Disabled: true,
		},
		Filters: FilterConfig{TempPatterns: []string{"*.swp"}},
	}

	mergeConfigs(defaultConfig, fileConfig)

	if defaultConfig.View.IconSize != 48 {
		t.Errorf("Expected icon size 48, got %d", defaultConfig.View.IconSize)
	}
	if !defaultConfig.View.ShowHidden {
		t.Error("Expected ShowHidden to be merged")
	}
	if defaultConfig.View.Sort.By != "Name" {
		t.Errorf("Unset sort column should keep default, got %q", defaultConfig.View.Sort.By)
	}
	if defaultConfig.View.Sort.Order != "desc" {
		t.Errorf("Expected desc order, got %q", defaultConfig.View.Sort.Order)
	}
	if defaultConfig.Queues.Icon != 10 || defaultConfig.Queues.Overlay != 3000 {
		t.Errorf("Unexpected queues after merge: %+v", defaultConfig.Queues)
	}
	if !defaultConfig.Thumbnails.Disabled {
		t.Error("Expected thumbnails disabled")
	}
	if len(defaultConfig.Filters.TempPatterns) != 1 || defaultConfig.Filters.TempPatterns[0] != "*.swp" {
		t.Errorf("Unexpected temp patterns %v", defaultConfig.Filters.TempPatterns)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown column", func(c *Config) { c.View.Columns = []string{"Name", "Bogus"} }, true},
		{"bad order", func(c *Config) { c.View.Sort.Order = "sideways" }, true},
		{"icon too large", func(c *Config) { c.View.IconSize = 1024 }, true},
		{"zero queue", func(c *Config) { c.Queues.Shield = 0 }, true},
		{"bad pattern", func(c *Config) { c.Filters.HiddenPatterns = []string{"[a-"} }, true},
		{"group by size", func(c *Config) { c.View.GroupBy = "Size" }, false},
		{"group by unknown", func(c *Config) { c.View.GroupBy = "Color" }, true},
		{"poll too fast", func(c *Config) { c.Watcher.PollInterval = time.Millisecond }, true},
		{"disabled thumbnails without dir", func(c *Config) {
			c.Thumbnails.Disabled = true
			c.Thumbnails.CacheDir = ""
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := getDefaultConfig()
			tt.modify(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestViewSettingsRoundTrip(t *testing.T) {
	var manager ManagerInterface = NewManagerWithPath(filepath.Join(t.TempDir(), "config.yaml"))
	cfg := Default()
	size := shell.ColumnFor(shell.KeySize)
	cfg.View.SetSort(size, true)
	cfg.View.SetGrouping(shell.ColumnFor(shell.KeyPerceivedType), true, true)
	if err := manager.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := manager.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	col, desc := loaded.View.SortColumn()
	if col.Key != shell.KeySize || !desc {
		t.Errorf("sort = %v desc=%v, want Size desc", col.Key, desc)
	}
	g, ok := loaded.View.GroupColumn()
	if !ok || g.Key != shell.KeyPerceivedType || !loaded.View.GroupReversed {
		t.Errorf("grouping = %v ok=%v reversed=%v", g.Key, ok, loaded.View.GroupReversed)
	}

	loaded.View.SetGrouping(shell.Column{}, false, false)
	if _, ok := loaded.View.GroupColumn(); ok {
		t.Error("grouping should be cleared")
	}
}

func TestGetConfigPath(t *testing.T) {
	path := getConfigPath()
	if !strings.HasSuffix(path, filepath.Join("shellview", "config.yaml")) {
		t.Errorf("Config path should end with shellview/config.yaml, got %s", path)
	}
}

func TestManagerLoadNonExistentFile(t *testing.T) {
	manager := NewManagerWithPath(filepath.Join(t.TempDir(), "missing.yaml"))

	config, err := manager.Load()
	if err != nil {
		t.Fatalf("Load should not fail for a missing file: %v", err)
	}
	if config.View.IconSize != getDefaultConfig().View.IconSize {
		t.Error("Missing file should yield defaults")
	}
}

func TestManagerSaveAndLoad(t *testing.T) {
	manager := NewManagerWithPath(filepath.Join(t.TempDir(), "sub", "config.yaml"))

	config := getDefaultConfig()
	config.View.ShowHidden = true
	config.View.GroupBy = "Type"
	config.Gate.ScrollResumeDelay = 350 * time.Millisecond
	config.Locations = []string{"/srv/media"}

	if err := manager.Save(config); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := manager.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded.View.ShowHidden || loaded.View.GroupBy != "Type" {
		t.Errorf("View settings not round-tripped: %+v", loaded.View)
	}
	if loaded.Gate.ScrollResumeDelay != 350*time.Millisecond {
		t.Errorf("Expected 350ms, got %v", loaded.Gate.ScrollResumeDelay)
	}
	if len(loaded.Locations) != 1 || loaded.Locations[0] != "/srv/media" {
		t.Errorf("Locations not round-tripped: %v", loaded.Locations)
	}
}

func TestManagerLoadExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SHELLVIEW_TEST_CACHE", filepath.Join(dir, "thumbs"))
	path := filepath.Join(dir, "config.yaml")
	data := "thumbnails:\n  cacheDir: ${SHELLVIEW_TEST_CACHE}\nwatcher:\n  pollInterval: 5s\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := NewManagerWithPath(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Thumbnails.CacheDir != filepath.Join(dir, "thumbs") {
		t.Errorf("Expected expanded cache dir, got %q", config.Thumbnails.CacheDir)
	}
	if config.Watcher.PollInterval != 5*time.Second {
		t.Errorf("Expected 5s poll interval, got %v", config.Watcher.PollInterval)
	}
}

func TestManagerLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("view:\n  sort:\n    order: random\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewManagerWithPath(path).Load(); err == nil {
		t.Error("Expected validation error")
	}
}

func TestViewConfigHelpers(t *testing.T) {
	v := getDefaultConfig().View
	v.Columns = []string{"Size", "Name", "Nope", "Type"}
	cols := v.ColumnSet()
	if len(cols) != 3 || cols[0].Title != "Name" || cols[1].Title != "Size" || cols[2].Title != "Type" {
		t.Errorf("Unexpected column set %+v", cols)
	}

	v.Sort = SortConfig{By: "Size", Order: "desc"}
	col, desc := v.SortColumn()
	if col.Title != "Size" || !desc {
		t.Errorf("SortColumn = %v,%v", col.Title, desc)
	}

	if _, ok := v.GroupColumn(); ok {
		t.Error("No grouping expected")
	}
	v.GroupBy = "Date modified"
	if col, ok := v.GroupColumn(); !ok || col.Title != "Date modified" {
		t.Errorf("GroupColumn = %v,%v", col.Title, ok)
	}
}
