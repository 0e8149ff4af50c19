package view

import (
	"testing"
	"time"

	"shellview/internal/shell"
)

func TestFormatKB(t *testing.T) {
	testCases := []struct {
		bytes int64
		want  string
	}{
		{0, "0 KB"},
		{1, "1 KB"},
		{1024, "1 KB"},
		{1025, "2 KB"},
		{1500, "2 KB"},
		{999 * 1024, "999 KB"},
		{1000 * 1024, "1 000 KB"},
		{1234567, "1 206 KB"},
		{1 << 30, "1 048 576 KB"},
		{-5, "0 KB"},
	}
	for _, tc := range testCases {
		if got := FormatKB(tc.bytes); got != tc.want {
			t.Errorf("FormatKB(%d) = %q, want %q", tc.bytes, got, tc.want)
		}
	}
}

func TestFormatValue(t *testing.T) {
	file := shell.NewItem("/f/a.txt", "a.txt", shell.KindFileSystem, 0)
	folder := shell.NewItem("/f/C", "C", shell.KindFileSystem, shell.FlagFolder)
	when := time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local)

	testCases := []struct {
		name string
		col  shell.Column
		item *shell.ItemRef
		v    any
		want string
	}{
		{"size", shell.ColumnFor(shell.KeySize), file, int64(2048), "2 KB"},
		{"folder size", shell.ColumnFor(shell.KeySize), folder, int64(4096), ""},
		{"date", shell.ColumnFor(shell.KeyDateModified), file, when, "2024-03-01 09:30"},
		{"zero date", shell.ColumnFor(shell.KeyDateModified), file, time.Time{}, ""},
		{"enum", shell.ColumnFor(shell.KeyPerceivedType), file, shell.PerceivedImage, "Image"},
		{"string", shell.ColumnFor(shell.KeyItemType), file, "PDF Document", "PDF Document"},
		{"attributes", shell.ColumnFor(shell.KeyAttributes), file, "-rw-r--r--", "-rw-r--r--"},
		{"nil", shell.ColumnFor(shell.KeyItemType), file, nil, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatValue(tc.col, tc.item, tc.v, "2006-01-02 15:04"); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSettingsFromConfigDefaults(t *testing.T) {
	s := DefaultSettings()
	if len(s.Columns) != 4 || s.Columns[0].Key != shell.KeyName {
		t.Errorf("columns = %+v", s.Columns)
	}
	if s.Queues.Subitem != 5000 || s.Queues.Icon != 3000 {
		t.Errorf("queues = %+v", s.Queues)
	}
	if s.Sort.Column.Key != shell.KeyName || s.Sort.Descending {
		t.Errorf("sort = %+v", s.Sort)
	}
	if s.Grouping != nil {
		t.Error("grouping should be off by default")
	}
}
