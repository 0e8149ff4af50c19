package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"shellview/internal/constants"
	"shellview/internal/shell"
)

func formatValue(col shell.Column, item *shell.ItemRef, v any, layout string) string {
	if v == nil {
		return ""
	}
	switch col.Type {
	case shell.ColumnDateTime:
		t, ok := v.(time.Time)
		if !ok || t.IsZero() {
			return ""
		}
		return t.Local().Format(layout)
	case shell.ColumnSize:
		if item.IsFolder() {
			return ""
		}
		switch n := v.(type) {
		case int64:
			return FormatKB(n)
		case uint64:
			return FormatKB(int64(n))
		case int:
			return FormatKB(int64(n))
		}
	case shell.ColumnEnum:
		if st, ok := v.(fmt.Stringer); ok {
			return st.String()
		}
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// FormatKB renders a byte count the way the details view shows sizes:
// kilobytes rounded up, digits grouped by spaces.
//
//	FormatKB(0)       == "0 KB"
//	FormatKB(1)       == "1 KB"
//	FormatKB(1234567) == "1 206 KB"
func FormatKB(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	kb := (bytes + constants.FileSizeUnit - 1) / constants.FileSizeUnit
	return groupDigits(kb) + " KB"
}

func groupDigits(n int64) string {
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
