package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/albeorla/task-pri-lite-sub001/internal/tasks"
)

// ErrInvalidExport is returned when an export fails schema validation.
var ErrInvalidExport = errors.New("invalid export")

// Result is the output of an importer.
type Result struct {
	Tasks    []*tasks.Task
	Projects []*tasks.Project
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidExport, fmt.Sprintf(format, args...))
}

// dateLayouts are tried in order for due and start values.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDate parses an RFC3339 timestamp, a floating local datetime, or an
// all-day date. Values without a zone are read in loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
