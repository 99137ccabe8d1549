package seclog

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/dd0wney/cluso-shop/pkg/logging"
)

// DefaultRetentionDays is used by CleanupOldLogs when daysToKeep is not positive.
const DefaultRetentionDays = 30

// CleanupOldLogs deletes files in the log directory whose modification time is
// older than daysToKeep days. Operator-invoked; failures are logged, not returned.
// Returns the names of removed files.
func (l *Logger) CleanupOldLogs(daysToKeep int) []string {
	if daysToKeep <= 0 {
		daysToKeep = DefaultRetentionDays
	}
	maxAge := time.Duration(daysToKeep) * 24 * time.Hour
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.console.Error("failed to list security log directory", logging.Error(err))
		}
		return nil
	}

	var removed []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			l.console.Error("failed to remove old security log", logging.String("file", entry.Name()), logging.Error(err))
			continue
		}
		l.console.Info("removed old security log", logging.String("file", entry.Name()))
		removed = append(removed, entry.Name())
	}
	return removed
}
