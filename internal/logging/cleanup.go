package logging

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"gorm.io/gorm"
)

// Purge deletes system logs older than retentionDays.
func Purge(db *gorm.DB, retentionDays int, now time.Time) (int64, error) {
	cutoff := now.AddDate(0, 0, -retentionDays)
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}

// StartCleanup purges old system logs at startup and then daily until done is closed.
// A non-positive retention keeps logs forever.
func StartCleanup(db *gorm.DB, retentionDays int, done chan struct{}) {
	if retentionDays <= 0 {
		return
	}
	run := func() {
		deleted, err := Purge(db, retentionDays, time.Now())
		if err != nil {
			slog.Error("log cleanup failed", "error", err)
		} else if deleted > 0 {
			slog.Info("log cleanup completed", "deleted", deleted, "retention_days", retentionDays)
		}
	}

	go func() {
		run()
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				run()
			case <-done:
				return
			}
		}
	}()
}
