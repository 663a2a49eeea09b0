package cmd

import (
	"fmt"
	"time"

	"github.com/naka-gawa/github-issue-stats/internal/config"
	"github.com/naka-gawa/github-issue-stats/internal/domain"
)

// resolveWindow builds the report window. Without explicit bounds it ends at
// the reference hour of today (UTC); an explicit --until moves the end and an
// explicit --since replaces the lookback.
func resolveWindow(now time.Time, sinceStr, untilStr string, cfg config.WindowConfig) (domain.Window, error) {
	w, err := domain.ReportWindow(now, cfg.LookbackDays, cfg.ReferenceHour)
	if err != nil {
		return domain.Window{}, err
	}
	if untilStr != "" {
		until, err := domain.ParseInstant(untilStr)
		if err != nil {
			return domain.Window{}, fmt.Errorf("invalid --until: %w", err)
		}
		w.Until = until
		w.Since = domain.InstantOf(until.Time().AddDate(0, 0, -cfg.LookbackDays))
	}
	if sinceStr != "" {
		since, err := domain.ParseInstant(sinceStr)
		if err != nil {
			return domain.Window{}, fmt.Errorf("invalid --since: %w", err)
		}
		w.Since = since
	}
	return domain.NewWindow(w.Since, w.Until)
}
