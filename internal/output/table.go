// Package output renders dumbinstall's terminal output: the install listing,
// per-package update results, and progress indicators for long operations.
//
// Tables are plain text with optional ANSI colour. Colour is only emitted
// when stdout is a terminal and NO_COLOR is unset.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// InstallRow is one line of the install listing.
type InstallRow struct {
	Name      string
	Channel   string // "git", "local" or "" when provenance is unreadable
	Source    string
	Revision  string
	SizeBytes int64
	UpdatedAt time.Time
	Problem   string
}

// RenderInstallTable renders the installed packages in the given order.
func RenderInstallTable(rows []InstallRow) string {
	if len(rows) == 0 {
		return "No programs installed.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-20s %-7s %-10s %-15s %s\n",
		"Program", "Channel", "Size", "Updated", "Source"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, r := range rows {
		channel := r.Channel
		if channel == "" {
			channel = "?"
		}
		source := r.Source
		if r.Revision != "" {
			source = fmt.Sprintf("%s (%s)", source, r.Revision)
		}
		if r.Problem != "" {
			source = colorize(colorRed, r.Problem)
		}

		sb.WriteString(fmt.Sprintf("%-20s %-7s %-10s %-15s %s\n",
			truncate(r.Name, 20),
			channel,
			formatSize(r.SizeBytes),
			formatRelativeTime(r.UpdatedAt),
			source))
	}
	return sb.String()
}

// UpdateRow is one package's update outcome.
type UpdateRow struct {
	Name   string
	Status string
	Err    error
}

// RenderUpdateResults renders one line per package followed by a summary.
func RenderUpdateResults(rows []UpdateRow) string {
	if len(rows) == 0 {
		return "No programs installed.\n"
	}

	var sb strings.Builder
	var updated, current, failed int
	for _, r := range rows {
		var label string
		switch {
		case r.Err != nil:
			failed++
			label = colorize(colorRed, "✗ "+r.Err.Error())
		case r.Status == "updated":
			updated++
			label = colorize(colorGreen, "✓ "+r.Status)
		default:
			current++
			label = colorize(colorGray, "· "+r.Status)
		}
		sb.WriteString(fmt.Sprintf("%-20s %s\n", truncate(r.Name, 20), label))
	}

	sb.WriteString("\n")
	sb.WriteString(RenderUpdateSummary(updated, current, failed))
	sb.WriteString("\n")
	return sb.String()
}

// RenderUpdateSummary renders "N updated · N up to date · N failed".
func RenderUpdateSummary(updated, current, failed int) string {
	failedText := fmt.Sprintf("%d failed", failed)
	if failed > 0 {
		failedText = colorize(colorYellow, failedText)
	}
	return fmt.Sprintf("%d updated · %d up to date · %s", updated, current, failedText)
}

// formatSize converts bytes to a human-readable size such as "4.2 MB".
func formatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.Bytes(uint64(bytes))
}

// formatRelativeTime renders "3 days ago", or "unknown" for the zero time.
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	if time.Since(t) < time.Minute {
		return "just now"
	}
	return humanize.Time(t)
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
