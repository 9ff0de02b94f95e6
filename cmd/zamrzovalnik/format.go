package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/erazemk/zamrzovalnik/internal/model"
)

var (
	styleExpired  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleExpiring = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	styleUseSoon  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleGood     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleFresh    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	styleMuted    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleHeading  = lipgloss.NewStyle().Bold(true)
)

func statusStyle(s model.ExpirationStatus) lipgloss.Style {
	switch s {
	case model.StatusExpired:
		return styleExpired
	case model.StatusExpiring:
		return styleExpiring
	case model.StatusUseSoon:
		return styleUseSoon
	case model.StatusGood:
		return styleGood
	case model.StatusFresh:
		return styleFresh
	default:
		return styleMuted
	}
}

// renderExpiry returns the coloured status label and the relative text.
func renderExpiry(date *time.Time, now time.Time) (string, string) {
	status := model.ExpirationStatusAt(date, now)
	style := statusStyle(status)
	return style.Render(status.Label()), style.Render(model.ExpirationText(date, now))
}

var dateParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// parseExpiry reads an expiration date. It accepts YYYY-MM-DD, a number of
// days, or English phrases such as "in 3 months" or "next friday". The result
// is midnight of that day in the local zone.
func parseExpiry(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return t, nil
	}
	if days, err := strconv.Atoi(s); err == nil {
		return midnight(now.AddDate(0, 0, days)), nil
	}

	r, err := dateParser.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing expiry %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("cannot understand expiry %q", s)
	}
	return midnight(r.Time), nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func formatQuantity(q float64, unit string) string {
	s := strconv.FormatFloat(q, 'f', -1, 64)
	if unit != "" {
		s += " " + unit
	}
	return s
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}
