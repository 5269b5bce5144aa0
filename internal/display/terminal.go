// Package display provides terminal output formatting for rivalscope.
package display

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/gauthierbraillon/rivalscope/internal/aggregator"
	"github.com/gauthierbraillon/rivalscope/internal/content"
)

const (
	separator = " • "
	rule      = "================================================================================"
)

// TerminalFormatter formats ranked posts and podcasts for terminal display.
type TerminalFormatter struct {
	colors bool
	now    func() time.Time
}

// FormatterOption configures a TerminalFormatter.
type FormatterOption func(*TerminalFormatter)

// WithColors turns ANSI colors on or off.
func WithColors(on bool) FormatterOption {
	return func(f *TerminalFormatter) { f.colors = on }
}

// WithClock fixes the reference time of relative timestamps.
func WithClock(now func() time.Time) FormatterOption {
	return func(f *TerminalFormatter) { f.now = now }
}

// NewTerminalFormatter creates a new terminal formatter. Colors default to
// whatever fatih/color detected for stdout.
func NewTerminalFormatter(opts ...FormatterOption) *TerminalFormatter {
	f := &TerminalFormatter{colors: !color.NoColor, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *TerminalFormatter) paint(text string, attrs ...color.Attribute) string {
	if !f.colors {
		return text
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}

// FormatItem formats one ranked post.
func (f *TerminalFormatter) FormatItem(rank int, item content.Item) string {
	var lines []string

	// Header: N. @owner [TYPE]
	header := fmt.Sprintf("%d. @%s [%s]", rank, item.Owner, strings.ToUpper(item.Kind()))
	lines = append(lines, f.paint(header, color.Bold))

	lines = append(lines, "   Date: "+item.PublishedAt.Format("2006-01-02 15:04")+separator+f.FormatTimestamp(item.PublishedAt))
	lines = append(lines, fmt.Sprintf("   Engagement: %s (%s likes, %s comments)",
		FormatCount(item.Engagement), FormatCount(item.Likes), FormatCount(item.Comments)))

	lines = append(lines, "   Type: "+f.formatType(item))

	if item.URL != "" {
		lines = append(lines, "   URL: "+f.paint(item.URL, color.FgCyan))
	}
	lines = append(lines, "   Caption: "+item.Caption)

	return strings.Join(lines, "\n") + "\n"
}

// formatType describes the content type with its type-specific numbers.
func (f *TerminalFormatter) formatType(item content.Item) string {
	views := ""
	if item.Views != nil {
		views = " - " + FormatCount(*item.Views) + " views"
	}

	switch {
	case item.IsCarousel:
		slides := "N/A"
		if item.Carousel != nil {
			slides = strconv.Itoa(item.Carousel.SlideCount)
		}
		return fmt.Sprintf("Carousel (%s slides)%sCarousel likes: %s (total for all slides)",
			slides, separator, FormatCount(item.Likes))
	case item.IsReel:
		return "Reel" + views
	default:
		return item.Kind() + views
	}
}

// FormatRanking formats a titled ranked list.
func (f *TerminalFormatter) FormatRanking(title string, items []content.Item) string {
	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString(f.paint(fmt.Sprintf("TOP %d %s", len(items), title), color.Bold, color.FgGreen) + "\n")
	b.WriteString(rule + "\n\n")

	if len(items) == 0 {
		b.WriteString("No posts found in the last week from the specified accounts.\n")
		return b.String()
	}

	formatted := make([]string, 0, len(items))
	for i, item := range items {
		formatted = append(formatted, f.FormatItem(i+1, item))
	}
	b.WriteString(strings.Join(formatted, "\n"))
	return b.String()
}

// FormatPodcast formats one summarized podcast.
func (f *TerminalFormatter) FormatPodcast(p aggregator.Podcast) string {
	var lines []string

	lines = append(lines, f.paint(fmt.Sprintf("[%s] %s", strings.ToUpper(p.Channel), p.Title), color.Bold))
	lines = append(lines, fmt.Sprintf("  %s%s%s%s%s views",
		f.FormatTimestamp(p.PublishedAt), separator, FormatDuration(p.DurationSeconds), separator, FormatCount(p.Views)))
	if p.URL != "" {
		lines = append(lines, "  "+f.paint(p.URL, color.FgCyan))
	}
	if len(p.KeyTopics) > 0 {
		lines = append(lines, "  Topics: "+strings.Join(p.KeyTopics, ", "))
	}
	lines = append(lines, "  "+f.TruncateText(p.Summary, 400))

	return strings.Join(lines, "\n") + "\n"
}

// FormatPodcasts formats every podcast of a run.
func (f *TerminalFormatter) FormatPodcasts(podcasts []aggregator.Podcast) string {
	if len(podcasts) == 0 {
		return "No podcasts found in the last week.\n"
	}

	var formatted []string
	for _, p := range podcasts {
		formatted = append(formatted, f.FormatPodcast(p))
	}

	return strings.Join(formatted, "\n---\n\n")
}

// WriteInstagramStats renders the run counters as a two-column table.
func (f *TerminalFormatter) WriteInstagramStats(w io.Writer, s aggregator.InstagramStats) error {
	return renderTable(w, []string{"Metric", "Value"}, [][]string{
		{"Posts collected", strconv.Itoa(s.TotalPosts)},
		{"Accounts analyzed", strconv.Itoa(s.AccountsAnalyzed)},
		{"Average engagement", FormatCount(s.AverageEngagement)},
		{"Top engagement", FormatCount(s.TopEngagement)},
		{"Reels", strconv.Itoa(s.ReelCount)},
		{"Reel views", FormatCount(s.TotalViews)},
		{"Carousels", strconv.Itoa(s.CarouselCount)},
		{"Photos", strconv.Itoa(s.PhotoCount)},
		{"Videos", strconv.Itoa(s.VideoCount)},
	})
}

// WritePodcastStats renders the podcast counters as a two-column table.
func (f *TerminalFormatter) WritePodcastStats(w io.Writer, s aggregator.PodcastStats) error {
	return renderTable(w, []string{"Metric", "Value"}, [][]string{
		{"Podcasts", strconv.Itoa(s.TotalPodcasts)},
		{"Channels", strconv.Itoa(s.ChannelsAnalyzed)},
		{"Total duration", FormatDuration(s.TotalDuration)},
	})
}

// stickyWriter keeps the first write error, which tablewriter's renderer
// does not report.
type stickyWriter struct {
	w   io.Writer
	err error
}

func (s *stickyWriter) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.w.Write(p)
	if err != nil {
		s.err = err
	}
	return n, err
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	out := &stickyWriter{w: w}
	table := tablewriter.NewTable(out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
	)
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("stats table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("stats table: %w", err)
	}
	if out.err != nil {
		return fmt.Errorf("stats table: %w", out.err)
	}
	return nil
}

// FormatTimestamp formats a timestamp as relative time.
func (f *TerminalFormatter) FormatTimestamp(t time.Time) string {
	diff := f.now().Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return pluralize(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return pluralize(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return pluralize(int(diff.Hours()/24), "day")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// pluralize returns "N unit ago" or "N units ago" based on count.
func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// FormatCount renders n with thousands separators: 1234567 -> "1,234,567".
func FormatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return sign + s
}

// FormatDuration renders seconds as "1h02m" or "12m".
func FormatDuration(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// TruncateText truncates text to maxLen runes, adding "..." if truncated.
func (f *TerminalFormatter) TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}
