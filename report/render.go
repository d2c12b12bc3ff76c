// Package report prints a ResultSet for people and writes it for machines.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/use-agent/pagecheck/models"
)

type styles struct {
	pass    lipgloss.Style
	fail    lipgloss.Style
	reject  lipgloss.Style
	label   lipgloss.Style
	dim     lipgloss.Style
	heading lipgloss.Style
}

// newStyles binds styles to w, so colour is only emitted when w is a
// terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		pass: r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#008000", Dark: "#55FF55"}),
		fail: r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#D00000", Dark: "#FF5555"}).
			Bold(true),
		reject: r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FFAA00"}),
		label: r.NewStyle().Bold(true),
		dim: r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),
		heading: r.NewStyle().Bold(true),
	}
}

// Summarize counts the outcomes in results.
func Summarize(results models.ResultSet) models.Summary {
	return results.Summarize()
}

// Render writes one block per outcome, in order, followed by a summary.
func Render(w io.Writer, results models.ResultSet) error {
	st := newStyles(w)
	var b strings.Builder

	b.WriteString(st.heading.Render("=== RESULTS ==="))
	b.WriteString("\n\n")

	for _, o := range results {
		renderOutcome(&b, st, o)
		b.WriteString("\n")
	}

	s := Summarize(results)
	b.WriteString(st.heading.Render("=== SUMMARY ==="))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Total:    %d\n", s.Total)
	fmt.Fprintf(&b, "Passed:   %s\n", st.pass.Render(fmt.Sprint(s.Passed)))
	fmt.Fprintf(&b, "Failed:   %s\n", failCount(st, s.Failed))
	if s.Rejected > 0 {
		fmt.Fprintf(&b, "Rejected: %s (of failed)\n", st.reject.Render(fmt.Sprint(s.Rejected)))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func failCount(st styles, n int) string {
	if n == 0 {
		return fmt.Sprint(n)
	}
	return st.fail.Render(fmt.Sprint(n))
}

func renderOutcome(b *strings.Builder, st styles, o models.Outcome) {
	var marker string
	switch {
	case o.Success:
		marker = st.pass.Render("✓ PASS")
	case o.Rejected():
		marker = st.reject.Render("✗ REJECTED")
	default:
		marker = st.fail.Render("✗ FAILED")
	}
	fmt.Fprintf(b, "%s %s %s\n", st.label.Render(o.Label), st.dim.Render("["+string(o.Operation)+"]"), marker)
	fmt.Fprintf(b, "  Target: %s\n", o.Target)

	if o.Error != nil {
		fmt.Fprintf(b, "  Error:  %s: %s\n", o.Error.Code, o.Error.Message)
		return
	}

	switch r := o.Result.(type) {
	case *models.ScreenshotResult:
		fmt.Fprintf(b, "  Saved:  %s (%dx%d, %d bytes)\n", r.Path, r.Width, r.Height, r.BytesWritten)
	case *models.MetadataResult:
		if r.ImageURL == nil {
			b.WriteString("  Image:  NO IMAGE FOUND\n")
		} else {
			fmt.Fprintf(b, "  Image:  %s %s\n", *r.ImageURL, st.dim.Render("("+r.Source+")"))
			if r.ResolvedURL != "" {
				fmt.Fprintf(b, "  Abs:    %s\n", r.ResolvedURL)
			}
		}
	case *models.ValidationResult:
		fmt.Fprintf(b, "  Final:  %s\n", r.FinalURL)
		fmt.Fprintf(b, "  Status: %d\n", r.HTTPStatus)
		fmt.Fprintf(b, "  Content: %s (%d chars)\n", yesNo(r.HasContent), r.ContentLength)
		if r.Title != "" {
			fmt.Fprintf(b, "  Title:  %s\n", r.Title)
		}
	}
	if o.DurationMs > 0 {
		fmt.Fprintf(b, "  %s\n", st.dim.Render(fmt.Sprintf("took %dms", o.DurationMs)))
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
