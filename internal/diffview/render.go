// Package diffview renders an edit region as a small styled hunk for
// the CLI: the replaced lines, the replacement lines, and a summary.
package diffview

import (
	"fmt"
	"strings"

	"github.com/bethropolis/phpcbf/internal/patch"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	delStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	addStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	countStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Render formats the edit against the original content as one hunk.
// The edit region is widened to whole lines for display only; the edit
// itself stays minimal.
func Render(original string, e patch.Edit) string {
	lineStart := strings.LastIndexByte(original[:e.Start], '\n') + 1
	lineEnd := len(original)
	if idx := strings.IndexByte(original[e.End:], '\n'); idx >= 0 {
		lineEnd = e.End + idx
	}

	oldChunk := original[lineStart:lineEnd]
	newChunk := original[lineStart:e.Start] + e.Text + original[e.End:lineEnd]
	startLine := 1 + strings.Count(original[:lineStart], "\n")

	oldLines := splitLines(oldChunk)
	newLines := splitLines(newChunk)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("@@ line %d @@", startLine)))
	b.WriteByte('\n')
	for _, line := range oldLines {
		b.WriteString(delStyle.Render("- " + line))
		b.WriteByte('\n')
	}
	for _, line := range newLines {
		b.WriteString(addStyle.Render("+ " + line))
		b.WriteByte('\n')
	}
	b.WriteString(countStyle.Render(fmt.Sprintf("[-%d +%d lines]", len(oldLines), len(newLines))))
	b.WriteByte('\n')
	return b.String()
}

func splitLines(chunk string) []string {
	if chunk == "" {
		return nil
	}
	return strings.Split(chunk, "\n")
}
