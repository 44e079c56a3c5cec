// Package theme styles the command-line reports.
package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nhle/taskapp/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for report titles.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// HelpStyle is used for hints and empty-report notes.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// SuccessStyle marks completed operations.
var SuccessStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen)

// ErrorStyle marks failures printed to the terminal.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

var headerCellStyle = cellStyle.Bold(true).Foreground(ColorBlue)

// PriorityStyle returns a color-coded style for a task priority.
func PriorityStyle(p model.Priority) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch p {
	case model.PriorityUrgent:
		return base.Foreground(ColorRed)
	case model.PriorityImportant:
		return base.Foreground(ColorOrange)
	default:
		return base.Foreground(ColorGray)
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCellStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

// RenderTags renders tags and their task counts.
func RenderTags(tags []model.Tag) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Tags in use"))
	b.WriteString("\n")
	if len(tags) == 0 {
		b.WriteString(HelpStyle.Render("no tag has any tasks"))
		return b.String()
	}

	t := newTable("TAG", "TASKS")
	for _, tag := range tags {
		t.Row(tag.Name, fmt.Sprintf("%d", tag.TaskCount))
	}
	b.WriteString(t.Render())
	return b.String()
}

// RenderDrift renders the result of a tag count reconciliation.
func RenderDrift(drift []model.TagDrift) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Tag count reconciliation"))
	b.WriteString("\n")
	if len(drift) == 0 {
		b.WriteString(SuccessStyle.Render("all tag counts are exact"))
		return b.String()
	}

	t := newTable("TAG", "STORED", "RECOUNTED")
	for _, d := range drift {
		t.Row(d.Name, fmt.Sprintf("%d", d.Stored), fmt.Sprintf("%d", d.Recounted))
	}
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(ErrorStyle.Render(fmt.Sprintf("%d tag(s) repaired", len(drift))))
	return b.String()
}

// RenderTasks renders tasks grouped by priority, most urgent first.
func RenderTasks(grouped map[model.Priority][]model.Task) string {
	var b strings.Builder
	for _, p := range []model.Priority{model.PriorityUrgent, model.PriorityImportant, model.PriorityCommon} {
		tasks, ok := grouped[p]
		if !ok {
			continue
		}
		b.WriteString(PriorityStyle(p).Render(p.String()))
		b.WriteString("\n")

		t := newTable("OWNER", "ID", "TAG", "FINISH", "DESCRIPTION")
		for _, task := range tasks {
			tag := ""
			if task.Tag != nil {
				tag = task.Tag.Name
			}
			t.Row(task.Creator, task.ID, tag, task.FinishDate.String(), task.Description)
		}
		b.WriteString(t.Render())
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return HelpStyle.Render("no tasks")
	}
	return b.String()
}
