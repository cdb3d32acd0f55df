package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/aretw0/memento/pkg/core"
)

// titleWidth is the column width of titles in list output.
const titleWidth = 40

var (
	pinStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	reminderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

func formatLine(n core.Note) string {
	pin := " "
	if n.Pinned {
		pin = pinStyle.Render("*")
	}
	title := runewidth.FillRight(runewidth.Truncate(n.Title, titleWidth, "…"), titleWidth)
	stamp := time.UnixMilli(n.Timestamp).Format("2006-01-02 15:04")

	line := fmt.Sprintf("%s %s  %s  %s", pin, dimStyle.Render(n.ID), dimStyle.Render(stamp), title)
	if at, ok := n.Reminder(); ok {
		line += "  " + reminderStyle.Render("(reminder "+at.Local().Format("2006-01-02 15:04")+")")
	}
	return strings.TrimRight(line, " ")
}

// renderMarkdown renders a note for the terminal, treating its content as Markdown.
func renderMarkdown(n core.Note, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render("# " + n.Title + "\n\n" + n.Content)
}
