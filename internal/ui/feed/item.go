package feed

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/carereminder/internal/model"
	"github.com/nhle/carereminder/internal/theme"
)

// NotificationItem wraps a model.Notification so it can be used in a
// bubbles/list.
type NotificationItem struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i NotificationItem) FilterValue() string {
	return i.Notification.Title + " " + i.Notification.Message
}

// Title returns the notification title.
func (i NotificationItem) Title() string { return i.Notification.Title }

// Description returns the notification message.
func (i NotificationItem) Description() string { return i.Notification.Message }

// ItemDelegate implements list.ItemDelegate for notification rows.
// Each row is a title line followed by the message.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single notification.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(NotificationItem)
	if !ok {
		return
	}
	n := it.Notification
	width := m.Width()

	mark := " "
	if n.Unread {
		mark = theme.UnreadMarkStyle.Render("●")
	}

	priority := theme.PriorityStyle(string(n.Priority)).Render(strings.ToUpper(string(n.Priority)))
	timeLabel := theme.DimmedStyle.Render(n.Time)

	titleStyle := lipgloss.NewStyle()
	if n.Unread {
		titleStyle = titleStyle.Bold(true)
	} else {
		titleStyle = titleStyle.Foreground(theme.ColorGray)
	}

	head := fmt.Sprintf("%s %s %s  %s", mark, priority, titleStyle.Render(n.Title), timeLabel)
	body := "   " + theme.DimmedStyle.Render(truncate(n.Message, width-6))

	content := head + "\n" + body
	if index == m.Index() {
		fmt.Fprint(w, theme.SelectedItemStyle.Render(content))
		return
	}
	fmt.Fprint(w, theme.ListItemStyle.Render(content))
}

// truncate shortens s to at most width display cells.
func truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
