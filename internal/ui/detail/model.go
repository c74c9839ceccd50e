package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/carereminder/internal/engine"
	"github.com/nhle/carereminder/internal/keys"
	"github.com/nhle/carereminder/internal/model"
	"github.com/nhle/carereminder/internal/theme"
)

// BackMsg signals the parent to navigate back to the feed.
type BackMsg struct{}

// DismissMsg asks the parent to dismiss the shown notification.
type DismissMsg struct{ ID string }

// Model shows a single notification in full.
type Model struct {
	notification *model.Notification
	viewport     viewport.Model
	keys         *keys.KeyMap
	width        int
	height       int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Dismiss):
			if m.notification != nil {
				id := m.notification.ID
				return m, func() tea.Msg { return DismissMsg{ID: id} }
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.notification == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Thông báo không còn tồn tại")
	}
	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	n := m.notification
	if n == nil {
		return ""
	}

	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(n.Title))

	typeBadge := theme.TypeLabelStyle(string(n.Type)).Render(typeName(n.Type))
	priBadge := theme.PriorityStyle(string(n.Priority)).Render(priorityName(n.Priority))
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, typeBadge, "  ", priBadge))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", metaStyle.Render(fmt.Sprintf("%-12s", label)), valStyle.Render(value))
	}

	if n.AppointmentCode != "" {
		sections = append(sections, row("Lịch hẹn:", n.AppointmentCode))
	}
	sections = append(sections, row("Thời gian:", n.Time))
	if !n.CreatedAt.IsZero() {
		sections = append(sections, row("Tạo lúc:", n.CreatedAt.Format("2006-01-02 15:04")))
	}
	if target := n.Target(); target != "" {
		sections = append(sections, row("Xem tại:", target))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	sections = append(sections, "", sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0))), "")

	body := n.Message
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("Không có nội dung")
	}
	sections = append(sections, lipgloss.NewStyle().Width(max(m.width-2, 10)).Render(body))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Show displays n and scrolls to the top.
func (m *Model) Show(n model.Notification) {
	m.notification = &n
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Sync re-reads the shown notification from snap. It reports false
// when the notification is no longer in the feed.
func (m *Model) Sync(snap engine.Snapshot) bool {
	if m.notification == nil {
		return false
	}
	for _, n := range snap.Notifications {
		if n.ID == m.notification.ID {
			offset := m.viewport.YOffset
			m.notification = &n
			m.viewport.SetContent(m.renderContent())
			m.viewport.SetYOffset(offset)
			return true
		}
	}
	m.notification = nil
	return false
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-2, 0)
	if m.notification != nil {
		m.viewport.SetContent(m.renderContent())
	}
}

func typeName(t model.NotificationType) string {
	if t == model.NotificationTypeReminder {
		return "NHẮC LỊCH"
	}
	return "GHI CHÚ"
}

// priorityName returns a human-readable name for the priority level.
func priorityName(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "Khẩn"
	case model.PriorityMedium:
		return "Sắp tới"
	default:
		return "Bình thường"
	}
}
