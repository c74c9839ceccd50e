package feed

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/carereminder/internal/engine"
	"github.com/nhle/carereminder/internal/keys"
	"github.com/nhle/carereminder/internal/theme"
)

// MarkReadMsg asks the app to mark a notification read.
type MarkReadMsg struct{ ID string }

// DismissMsg asks the app to dismiss a notification.
type DismissMsg struct{ ID string }

// MarkAllReadMsg asks the app to mark every notification read.
type MarkAllReadMsg struct{}

// RefreshMsg asks the app for a manual refresh.
type RefreshMsg struct{}

// NewNoteMsg asks the app to open the custom note form.
type NewNoteMsg struct{}

// OpenMsg is sent when a notification is opened. Target is the route
// it points at, empty when it has none.
type OpenMsg struct {
	ID     string
	Target string
}

// Model is the notification list view.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new feed model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.Title = "Thông báo"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetSnapshot replaces the displayed notifications, keeping the cursor
// on the same row where possible.
func (m *Model) SetSnapshot(s engine.Snapshot) tea.Cmd {
	items := make([]list.Item, len(s.Notifications))
	for i, n := range s.Notifications {
		items[i] = NotificationItem{Notification: n}
	}
	idx := m.list.Index()
	cmd := m.list.SetItems(items)
	if idx >= len(items) && len(items) > 0 {
		idx = len(items) - 1
	}
	m.list.Select(idx)
	return cmd
}

// Selected returns the focused notification, if any.
func (m Model) Selected() (NotificationItem, bool) {
	it, ok := m.list.SelectedItem().(NotificationItem)
	return it, ok
}

// Update handles messages for the feed view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if cmd, handled := m.handleKeys(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.MarkAll):
		return emit(MarkAllReadMsg{}), true
	case key.Matches(msg, m.keys.Refresh):
		return emit(RefreshMsg{}), true
	case key.Matches(msg, m.keys.NewNote):
		return emit(NewNoteMsg{}), true
	}

	it, ok := m.Selected()
	if !ok {
		return nil, false
	}
	n := it.Notification

	switch {
	case key.Matches(msg, m.keys.Open):
		return tea.Batch(
			emit(MarkReadMsg{ID: n.ID}),
			emit(OpenMsg{ID: n.ID, Target: n.Target()}),
		), true
	case key.Matches(msg, m.keys.MarkRead):
		return emit(MarkReadMsg{ID: n.ID}), true
	case key.Matches(msg, m.keys.Dismiss):
		return emit(DismissMsg{ID: n.ID}), true
	}
	return nil, false
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// View renders the feed.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Không có thông báo nào.\n\nNhấn n để thêm ghi chú, r để làm mới.")
	}
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
