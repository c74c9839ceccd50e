package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/carereminder/internal/engine"
	"github.com/nhle/carereminder/internal/keys"
	"github.com/nhle/carereminder/internal/ui"
	"github.com/nhle/carereminder/internal/ui/detail"
	"github.com/nhle/carereminder/internal/ui/feed"
	helpview "github.com/nhle/carereminder/internal/ui/help"
	"github.com/nhle/carereminder/internal/ui/noteform"
)

// actionTimeout bounds a single store write triggered from the UI.
const actionTimeout = 10 * time.Second

// snapshotMsg carries a published engine snapshot into the UI.
type snapshotMsg struct {
	snap engine.Snapshot
}

// actionResultMsg reports the outcome of a user action.
type actionResultMsg struct {
	err error
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewFeed ViewState = iota
	ViewDetail
	ViewHelp
	ViewNoteForm
)

// Model is the root Bubble Tea model. It renders the engine's snapshots
// and turns key presses into engine actions; it never edits the feed
// itself.
type Model struct {
	currentView ViewState
	layout      ui.Layout
	keys        *keys.KeyMap
	engine      *engine.Engine
	updates     <-chan engine.Snapshot
	unsubscribe func()
	feedView    feed.Model
	detailView  detail.Model
	helpView    helpview.Model
	noteForm    noteform.Model
	snap        engine.Snapshot
	statusMsg   string
	ready       bool
}

// New creates the root model for eng. The engine is started by Init.
func New(eng *engine.Engine) Model {
	k := keys.DefaultKeyMap()
	updates, unsubscribe := eng.Updates()
	return Model{
		currentView: ViewFeed,
		keys:        k,
		engine:      eng,
		updates:     updates,
		unsubscribe: unsubscribe,
		feedView:    feed.New(k, 80, 22),
		detailView:  detail.New(k, 80, 22),
		helpView:    helpview.New(k, 80, 22),
		noteForm:    noteform.New(80, 22),
		snap:        eng.Snapshot(),
	}
}

// Init starts the engine's refresh loop and subscribes to snapshots.
func (m Model) Init() tea.Cmd {
	eng := m.engine
	return tea.Batch(
		func() tea.Msg {
			eng.Start(context.Background())
			return nil
		},
		m.waitForSnapshot(),
	)
}

// waitForSnapshot returns a tea.Cmd that blocks until the engine
// publishes the next snapshot.
func (m Model) waitForSnapshot() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg{snap: snap}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.feedView.SetSize(w, h)
		m.detailView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.noteForm.SetSize(w, h)
		if m.currentView == ViewNoteForm {
			var cmd tea.Cmd
			m.noteForm, cmd = m.noteForm.Update(msg)
			return m, cmd
		}
		return m, nil

	case snapshotMsg:
		m.snap = msg.snap
		cmd := m.feedView.SetSnapshot(msg.snap)
		if m.currentView == ViewDetail && !m.detailView.Sync(msg.snap) {
			m.currentView = ViewFeed
		}
		return m, tea.Batch(cmd, m.waitForSnapshot())

	case actionResultMsg:
		if msg.err != nil {
			m.statusMsg = msg.err.Error()
		}
		return m, nil

	case feed.MarkReadMsg:
		id := msg.ID
		return m, m.runAction(func(ctx context.Context) error {
			return m.engine.MarkAsRead(ctx, id)
		})

	case feed.DismissMsg:
		id := msg.ID
		return m, m.runAction(func(ctx context.Context) error {
			return m.engine.Dismiss(ctx, id)
		})

	case feed.MarkAllReadMsg:
		return m, m.runAction(m.engine.MarkAllAsRead)

	case feed.RefreshMsg:
		m.statusMsg = ""
		return m, m.runAction(func(ctx context.Context) error {
			m.engine.Refresh(ctx)
			return nil
		})

	case feed.OpenMsg:
		for _, n := range m.snap.Notifications {
			if n.ID == msg.ID {
				m.detailView.Show(n)
				m.currentView = ViewDetail
				break
			}
		}
		if msg.Target != "" {
			m.statusMsg = fmt.Sprintf("Mở %s", msg.Target)
		}
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewFeed
		return m, nil

	case detail.DismissMsg:
		m.currentView = ViewFeed
		id := msg.ID
		return m, m.runAction(func(ctx context.Context) error {
			return m.engine.Dismiss(ctx, id)
		})

	case feed.NewNoteMsg:
		m.currentView = ViewNoteForm
		return m, m.noteForm.Start()

	case noteform.SubmittedMsg:
		m.currentView = ViewFeed
		in := msg.Input
		return m, m.runAction(func(ctx context.Context) error {
			_, err := m.engine.AddCustom(ctx, in)
			return err
		})

	case noteform.CancelMsg:
		m.currentView = ViewFeed
		return m, nil

	case tea.KeyMsg:
		if m.currentView == ViewNoteForm {
			var cmd tea.Cmd
			m.noteForm, cmd = m.noteForm.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.shutdown()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			if m.currentView == ViewHelp {
				m.currentView = ViewFeed
			} else {
				m.currentView = ViewHelp
			}
			return m, nil
		case key.Matches(msg, m.keys.Back):
			m.currentView = ViewFeed
			m.statusMsg = ""
			return m, nil
		}
	}

	return m.updateActiveView(msg)
}

// updateActiveView forwards msg to the current view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewFeed:
		m.feedView, cmd = m.feedView.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewNoteForm:
		m.noteForm, cmd = m.noteForm.Update(msg)
	}
	return m, cmd
}

// runAction executes fn off the UI goroutine.
func (m Model) runAction(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return actionResultMsg{err: fn(ctx)}
	}
}

func (m Model) shutdown() {
	m.engine.Dispose()
	m.unsubscribe()
}

// View renders the active view inside the header/status frame.
func (m Model) View() string {
	if !m.ready {
		return "Đang tải..."
	}

	var content string
	switch m.currentView {
	case ViewHelp:
		content = m.helpView.View()
	case ViewDetail:
		content = m.detailView.View()
	case ViewNoteForm:
		content = m.noteForm.View()
	default:
		content = m.feedView.View()
	}

	header := m.layout.RenderHeader("Nhắc lịch bảo dưỡng", m.headerBadge())
	status, isErr := m.statusLine()
	return m.layout.RenderWithFrame(header, content, m.layout.RenderStatusBar(status, isErr))
}

func (m Model) headerBadge() string {
	badge := fmt.Sprintf("%d chưa đọc", m.snap.UnreadCount)
	if m.snap.Loading {
		badge += " · đang cập nhật"
	}
	return badge
}

func (m Model) statusLine() (string, bool) {
	switch {
	case m.snap.Error != "":
		return "Không tải được lịch hẹn, đang hiển thị dữ liệu đã lưu: " + m.snap.Error, true
	case m.statusMsg != "":
		return m.statusMsg, false
	case !m.snap.LastRefresh.IsZero():
		return fmt.Sprintf("Cập nhật lúc %s · %s",
			m.snap.LastRefresh.Format("15:04"), m.helpView.ShortView()), false
	default:
		return m.helpView.ShortView(), false
	}
}
