package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"studyloop/internal/core"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Live TUI dashboard: today's timeline and the notification stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newDashboardModel(cmd.Context())
		p := tea.NewProgram(m, tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

type dashboardModel struct {
	now      time.Time
	blocks   []core.Block
	notifs   []core.Notification
	status   timerStatusView
	notCh    <-chan core.Notification
	unsub    func()
	err      error
	viewport viewport.Model
	ready    bool
}

type timerStatusView struct {
	active  bool
	title   string
	elapsed time.Duration
}

func newDashboardModel(ctx context.Context) *dashboardModel {
	ch, unsub := eng.NotificationsSubscribe(ctx)
	return &dashboardModel{now: time.Now(), notCh: ch, unsub: unsub}
}

type refreshMsg struct{}

type notifMsg core.Notification

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return refreshMsg{} })
}

func waitForNotification(ch <-chan core.Notification) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notifMsg(n)
	}
}

func (m *dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tickEvery(10*time.Second), waitForNotification(m.notCh))
}

func (m *dashboardModel) refresh() tea.Cmd {
	return func() tea.Msg {
		now := time.Now()
		blocks, err := eng.TimelineGet(now)
		if err != nil {
			return refreshErrMsg{err}
		}
		status, err := eng.TimerStatus(now)
		if err != nil {
			return refreshErrMsg{err}
		}
		notifs, err := eng.NotificationsList(now.Add(-24 * time.Hour))
		if err != nil {
			return refreshErrMsg{err}
		}
		sv := timerStatusView{}
		if status.IsActive {
			sv = timerStatusView{active: true, title: status.Session.Title, elapsed: time.Duration(status.ElapsedSeconds) * time.Second}
		}
		return refreshDataMsg{now: now, blocks: blocks, notifs: notifs, status: sv}
	}
}

type refreshErrMsg struct{ err error }
type refreshDataMsg struct {
	now    time.Time
	blocks []core.Block
	notifs []core.Notification
	status timerStatusView
}

const (
	dashboardHeaderHeight = 4
	dashboardFooterHeight = 2
)

func (m *dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h := msg.Height - dashboardHeaderHeight - dashboardFooterHeight
		if !m.ready {
			m.viewport = viewport.New(msg.Width, h)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = h
		}
		m.viewport.SetContent(m.renderBody())
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.unsub != nil {
				m.unsub()
			}
			return m, tea.Quit
		case "r":
			return m, m.refresh()
		}
	case refreshMsg:
		return m, tea.Batch(m.refresh(), tickEvery(10*time.Second))
	case refreshDataMsg:
		m.now, m.blocks, m.notifs, m.status = msg.now, msg.blocks, msg.notifs, msg.status
		m.viewport.SetContent(m.renderBody())
		return m, nil
	case refreshErrMsg:
		m.err = msg.err
		m.viewport.SetContent(m.renderBody())
		return m, nil
	case notifMsg:
		m.notifs = append([]core.Notification{core.Notification(msg)}, m.notifs...)
		m.viewport.SetContent(m.renderBody())
		return m, waitForNotification(m.notCh)
	}
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *dashboardModel) View() string {
	if !m.ready {
		return "loading..."
	}

	var header strings.Builder
	header.WriteString(styleTitle.Render("studyloop dashboard") + "  " + styleDim.Render(m.now.Format("Mon 2006-01-02 15:04:05")) + "\n")
	if m.status.active {
		header.WriteString(styleBar.Render(fmt.Sprintf("● studying %q  %s elapsed", m.status.title, m.status.elapsed.Round(time.Second))))
	} else {
		header.WriteString(styleDim.Render("○ no active session"))
	}

	footer := styleDim.Render(fmt.Sprintf("scroll: up/down   q: quit   r: refresh   %3.0f%%", m.viewport.ScrollPercent()*100))

	return header.String() + "\n\n" + m.viewport.View() + "\n" + footer
}

// renderBody renders the scrollable portion of the dashboard (today's
// timeline and the notification stream) into the viewport's content.
func (m *dashboardModel) renderBody() string {
	var sb strings.Builder
	sb.WriteString(styleTitle.Render("Today") + "\n")
	for _, b := range m.blocks {
		line := fmt.Sprintf("%s-%s %-12s energy %d", b.Start.Format("15:04"), b.End.Format("15:04"), b.Activity, b.EnergyLevel)
		if isActiveBlock(b, m.now) {
			sb.WriteString(lipgloss.NewStyle().Bold(true).Render(line) + "\n")
		} else {
			sb.WriteString(line + "\n")
		}
	}

	sb.WriteString("\n" + styleTitle.Render("Notifications") + "\n")
	for _, n := range m.notifs {
		sb.WriteString(notificationStyle(n.Priority).Render(fmt.Sprintf("[%s] %s - %s", n.Priority, n.Title, n.Body)) + "\n")
	}

	if m.err != nil {
		sb.WriteString("\n" + styleBad.Render(m.err.Error()) + "\n")
	}

	return sb.String()
}

func isActiveBlock(b core.Block, now time.Time) bool {
	return !now.Before(b.Start) && now.Before(b.End)
}

func notificationStyle(p core.NotificationPriority) lipgloss.Style {
	switch p {
	case core.PriorityUrgent:
		return styleBad
	case core.PriorityHigh:
		return styleWarn
	default:
		return styleDim
	}
}
