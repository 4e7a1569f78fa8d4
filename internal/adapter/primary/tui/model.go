// Package tui renders the observable state as a terminal slider.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"mic-check/internal/domain"
	"mic-check/internal/usecase"
)

// StepSize is the volume change per arrow key press.
const StepSize = 0.05

// StateMsg carries a freshly published state into the update loop.
type StateMsg struct {
	State domain.State
}

// Model is the bubbletea model for the slider.
type Model struct {
	volume usecase.VolumeUseCase
	states <-chan domain.State
	stop   func()
	State  domain.State
	Width  int
}

// NewModel creates a model seeded with the use case's current state and
// subscribed to every later publish. Call Close when done.
func NewModel(volume usecase.VolumeUseCase) Model {
	states, stop := latestStates(volume)
	return Model{volume: volume, states: states, stop: stop, State: volume.State(), Width: 40}
}

// Close stops the state subscription.
func (m Model) Close() {
	m.stop()
}

// latestStates subscribes to volume and returns a one-slot channel that always
// holds the newest unread state. A single reader sees states in publish order,
// and a slow reader only ever skips to a newer state.
func latestStates(volume usecase.VolumeUseCase) (<-chan domain.State, func()) {
	latest := make(chan domain.State, 1)
	cancel := volume.Subscribe(func(st domain.State) {
		for {
			select {
			case latest <- st:
				return
			default:
			}
			select {
			case <-latest:
			default:
			}
		}
	})
	return latest, cancel
}

// listen waits for the next published state.
func (m Model) listen() tea.Cmd {
	return func() tea.Msg {
		return StateMsg{State: <-m.states}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.action(m.volume.Refresh), m.listen())
}

// action runs fn off the update loop. The resulting state arrives through
// listen, never from the action itself, so overlapping actions cannot
// deliver states out of order.
func (m Model) action(fn func() domain.State) tea.Cmd {
	return func() tea.Msg {
		fn()
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg:
		m.State = msg.State
		return m, m.listen()
	case tea.WindowSizeMsg:
		m.Width = max(10, min(60, msg.Width-20))
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.action(m.volume.Refresh)
		case "m", " ":
			return m, m.action(m.volume.ToggleMute)
		case "left", "h", "-":
			if !m.State.Adjustable {
				return m, nil
			}
			return m, m.action(func() domain.State { return m.volume.Step(-StepSize) })
		case "right", "l", "+", "=":
			if !m.State.Adjustable {
				return m, nil
			}
			return m, m.action(func() domain.State { return m.volume.Step(StepSize) })
		}
	}
	return m, nil
}

// Run starts the TUI and blocks until the user quits.
func Run(volume usecase.VolumeUseCase) error {
	m := NewModel(volume)
	defer m.Close()
	_, err := tea.NewProgram(m).Run()
	return err
}
