// Package application is the terminal front end: a menu over one window of
// core.Service, a column mapping dialog and a CRS picker with suggestions.
package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JonMunkholm/coordgrid/internal/core"
)

// Options configures a Model.
type Options struct {
	Service      *core.Service
	WindowID     string
	Clipboard    Clipboard
	OutPath      string // CSV export target
	InitialText  string // pasted on start when not blank
	SuggestLimit int
	Debounce     time.Duration
}

// DefaultOutPath is used when Options.OutPath is empty.
const DefaultOutPath = "coordinates.csv"

type mode int

const (
	modeMenu mode = iota
	modeMapping
	modeCRS
)

/* ----------------------------------------
	MODEL
---------------------------------------- */

type Model struct {
	opts   Options
	ctx    context.Context
	events chan tea.Msg
	dialog *MappingDialog

	menu   *Menu
	cursor int
	mode   mode
	form   *mappingForm
	picker *crsPicker

	busy   bool
	status string
	err    string
}

// New builds the model for one already opened window.
func New(ctx context.Context, opts Options) *Model {
	if opts.OutPath == "" {
		opts.OutPath = DefaultOutPath
	}
	events := make(chan tea.Msg, 16)
	m := &Model{
		opts:   opts,
		ctx:    ctx,
		events: events,
		dialog: NewMappingDialog(events),
		status: "Ready",
	}
	m.menu = buildMenuTree(m)
	return m
}

// listen waits for the next message from a prompt or suggester.
func (m *Model) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) Init() tea.Cmd {
	if strings.TrimSpace(m.opts.InitialText) == "" {
		return m.listen()
	}
	m.busy = true
	return tea.Batch(m.listen(), m.pasteText(m.opts.InitialText))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case mappingRequest:
		m.form = newMappingForm(msg)
		m.mode = modeMapping
		return m, m.listen()

	case suggestionsMsg:
		if m.picker != nil {
			m.picker.receive(msg)
		}
		return m, m.listen()

	case crsChosenMsg:
		return m, m.setCRS(msg)

	case DoneMsg:
		m.busy = false
		m.status, m.err = string(msg), ""
		return m, nil

	case ErrMsg:
		m.busy = false
		m.err = core.FormatUserError(msg.Err)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeMapping:
			if m.form.update(msg) {
				m.form = nil
				m.mode = modeMenu
			}
			return m, nil

		case modeCRS:
			cmd, closed := m.picker.update(msg)
			if closed {
				m.picker = nil
				m.mode = modeMenu
			}
			return m, cmd
		}
		return m, m.updateMenu(msg)
	}

	// Cursor blink and other input component messages
	if m.mode == modeCRS {
		var cmd tea.Cmd
		m.picker.inputs[m.picker.focus], cmd = m.picker.inputs[m.picker.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateMenu(msg tea.KeyMsg) tea.Cmd {
	items := m.menu.Items

	switch msg.String() {
	case "ctrl+c", "q":
		return tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(items)-1 {
			m.cursor++
		}

	case "esc", "backspace":
		if m.menu.Parent != nil {
			m.menu, m.cursor = m.menu.Parent, 0
		}

	case "enter", " ":
		item := items[m.cursor]
		if item.Submenu != nil {
			m.menu, m.cursor = item.Submenu, 0
			return nil
		}
		if item.Action == nil {
			return nil
		}
		if m.busy {
			m.err = "Another action is still running"
			return nil
		}
		cmd := item.Action()
		if cmd != nil && m.mode == modeMenu {
			m.busy = true
			m.status, m.err = item.Label+"...", ""
		}
		return cmd
	}
	return nil
}

/* ----------------------------------------
	ACTIONS
---------------------------------------- */

// run wraps a service call as a command reporting DoneMsg or ErrMsg.
func (m *Model) run(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		done, err := fn(m.ctx)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return DoneMsg(done)
	}
}

func (m *Model) paste() tea.Cmd {
	return func() tea.Msg {
		text, err := m.opts.Clipboard.ReadAll()
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("read clipboard: %w", err)}
		}
		if strings.TrimSpace(text) == "" {
			return DoneMsg("Clipboard is empty")
		}
		return m.pasteText(text)()
	}
}

// pasteText replaces the input table, asking for the mapping in the dialog.
func (m *Model) pasteText(text string) tea.Cmd {
	return m.run(func(ctx context.Context) (string, error) {
		err := m.opts.Service.Paste(ctx, m.opts.WindowID, text, m.dialog)
		if errors.Is(err, core.ErrPasteCancelled) {
			return "Paste cancelled", nil
		}
		if err != nil {
			return "", err
		}

		st, err := m.opts.Service.State(m.opts.WindowID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Pasted %d rows", st.Input.Rows()), nil
	})
}

func (m *Model) addPoint() tea.Cmd {
	return m.run(func(ctx context.Context) (string, error) {
		rows, err := m.opts.Service.AddPoint(ctx, m.opts.WindowID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Added point %d", rows), nil
	})
}

func (m *Model) swap() tea.Cmd {
	return m.run(func(ctx context.Context) (string, error) {
		if err := m.opts.Service.SwapLatLon(ctx, m.opts.WindowID); err != nil {
			return "", err
		}
		return "Swapped longitude and latitude columns", nil
	})
}

func (m *Model) openPicker() tea.Cmd {
	st, err := m.opts.Service.State(m.opts.WindowID)
	if err != nil {
		return func() tea.Msg { return ErrMsg{Err: err} }
	}
	m.picker = newCRSPicker(m.opts.Service.Catalog(), m.opts.SuggestLimit, m.opts.Debounce, m.events,
		st.Source.Text, st.Target.Text)
	m.mode = modeCRS
	return nil
}

func (m *Model) setCRS(c crsChosenMsg) tea.Cmd {
	m.busy = true
	return m.run(func(ctx context.Context) (string, error) {
		if err := m.opts.Service.SetCRS(ctx, m.opts.WindowID, c.source, c.target); err != nil {
			return "", err
		}
		st, err := m.opts.Service.State(m.opts.WindowID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("EPSG:%d -> EPSG:%d", st.Source.Code, st.Target.Code), nil
	})
}

func (m *Model) convert() tea.Cmd {
	return m.run(func(ctx context.Context) (string, error) {
		sum, err := m.opts.Service.Reproject(ctx, m.opts.WindowID)
		if err != nil {
			return "", err
		}
		if sum.Failed > 0 {
			return fmt.Sprintf("Converted %d rows, %d failed", sum.Rows, sum.Failed), nil
		}
		return fmt.Sprintf("Converted %d rows", sum.Rows), nil
	})
}

func (m *Model) copyTable(which core.TableKind) func() tea.Cmd {
	return func() tea.Cmd {
		return m.run(func(context.Context) (string, error) {
			text, ok, err := m.opts.Service.Copy(m.opts.WindowID, which)
			if err != nil {
				return "", err
			}
			if !ok {
				return fmt.Sprintf("The %s table is empty", which), nil
			}
			if err := m.opts.Clipboard.WriteAll(text); err != nil {
				return "", fmt.Errorf("write clipboard: %w", err)
			}
			return fmt.Sprintf("Copied %s table", which), nil
		})
	}
}

func (m *Model) exportCSV() tea.Cmd {
	return m.run(func(ctx context.Context) (string, error) {
		f, err := os.Create(m.opts.OutPath)
		if err != nil {
			return "", fmt.Errorf("create %s: %w", m.opts.OutPath, err)
		}
		if err := m.opts.Service.ExportCSV(ctx, m.opts.WindowID, f); err != nil {
			f.Close()
			os.Remove(m.opts.OutPath)
			return "", err
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", m.opts.OutPath, err)
		}
		return "Exported to " + m.opts.OutPath, nil
	})
}

func (m *Model) clearTable(which core.TableKind) func() tea.Cmd {
	return func() tea.Cmd {
		return m.run(func(ctx context.Context) (string, error) {
			if err := m.opts.Service.Clear(ctx, m.opts.WindowID, which); err != nil {
				return "", err
			}
			return fmt.Sprintf("Cleared %s table", which), nil
		})
	}
}

/* ----------------------------------------
	VIEW
---------------------------------------- */

func (m *Model) View() string {
	var body string
	switch m.mode {
	case modeMapping:
		body = m.form.view()
	case modeCRS:
		body = m.picker.view()
	default:
		body = m.menuView()
	}

	status := statusStyle.Render(m.status)
	if m.err != "" {
		status = errorStyle.Render(m.err)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.summaryView(), status)
}

func (m *Model) menuView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.menu.Title) + "\n\n")
	for i, item := range m.menu.Items {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+item.Label) + "\n")
		} else {
			b.WriteString("  " + item.Label + "\n")
		}
	}
	return boxStyle.Render(b.String())
}

// summaryView shows table sizes and the chosen systems; no grid is drawn.
func (m *Model) summaryView() string {
	st, err := m.opts.Service.State(m.opts.WindowID)
	if err != nil {
		return dimStyle.Render("window closed")
	}
	crsText := func(c core.CRSChoice) string {
		if !c.IsSet() {
			return "not set"
		}
		return fmt.Sprintf("EPSG:%d", c.Code)
	}
	return dimStyle.Render(fmt.Sprintf("input %d rows  result %d rows  %s -> %s",
		st.Input.Rows(), st.Result.Rows(), crsText(st.Source), crsText(st.Target)))
}
