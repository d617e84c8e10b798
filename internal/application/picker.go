package application

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/coordgrid/internal/crs"
)

/* ----------------------------------------
	CRS PICKER
---------------------------------------- */

const (
	fieldSource = iota
	fieldTarget
)

// crsPicker edits the source and target systems. Each field has its own
// debounced suggester; lists arrive as suggestionsMsg on the model's event
// channel.
type crsPicker struct {
	inputs     [2]textinput.Model
	suggesters [2]*crs.Suggester
	lists      [2]crs.Suggestions
	focus      int
	highlight  int // index into the focused list, -1 for none
	maxShown   int
}

func newCRSPicker(catalog *crs.Catalog, limit int, debounce time.Duration, events chan<- tea.Msg, source, target string) *crsPicker {
	p := &crsPicker{highlight: -1, maxShown: 8}

	for i, value := range []string{source, target} {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = "name or EPSG code"
		in.CharLimit = 120
		in.Width = 48
		in.SetValue(value)
		p.inputs[i] = in

		field := i
		p.suggesters[i] = crs.NewSuggester(catalog, limit, debounce, func(s crs.Suggestions) {
			// A newer list for the same field supersedes a dropped one
			select {
			case events <- suggestionsMsg{field: field, Suggestions: s}:
			default:
			}
		})
	}

	p.inputs[fieldSource].Focus()
	return p
}

// stop cancels pending suggestion timers.
func (p *crsPicker) stop() {
	for _, s := range p.suggesters {
		s.Stop()
	}
}

func (p *crsPicker) setFocus(field int) {
	p.inputs[p.focus].Blur()
	p.focus = field
	p.highlight = -1
	p.inputs[field].Focus()
}

// visible returns the shown part of the focused field's list.
func (p *crsPicker) visible() []string {
	l := p.lists[p.focus]
	if l.Hide {
		return nil
	}
	if len(l.Items) > p.maxShown {
		return l.Items[:p.maxShown]
	}
	return l.Items
}

// receive stores a suggestion list unless the field was edited since.
func (p *crsPicker) receive(msg suggestionsMsg) {
	if strings.TrimSpace(p.inputs[msg.field].Value()) != msg.Query {
		return
	}
	p.lists[msg.field] = msg.Suggestions
	if msg.field == p.focus {
		p.highlight = -1
	}
}

// update handles a key. It returns a command carrying crsChosenMsg on accept
// and reports whether the picker closed.
func (p *crsPicker) update(msg tea.KeyMsg) (tea.Cmd, bool) {
	items := p.visible()

	switch msg.String() {
	case "esc", "ctrl+c":
		p.stop()
		return nil, true

	case "tab", "shift+tab":
		p.setFocus(1 - p.focus)
		return textinput.Blink, false

	case "down":
		if len(items) > 0 {
			p.highlight = (p.highlight + 1) % len(items)
		}
		return nil, false

	case "up":
		if len(items) > 0 {
			p.highlight = (p.highlight + len(items) - 1) % len(items)
		}
		return nil, false

	case "enter":
		if p.highlight >= 0 && p.highlight < len(items) {
			// Choosing a label makes the field an exact match, which hides the list
			p.inputs[p.focus].SetValue(items[p.highlight])
			p.inputs[p.focus].CursorEnd()
			p.lists[p.focus] = crs.Suggestions{Query: items[p.highlight], Hide: true}
			p.highlight = -1
			return nil, false
		}
		p.stop()
		chosen := crsChosenMsg{
			source: p.inputs[fieldSource].Value(),
			target: p.inputs[fieldTarget].Value(),
		}
		return func() tea.Msg { return chosen }, true
	}

	before := p.inputs[p.focus].Value()
	var cmd tea.Cmd
	p.inputs[p.focus], cmd = p.inputs[p.focus].Update(msg)
	if after := p.inputs[p.focus].Value(); after != before {
		p.suggesters[p.focus].Update(after)
	}
	return cmd, false
}

func (p *crsPicker) view() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Coordinate systems") + "\n\n")

	for i, name := range []string{"Source", "Target"} {
		label := padRight(name, 8)
		if i == p.focus {
			label = selectedStyle.Render(label)
		}
		b.WriteString(label + p.inputs[i].View() + "\n")

		if i != p.focus {
			continue
		}
		for j, item := range p.visible() {
			if j == p.highlight {
				b.WriteString("        " + selectedStyle.Render("> "+item) + "\n")
			} else {
				b.WriteString("        " + dimStyle.Render("  "+item) + "\n")
			}
		}
	}

	b.WriteString("\n" + dimStyle.Render("tab: switch  up/down: suggestion  enter: choose/accept  esc: cancel"))

	return boxStyle.Render(b.String())
}
