package application

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/coordgrid/internal/core"
	"github.com/JonMunkholm/coordgrid/internal/table"
)

// MappingDialog answers core.MappingPrompter from inside a running program.
// PromptMapping is called from a command goroutine; it hands the request to
// the model and blocks until the user accepts or cancels.
type MappingDialog struct {
	events chan<- tea.Msg
}

// NewMappingDialog sends its requests to events, which the model listens on.
func NewMappingDialog(events chan<- tea.Msg) *MappingDialog {
	return &MappingDialog{events: events}
}

// PromptMapping implements core.MappingPrompter.
func (d *MappingDialog) PromptMapping(ctx context.Context, firstRow []string, options []table.MappingOption) (table.ColumnMapping, error) {
	req := mappingRequest{
		firstRow: firstRow,
		options:  options,
		reply:    make(chan mappingReply, 1),
	}

	select {
	case d.events <- req:
	case <-ctx.Done():
		return table.ColumnMapping{}, ctx.Err()
	}

	select {
	case r := <-req.reply:
		if !r.ok {
			return table.ColumnMapping{}, core.ErrPasteCancelled
		}
		return r.mapping, nil
	case <-ctx.Done():
		return table.ColumnMapping{}, ctx.Err()
	}
}

/* ----------------------------------------
	MAPPING FORM
---------------------------------------- */

var mappingRoles = []struct {
	role  table.Role
	label string
}{
	{table.RoleName, "Name"},
	{table.RoleLongitude, "Longitude/X"},
	{table.RoleLatitude, "Latitude/Y"},
}

// mappingForm is the state of an open dialog: one selector per role, each
// pointing into options. Every selector starts at "Not used".
type mappingForm struct {
	req      mappingRequest
	selected [3]int
	cursor   int
	err      string
}

func newMappingForm(req mappingRequest) *mappingForm {
	return &mappingForm{req: req}
}

func (f *mappingForm) mapping() table.ColumnMapping {
	idx := func(i int) int { return f.req.options[f.selected[i]].Index }
	return table.ColumnMapping{Name: idx(0), Longitude: idx(1), Latitude: idx(2)}
}

// update handles a key and reports whether the dialog is finished. The reply
// is sent before returning true.
func (f *mappingForm) update(msg tea.KeyMsg) (done bool) {
	n := len(f.req.options)

	switch msg.String() {
	case "up", "shift+tab", "k":
		f.cursor = (f.cursor + len(mappingRoles) - 1) % len(mappingRoles)
	case "down", "tab", "j":
		f.cursor = (f.cursor + 1) % len(mappingRoles)
	case "left", "h":
		f.selected[f.cursor] = (f.selected[f.cursor] + n - 1) % n
		f.err = ""
	case "right", "l":
		f.selected[f.cursor] = (f.selected[f.cursor] + 1) % n
		f.err = ""
	case "enter":
		m := f.mapping()
		if err := m.Validate(len(f.req.firstRow)); err != nil {
			f.err = core.MapError(err).Message
			return false
		}
		f.req.reply <- mappingReply{mapping: m, ok: true}
		return true
	case "esc", "ctrl+c":
		f.req.reply <- mappingReply{}
		return true
	}
	return false
}

func (f *mappingForm) view() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Choose columns") + "\n")
	b.WriteString(dimStyle.Render("First row: "+strings.Join(f.req.firstRow, " | ")) + "\n\n")

	for i, r := range mappingRoles {
		label := f.req.options[f.selected[i]].Label
		line := padRight(r.label, 12) + "< " + label + " >"
		if i == f.cursor {
			b.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	if f.err != "" {
		b.WriteString("\n" + errorStyle.Render(f.err) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("up/down: role  left/right: column  enter: accept  esc: cancel"))

	return boxStyle.Render(b.String())
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s + " "
	}
	return s + strings.Repeat(" ", n-len(s))
}
