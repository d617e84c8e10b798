package application

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/coordgrid/internal/core"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func() tea.Cmd
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == "Back" {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

func buildMenuTree(m *Model) *Menu {

	/* Submenus */
	output := &Menu{
		Title: "Output",
		Items: []MenuItem{
			{Label: "Copy input to clipboard", Action: m.copyTable(core.TableInput)},
			{Label: "Copy result to clipboard", Action: m.copyTable(core.TableResult)},
			{Label: "Export result as CSV", Action: m.exportCSV},
			{Label: "Back"},
		},
	}

	clearMenu := &Menu{
		Title: "Clear",
		Items: []MenuItem{
			{Label: "Clear input", Action: m.clearTable(core.TableInput)},
			{Label: "Clear result", Action: m.clearTable(core.TableResult)},
			{Label: "Back"},
		},
	}

	/* Root Menu */
	root := &Menu{
		Title: "Coordinates",
		Items: []MenuItem{
			{Label: "Paste from clipboard", Action: m.paste},
			{Label: "Add point", Action: m.addPoint},
			{Label: "Swap Lat/Lon", Action: m.swap},
			{Label: "Coordinate systems", Action: m.openPicker},
			{Label: "Convert", Action: m.convert},
			{Label: "Output ->", Submenu: output},
			{Label: "Clear ->", Submenu: clearMenu},
			{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
		},
	}

	linkParents(root, nil)

	return root
}
