// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gridsync

package ui

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

const (
	menuIndexFmt = " [yellow::b]<%d>[white::-] %s "
	menuPlainFmt = " [yellow::b]<%s>[white::-] %s "
	maxMenuRows  = 4
)

// Menu presents the key binding hints.
type Menu struct {
	*tview.Table
}

// NewMenu returns a new menu.
func NewMenu() *Menu {
	m := &Menu{
		Table: tview.NewTable(),
	}
	m.SetBackgroundColor(tcell.ColorDefault)
	m.SetBorderPadding(0, 0, 1, 1)

	return m
}

// HydrateMenu populate menu ui from hints.
func (m *Menu) HydrateMenu(hh MenuHints) {
	m.Clear()
	sort.Sort(hh)

	row, col := 0, 0
	for _, h := range hh {
		if !h.Visible {
			continue
		}
		c := tview.NewTableCell(formatHint(h))
		c.SetBackgroundColor(tcell.ColorDefault)
		m.SetCell(row, col, c)
		row++
		if row >= maxMenuRows {
			row, col = 0, col+1
		}
	}
}

func formatHint(h MenuHint) string {
	if h.Mnemonic == "" || h.Description == "" {
		return ""
	}
	if i, err := strconv.Atoi(h.Mnemonic); err == nil {
		return fmt.Sprintf(menuIndexFmt, i, h.Description)
	}
	return fmt.Sprintf(menuPlainFmt, h.Mnemonic, h.Description)
}
