// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gridsync

package view

import (
	"fmt"
	"strings"
	"sync"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/wI2L/jsondiff"
	"gopkg.in/yaml.v3"

	"github.com/gridsync/gridsync/internal/rowmodel"
	"github.com/gridsync/gridsync/internal/ui"
)

// Inspect displays a single row as YAML. When the same row is opened
// again after changing, it also shows the delta as an RFC 6902 patch.
type Inspect struct {
	*tview.TextView

	actions *ui.KeyActions
	backFn  func()
	prev    map[string]map[string]any
	mx      sync.Mutex
}

// NewInspect creates a new row inspector.
func NewInspect() *Inspect {
	i := &Inspect{
		TextView: tview.NewTextView(),
		actions:  ui.NewKeyActions(),
		prev:     make(map[string]map[string]any),
	}

	i.SetDynamicColors(true)
	i.SetWrap(false)
	i.SetScrollable(true)
	i.SetBorder(true)
	i.SetBorderPadding(0, 0, 1, 1)
	i.SetBorderColor(tcell.ColorAqua)

	i.actions.Add(tcell.KeyEsc, ui.NewKeyAction("Back", i.backHandler, true))
	i.SetInputCapture(i.keyboard)

	return i
}

// Name returns the view name.
func (i *Inspect) Name() string {
	return "inspect"
}

// Hints returns the menu hints for this view.
func (i *Inspect) Hints() ui.MenuHints {
	return i.actions.Hints()
}

// SetBackFn sets the callback for back navigation.
func (i *Inspect) SetBackFn(fn func()) {
	i.backFn = fn
}

// Show renders the given row.
func (i *Inspect) Show(row rowmodel.Row) {
	i.Clear()
	i.SetTitle(fmt.Sprintf(" Row <%s> ", row.Key))
	i.SetText(i.generateContent(row))
	i.ScrollToBeginning()
}

func (i *Inspect) generateContent(row rowmodel.Row) string {
	var b strings.Builder

	data, err := yaml.Marshal(row.Cells)
	if err != nil {
		return fmt.Sprintf("[red::]Render error: %v[-::]", err)
	}
	b.WriteString("[aqua::b]Cells[-::-]\n")
	b.Write(data)

	i.mx.Lock()
	last, seen := i.prev[row.Key]
	i.prev[row.Key] = row.Clone().Cells
	i.mx.Unlock()

	if seen {
		b.WriteString("\n[aqua::b]Changes since last view[-::-]\n")
		patch, err := jsondiff.Compare(last, row.Cells)
		switch {
		case err != nil:
			fmt.Fprintf(&b, "[red::]diff error: %v[-::]\n", err)
		case len(patch) == 0:
			b.WriteString("none\n")
		default:
			for _, op := range patch {
				fmt.Fprintf(&b, "%-8s %-14s %v\n", op.Type, op.Path, op.Value)
			}
		}
	}

	return b.String()
}

func (i *Inspect) keyboard(evt *tcell.EventKey) *tcell.EventKey {
	if action, ok := i.actions.Get(evt.Key()); ok {
		return action.Action(evt)
	}
	return evt
}

func (i *Inspect) backHandler(evt *tcell.EventKey) *tcell.EventKey {
	if i.backFn != nil {
		i.backFn()
	}
	return nil
}
