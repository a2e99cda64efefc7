// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gridsync

package ui

import (
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// ConnectForm collects the connection parameters when no server is
// configured.
type ConnectForm struct {
	*tview.Form

	onSubmit func(url, table, mode, token string)
	onCancel func()
}

// NewConnectForm returns a connect form prefilled with the given
// values.
func NewConnectForm(url, table, mode string) *ConnectForm {
	f := &ConnectForm{Form: tview.NewForm()}

	modes := []string{"bulk", "viewport"}
	modeIdx := 0
	if mode == "viewport" {
		modeIdx = 1
	}

	f.AddInputField("Server URL", url, 50, nil, nil)
	f.AddInputField("Table", table, 30, nil, nil)
	f.AddDropDown("Mode", modes, modeIdx, nil)
	f.AddPasswordField("Token", "", 50, '*', nil)
	f.AddButton("Connect", f.submit)
	f.AddButton("Cancel", func() {
		if f.onCancel != nil {
			f.onCancel()
		}
	})

	f.SetBorder(true)
	f.SetTitle(" Connect ")
	f.SetBorderColor(tcell.ColorAqua)
	f.SetBackgroundColor(tcell.ColorDefault)
	f.SetButtonsAlign(tview.AlignCenter)

	return f
}

// SetSubmitFunc registers the connect callback.
func (f *ConnectForm) SetSubmitFunc(fn func(url, table, mode, token string)) {
	f.onSubmit = fn
}

// SetCancelFunc registers the cancel callback.
func (f *ConnectForm) SetCancelFunc(fn func()) {
	f.onCancel = fn
}

// Name returns the view name.
func (f *ConnectForm) Name() string {
	return "connect"
}

// Hints returns the menu hints for this view.
func (f *ConnectForm) Hints() MenuHints {
	return MenuHints{
		{Mnemonic: "Tab", Description: "Next Field", Visible: true},
		{Mnemonic: "Enter", Description: "Connect", Visible: true},
	}
}

func (f *ConnectForm) submit() {
	if f.onSubmit == nil {
		return
	}
	url := f.GetFormItemByLabel("Server URL").(*tview.InputField).GetText()
	table := f.GetFormItemByLabel("Table").(*tview.InputField).GetText()
	_, mode := f.GetFormItemByLabel("Mode").(*tview.DropDown).GetCurrentOption()
	token := f.GetFormItemByLabel("Token").(*tview.InputField).GetText()
	f.onSubmit(url, table, mode, token)
}
