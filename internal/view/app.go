// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gridsync

package view

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"

	"github.com/gridsync/gridsync/internal/rowmodel"
	"github.com/gridsync/gridsync/internal/ui"
)

const (
	// FlashDelay sets the flash auto-clear delay.
	FlashDelay = 5 * time.Second
)

// FlashLevel represents flash message severity.
type FlashLevel int

const (
	// FlashInfo represents an info message.
	FlashInfo FlashLevel = iota
	// FlashWarn represents a warning message.
	FlashWarn
	// FlashErr represents an error message.
	FlashErr
)

// Flash handles flash messages in the application.
type Flash struct {
	*tview.TextView
	app    *App
	cancel context.CancelFunc
	mx     sync.RWMutex
}

// NewFlash creates a new Flash instance.
func NewFlash(app *App) *Flash {
	f := &Flash{
		TextView: tview.NewTextView(),
		app:      app,
	}
	f.SetDynamicColors(true)
	f.SetTextAlign(tview.AlignLeft)
	f.SetBorderPadding(0, 0, 1, 1)
	return f
}

// Info displays an informational message.
func (f *Flash) Info(msg string) {
	f.setMessage(FlashInfo, msg)
}

// Infof displays a formatted informational message.
func (f *Flash) Infof(format string, args ...interface{}) {
	f.Info(fmt.Sprintf(format, args...))
}

// Warnf displays a formatted warning message.
func (f *Flash) Warnf(format string, args ...interface{}) {
	f.setMessage(FlashWarn, fmt.Sprintf(format, args...))
}

// Err displays an error message.
func (f *Flash) Err(err error) {
	if err != nil {
		f.setMessage(FlashErr, err.Error())
	}
}

// Errf displays a formatted error message.
func (f *Flash) Errf(format string, args ...interface{}) {
	f.setMessage(FlashErr, fmt.Sprintf(format, args...))
}

// Clear clears the flash message.
func (f *Flash) Clear() {
	f.mx.Lock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.mx.Unlock()

	f.app.QueueUpdateDraw(func() {
		f.TextView.Clear()
	})
}

func (f *Flash) setMessage(level FlashLevel, msg string) {
	f.mx.Lock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.mx.Unlock()

	if msg == "" {
		f.Clear()
		return
	}

	f.app.QueueUpdateDraw(func() {
		f.TextView.Clear()
		f.SetTextColor(flashColor(level))
		fmt.Fprintf(f.TextView, "%s %s", flashPrefix(level), msg)
	})

	ctx, cancel := context.WithCancel(context.Background())
	f.mx.Lock()
	f.cancel = cancel
	f.mx.Unlock()

	go f.autoClear(ctx)
}

func (f *Flash) autoClear(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(FlashDelay):
		f.Clear()
	}
}

func flashColor(level FlashLevel) tcell.Color {
	switch level {
	case FlashWarn:
		return tcell.ColorYellow
	case FlashErr:
		return tcell.ColorRed
	default:
		return tcell.ColorGreen
	}
}

func flashPrefix(level FlashLevel) string {
	switch level {
	case FlashWarn:
		return "[WARN]"
	case FlashErr:
		return "[ERROR]"
	default:
		return "[INFO]"
	}
}

// App represents the main application container.
type App struct {
	*tview.Application
	version string
	Main    *tview.Pages
	Content *ui.Pages
	menu    *ui.Menu
	flash   *Flash
	grid    *ui.Grid
	inspect *Inspect
	stopFn  func()
	built   bool
	running bool
	mx      sync.RWMutex
}

// NewApp creates a new application instance.
func NewApp(version string) *App {
	app := &App{
		Application: tview.NewApplication(),
		version:     version,
		Main:        tview.NewPages(),
		Content:     ui.NewPages(),
	}

	app.flash = NewFlash(app)
	app.menu = ui.NewMenu()
	app.inspect = NewInspect()

	app.Application.SetInputCapture(app.keyboard)

	return app
}

// SetGrid installs the data grid as the main content, replacing any
// previous grid.
func (a *App) SetGrid(g *ui.Grid) {
	a.mx.Lock()
	a.grid = g
	built := a.built
	a.mx.Unlock()

	g.SetQueue(a.QueueUpdateDraw)
	g.SetSelectFunc(a.inspectRow)
	a.menu.HydrateMenu(g.Hints())
	if !built {
		return
	}
	if a.Content.Has("grid") {
		// Same-name AddPage swaps the primitive without growing the
		// page stack.
		a.Content.AddPage("grid", g, true, true)
	} else {
		a.Content.Push("grid", g)
	}
	a.SetFocus(a.Content)
}

// SetStopFunc registers a hook invoked when the application stops.
func (a *App) SetStopFunc(fn func()) {
	a.mx.Lock()
	defer a.mx.Unlock()
	a.stopFn = fn
}

// Init initializes and builds the application layout. A grid may be
// installed later by a connect flow.
func (a *App) Init() error {
	a.mx.Lock()
	grid := a.grid
	a.built = true
	a.mx.Unlock()

	if grid != nil {
		a.Content.Push("grid", grid)
	}

	bottomBar := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.flash, 1, 0, false).
		AddItem(a.menu, 2, 0, false)

	main := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.Content, 0, 1, true).
		AddItem(bottomBar, 3, 0, false)

	a.Main.AddPage("main", main, true, true)
	a.SetRoot(a.Main, true)
	a.SetFocus(a.Content)

	return nil
}

// Run starts the application.
func (a *App) Run() error {
	a.mx.Lock()
	a.running = true
	a.mx.Unlock()

	a.flash.Infof("gridsync %s", a.version)

	return a.Application.Run()
}

// Stop stops the application.
func (a *App) Stop() {
	a.mx.Lock()
	running := a.running
	a.running = false
	stopFn := a.stopFn
	a.mx.Unlock()

	if !running {
		return
	}
	if stopFn != nil {
		stopFn()
	}
	a.Application.Stop()
}

// IsRunning returns whether the application is currently running.
func (a *App) IsRunning() bool {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return a.running
}

// Flash returns the flash message handler.
func (a *App) Flash() *Flash {
	return a.flash
}

// ShowError surfaces a failure in a modal dialog over the current
// page. Safe to call from any goroutine.
func (a *App) ShowError(msg string) {
	a.QueueUpdateDraw(func() {
		d := ui.ErrorDialog(a.Content, msg)
		d.SetDoneCallback(func() {
			a.SetFocus(a.Content)
		})
		d.Show()
		a.SetFocus(d)
	})
}

// QueueUpdateDraw queues a function to be executed on the UI thread.
func (a *App) QueueUpdateDraw(fn func()) {
	go a.Application.QueueUpdateDraw(fn)
}

// keyboard handles global keyboard events.
func (a *App) keyboard(evt *tcell.EventKey) *tcell.EventKey {
	key := evt.Key()

	a.mx.RLock()
	grid := a.grid
	a.mx.RUnlock()

	filtering := grid != nil && grid.FilterInputActive()
	if key == tcell.KeyRune && !filtering && a.Content.Current() == "grid" {
		switch evt.Rune() {
		case 'q':
			a.Stop()
			return nil
		}
	}

	switch key {
	case tcell.KeyCtrlC:
		a.Stop()
		return nil
	case tcell.KeyEsc:
		if a.Content.StackSize() > 1 {
			a.Content.Pop()
			a.syncMenu()
			return nil
		}
	}

	return evt
}

// ShowConnect displays the connect form.
func (a *App) ShowConnect(form *ui.ConnectForm) {
	a.Content.Push("connect", form)
	a.menu.HydrateMenu(form.Hints())
	a.SetFocus(form)
}

// DismissConnect removes the connect form if present.
func (a *App) DismissConnect() {
	if a.Content.Current() == "connect" {
		a.Content.Pop()
	}
	a.syncMenu()
}

// inspectRow opens the row inspector for the selected row. Runs on the
// UI goroutine via the grid key handler.
func (a *App) inspectRow(row rowmodel.Row) {
	a.inspect.Show(row)
	a.inspect.SetBackFn(func() {
		a.Content.Pop()
		a.syncMenu()
		a.SetFocus(a.Content)
	})
	a.Content.Push("inspect", a.inspect)
	a.SetFocus(a.inspect)
	a.syncMenu()
}

func (a *App) syncMenu() {
	switch a.Content.Current() {
	case "inspect":
		a.menu.HydrateMenu(a.inspect.Hints())
	default:
		a.mx.RLock()
		grid := a.grid
		a.mx.RUnlock()
		if grid != nil {
			a.menu.HydrateMenu(grid.Hints())
		}
	}
}
