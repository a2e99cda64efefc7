// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gridsync

package ui

import (
	"sync"

	"github.com/derailed/tcell/v2"
)

// Key aliases for printable bindings.
const (
	KeySlash tcell.Key = tcell.Key(rune('/'))
	KeyS     tcell.Key = tcell.Key(rune('s'))
	KeyR     tcell.Key = tcell.Key(rune('r'))
)

// ActionHandler handles a key event.
type ActionHandler func(*tcell.EventKey) *tcell.EventKey

// KeyAction represents a keyboard action.
type KeyAction struct {
	Description string
	Action      ActionHandler
	Visible     bool
}

// NewKeyAction returns a new keyboard action.
func NewKeyAction(d string, a ActionHandler, visible bool) KeyAction {
	return KeyAction{Description: d, Action: a, Visible: visible}
}

// KeyMap tracks key to action associations.
type KeyMap map[tcell.Key]KeyAction

// KeyActions tracks a collection of keyboard actions.
type KeyActions struct {
	actions KeyMap
	mx      sync.RWMutex
}

// NewKeyActions returns a new instance.
func NewKeyActions() *KeyActions {
	return &KeyActions{actions: make(KeyMap)}
}

// Add adds a new action for a key.
func (a *KeyActions) Add(k tcell.Key, action KeyAction) {
	a.mx.Lock()
	defer a.mx.Unlock()

	a.actions[k] = action
}

// Bulk adds a set of actions.
func (a *KeyActions) Bulk(aa KeyMap) {
	a.mx.Lock()
	defer a.mx.Unlock()

	for k, action := range aa {
		a.actions[k] = action
	}
}

// Get returns the action bound to a key.
func (a *KeyActions) Get(k tcell.Key) (KeyAction, bool) {
	a.mx.RLock()
	defer a.mx.RUnlock()

	action, ok := a.actions[k]
	return action, ok
}

// Delete removes actions for the given keys.
func (a *KeyActions) Delete(kk ...tcell.Key) {
	a.mx.Lock()
	defer a.mx.Unlock()

	for _, k := range kk {
		delete(a.actions, k)
	}
}

// Hints returns the menu hints for the visible actions.
func (a *KeyActions) Hints() MenuHints {
	a.mx.RLock()
	defer a.mx.RUnlock()

	hh := make(MenuHints, 0, len(a.actions))
	for k, action := range a.actions {
		if !action.Visible {
			continue
		}
		hh = append(hh, MenuHint{
			Mnemonic:    keyName(k),
			Description: action.Description,
			Visible:     true,
		})
	}
	return hh
}

func keyName(k tcell.Key) string {
	if name, ok := tcell.KeyNames[k]; ok {
		return name
	}
	return string(rune(k))
}
