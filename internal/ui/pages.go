package ui

import (
	"github.com/derailed/tview"
)

// Pages represents a page manager
type Pages struct {
	*tview.Pages
	stack []string
}

// NewPages returns a new pages manager
func NewPages() *Pages {
	return &Pages{
		Pages: tview.NewPages(),
		stack: make([]string, 0),
	}
}

// Push adds a new page
func (p *Pages) Push(name string, page tview.Primitive) {
	p.stack = append(p.stack, name)
	p.AddPage(name, page, true, true)
	p.SwitchToPage(name)
}

// Pop removes the current page
func (p *Pages) Pop() (string, bool) {
	if len(p.stack) == 0 {
		return "", false
	}

	name := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	p.RemovePage(name)

	if len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1]
		p.SwitchToPage(top)
		return top, true
	}

	return "", true
}

// Has reports whether the named page is on the stack
func (p *Pages) Has(name string) bool {
	for _, n := range p.stack {
		if n == name {
			return true
		}
	}
	return false
}

// Current returns the current page name
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// StackSize returns the stack depth
func (p *Pages) StackSize() int {
	return len(p.stack)
}
