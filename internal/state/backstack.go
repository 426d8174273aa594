package state

import (
	"io"
	"sync"

	"github.com/juju/errors"
	"github.com/openq1/q1display/internal/types"
)

type Nav uint8

const (
	NavInvalid Nav = iota
	NavPush        // new page constructed on top
	NavBack        // top popped, page below is current again
)

func (n Nav) String() string {
	switch n {
	case NavPush:
		return "Push"
	case NavBack:
		return "Back"
	}
	return "Invalid"
}

// Backstack is navigation history, tail is the page on screen.
// After the first Push it is never empty.
type Backstack struct {
	mu    sync.Mutex
	pages []types.Page
}

func (self *Backstack) Len() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return len(self.pages)
}

// Top is the current page, nil only before initialization.
func (self *Backstack) Top() types.Page {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.at(1)
}

func (self *Backstack) Second() types.Page {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.at(2)
}

func (self *Backstack) Names() []string {
	self.mu.Lock()
	defer self.mu.Unlock()
	names := make([]string, len(self.pages))
	for i, p := range self.pages {
		names[i] = p.Name()
	}
	return names
}

func (self *Backstack) Push(p types.Page) {
	if p == nil {
		panic("code error Backstack.Push page=nil")
	}
	self.mu.Lock()
	self.pages = append(self.pages, p)
	self.mu.Unlock()
}

// Pop refuses to remove the last page.
func (self *Backstack) Pop() (types.Page, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.pop()
}

// Navigate applies navigation rule atomically:
// - target is one below top: pop (back)
// - else push page from construct(), even if target is on top already
// Popped page is closed if it implements io.Closer.
func (self *Backstack) Navigate(target string, construct func() (types.Page, error)) (Nav, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	if second := self.at(2); second != nil && second.Name() == target {
		popped, err := self.pop()
		if err != nil {
			return NavInvalid, err
		}
		if c, ok := popped.(io.Closer); ok {
			if err := c.Close(); err != nil {
				return NavBack, errors.Annotatef(err, "close page=%s", popped.Name())
			}
		}
		return NavBack, nil
	}
	p, err := construct()
	if err != nil {
		return NavInvalid, err
	}
	if p.Name() != target {
		return NavInvalid, errors.Errorf("code error constructed page=%s for target=%s", p.Name(), target)
	}
	self.pages = append(self.pages, p)
	return NavPush, nil
}

// at(1) is top, at(2) is second from top
func (self *Backstack) at(fromTop int) types.Page {
	i := len(self.pages) - fromTop
	if i < 0 {
		return nil
	}
	return self.pages[i]
}

func (self *Backstack) pop() (types.Page, error) {
	n := len(self.pages)
	if n <= 1 {
		return nil, errors.Errorf("backstack refuse to pop last page len=%d", n)
	}
	p := self.pages[n-1]
	self.pages[n-1] = nil
	self.pages = self.pages[:n-1]
	return p, nil
}
