package replay

import (
	"net/http"
	"slices"
	"sync"
)

// Global swaps a process-wide transport variable, normally
// http.DefaultTransport, so clients without their own transport are served by
// an engine. Installations nest; the latest one is in effect.
type Global struct {
	mu     sync.Mutex
	target *http.RoundTripper
	stack  []*Installation
}

// DefaultGlobal controls http.DefaultTransport.
var DefaultGlobal = NewGlobal(&http.DefaultTransport)

// NewGlobal returns a Global controlling *target.
func NewGlobal(target *http.RoundTripper) *Global {
	return &Global{target: target}
}

// Installation is the handle for one Install call.
type Installation struct {
	g        *Global
	rt       http.RoundTripper
	previous http.RoundTripper
	removed  bool
}

// Current returns the transport in place now.
func (g *Global) Current() http.RoundTripper {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *g.target
}

// Install makes rt the process-wide transport until Uninstall.
func (g *Global) Install(rt http.RoundTripper) *Installation {
	g.mu.Lock()
	defer g.mu.Unlock()

	inst := &Installation{g: g, rt: rt, previous: *g.target}
	*g.target = rt
	g.stack = append(g.stack, inst)
	return inst
}

// Depth returns the number of active installations.
func (g *Global) Depth() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.stack)
}

// Previous returns the transport that was in place before Install.
func (i *Installation) Previous() http.RoundTripper { return i.previous }

// Uninstall removes the installation. When it is the latest one the
// previous transport is restored; otherwise it is spliced out so the next
// installation restores what was in place before this one. Calling it again
// is a no-op.
func (i *Installation) Uninstall() {
	g := i.g
	g.mu.Lock()
	defer g.mu.Unlock()

	if i.removed {
		return
	}
	idx := slices.Index(g.stack, i)
	if idx < 0 {
		return
	}
	if idx == len(g.stack)-1 {
		*g.target = i.previous
	} else {
		g.stack[idx+1].previous = i.previous
	}
	g.stack = slices.Delete(g.stack, idx, idx+1)
	i.removed = true
}

// base returns the transport in place before the first active installation.
func (g *Global) base() http.RoundTripper {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.stack) > 0 {
		return g.stack[0].previous
	}
	return *g.target
}
