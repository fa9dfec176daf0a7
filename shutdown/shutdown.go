// Package shutdown implements the process-wide control-socket registry
// described as a design note: every registered control socket gets a QUIT
// issued to it on shutdown, without touching any stream or session state
// machine. It is deliberately not wired to os/signal itself — the
// application decides when to call Shutdown.
package shutdown

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Quitter is anything that can be told to quit without blocking on its
// owning session/stream state. Implementations should write-and-forget.
type Quitter interface {
	Quit()
}

// Coordinator holds the registry of control sockets needing a QUIT on
// process shutdown.
type Coordinator struct {
	mu       sync.Mutex
	quitters map[int]Quitter
	nextID   int
}

// New creates an empty Coordinator.
func New() *Coordinator {
	return &Coordinator{quitters: make(map[int]Quitter)}
}

// Register adds q to the registry and returns a token to Unregister it.
func (c *Coordinator) Register(q Quitter) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.quitters[id] = q
	return id
}

// Unregister removes the control socket identified by token, e.g. once it
// has cleanly closed on its own.
func (c *Coordinator) Unregister(token int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.quitters, token)
}

// Shutdown issues Quit to every currently registered control socket. It
// does not wait for them and does not touch any session or stream state.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	quitters := make([]Quitter, 0, len(c.quitters))
	for _, q := range c.quitters {
		quitters = append(quitters, q)
	}
	c.mu.Unlock()

	for _, q := range quitters {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.WithField("panic", r).Warn("shutdown: quitter panicked")
				}
			}()
			q.Quit()
		}()
	}
}

// Global is the process-wide coordinator used by packages that don't carry
// their own, matching the teacher's module-level registry shape.
var Global = New()
