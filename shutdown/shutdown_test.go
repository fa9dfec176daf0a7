package shutdown

import "testing"

type fakeQuitter struct {
	quit bool
}

func (f *fakeQuitter) Quit() { f.quit = true }

func TestShutdownCallsEveryRegisteredQuitter(t *testing.T) {
	c := New()
	a := &fakeQuitter{}
	b := &fakeQuitter{}
	c.Register(a)
	c.Register(b)

	c.Shutdown()

	if !a.quit || !b.quit {
		t.Fatal("expected both registered quitters to receive Quit")
	}
}

func TestUnregisterRemovesFromShutdown(t *testing.T) {
	c := New()
	a := &fakeQuitter{}
	token := c.Register(a)
	c.Unregister(token)

	c.Shutdown()

	if a.quit {
		t.Fatal("unregistered quitter should not receive Quit")
	}
}

type panickingQuitter struct{}

func (panickingQuitter) Quit() { panic("boom") }

func TestShutdownSurvivesAPanickingQuitter(t *testing.T) {
	c := New()
	c.Register(panickingQuitter{})
	after := &fakeQuitter{}
	c.Register(after)

	c.Shutdown() // must not panic out of the test

	if !after.quit {
		t.Fatal("a panicking quitter must not stop later quitters from being called")
	}
}
