package relay

import "testing"

func TestRegistryRegisterAndLookup(t *testing.T) {
	t.Parallel()
	r := NewSessionRegistry()

	a1 := newMockSession("a1")
	a2 := newMockSession("a2")
	r.Register(7, a1)
	r.Register(7, a2)

	conns := r.ConnectionsFor(7)
	if len(conns) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(conns))
	}
	if got := r.ConnectionsFor(8); len(got) != 0 {
		t.Errorf("expected no sessions for unknown user, got %d", len(got))
	}
}

func TestRegistryRegisterIsIdempotent(t *testing.T) {
	t.Parallel()
	r := NewSessionRegistry()

	s := newMockSession("s")
	r.Register(7, s)
	r.Register(7, s)

	if got := len(r.ConnectionsFor(7)); got != 1 {
		t.Fatalf("expected 1 session after double register, got %d", got)
	}
}

func TestRegistryUnregisterPrunesEmptyEntries(t *testing.T) {
	t.Parallel()
	r := NewSessionRegistry()

	a1 := newMockSession("a1")
	a2 := newMockSession("a2")
	r.Register(7, a1)
	r.Register(7, a2)

	r.Unregister(7, a1)
	if got := len(r.ConnectionsFor(7)); got != 1 {
		t.Fatalf("expected 1 session after first close, got %d", got)
	}

	r.Unregister(7, a2)
	if got := len(r.ConnectionsFor(7)); got != 0 {
		t.Fatalf("expected 0 sessions after last close, got %d", got)
	}
	if r.UserCount() != 0 {
		t.Errorf("expected empty entry to be pruned, user count = %d", r.UserCount())
	}
}

func TestRegistryUnregisterUnknownIsNoop(t *testing.T) {
	t.Parallel()
	r := NewSessionRegistry()
	r.Unregister(7, newMockSession("ghost"))
	if r.UserCount() != 0 {
		t.Errorf("unexpected entry after unregistering unknown session")
	}
}

func TestRegistryCounts(t *testing.T) {
	t.Parallel()
	r := NewSessionRegistry()
	r.Register(1, newMockSession("a"))
	r.Register(1, newMockSession("b"))
	r.Register(2, newMockSession("c"))

	if r.UserCount() != 2 {
		t.Errorf("expected 2 users, got %d", r.UserCount())
	}
	if r.SessionCount() != 3 {
		t.Errorf("expected 3 sessions, got %d", r.SessionCount())
	}
}
