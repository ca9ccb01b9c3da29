package session

import (
	"testing"
	"time"

	"github.com/Ruhancpereira/conectacond.site/internal/backend"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	factory := func() (*backend.Client, error) {
		return backend.NewClient(backend.Config{URL: "http://127.0.0.1:1", AnonKey: "anon"})
	}
	return NewRegistry(factory, testMarkers(t), fastOptions())
}

func TestRegistryOpenLookupClose(t *testing.T) {
	reg := testRegistry(t)

	entry, err := reg.Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if entry.Store == nil || entry.Client == nil {
		t.Fatal("Expected the entry to carry both a store and a client")
	}

	id := entry.Store.ID()
	if got := reg.Lookup(id); got != entry {
		t.Fatalf("Expected Lookup to return the same entry, got %v", got)
	}
	if reg.Lookup("desconhecido") != nil {
		t.Error("Expected nil for an unknown id")
	}

	reg.Close(id)
	if reg.Lookup(id) != nil {
		t.Error("Expected the entry gone after Close")
	}
	select {
	case <-entry.Store.Ready():
	default:
		t.Error("Expected Close to release Ready waiters")
	}
}

func TestRegistrySweepReapsIdleSessions(t *testing.T) {
	reg := testRegistry(t)

	entry, err := reg.Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if reaped := reg.Sweep(time.Hour); reaped != 0 {
		t.Fatalf("Expected a fresh session kept, reaped %d", reaped)
	}

	// A negative idle limit puts the cutoff in the future, making every
	// session idle.
	if reaped := reg.Sweep(-time.Second); reaped != 1 {
		t.Fatalf("Expected the session reaped, got %d", reaped)
	}
	if reg.Lookup(entry.Store.ID()) != nil {
		t.Error("Expected the reaped session forgotten")
	}
}
