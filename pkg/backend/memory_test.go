package backend

import (
	"testing"
	"time"
)

func TestMemoryLookupByIdentity(t *testing.T) {
	mem := NewMemory()
	mem.AddDevice("key-1")

	rec, err := mem.LookupByIdentity("key-1")
	if err != nil {
		t.Fatalf("LookupByIdentity failed: %v", err)
	}
	if rec == nil {
		t.Fatal("expected record")
	}
	if rec.Identity() != "key-1" {
		t.Errorf("Identity = %q", rec.Identity())
	}

	rec, err = mem.LookupByIdentity("missing")
	if err != nil {
		t.Fatalf("LookupByIdentity failed: %v", err)
	}
	if rec != nil {
		t.Error("expected nil record for unknown identity")
	}
}

func TestMemoryRecordConfiguration(t *testing.T) {
	mem := NewMemory()
	rec := mem.AddDevice("key-1")

	if got := rec.Configuration(ConfDeviceID, "fallback"); got != "fallback" {
		t.Errorf("unset key = %q", got)
	}

	rec.SetConfiguration(ConfDeviceID, "device-1")
	if err := rec.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got := rec.Configuration(ConfDeviceID, "fallback"); got != "device-1" {
		t.Errorf("set key = %q", got)
	}
}

func TestGeneratedConfigReturnsCopy(t *testing.T) {
	mem := NewMemory()
	rec := mem.AddDevice("key-1")

	if rec.GeneratedConfig() != nil {
		t.Error("expected nil snapshot before generation")
	}

	rec.SetGeneratedConfig(&ConfigSnapshot{FormatVersion: "1.0", Version: 3})
	snap := rec.GeneratedConfig()
	if snap == nil || snap.Version != 3 {
		t.Fatalf("snapshot = %+v", snap)
	}

	// Mutating the returned snapshot must not leak into the record.
	snap.Version = 99
	if rec.GeneratedConfig().Version != 3 {
		t.Error("snapshot mutation leaked into record")
	}
}

func TestChangesSinceExclusiveBound(t *testing.T) {
	mem := NewMemory()
	base := time.Now()

	mem.RecordChangeAt(base, CategoryCommand, "at-bound")
	mem.RecordChangeAt(base.Add(time.Second), CategoryScenario, "after")
	mem.RecordChangeAt(base.Add(2*time.Second), CategoryObject, "later")

	events, err := mem.ChangesSince(base)
	if err != nil {
		t.Fatalf("ChangesSince failed: %v", err)
	}

	// The bound is exclusive: the event stamped exactly at the
	// checkpoint was already delivered.
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Payload != "after" || events[1].Payload != "later" {
		t.Errorf("events out of order: %v, %v", events[0].Payload, events[1].Payload)
	}
}

func TestChangesSinceOrdersOldestFirst(t *testing.T) {
	mem := NewMemory()
	base := time.Now()

	mem.RecordChangeAt(base.Add(3*time.Second), CategoryCommand, "third")
	mem.RecordChangeAt(base.Add(time.Second), CategoryCommand, "first")
	mem.RecordChangeAt(base.Add(2*time.Second), CategoryCommand, "second")

	events, err := mem.ChangesSince(base)
	if err != nil {
		t.Fatalf("ChangesSince failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i, want := range []string{"first", "second", "third"} {
		if events[i].Payload != want {
			t.Errorf("events[%d] = %v, want %v", i, events[i].Payload, want)
		}
	}
}

func TestActionQueueFIFOAndRemove(t *testing.T) {
	mem := NewMemory()
	mem.QueueAction("key-1", "a")
	mem.QueueAction("key-1", "b")
	mem.QueueAction("key-2", "other")

	pending, err := mem.Pending("key-1")
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(pending) != 2 || pending[0].Payload != "a" || pending[1].Payload != "b" {
		t.Fatalf("pending = %+v", pending)
	}

	if err := mem.Remove("key-1", pending[:1]); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	pending, _ = mem.Pending("key-1")
	if len(pending) != 1 || pending[0].Payload != "b" {
		t.Errorf("after remove: %+v", pending)
	}

	// Other identities are untouched.
	other, _ := mem.Pending("key-2")
	if len(other) != 1 {
		t.Errorf("key-2 queue = %+v", other)
	}
}

func TestUserDirectory(t *testing.T) {
	mem := NewMemory()

	u, err := mem.First()
	if err != nil {
		t.Fatalf("First failed: %v", err)
	}
	if u != nil {
		t.Error("expected nil user on empty directory")
	}

	mem.AddUser(&User{ID: "1", Hash: "h1"})
	mem.AddUser(&User{ID: "2", Hash: "h2"})

	u, err = mem.ByID("2")
	if err != nil {
		t.Fatalf("ByID failed: %v", err)
	}
	if u == nil || u.Hash != "h2" {
		t.Errorf("ByID(2) = %+v", u)
	}

	u, _ = mem.ByID("missing")
	if u != nil {
		t.Error("expected nil for unknown user id")
	}

	u, _ = mem.First()
	if u == nil || u.ID != "1" {
		t.Errorf("First = %+v", u)
	}
}
