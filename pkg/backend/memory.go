package backend

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-memory backend implementing DeviceDirectory,
// ChangeFeed, ActionQueue and UserDirectory. It backs the test suite
// and the demo binary; deployments embed the gateway against a real
// backend instead.
type Memory struct {
	mu      sync.Mutex
	devices map[string]*MemoryRecord
	users   []*User
	events  []ChangeEvent
	actions map[string][]PendingAction
	nextID  int
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		devices: make(map[string]*MemoryRecord),
		actions: make(map[string][]PendingAction),
	}
}

// MemoryRecord is the Memory implementation of DeviceRecord.
type MemoryRecord struct {
	mu       sync.Mutex
	identity string
	conf     map[string]string
	snapshot *ConfigSnapshot
}

// Identity returns the record's identity token.
func (r *MemoryRecord) Identity() string {
	return r.identity
}

// Configuration returns the value for key, or def when unset.
func (r *MemoryRecord) Configuration(key, def string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.conf[key]; ok && v != "" {
		return v
	}
	return def
}

// SetConfiguration stages a configuration value.
func (r *MemoryRecord) SetConfiguration(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conf[key] = value
}

// Save persists staged changes. In-memory records are always current.
func (r *MemoryRecord) Save() error {
	return nil
}

// GeneratedConfig returns the current config snapshot, or nil.
func (r *MemoryRecord) GeneratedConfig() *ConfigSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snapshot == nil {
		return nil
	}
	snap := *r.snapshot
	return &snap
}

// SetGeneratedConfig replaces the record's config snapshot.
func (r *MemoryRecord) SetGeneratedConfig(snap *ConfigSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot = snap
}

// AddDevice registers a device record for the identity token and
// returns it. An existing record for the token is replaced.
func (m *Memory) AddDevice(identity string) *MemoryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := &MemoryRecord{
		identity: identity,
		conf:     make(map[string]string),
	}
	m.devices[identity] = rec
	return rec
}

// RemoveDevice deletes the record for the identity token.
func (m *Memory) RemoveDevice(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.devices, identity)
}

// AddUser appends a system user.
func (m *Memory) AddUser(u *User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, u)
}

// RecordChange appends a change event stamped with the current time.
func (m *Memory) RecordChange(cat Category, payload any) {
	m.RecordChangeAt(time.Now(), cat, payload)
}

// RecordChangeAt appends a change event with an explicit timestamp.
func (m *Memory) RecordChangeAt(ts time.Time, cat Category, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ChangeEvent{Timestamp: ts, Category: cat, Payload: payload})
}

// QueueAction appends a pending action for the identity.
func (m *Memory) QueueAction(identity string, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.actions[identity] = append(m.actions[identity], PendingAction{
		ID:      "action-" + itoa(m.nextID),
		Payload: payload,
	})
}

// LookupByIdentity implements DeviceDirectory.
func (m *Memory) LookupByIdentity(token string) (DeviceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.devices[token]
	if !ok {
		return nil, nil
	}
	return rec, nil
}

// ChangesSince implements ChangeFeed with an exclusive lower bound:
// only events with Timestamp after t are returned, oldest first.
func (m *Memory) ChangesSince(t time.Time) ([]ChangeEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ChangeEvent
	for _, ev := range m.events {
		if ev.Timestamp.After(t) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Pending implements ActionQueue.
func (m *Memory) Pending(identity string) ([]PendingAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	queue := m.actions[identity]
	out := make([]PendingAction, len(queue))
	copy(out, queue)
	return out, nil
}

// Remove implements ActionQueue.
func (m *Memory) Remove(identity string, actions []PendingAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	remove := make(map[string]bool, len(actions))
	for _, a := range actions {
		remove[a.ID] = true
	}
	var kept []PendingAction
	for _, a := range m.actions[identity] {
		if !remove[a.ID] {
			kept = append(kept, a)
		}
	}
	m.actions[identity] = kept
	return nil
}

// ByID implements UserDirectory.
func (m *Memory) ByID(id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// First implements UserDirectory.
func (m *Memory) First() (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.users) == 0 {
		return nil, nil
	}
	return m.users[0], nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Compile-time interface satisfaction checks.
var (
	_ DeviceDirectory = (*Memory)(nil)
	_ ChangeFeed      = (*Memory)(nil)
	_ ActionQueue     = (*Memory)(nil)
	_ UserDirectory   = (*Memory)(nil)
	_ DeviceRecord    = (*MemoryRecord)(nil)
)

// NopGateway is a CommandGateway that accepts every operation and
// returns empty replies. The demo binary uses it; tests use recording
// fakes instead.
type NopGateway struct{}

func (NopGateway) ExecCommand(context.Context, string, map[string]any) error       { return nil }
func (NopGateway) ExecCommands(context.Context, string, map[string]any) error      { return nil }
func (NopGateway) ExecScenario(context.Context, string, map[string]any) error      { return nil }
func (NopGateway) StopScenario(context.Context, string, map[string]any) error      { return nil }
func (NopGateway) SetScenarioActive(context.Context, string, map[string]any) error { return nil }
func (NopGateway) PluginConfig(context.Context, string) (any, error)               { return map[string]any{}, nil }
func (NopGateway) Batteries(context.Context) (any, error)                          { return map[string]any{}, nil }
func (NopGateway) History(context.Context, string, map[string]any) (any, error)    { return map[string]any{}, nil }
func (NopGateway) Files(context.Context, string, map[string]any) (any, error)      { return map[string]any{}, nil }
func (NopGateway) RemoveFile(context.Context, string, map[string]any) (any, error) { return map[string]any{}, nil }
func (NopGateway) ReportBattery(context.Context, string, map[string]any) error     { return nil }
func (NopGateway) UpdateLayout(context.Context, string, string, map[string]any) error {
	return nil
}
func (NopGateway) AppConfig(context.Context, string, map[string]any) (any, error) {
	return map[string]any{}, nil
}
func (NopGateway) SetAppConfig(context.Context, string, map[string]any) error  { return nil }
func (NopGateway) AddGeofence(context.Context, string, map[string]any) error   { return nil }
func (NopGateway) RemoveGeofence(context.Context, string, map[string]any) error { return nil }
func (NopGateway) Geofences(context.Context, string) (any, error)              { return nil, nil }
func (NopGateway) NotificationConfig(context.Context, string) (any, error) {
	return map[string]any{}, nil
}

// Compile-time interface satisfaction check.
var _ CommandGateway = NopGateway{}
