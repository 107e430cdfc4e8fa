package gateway

import "sync"

// Registry tracks live connections in two populations: those still
// inside the authentication grace window and those with a session. It
// also maintains cheap presence flags so the tick driver can skip
// whole phases when a population is empty.
type Registry struct {
	mu sync.Mutex

	unauthenticated map[*Conn]struct{}
	authenticated   map[*Conn]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		unauthenticated: make(map[*Conn]struct{}),
		authenticated:   make(map[*Conn]struct{}),
	}
}

// AddUnauthenticated registers a freshly opened connection.
func (r *Registry) AddUnauthenticated(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unauthenticated[c] = struct{}{}
}

// AddAuthenticated moves a connection into the authenticated
// population. The connection is removed from the unauthenticated set
// if present.
func (r *Registry) AddAuthenticated(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.unauthenticated, c)
	r.authenticated[c] = struct{}{}
}

// Remove drops a connection from whichever population holds it.
func (r *Registry) Remove(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.unauthenticated, c)
	delete(r.authenticated, c)
}

// HasUnauthenticated reports whether any connection is awaiting
// authentication.
func (r *Registry) HasUnauthenticated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.unauthenticated) > 0
}

// HasAuthenticated reports whether any authenticated connection exists.
func (r *Registry) HasAuthenticated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.authenticated) > 0
}

// Counts returns the sizes of both populations.
func (r *Registry) Counts() (unauthenticated, authenticated int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.unauthenticated), len(r.authenticated)
}

// Unauthenticated returns a snapshot of the unauthenticated set.
func (r *Registry) Unauthenticated() []*Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns := make([]*Conn, 0, len(r.unauthenticated))
	for c := range r.unauthenticated {
		conns = append(conns, c)
	}
	return conns
}

// Authenticated returns a snapshot of the authenticated set.
func (r *Registry) Authenticated() []*Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns := make([]*Conn, 0, len(r.authenticated))
	for c := range r.authenticated {
		conns = append(conns, c)
	}
	return conns
}

// AuthenticatedByIdentity returns authenticated connections bound to
// the given identity, excluding the passed connection.
func (r *Registry) AuthenticatedByIdentity(identity string, except *Conn) []*Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	var conns []*Conn
	for c := range r.authenticated {
		if c == except {
			continue
		}
		if c.Identity() == identity {
			conns = append(conns, c)
		}
	}
	return conns
}
