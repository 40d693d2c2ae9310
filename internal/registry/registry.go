// Package registry keeps track of the clients that registered with the server.
//
// Registration is bookkeeping only: unregistered client ids are still served.
package registry

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

var (
	// ErrEmptyID is returned for a missing client id.
	ErrEmptyID = errors.New("client id is empty")

	// ErrInvalidID is returned for a client id that is not a UUID.
	ErrInvalidID = errors.New("client id is not a valid uuid")
)

// Client is one registered client.
type Client struct {
	ID            uuid.UUID `json:"id"`
	RegisteredAt  time.Time `json:"registered_at"`
	LastSeen      time.Time `json:"last_seen"`
	Registrations int       `json:"registrations"`
}

// Registry is a concurrent client table keyed by canonical uuid string.
type Registry struct {
	clients *xsync.MapOf[string, Client]
	now     func() time.Time
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		clients: xsync.NewMapOf[string, Client](),
		now:     time.Now,
	}
}

// ParseID validates a client id and returns it in canonical form.
func ParseID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, ErrEmptyID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}

// Register records raw as a client. Registering again keeps the original
// registration time and bumps the counter.
func (r *Registry) Register(raw string) (Client, error) {
	id, err := ParseID(raw)
	if err != nil {
		return Client{}, err
	}
	now := r.now()
	c, _ := r.clients.Compute(id.String(), func(old Client, loaded bool) (Client, bool) {
		if !loaded {
			return Client{ID: id, RegisteredAt: now, LastSeen: now, Registrations: 1}, false
		}
		old.LastSeen = now
		old.Registrations++
		return old, false
	})
	return c, nil
}

// Touch updates the last-seen time of a registered client. It reports whether
// the client was known; unknown or malformed ids are ignored.
func (r *Registry) Touch(raw string) bool {
	id, err := uuid.Parse(raw)
	if err != nil {
		return false
	}
	now := r.now()
	known := false
	r.clients.Compute(id.String(), func(old Client, loaded bool) (Client, bool) {
		if !loaded {
			return old, true
		}
		known = true
		old.LastSeen = now
		return old, false
	})
	return known
}

// Lookup returns the registered client for raw.
func (r *Registry) Lookup(raw string) (Client, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return Client{}, false
	}
	return r.clients.Load(id.String())
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	return r.clients.Size()
}

// List returns a snapshot of all registered clients in no particular order.
func (r *Registry) List() []Client {
	out := make([]Client, 0, r.clients.Size())
	r.clients.Range(func(_ string, c Client) bool {
		out = append(out, c)
		return true
	})
	return out
}
