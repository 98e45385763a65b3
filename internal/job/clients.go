// Package job provides the pool-facing Job/Solution record types and
// the weak-reference client handle table: a job's origin is looked up
// by a (client_id, generation) pair rather than held by a strong
// pointer, so a deregistered client can be freed even while stale jobs
// referencing it are still in flight.
package job

import "sync"

// ClientID indexes a slot in a ClientTable.
type ClientID uint32

// Client is what the core knows of a pool-protocol client: a name for
// logging/diagnostics. It has no invalid-jobs counter, so nothing is
// counted against a client when one of its jobs fails IsValid.
type Client interface {
	String() string
}

// Handle is a weak reference into a ClientTable: resolving it after
// the client has been deregistered (or the slot reused) yields
// ok=false instead of a stale pointer.
type Handle struct {
	table      *ClientTable
	id         ClientID
	generation uint64
}

// Resolve looks the client back up, returning ok=false if it has since
// been deregistered or the slot was reused by a newer client.
func (h Handle) Resolve() (Client, bool) {
	if h.table == nil {
		return nil, false
	}
	return h.table.resolve(h.id, h.generation)
}

// String satisfies workengine.ClientHandle: it resolves the client for
// a human-readable label, falling back to a fixed marker once the
// handle has gone stale.
func (h Handle) String() string {
	if c, ok := h.Resolve(); ok {
		return c.String()
	}
	return "<stale client handle>"
}

type clientSlot struct {
	client     Client
	generation uint64
	occupied   bool
}

// ClientTable is a generation-counted slot table of registered
// clients, handing out Handles that become invalid the moment their
// slot is deregistered.
type ClientTable struct {
	mu    sync.RWMutex
	slots []clientSlot
	free  []ClientID
}

// NewClientTable builds an empty table.
func NewClientTable() *ClientTable {
	return &ClientTable{}
}

// Register adds a client, returning a live Handle to it.
func (t *ClientTable) Register(c Client) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	var id ClientID
	if n := len(t.free); n > 0 {
		id = t.free[n-1]
		t.free = t.free[:n-1]
		t.slots[id].generation++
		t.slots[id].client = c
		t.slots[id].occupied = true
	} else {
		id = ClientID(len(t.slots))
		t.slots = append(t.slots, clientSlot{client: c, occupied: true})
	}

	return Handle{table: t, id: id, generation: t.slots[id].generation}
}

// Deregister frees id's slot for reuse; existing Handles into it
// resolve to ok=false from this point on.
func (t *ClientTable) Deregister(id ClientID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if int(id) >= len(t.slots) || !t.slots[id].occupied {
		return
	}
	t.slots[id].occupied = false
	t.slots[id].client = nil
	t.free = append(t.free, id)
}

func (t *ClientTable) resolve(id ClientID, generation uint64) (Client, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if int(id) >= len(t.slots) {
		return nil, false
	}
	slot := t.slots[id]
	if !slot.occupied || slot.generation != generation {
		return nil, false
	}
	return slot.client, true
}
