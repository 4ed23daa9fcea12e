package quivc

import (
	"sync"

	"github.com/quivc/quivc/internal/protocol"
)

// The ConnTable is the demultiplexer's connection ID table. It holds
// non-owning handles: connections insert and remove their own entries
// around their lifetime.
type ConnTable struct {
	mx    sync.Mutex
	conns map[string]*Conn
}

// NewConnTable creates an empty connection table.
func NewConnTable() *ConnTable {
	return &ConnTable{conns: make(map[string]*Conn)}
}

// Insert binds a connection ID to a connection.
func (t *ConnTable) Insert(id protocol.ConnectionID, c *Conn) {
	t.mx.Lock()
	defer t.mx.Unlock()
	t.conns[string(id)] = c
}

// Erase removes a binding. The entry is only removed if it still maps to
// c.
func (t *ConnTable) Erase(id protocol.ConnectionID, c *Conn) {
	t.mx.Lock()
	defer t.mx.Unlock()
	if t.conns[string(id)] == c {
		delete(t.conns, string(id))
	}
}

// Lookup returns the connection a connection ID is bound to, or nil.
func (t *ConnTable) Lookup(id protocol.ConnectionID) *Conn {
	t.mx.Lock()
	defer t.mx.Unlock()
	return t.conns[string(id)]
}

// Len returns the number of bindings.
func (t *ConnTable) Len() int {
	t.mx.Lock()
	defer t.mx.Unlock()
	return len(t.conns)
}
