// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weave

// The connection graph binds endpoints into shared-data relationships.
// Every endpoint owns a port: a set of links, one per connected peer.
// A link records the peer's port and, on the client side, the shared
// value. Mirrored links are installed and removed through the Set, whose
// mutations are serialized internally; the two sides of a connection are
// not updated atomically with respect to each other, so a reader on a
// third endpoint can observe a half-connected pair. Both halves point at
// valid data, so this is harmless.

type portData[T any] struct {
	links *Set[*link[T]]
}

type link[T any] struct {
	peer *portData[T]
	data *T
}

func newPortData[T any]() *portData[T] {
	return &portData[T]{links: NewSet[*link[T]]()}
}

// findLink returns this port's link to peer, or nil.
// Progress: lock-free.
func (p *portData[T]) findLink(peer *portData[T]) *link[T] {
	var found *link[T]
	p.links.Each(func(l *link[T]) bool {
		if l.peer == peer {
			found = l
			return false
		}
		return true
	})
	return found
}

// teardown disconnects every peer: for each of our links, the mirror
// entry is removed from the peer's set, then our own set is cleared.
func (p *portData[T]) teardown() {
	p.links.Each(func(l *link[T]) bool {
		if mirror := l.peer.findLink(p); mirror != nil {
			l.peer.links.Remove(mirror)
		}
		return true
	})
	p.links.Clear()
}

// Client is a connection endpoint which uses shared values of type T but
// does not own any.
//
// When a Client is connected to a Server, it gains access to the
// Server's shared value. When a Client is connected to another Client, a
// value is created (or supplied) just for that connection.
//
// A single Client's methods are not safe against themselves, but any
// method of a Client may be called concurrently with any method of a
// different endpoint, including connected peers. The Client does not
// synchronize access to the shared values themselves.
type Client[T any] struct {
	p *portData[T]
}

// NewClient creates an unconnected client endpoint.
func NewClient[T any]() *Client[T] {
	return &Client[T]{p: newPortData[T]()}
}

// Each calls fn with each shared value visible through this client's
// connections until fn returns false.
//
// Progress: lock-free (Set iteration guarantees apply).
func (c *Client[T]) Each(fn func(*T) bool) {
	c.p.links.Each(func(l *link[T]) bool {
		return fn(l.data)
	})
}

// HasConnections reports whether the client is connected to any peer.
//
// Progress: wait-free, O(1).
func (c *Client[T]) HasConnections() bool {
	return !c.p.links.Empty()
}

// Close disconnects the client from every peer. Values shared only with
// this client become collectible. The client must not be used afterwards.
//
// Not safe against concurrent operations on this same endpoint.
func (c *Client[T]) Close() {
	c.p.teardown()
}

// Server is a connection endpoint which owns a shared value of type T.
//
// A Server shares its single value with every connected Client.
//
// A single Server's methods are not safe against themselves, but any
// method of a Server may be called concurrently with any method of a
// different endpoint. The Server does not synchronize access to the
// shared value itself.
type Server[T any] struct {
	p *portData[T]
	d *T
}

// NewServer creates a server endpoint owning a new zero value of T.
func NewServer[T any]() *Server[T] {
	return NewServerShared(new(T))
}

// NewServerShared creates a server endpoint owning the given value.
func NewServerShared[T any](data *T) *Server[T] {
	return &Server[T]{p: newPortData[T](), d: data}
}

// Data returns the server's shared value.
//
// Progress: wait-free, O(1).
func (s *Server[T]) Data() *T {
	return s.d
}

// HasConnections reports whether any client is connected.
//
// Progress: wait-free, O(1).
func (s *Server[T]) HasConnections() bool {
	return !s.p.links.Empty()
}

// Close disconnects every client from the server. The server must not be
// used afterwards.
//
// Not safe against concurrent operations on this same endpoint.
func (s *Server[T]) Close() {
	s.p.teardown()
}

// Connect gives client access to server's shared value by installing
// mirrored links. Connecting an already-connected pair has no effect.
//
// Progress: blocking.
func Connect[T any](client *Client[T], server *Server[T]) {
	if client.p.findLink(server.p) == nil {
		client.p.links.Insert(&link[T]{peer: server.p, data: server.d})
	}
	if server.p.findLink(client.p) == nil {
		server.p.links.Insert(&link[T]{peer: client.p})
	}
}

// Disconnect removes the links between client and server.
// No effect when they are not connected.
//
// Progress: blocking.
func Disconnect[T any](client *Client[T], server *Server[T]) {
	if l := client.p.findLink(server.p); l != nil {
		client.p.links.Remove(l)
	}
	if l := server.p.findLink(client.p); l != nil {
		server.p.links.Remove(l)
	}
}

// ConnectClients connects two clients through a new shared value of T.
// No effect when a and b are the same endpoint, or already connected.
//
// Progress: blocking.
func ConnectClients[T any](a, b *Client[T]) {
	ConnectClientsShared(a, b, new(T))
}

// ConnectClientsShared connects two clients through the given value.
// No effect when a and b are the same endpoint, or already connected.
//
// Progress: blocking.
func ConnectClientsShared[T any](a, b *Client[T], data *T) {
	if a == b {
		return
	}
	if a.p.findLink(b.p) == nil {
		a.p.links.Insert(&link[T]{peer: b.p, data: data})
	}
	if b.p.findLink(a.p) == nil {
		b.p.links.Insert(&link[T]{peer: a.p, data: data})
	}
}

// DisconnectClients removes the links between two clients.
// No effect when they are not connected.
//
// Progress: blocking.
func DisconnectClients[T any](a, b *Client[T]) {
	if l := a.p.findLink(b.p); l != nil {
		a.p.links.Remove(l)
	}
	if l := b.p.findLink(a.p); l != nil {
		b.p.links.Remove(l)
	}
}

// Connected reports whether both links of a client-server connection are
// present.
//
// Progress: lock-free.
func Connected[T any](client *Client[T], server *Server[T]) bool {
	return client.p.findLink(server.p) != nil && server.p.findLink(client.p) != nil
}

// ClientsConnected reports whether both links of a client-client
// connection are present.
//
// Progress: lock-free.
func ClientsConnected[T any](a, b *Client[T]) bool {
	return a.p.findLink(b.p) != nil && b.p.findLink(a.p) != nil
}
