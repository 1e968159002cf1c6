// Package world defines the player-index allocation boundary the login
// engine registers a newly authenticated connection against, and ships a
// minimal in-memory implementation. The full tick/simulation loop this
// interface feeds (original_source/game/src/world/world.rs's World::tick)
// is out of scope; only registration/unregistration and the channel pair
// a game channel needs to exchange messages with it are provided.
package world

import (
	"errors"
	"sync"

	"github.com/ironspire/coreserver/accounts"
	"github.com/ironspire/coreserver/protocol"
)

// ErrWorldFull is returned by Register when every player index up to the
// registry's capacity is in use.
var ErrWorldFull = errors.New("world: player capacity reached")

// inboxBuffer/outboundBuffer size the per-player channel pair, matching
// original_source/game/src/world/world.rs's register_player
// (mpsc::channel::<GameMessage>(128) for both directions).
const (
	inboxBuffer    = 128
	outboundBuffer = 128
)

// Registration is what a successful Register call hands back to the
// caller: the assigned player index, the send end of the inbound queue
// (the game channel pushes decoded client messages here), and the receive
// end of the outbound queue (the game channel drains this to the socket).
type Registration struct {
	Index    uint16
	Inbox    chan<- protocol.GameMessage
	Outbound <-chan protocol.GameMessage
}

// PlayerRegistry allocates small integer player indices and tracks which
// are in use, grounded on
// original_source/game/src/world/world.rs's World::register_player and
// original_source/game/src/service/login.rs's world.on_player_login call.
type PlayerRegistry interface {
	Register(account accounts.Account, displayMode uint8) (Registration, error)
	OnPlayerLogin(index uint16)
	Unregister(index uint16)
}

type playerEntry struct {
	account  accounts.Account
	inboxRx  chan protocol.GameMessage
	outbound chan protocol.GameMessage
}

// InMemoryRegistry is a capacity-bounded PlayerRegistry with freed indices
// recycled on Unregister.
type InMemoryRegistry struct {
	mu       sync.Mutex
	capacity uint16
	players  map[uint16]*playerEntry
	free     []uint16
	next     uint16
}

// NewInMemoryRegistry returns a registry that allows at most capacity
// simultaneous players, with player indices starting at 1 (index 0 is
// reserved, matching the client's convention that 0 means "no player").
func NewInMemoryRegistry(capacity uint16) *InMemoryRegistry {
	return &InMemoryRegistry{
		capacity: capacity,
		players:  make(map[uint16]*playerEntry, capacity),
		next:     1,
	}
}

// Register implements PlayerRegistry.
func (r *InMemoryRegistry) Register(account accounts.Account, _ uint8) (Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, err := r.allocateLocked()
	if err != nil {
		return Registration{}, err
	}

	entry := &playerEntry{
		account:  account,
		inboxRx:  make(chan protocol.GameMessage, inboxBuffer),
		outbound: make(chan protocol.GameMessage, outboundBuffer),
	}
	r.players[index] = entry

	return Registration{
		Index:    index,
		Inbox:    entry.inboxRx,
		Outbound: entry.outbound,
	}, nil
}

func (r *InMemoryRegistry) allocateLocked() (uint16, error) {
	if n := len(r.free); n > 0 {
		index := r.free[n-1]
		r.free = r.free[:n-1]
		return index, nil
	}
	if uint16(len(r.players)) >= r.capacity {
		return 0, ErrWorldFull
	}
	index := r.next
	r.next++
	return index, nil
}

// OnPlayerLogin implements PlayerRegistry. The in-memory stub has no
// scene/tick machinery to notify, so this is a no-op hook kept only to
// satisfy the interface's contract with callers.
func (r *InMemoryRegistry) OnPlayerLogin(uint16) {}

// Unregister implements PlayerRegistry, recycling index for reuse.
func (r *InMemoryRegistry) Unregister(index uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[index]; !ok {
		return
	}
	delete(r.players, index)
	r.free = append(r.free, index)
}

// Count returns the number of currently registered players.
func (r *InMemoryRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}
