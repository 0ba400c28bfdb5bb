package sirc

import (
	"sort"
	"sync"
)

// Channel is a snapshot of the membership state of one channel.
type Channel struct {
	Name string

	// users is ordered by arrival and may contain duplicates,
	// since the server is known to repeat names.
	users []string
	ops   map[string]struct{}
}

// Users returns the nicknames in the channel in the order they were seen.
func (ch Channel) Users() []string {
	return append([]string(nil), ch.users...)
}

// Ops returns the channel operators, sorted.
func (ch Channel) Ops() []string {
	ops := make([]string, 0, len(ch.ops))
	for nick := range ch.ops {
		ops = append(ops, nick)
	}
	sort.Strings(ops)
	return ops
}

// IsOp reports whether nick is recorded as a channel operator.
func (ch Channel) IsOp(nick string) bool {
	_, ok := ch.ops[nick]
	return ok
}

// channelDirectory maps channel names to membership state.
// It is written only from the read loop (and JoinChannel) but may be read
// concurrently by API callers.
type channelDirectory struct {
	mu       sync.RWMutex
	channels map[string]*Channel
}

func newChannelDirectory() *channelDirectory {
	return &channelDirectory{channels: make(map[string]*Channel)}
}

// ensure creates empty state for name unless it already exists.
func (d *channelDirectory) ensure(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.channels[name]; !ok {
		d.channels[name] = &Channel{Name: name, ops: make(map[string]struct{})}
	}
}

// reset replaces any state for name with an empty channel.
func (d *channelDirectory) reset(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels[name] = &Channel{Name: name, ops: make(map[string]struct{})}
}

// update calls f with the state for name while holding the write lock.
// It returns ErrUnknownChannel if name was never created.
func (d *channelDirectory) update(name string, f func(ch *Channel)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch, ok := d.channels[name]
	if !ok {
		return ErrUnknownChannel
	}
	f(ch)
	return nil
}

func (d *channelDirectory) get(name string) (Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ch, ok := d.channels[name]
	if !ok {
		return Channel{}, false
	}
	snap := Channel{
		Name:  ch.Name,
		users: append([]string(nil), ch.users...),
		ops:   make(map[string]struct{}, len(ch.ops)),
	}
	for nick := range ch.ops {
		snap.ops[nick] = struct{}{}
	}
	return snap, true
}

func (d *channelDirectory) names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.channels))
	for name := range d.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (ch *Channel) addUser(nick string) {
	ch.users = append(ch.users, nick)
}

// removeUser removes the first occurrence of nick. Missing nicks are ignored.
func (ch *Channel) removeUser(nick string) {
	for i, u := range ch.users {
		if u == nick {
			ch.users = append(ch.users[:i], ch.users[i+1:]...)
			return
		}
	}
}

func (ch *Channel) addOp(nick string) {
	ch.ops[nick] = struct{}{}
}

func (ch *Channel) removeOp(nick string) {
	delete(ch.ops, nick)
}
