package sirc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelDirectory(t *testing.T) {
	d := newChannelDirectory()

	err := d.update("#foo", func(ch *Channel) { ch.addUser("alice") })
	assert.ErrorIs(t, err, ErrUnknownChannel)
	_, ok := d.get("#foo")
	assert.False(t, ok, "update must not create state")

	d.ensure("#foo")
	require.NoError(t, d.update("#foo", func(ch *Channel) {
		ch.addUser("alice")
		ch.addUser("bob")
		ch.addUser("alice")
		ch.addOp("bob")
	}))

	ch, ok := d.get("#foo")
	require.True(t, ok)
	assert.Equal(t, "#foo", ch.Name)
	assert.Equal(t, []string{"alice", "bob", "alice"}, ch.Users(), "duplicates are kept in order")
	assert.Equal(t, []string{"bob"}, ch.Ops())
	assert.True(t, ch.IsOp("bob"))

	// ensure keeps existing state, reset replaces it
	d.ensure("#foo")
	ch, _ = d.get("#foo")
	assert.Len(t, ch.Users(), 3)
	d.reset("#foo")
	ch, _ = d.get("#foo")
	assert.Empty(t, ch.Users())
	assert.Empty(t, ch.Ops())

	d.ensure("#bar")
	assert.Equal(t, []string{"#bar", "#foo"}, d.names())
}

func TestChannel_Snapshot(t *testing.T) {
	d := newChannelDirectory()
	d.ensure("#foo")
	require.NoError(t, d.update("#foo", func(ch *Channel) { ch.addUser("alice") }))

	snap, _ := d.get("#foo")
	users := snap.Users()
	users[0] = "mallory"

	require.NoError(t, d.update("#foo", func(ch *Channel) {
		ch.addUser("bob")
		ch.addOp("bob")
	}))
	assert.Equal(t, []string{"alice"}, snap.Users(), "snapshots don't see later changes")
	assert.False(t, snap.IsOp("bob"))
}

func TestChannel_Remove(t *testing.T) {
	ch := &Channel{ops: make(map[string]struct{})}
	ch.addUser("alice")
	ch.addUser("bob")
	ch.addUser("alice")

	ch.removeUser("alice")
	assert.Equal(t, []string{"bob", "alice"}, ch.users, "only the first occurrence is removed")
	ch.removeUser("carol")
	assert.Equal(t, []string{"bob", "alice"}, ch.users)

	ch.removeOp("carol")
	assert.Empty(t, ch.Ops())
}

func TestChannelDirectory_Concurrent(t *testing.T) {
	d := newChannelDirectory()
	d.ensure("#foo")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = d.update("#foo", func(ch *Channel) { ch.addUser("u") })
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				d.get("#foo")
				d.names()
			}
		}()
	}
	wg.Wait()

	ch, _ := d.get("#foo")
	assert.Len(t, ch.Users(), 400)
}
