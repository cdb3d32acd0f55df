package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/memento/pkg/adapters/lifecycle"
	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/router"
)

func TestSource_ForwardsAndCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 1)
	src := lifecycle.NewSource(in)
	require.NoError(t, src.Start(ctx))

	in <- core.Event{Type: core.EventModify, Key: core.NotesKey}
	select {
	case e := <-src.Events():
		assert.Contains(t, e.String(), core.NotesKey)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	close(in)
	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("output was not closed")
	}
}

func TestNotificationSource_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	in := make(chan router.Event)
	src := lifecycle.NewNotificationSource(in)
	require.NoError(t, src.Start(ctx))

	go func() { in <- router.Event{Type: router.EventDelivered, Payload: router.Payload{NoteID: "n1"}} }()
	select {
	case e := <-src.Events():
		assert.Equal(t, "delivered(n1)", e.String())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	cancel()
	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("output was not closed after cancel")
	}
}
