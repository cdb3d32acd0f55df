package listing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/debounce"
	"github.com/aretw0/memento/pkg/listing"
)

type staticSource struct{ notes []core.Note }

func (s *staticSource) LoadAll(context.Context) []core.Note { return s.notes }

func sample() []core.Note {
	return []core.Note{
		{ID: "g", Title: "Grocery List", Content: "milk", Timestamp: 2},
		{ID: "w", Title: "Work", Content: "deadline", Timestamp: 1},
	}
}

func TestView_QueryIsDebounced(t *testing.T) {
	clock := debounce.NewManual()
	view := listing.NewView(nil, listing.WithScheduler(clock))
	view.SetNotes(sample())
	require.Equal(t, []string{"g", "w"}, ids(view.Items()))

	var changes int
	view.OnChange(func([]core.Note) { changes++ })

	view.SetQuery("w")
	clock.Advance(100 * time.Millisecond)
	view.SetQuery("wo")
	clock.Advance(100 * time.Millisecond)
	view.SetQuery("gro")

	clock.Advance(299 * time.Millisecond)
	assert.Equal(t, []string{"g", "w"}, ids(view.Items()), "no recompute before the quiet period")
	assert.Zero(t, changes)

	clock.Advance(time.Millisecond)
	assert.Equal(t, []string{"g"}, ids(view.Items()))
	assert.Equal(t, "gro", view.Query())
	assert.Equal(t, 1, changes, "only the last query of the burst applies")
}

func TestView_SetNotesIsImmediate(t *testing.T) {
	clock := debounce.NewManual()
	view := listing.NewView(nil, listing.WithScheduler(clock))

	view.SetQuery("work")
	clock.Advance(listing.QueryDelay)

	view.SetNotes(sample())
	assert.Equal(t, []string{"w"}, ids(view.Items()), "new collection is filtered with the current query")

	// A pending query does not hold back a collection update.
	view.SetQuery("milk")
	view.SetNotes(append(sample(), core.Note{ID: "n", Title: "Workout", Timestamp: 3}))
	assert.Equal(t, []string{"n", "w"}, ids(view.Items()))

	clock.Advance(listing.QueryDelay)
	assert.Equal(t, []string{"g"}, ids(view.Items()))
}

func TestView_RefreshAndFlush(t *testing.T) {
	src := &staticSource{notes: sample()}
	clock := debounce.NewManual()
	view := listing.NewView(src, listing.WithScheduler(clock))

	var last []core.Note
	view.OnChange(func(items []core.Note) { last = items })

	view.Refresh(context.Background())
	assert.Len(t, last, 2)

	view.SetQuery("deadline")
	assert.True(t, view.FlushQuery())
	assert.Equal(t, []string{"w"}, ids(last))

	view.SetQuery("milk")
	view.Close()
	clock.Advance(time.Second)
	assert.Equal(t, []string{"w"}, ids(view.Items()), "closed view drops the pending query")
}
