package idx_test

import (
	"testing"
	"time"

	"github.com/q360hq/q360/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewProducesValidSortableIDs(t *testing.T) {
	a := idx.New()
	b := idx.New()

	require.False(t, a.IsZero())
	require.Len(t, a.String(), 26)

	_, err := idx.Parse(a.String())
	require.NoError(t, err)

	// Monotonic entropy: later IDs sort after earlier ones.
	require.Less(t, a.String(), b.String())
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "   ", "not-a-ulid", "0000000000000000000000000!"} {
		_, err := idx.Parse(s)
		require.ErrorIs(t, err, idx.ErrInvalid)
	}
}

func TestIDTimeRoundTrip(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	id := idx.NewAt(at)
	require.WithinDuration(t, at, id.Time(), time.Millisecond)
}

func TestZeroID(t *testing.T) {
	require.True(t, idx.Zero.IsZero())
	require.True(t, idx.Zero.Time().IsZero())
}
