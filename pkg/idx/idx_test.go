package idx_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wastedesk/admingate/pkg/idx"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("ProducesValidULIDs", func(t *testing.T) {
		t.Parallel()

		id := idx.New()
		require.False(t, id.IsZero())
		require.Len(t, id.String(), 26)

		parsed, err := idx.Parse(id.String())
		require.NoError(t, err)
		require.Equal(t, id, parsed)
	})

	t.Run("MonotonicWithinSameMillisecond", func(t *testing.T) {
		t.Parallel()

		prev := idx.New()
		for range 1000 {
			next := idx.New()
			require.Greater(t, next.String(), prev.String())
			prev = next
		}
	})
}

func TestNewAt(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	id := idx.NewAt(at)
	require.Equal(t, at.UnixMilli(), id.Time().UnixMilli())
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("RejectsMalformedInput", func(t *testing.T) {
		t.Parallel()

		for _, s := range []string{"", "   ", "not-a-ulid", "0000"} {
			_, err := idx.Parse(s)
			require.ErrorIs(t, err, idx.ErrInvalid, "input %q", s)
		}
	})

	t.Run("TrimsWhitespace", func(t *testing.T) {
		t.Parallel()

		id := idx.New()
		parsed, err := idx.Parse("  " + id.String() + "  ")
		require.NoError(t, err)
		require.Equal(t, id, parsed)
	})
}

func TestZero(t *testing.T) {
	t.Parallel()

	require.True(t, idx.Zero.IsZero())
	require.True(t, idx.Zero.Time().IsZero())
	require.False(t, idx.New().IsZero())
}
