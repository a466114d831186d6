package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailforward/internal/domain/mail"
)

func newTestJournal(t *testing.T) *DeliveryJournal {
	t.Helper()
	j, err := NewDeliveryJournal(filepath.Join(t.TempDir(), "deliveries.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndCount(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)
	base := time.Date(2025, 6, 24, 10, 0, 0, 0, time.UTC)

	require.NoError(t, j.Record(ctx, mail.Delivery{ThreadID: 2, Kind: "text", Summary: "first", SentAt: base}))
	require.NoError(t, j.Record(ctx, mail.Delivery{ThreadID: 2, Kind: "pdf", Summary: "act.pdf", SentAt: base.Add(5 * time.Second)}))
	require.NoError(t, j.Record(ctx, mail.Delivery{ThreadID: 4, Kind: "text", Summary: "other", SentAt: base.Add(time.Second)}))

	n, err := j.Count(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = j.Count(ctx, 99)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)
	base := time.Date(2025, 6, 24, 10, 0, 0, 0, time.UTC)

	for i, summary := range []string{"a", "b", "c"} {
		require.NoError(t, j.Record(ctx, mail.Delivery{
			ThreadID: 1,
			Kind:     "text",
			Summary:  summary,
			SentAt:   base.Add(time.Duration(i) * time.Second),
		}))
	}

	got, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Summary)
	assert.Equal(t, "b", got[1].Summary)
	assert.True(t, got[0].SentAt.Equal(base.Add(2*time.Second)))
}
