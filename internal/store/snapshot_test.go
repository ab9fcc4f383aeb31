package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotLifecycle(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	blob, err := st.Snapshot(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, blob)

	require.NoError(t, st.SaveSnapshot(ctx, "r1", []byte{0x89, 0x50, 0x4e, 0x47}))
	blob, err = st.Snapshot(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, blob)

	// Saving again overwrites: it is a compaction point, not a history.
	require.NoError(t, st.SaveSnapshot(ctx, "r1", []byte("v2")))
	blob, err = st.Snapshot(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), blob)

	require.NoError(t, st.DeleteSnapshot(ctx, "r1"))
	blob, err = st.Snapshot(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, blob)
}
