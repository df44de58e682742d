package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeLocalWinsOnCollision(t *testing.T) {
	remoteTime := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	localTime := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)

	remote := Cart{
		{ProductID: "1", Title: "Monitor", Quantity: 2, UpdatedAt: remoteTime},
	}
	local := Cart{
		{ProductID: "1", Title: "Monitor", Quantity: 5, UpdatedAt: localTime},
		{ProductID: "2", Title: "Keyboard", Quantity: 1, UpdatedAt: localTime},
	}

	got := Merge(remote, local)

	require.Len(t, got, 2)

	assert.Equal(t, "1", got[0].ProductID)
	assert.Equal(t, 5, got[0].Quantity, "offline local edit must win over stale remote quantity")
	assert.Equal(t, localTime, got[0].UpdatedAt)
	assert.Equal(t, OriginLocalOverride, got[0].Origin)

	assert.Equal(t, "2", got[1].ProductID)
	assert.Equal(t, 1, got[1].Quantity)
	assert.Equal(t, OriginLocal, got[1].Origin)
}

func TestMergeKeepsRemoteThenLocalOrder(t *testing.T) {
	remote := Cart{
		{ProductID: "a", Quantity: 1},
		{ProductID: "b", Quantity: 1},
	}
	local := Cart{
		{ProductID: "c", Quantity: 1},
		{ProductID: "a", Quantity: 3},
		{ProductID: "d", Quantity: 1},
	}

	got := Merge(remote, local)

	var order []string
	for _, it := range got {
		order = append(order, it.ProductID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, order)
}

func TestMergeEmptySides(t *testing.T) {
	local := Cart{{ProductID: "1", Quantity: 2}}

	gotRemoteOnly := Merge(local, nil)
	require.Len(t, gotRemoteOnly, 1)
	assert.Equal(t, OriginAPI, gotRemoteOnly[0].Origin)

	gotLocalOnly := Merge(nil, local)
	require.Len(t, gotLocalOnly, 1)
	assert.Equal(t, OriginLocal, gotLocalOnly[0].Origin)

	assert.Empty(t, Merge(nil, nil))
}

func TestMergeNeverDuplicatesProducts(t *testing.T) {
	remote := Cart{
		{ProductID: "1", Quantity: 1},
		{ProductID: "1", Quantity: 2},
	}
	local := Cart{
		{ProductID: "1", Quantity: 9},
	}

	got := Merge(remote, local)
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].Quantity)
}

func TestDedupeAccumulatesQuantities(t *testing.T) {
	early := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	c := Cart{
		{ProductID: "1", Quantity: 2, UpdatedAt: early},
		{ProductID: "2", Quantity: 1, UpdatedAt: early},
		{ProductID: "1", Quantity: 3, UpdatedAt: late},
	}

	got := Dedupe(c)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ProductID)
	assert.Equal(t, 5, got[0].Quantity)
	assert.Equal(t, late, got[0].UpdatedAt)
	assert.Equal(t, "2", got[1].ProductID)
}
