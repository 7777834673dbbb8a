package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchLogRecords(t *testing.T) {
	store, _ := testStore(t)
	photos := []PhotoResult{{URL: "u1", Description: "d", Photographer: "A"}}
	fake := &fakeSearcher{res: SearchResult{Photos: photos}}
	sl := NewSearchLog(fake, store)
	sl.now = func() time.Time { return time.Unix(1000, 0) }

	res := sl.Random(context.Background(), "설렘", 3)
	assert.Equal(t, photos, res.Photos)
	assert.NoError(t, res.Err)

	fake.res = failed(&RemoteRequestError{StatusCode: 403})
	res = sl.Random(context.Background(), "고요함", 5)
	assert.Empty(t, res.Photos)
	assert.Error(t, res.Err)

	entries, err := sl.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "고요함", entries[0].Query)
	assert.Equal(t, 5, entries[0].Count)
	assert.Equal(t, 403, entries[0].Status)
	assert.Equal(t, 0, entries[0].Results)
	assert.Contains(t, entries[0].Error, "403")

	assert.Equal(t, "설렘", entries[1].Query)
	assert.Equal(t, 200, entries[1].Status)
	assert.Equal(t, 1, entries[1].Results)
	assert.Empty(t, entries[1].Error)
	assert.Equal(t, int64(1000), entries[1].Created)
	assert.NotEqual(t, entries[0].Id, entries[1].Id)
}

func TestSearchLogStoreFailureIsHidden(t *testing.T) {
	store, _ := testStore(t)
	require.NoError(t, store.Close())
	photos := []PhotoResult{{URL: "u1", Description: "d", Photographer: "A"}}
	sl := NewSearchLog(&fakeSearcher{res: SearchResult{Photos: photos}}, store)

	res := sl.Random(context.Background(), "설렘", 3)
	assert.NoError(t, res.Err)
	assert.Equal(t, photos, res.Photos)
}

func TestSearchLogPurge(t *testing.T) {
	store, _ := testStore(t)
	sl := NewSearchLog(&fakeSearcher{res: SearchResult{Photos: []PhotoResult{}}}, store)

	sl.now = func() time.Time { return time.Unix(0, 0).Add(time.Hour) }
	sl.Random(context.Background(), "old", 3)
	sl.now = func() time.Time { return time.Unix(0, 0).Add(48 * time.Hour) }
	sl.Random(context.Background(), "new", 3)

	sl.purge(24 * time.Hour)

	entries, err := sl.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].Query)
}

func TestSearchLogPurgeExpiredStops(t *testing.T) {
	store, _ := testStore(t)
	sl := NewSearchLog(&fakeSearcher{}, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sl.purgeExpired(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("purgeExpired did not stop")
	}
}
