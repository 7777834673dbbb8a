package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "data", "test.db")
	store, err := NewStore(filename)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, filename
}

func TestStoreUsers(t *testing.T) {
	store, filename := testStore(t)

	has, err := store.HasUsers()
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, store.AddUser("mina", "s3cret", 1))
	has, err = store.HasUsers()
	require.NoError(t, err)
	assert.True(t, has)

	assert.True(t, store.TestUser("mina", "s3cret"))
	assert.False(t, store.TestUser("mina", "wrong"))
	assert.False(t, store.TestUser("nobody", "s3cret"))

	// a second store has a cold cache and must verify against the hash
	other, err := NewStore(filename)
	require.NoError(t, err)
	defer other.Close()
	assert.True(t, other.TestUser("mina", "s3cret"))
	assert.False(t, other.TestUser("mina", "S3cret"))

	require.NoError(t, other.AddUser("mina", "changed", 1))
	assert.True(t, other.TestUser("mina", "changed"))
	assert.False(t, other.TestUser("mina", "s3cret"))
}

func TestStoreSearches(t *testing.T) {
	store, _ := testStore(t)

	entries := []SearchEntry{
		{Id: "a", Query: "설렘", Count: 3, Status: 200, Results: 3, Created: 100},
		{Id: "b", Query: "고요함", Count: 3, Status: 403, Error: "unexpected HTTP status: 403 Forbidden", Created: 200},
		{Id: "c", Query: "외로움", Count: 3, Status: 200, Results: 1, Created: 300},
	}
	for _, e := range entries {
		require.NoError(t, store.InsertSearch(e))
	}

	recent, err := store.RecentSearches(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, entries[2], recent[0])
	assert.Equal(t, entries[1], recent[1])

	n, err := store.DeleteSearchesBefore(250)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	recent, err = store.RecentSearches(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "c", recent[0].Id)
}

func TestStorePasswordChangeFromOtherProcess(t *testing.T) {
	server, filename := testStore(t)
	require.NoError(t, server.AddUser("mina", "old", 1))
	assert.True(t, server.TestUser("mina", "old"))

	cli, err := NewStore(filename)
	require.NoError(t, err)
	defer cli.Close()
	require.NoError(t, cli.AddUser("mina", "new", 1))

	assert.False(t, server.TestUser("mina", "old"))
	assert.True(t, server.TestUser("mina", "new"))
	assert.True(t, server.TestUser("mina", "new"))
}
