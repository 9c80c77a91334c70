package repository

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatsStateLanguage(t *testing.T) {
	m := NewChatsState(filepath.Join(t.TempDir(), "chats.json"))

	_, ok := m.Language(7)
	assert.False(t, ok)

	m.SetLanguage(7, "ru")
	lang, ok := m.Language(7)
	assert.True(t, ok)
	assert.Equal(t, "ru", lang)

	m.SetLanguage(7, "az")
	lang, _ = m.Language(7)
	assert.Equal(t, "az", lang)
}

func TestChatsStateSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats.json")
	m := NewChatsState(path)
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	m.SetLanguage(1, "az")
	m.SetLanguage(-100200, "ru")
	require.NoError(t, m.SaveBatchToFile())

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded := NewChatsState(path)
	require.NoError(t, loaded.ReadFileToMemory())
	require.Len(t, loaded.BatchBuffer, 2)
	lang, ok := loaded.Language(-100200)
	assert.True(t, ok)
	assert.Equal(t, "ru", lang)
	assert.True(t, fixed.Equal(loaded.BatchBuffer[1].UpdatedAt))
}

func TestChatsStateReadEdgeCases(t *testing.T) {
	dir := t.TempDir()

	missing := NewChatsState(filepath.Join(dir, "missing.json"))
	assert.NoError(t, missing.ReadFileToMemory())
	assert.Empty(t, missing.BatchBuffer)

	emptyPath := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(emptyPath, nil, 0o600))
	empty := NewChatsState(emptyPath)
	assert.NoError(t, empty.ReadFileToMemory())

	nullPath := filepath.Join(dir, "null.json")
	require.NoError(t, os.WriteFile(nullPath, []byte("null"), 0o600))
	null := NewChatsState(nullPath)
	require.NoError(t, null.ReadFileToMemory())
	null.SetLanguage(1, "az")

	brokenPath := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(brokenPath, []byte("{"), 0o600))
	assert.Error(t, NewChatsState(brokenPath).ReadFileToMemory())
}

func TestChatsStateConcurrentAccess(t *testing.T) {
	m := NewChatsState(filepath.Join(t.TempDir(), "chats.json"))
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			m.SetLanguage(id, "ru")
			m.Language(id)
		}(int64(i))
	}
	wg.Wait()
	assert.Len(t, m.BatchBuffer, 50)
	assert.NoError(t, m.SaveBatchToFile())
}
