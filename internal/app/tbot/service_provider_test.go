package tbot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DenisKhanov/CitySupport/internal/responder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceProviderComposer(t *testing.T) {
	sp := NewServiceProvider(filepath.Join(t.TempDir(), "chats.json"), "", "")

	c1, err := sp.Composer()
	require.NoError(t, err)
	c2, err := sp.Composer()
	require.NoError(t, err)
	assert.Same(t, c1, c2)
	assert.Contains(t, c1.Menu(responder.LanguageAZ), "CityCard")
}

func TestServiceProviderBadLexicon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("greetings: ["), 0o600))

	sp := NewServiceProvider(filepath.Join(t.TempDir(), "chats.json"), path, "")
	_, err := sp.Composer()
	assert.Error(t, err)

	_, err = sp.BotService(nil)
	assert.Error(t, err)
}

func TestServiceProviderChatsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"42":{"chatID":42,"language":"ru"}}`), 0o600))

	sp := NewServiceProvider(path, "", "https://citycard.az/support")
	state := sp.ChatsState()
	lang, ok := state.Language(42)
	require.True(t, ok)
	assert.Equal(t, "ru", lang)
	assert.Same(t, state, sp.ChatsState())

	bot, err := sp.BotService(nil)
	require.NoError(t, err)
	assert.Equal(t, "https://citycard.az/support", bot.TicketFormURL)
}
