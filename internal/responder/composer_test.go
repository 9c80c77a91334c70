package responder

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultComposer(t *testing.T) (*Composer, *Lexicon) {
	t.Helper()
	lex, err := DefaultLexicon()
	require.NoError(t, err)
	return NewComposer(lex), lex
}

func TestCompose(t *testing.T) {
	c, lex := defaultComposer(t)

	tests := []struct {
		name        string
		in          string
		lang        Language
		category    Category
		source      Source
		needsTicket bool
	}{
		{name: "menu number", in: "1", lang: LanguageAZ, category: CategoryAddCardToApp, source: SourceRule},
		{name: "menu number ru", in: " 8 ", lang: LanguageRU, category: CategoryAppleWallet, source: SourceRule},
		{name: "keywords", in: "kartı necə əlavə edim", lang: LanguageAZ, category: CategoryAddCardToApp, source: SourceRule},
		{name: "greeting", in: "Salam", lang: LanguageAZ, category: CategoryGeneralHelp, source: SourceRule},
		{name: "greeting ru", in: "привет", lang: LanguageRU, category: CategoryGeneralHelp, source: SourceRule},
		{name: "greeting other language", in: "привет", lang: LanguageAZ, category: CategoryGeneralHelp, source: SourceRule},
		{name: "escalation", in: "bu işləmir, çox pisdir", lang: LanguageAZ, category: CategoryContactPrompt, source: SourceSystem, needsTicket: true},
		{name: "escalation ru", in: "Ничего не работает!", lang: LanguageRU, category: CategoryContactPrompt, source: SourceSystem, needsTicket: true},
		{name: "unknown", in: "asdkjhasd", lang: LanguageAZ, category: CategoryUnknown, source: SourceSystem},
		{name: "empty", in: "", lang: LanguageRU, category: CategoryUnknown, source: SourceSystem},
		{name: "menu miss", in: "42", lang: LanguageAZ, category: CategoryUnknown, source: SourceSystem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Compose(tt.in, tt.lang)
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.source, got.Source)
			assert.Equal(t, tt.needsTicket, got.NeedsTicket)
			assert.Equal(t, lex.Template(tt.lang, tt.category), got.Text)
			assert.NotEmpty(t, got.Text)
		})
	}
}

// A matched message never escalates even when it carries a marker.
func TestComposeMatchBeatsEscalation(t *testing.T) {
	c, _ := defaultComposer(t)

	got := c.Compose("kart elave problem", LanguageAZ)
	assert.Equal(t, CategoryAddCardToApp, got.Category)
	assert.Equal(t, SourceRule, got.Source)
	assert.False(t, got.NeedsTicket)

	got = c.Compose("salam, problem var", LanguageAZ)
	assert.Equal(t, CategoryGeneralHelp, got.Category)
	assert.False(t, got.NeedsTicket)
}

func TestComposeLanguageSelectsTemplate(t *testing.T) {
	c, lex := defaultComposer(t)

	az := c.Compose("2", LanguageAZ)
	ru := c.Compose("2", LanguageRU)
	assert.Equal(t, az.Category, ru.Category)
	assert.NotEqual(t, az.Text, ru.Text)
	assert.Equal(t, lex.Template(LanguageRU, CategoryQRTicket), ru.Text)
}

func TestComposeDeterministic(t *testing.T) {
	c, _ := defaultComposer(t)
	first := c.Compose("qr bilet apple wallet", LanguageAZ)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.Equal(t, first, c.Compose("qr bilet apple wallet", LanguageAZ))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, CategoryQRTicket, first.Category)
}

func TestMenu(t *testing.T) {
	c, err := NewDefaultComposer()
	require.NoError(t, err)
	assert.Contains(t, c.Menu(LanguageAZ), "CityCard")
	assert.Contains(t, c.Menu(LanguageRU), "CityCard")
	assert.Equal(t, c.Compose("salam", LanguageRU).Text, c.Menu(LanguageRU))
}
