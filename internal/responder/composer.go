package responder

// Composer turns a raw message into a Reply.
type Composer struct {
	lexicon  *Lexicon
	matcher  *Matcher
	detector *Detector
}

// NewComposer creates a Composer over lex.
func NewComposer(lex *Lexicon) *Composer {
	return &Composer{
		lexicon:  lex,
		matcher:  NewMatcher(lex),
		detector: NewDetector(lex),
	}
}

// NewDefaultComposer creates a Composer over the embedded lexicon.
// Returns an error if the embedded data fails validation.
func NewDefaultComposer() (*Composer, error) {
	lex, err := DefaultLexicon()
	if err != nil {
		return nil, err
	}
	return NewComposer(lex), nil
}

// Compose answers message in lang.
// A matched category yields its template with source rule. Otherwise the escalation
// markers are checked: a hit yields the contact prompt and asks for a ticket, a miss
// yields the unknown-message template. Escalation is never checked for matched messages.
func (c *Composer) Compose(message string, lang Language) Reply {
	normalized := Normalize(message)

	if m, ok := c.matcher.Match(normalized, lang); ok {
		return Reply{
			Text:     c.lexicon.Template(lang, m.Category),
			Source:   SourceRule,
			Category: m.Category,
		}
	}

	if c.detector.NeedsEscalation(normalized) {
		return Reply{
			Text:        c.lexicon.Template(lang, CategoryContactPrompt),
			Source:      SourceSystem,
			NeedsTicket: true,
			Category:    CategoryContactPrompt,
		}
	}

	return Reply{
		Text:     c.lexicon.Template(lang, CategoryUnknown),
		Source:   SourceSystem,
		Category: CategoryUnknown,
	}
}

// Menu returns the general help text in lang.
func (c *Composer) Menu(lang Language) string {
	return c.lexicon.Template(lang, CategoryGeneralHelp)
}
