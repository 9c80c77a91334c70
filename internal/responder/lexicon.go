package responder

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/lexicon.yaml
var defaultLexicon []byte

// CategoryRules are the trigger words and phrases of one category.
type CategoryRules struct {
	Name    Category `yaml:"name"`    // Category label
	Words   []string `yaml:"words"`   // Each found word scores 1
	Phrases []string `yaml:"phrases"` // Each found phrase scores 3
}

// Config is the raw responder configuration as it is stored on disk.
type Config struct {
	Categories []CategoryRules                  `yaml:"categories"` // Ordered; first declared wins ties
	Menu       map[int]Category                 `yaml:"menu"`       // Numeric shortcut table
	Greetings  []string                         `yaml:"greetings"`  // Greeting words for all languages
	Escalation []string                         `yaml:"escalation"` // Distress and complaint markers
	Templates  map[Language]map[Category]string `yaml:"templates"`  // Reply texts
}

// LoadConfig decodes a responder configuration from YAML.
// Unknown fields are rejected. The result is not validated; see NewLexicon.
func LoadConfig(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode responder config: %w", err)
	}
	return &cfg, nil
}

// DefaultConfig returns the embedded CityCard configuration.
func DefaultConfig() (*Config, error) {
	return LoadConfig(bytes.NewReader(defaultLexicon))
}

// LoadLexiconFile reads, validates and builds the lexicon stored at path.
func LoadLexiconFile(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}
	defer f.Close()

	cfg, err := LoadConfig(f)
	if err != nil {
		return nil, err
	}
	return NewLexicon(cfg)
}

// entry is a category with its normalized triggers.
type entry struct {
	category Category
	words    []string
	phrases  []string
}

// Lexicon is the validated, normalized and immutable form of a Config.
type Lexicon struct {
	entries    []entry
	menu       map[int]Category
	greetings  []string
	escalation []string
	templates  map[Language]map[Category]string
}

// NewLexicon validates cfg and builds a Lexicon from it.
// Every trigger is passed through Normalize so that folding is symmetric with messages.
// Returns an error describing the first integrity fault found:
// unknown or duplicate categories, categories without triggers, menu entries pointing
// to unknown categories, or a missing template for any language and category pair.
func NewLexicon(cfg *Config) (*Lexicon, error) {
	if cfg == nil {
		return nil, errors.New("responder config is nil")
	}
	if len(cfg.Categories) == 0 {
		return nil, errors.New("responder config has no categories")
	}
	if len(cfg.Greetings) == 0 {
		return nil, errors.New("responder config has no greetings")
	}

	lex := &Lexicon{
		menu:       make(map[int]Category, len(cfg.Menu)),
		greetings:  normalizeAll(cfg.Greetings),
		escalation: normalizeAll(cfg.Escalation),
		templates:  make(map[Language]map[Category]string, len(cfg.Templates)),
	}

	seen := make(map[Category]bool, len(cfg.Categories))
	for _, rules := range cfg.Categories {
		if !rules.Name.IsMatchable() {
			return nil, fmt.Errorf("unknown category %q", rules.Name)
		}
		if seen[rules.Name] {
			return nil, fmt.Errorf("category %q declared twice", rules.Name)
		}
		seen[rules.Name] = true

		e := entry{
			category: rules.Name,
			words:    normalizeAll(rules.Words),
			phrases:  normalizeAll(rules.Phrases),
		}
		if len(e.words) == 0 && len(e.phrases) == 0 {
			return nil, fmt.Errorf("category %q has no words or phrases", rules.Name)
		}
		lex.entries = append(lex.entries, e)
	}

	for n, c := range cfg.Menu {
		if n < 0 {
			return nil, fmt.Errorf("menu number %d is negative", n)
		}
		if !seen[c] {
			return nil, fmt.Errorf("menu number %d points to undeclared category %q", n, c)
		}
		lex.menu[n] = c
	}

	for lang := range cfg.Templates {
		if _, err := ParseLanguage(string(lang)); err != nil {
			return nil, fmt.Errorf("templates: %w", err)
		}
	}
	required := append(lex.Categories(), SyntheticCategories()...)
	for _, lang := range Languages() {
		set, ok := cfg.Templates[lang]
		if !ok {
			return nil, fmt.Errorf("no templates for language %q", lang)
		}
		texts := make(map[Category]string, len(required))
		for _, c := range required {
			text := set[c]
			if text == "" {
				return nil, fmt.Errorf("missing %q template for category %q", lang, c)
			}
			texts[c] = text
		}
		for c, text := range set {
			if !c.IsMatchable() && !isSynthetic(c) {
				return nil, fmt.Errorf("%q template for unknown category %q", lang, c)
			}
			texts[c] = text
		}
		lex.templates[lang] = texts
	}

	return lex, nil
}

// DefaultLexicon builds the Lexicon from the embedded configuration.
func DefaultLexicon() (*Lexicon, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	return NewLexicon(cfg)
}

// Template returns the reply text for lang and c.
// NewLexicon guarantees presence for every supported pair.
func (l *Lexicon) Template(lang Language, c Category) string {
	return l.templates[lang][c]
}

// Categories returns the matchable categories in declaration order.
func (l *Lexicon) Categories() []Category {
	out := make([]Category, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.category)
	}
	return out
}

func isSynthetic(c Category) bool {
	for _, s := range SyntheticCategories() {
		if c == s {
			return true
		}
	}
	return false
}

// normalizeAll normalizes every item and drops the ones that become empty.
func normalizeAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if n := Normalize(item); n != "" {
			out = append(out, n)
		}
	}
	return out
}
