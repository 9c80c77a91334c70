package responder

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	wordWeight   = 1 // score of a trigger word found in the message
	phraseWeight = 3 // score of a trigger phrase found in the message
	minScore     = 2 // lowest best score accepted as a match
)

var menuNumber = regexp.MustCompile(`^[0-9]+$`)

// Matcher resolves a normalized message to at most one category.
type Matcher struct {
	lexicon *Lexicon
}

// NewMatcher creates a Matcher over lex.
func NewMatcher(lex *Lexicon) *Matcher {
	return &Matcher{lexicon: lex}
}

// Match applies the rule tiers in order and returns the first one that fires:
//  1. menu: the whole message is a number; it is looked up in the menu table and
//     the search stops here even if the number is not on the menu;
//  2. greeting: the message contains any greeting of any language;
//  3. score: the best scoring category, if its score is at least minScore.
//
// Matching does not depend on the language.
// Returns false when no tier produces a category.
func (m *Matcher) Match(normalized string, _ Language) (Match, bool) {
	if menuNumber.MatchString(normalized) {
		n, err := strconv.Atoi(normalized)
		if err != nil {
			return Match{}, false
		}
		c, ok := m.lexicon.menu[n]
		if !ok {
			return Match{}, false
		}
		return Match{Category: c, Tier: TierMenu}, true
	}

	for _, g := range m.lexicon.greetings {
		if strings.Contains(normalized, g) {
			return Match{Category: CategoryGeneralHelp, Tier: TierGreeting}, true
		}
	}

	var (
		best      Category
		bestScore int
	)
	for _, e := range m.lexicon.entries {
		score := e.score(normalized)
		if score > bestScore {
			best, bestScore = e.category, score
		}
	}
	if bestScore < minScore {
		return Match{}, false
	}
	return Match{Category: best, Tier: TierScore, Score: bestScore}, true
}

// score sums word and phrase hits of e in normalized.
func (e entry) score(normalized string) int {
	score := 0
	for _, w := range e.words {
		if strings.Contains(normalized, w) {
			score += wordWeight
		}
	}
	for _, p := range e.phrases {
		if strings.Contains(normalized, p) {
			score += phraseWeight
		}
	}
	return score
}
