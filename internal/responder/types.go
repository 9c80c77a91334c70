// Package responder implements the rule-based chat responder of the support backend.
// It normalizes an incoming message, resolves it to at most one support category
// and composes the localized reply. The package performs no I/O and holds no
// mutable state after construction, so a single Composer is safe for concurrent use.
package responder

import "fmt"

// Language is a supported reply language.
type Language string

const (
	LanguageAZ Language = "az" // Azerbaijani
	LanguageRU Language = "ru" // Russian
)

// Languages returns the closed set of supported languages.
func Languages() []Language {
	return []Language{LanguageAZ, LanguageRU}
}

// ParseLanguage converts a language tag into a Language.
// Returns an error if the tag is outside the supported set.
func ParseLanguage(tag string) (Language, error) {
	switch Language(tag) {
	case LanguageAZ, LanguageRU:
		return Language(tag), nil
	}
	return "", fmt.Errorf("unsupported language %q", tag)
}

// Category is a support intent label. Matchable categories can be produced by the
// matcher; synthetic ones only key templates for composed replies.
type Category string

const (
	CategoryAddCardToApp       Category = "add_card_to_app"
	CategoryUseWithoutCard     Category = "use_without_card"
	CategoryQRTicket           Category = "qr_ticket"
	CategoryMapRoutes          Category = "map_routes"
	CategoryMobileTopupGuide   Category = "mobile_topup_guide"
	CategoryTerminalTopupGuide Category = "terminal_topup_guide"
	CategoryBalanceNotAdded    Category = "balance_not_added"
	CategoryAppleWallet        Category = "apple_wallet"
	CategoryBusRouteInfo       Category = "bus_route_info"

	CategoryGeneralHelp   Category = "general_help"   // menu shown on greetings
	CategoryUnknown       Category = "unknown"        // fallback for unmatched messages
	CategoryContactPrompt Category = "contact_prompt" // escalation prompt
)

// MatchableCategories returns the categories the matcher may resolve a message to.
func MatchableCategories() []Category {
	return []Category{
		CategoryAddCardToApp,
		CategoryUseWithoutCard,
		CategoryQRTicket,
		CategoryMapRoutes,
		CategoryMobileTopupGuide,
		CategoryTerminalTopupGuide,
		CategoryBalanceNotAdded,
		CategoryAppleWallet,
		CategoryBusRouteInfo,
	}
}

// SyntheticCategories returns the template keys used only by composed replies.
func SyntheticCategories() []Category {
	return []Category{CategoryGeneralHelp, CategoryUnknown, CategoryContactPrompt}
}

// IsMatchable reports whether c belongs to the matchable set.
func (c Category) IsMatchable() bool {
	for _, m := range MatchableCategories() {
		if c == m {
			return true
		}
	}
	return false
}

// Tier is the matcher rule that produced a Match.
type Tier string

const (
	TierMenu     Tier = "menu"
	TierGreeting Tier = "greeting"
	TierScore    Tier = "score"
)

// Match is a successful matcher outcome.
type Match struct {
	Category Category // Resolved category (general_help for greetings)
	Tier     Tier     // Rule tier that fired
	Score    int      // Weighted score, only set for TierScore
}

// Source tells the caller where a reply came from.
type Source string

const (
	SourceRule   Source = "rule"
	SourceSystem Source = "system"
)

// Reply is the composed answer for one incoming message.
type Reply struct {
	Text        string   // Localized template text
	Source      Source   // rule for matched replies, system for fallbacks
	NeedsTicket bool     // true when a human-staffed ticket should be offered
	Category    Category // Template key that produced Text
}
