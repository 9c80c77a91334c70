package responder

import "strings"

// Detector flags messages that should be handed over to a human agent.
type Detector struct {
	markers []string
}

// NewDetector creates a Detector over the escalation markers of lex.
func NewDetector(lex *Lexicon) *Detector {
	return &Detector{markers: lex.escalation}
}

// NeedsEscalation reports whether normalized contains any escalation marker.
func (d *Detector) NeedsEscalation(normalized string) bool {
	_, ok := d.Marker(normalized)
	return ok
}

// Marker returns the first escalation marker found in normalized.
func (d *Detector) Marker(normalized string) (string, bool) {
	for _, m := range d.markers {
		if strings.Contains(normalized, m) {
			return m, true
		}
	}
	return "", false
}
