package legality

import "strings"

// StatusMoveClassifier reports whether a move name denotes a status-category move.
type StatusMoveClassifier func(moveName string) bool

// statusMoveKeywords is curated by hand and incomplete. Matches are substring based,
// so adding an entry can change verdicts for unrelated moves sharing the fragment.
var statusMoveKeywords = []string{
	"protect", "toxic", "will-o-wisp", "thunder-wave", "stealth-rock",
	"spikes", "reflect", "light-screen", "tailwind", "trick-room",
	"nasty-plot", "swords-dance", "calm-mind", "recover", "roost",
	"wish", "substitute", "encore", "taunt", "sleep-powder",
	"stun-spore", "confuse-ray", "yawn", "gravity", "trick",
	"switcheroo", "memento", "healing-wish", "baton-pass",
}

func KeywordStatusClassifier(moveName string) bool {
	name := strings.ToLower(moveName)
	for _, kw := range statusMoveKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
