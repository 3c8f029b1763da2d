package orders

import "strings"

// Keyword shortcuts bypass the extraction engine entirely.
var (
	greetingKeywords = []string{"hola", "buenas"}

	statusKeywords = []string{"estado", "seguimiento", "tracking"}

	escalationPhrases = []string{
		"hablar con alguien",
		"hablar con un humano",
		"humano",
		"asesor",
	}
)

// matchesGreeting reports whether the whole message is a bare greeting.
func matchesGreeting(text string) bool {
	return equalsAny(text, greetingKeywords)
}

// matchesStatusKeyword reports whether the whole message is a status
// shortcut word.
func matchesStatusKeyword(text string) bool {
	return equalsAny(text, statusKeywords)
}

// matchesEscalation reports whether the message contains an escalation
// phrase anywhere.
func matchesEscalation(text string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range escalationPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}

	return false
}

func equalsAny(text string, keywords []string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for _, keyword := range keywords {
		if lowered == keyword {
			return true
		}
	}

	return false
}
