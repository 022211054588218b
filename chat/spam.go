package chat

import (
	"regexp"
	"strings"
)

// spamKeywords are matched case-insensitively against message content. Each
// distinct keyword present scores one point regardless of how often it
// appears.
var spamKeywords = []string{
	"buy now", "save", "deal", "discount", "free", "click here",
	"limited time", "act now", "special offer", "bonus", "prize",
}

// dodgyLinkPattern flags links on TLDs that almost exclusively show up in
// spam around here.
var dodgyLinkPattern = regexp.MustCompile(`(?i)https?://\S*\.(ru|cn|tk|xyz|top|zip)\b`)

// spamThreshold is the score at or above which a message is flagged.
const spamThreshold = 2

// ScoreSpam scores message content for spam. The score is the number of
// distinct spam keywords found plus one point for a dodgy link. Flagged
// messages are annotated, never blocked.
func ScoreSpam(content string) (score int, spam bool) {
	lower := strings.ToLower(content)
	for _, kw := range spamKeywords {
		if strings.Contains(lower, kw) {
			score++
		}
	}
	if dodgyLinkPattern.MatchString(content) {
		score++
	}
	return score, score >= spamThreshold
}
