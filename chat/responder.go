package chat

import (
	"math/rand/v2"
	"strings"
	"time"
)

// triggerWords make the assistant bot reply when any of them occurs as a
// substring of a message.
var triggerWords = []string{
	"marge", "bot", "help", "coffee", "sydney", "melbourne",
	"brisbane", "perth", "adelaide", "darwin", "canberra",
	"australia", "aussie", "mate", "recommendation",
}

var baseResponses = []string{
	"G'day! How can I help you out, mate? 🇦🇺",
	"Fair dinkum! What can I do for you? 🤖",
	"Too right! I'm here to help, cobber! 👍",
	"No worries! What do you need assistance with? ☕",
	"Beauty! Let me know what you're after! 🌟",
}

var coffeeResponses = []string{
	"For coffee in Sydney, try Single O in Surry Hills or The Grounds of Alexandria! ☕️",
	"Melbourne's got amazing coffee culture - try Patricia Coffee Brewers or Seven Seeds! ☕️",
	"Brisbane coffee? Check out Blackbird Espresso or Coffee Anthology! ☕️",
}

// A Responder decides whether the assistant bot replies to a message and
// synthesizes the reply text. The decision is stateless; the delay between
// trigger and reply is randomized and can be overridden for tests.
type Responder struct {
	// Delay returns how long to wait before injecting a reply. Nil means
	// a uniform delay in [1s, 3s).
	Delay func() time.Duration
}

// ShouldReply reports whether a message warrants a bot reply. The bot never
// replies to its own messages, which is what keeps replies from triggering
// further replies.
func (r *Responder) ShouldReply(content string, authorID, botID int64) bool {
	if authorID == botID {
		return false
	}
	lower := strings.ToLower(content)
	for _, w := range triggerWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// Reply picks a reply for the triggering content, uniformly at random from
// the base pool, extended with coffee recommendations when the content
// mentions coffee.
func (r *Responder) Reply(content string) string {
	pool := baseResponses
	if strings.Contains(strings.ToLower(content), "coffee") {
		pool = make([]string, 0, len(baseResponses)+len(coffeeResponses))
		pool = append(pool, baseResponses...)
		pool = append(pool, coffeeResponses...)
	}
	return pool[rand.IntN(len(pool))]
}

func (r *Responder) delay() time.Duration {
	if r.Delay != nil {
		return r.Delay()
	}
	return time.Second + rand.N(2*time.Second)
}
