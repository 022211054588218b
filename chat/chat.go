// Package chat holds the domain model and the in-memory state of the chat
// service: users, messages and reactions, plus the spam scorer and the
// auto-responder that react to newly posted messages.
package chat

import "time"

// A Role classifies a user within the community.
type Role string

const (
	RoleFounder Role = "founder"
	RoleBot     Role = "bot"
	RoleMember  Role = "member"
)

// rank returns the sort position of the role in user listings. Founders come
// first, then bots, then regular members.
func (r Role) rank() int {
	switch r {
	case RoleFounder:
		return 0
	case RoleBot:
		return 1
	default:
		return 2
	}
}

// A Status is a user's presence state.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusOffline Status = "offline"
)

func (s Status) rank() int {
	switch s {
	case StatusOnline:
		return 0
	case StatusAway:
		return 1
	default:
		return 2
	}
}

// A User represents a registered member of the chat.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// A Message represents a posted message as stored. Content and AuthorID are
// immutable after creation; the spam fields are written once by the scorer
// immediately after creation.
type Message struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"authorId"`
	ChannelID string    `json:"channelId"`
	IsSpam    bool      `json:"isSpam"`
	SpamScore int       `json:"spamScore"`
	CreatedAt time.Time `json:"createdAt"`
}

// A MessageView is a Message joined with its resolved author and the current
// emoji reaction counts. It is the only message representation returned to or
// broadcast to clients.
type MessageView struct {
	Message
	Author         User           `json:"author"`
	ReactionCounts map[string]int `json:"reactionCounts"`
}

// A ReactionUpdate is broadcast to a channel whenever the reaction counts of
// one of its messages change.
type ReactionUpdate struct {
	MessageID      int64          `json:"messageId"`
	ReactionCounts map[string]int `json:"reactionCounts"`
}
