package chat

import (
	"math/rand/v2"
	"sort"
	"sync"
	"time"
)

const (
	// DefaultChannelID is the channel a message is posted to when the
	// request leaves the channel unset.
	DefaultChannelID = "general"

	// DefaultMessageLimit caps Messages listings when no limit is given.
	DefaultMessageLimit = 50
)

// reaction is one user's emoji on one message. Reactions are never exposed
// individually; only the per-message emoji counts leave the store.
type reaction struct {
	UserID int64
	Emoji  string
}

// Store owns all chat state in memory and allocates identifiers. It is the
// single source of truth; ids are monotonically assigned and never reused
// within the process lifetime. All methods are safe for concurrent use and
// each appears atomic to observers.
type Store struct {
	mu            sync.Mutex
	users         map[int64]User
	messages      map[int64]Message
	reactions     map[int64][]reaction
	nextUserID    int64
	nextMessageID int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:         make(map[int64]User),
		messages:      make(map[int64]Message),
		reactions:     make(map[int64][]reaction),
		nextUserID:    1,
		nextMessageID: 1,
	}
}

// CreateUser registers a user. The username must be unique.
func (s *Store) CreateUser(username string, role Role, status Status) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createUserLocked(username, role, status)
}

func (s *Store) createUserLocked(username string, role Role, status Status) (User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return User{}, ErrUsernameTaken
		}
	}
	u := User{
		ID:        s.nextUserID,
		Username:  username,
		Role:      role,
		Status:    status,
		CreatedAt: time.Now(),
	}
	s.nextUserID++
	s.users[u.ID] = u
	return u, nil
}

// UserByID returns the user with the given id.
func (s *Store) UserByID(id int64) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// UserByUsername returns the user with the given username.
func (s *Store) UserByUsername(username string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, true
		}
	}
	return User{}, false
}

// BotUser returns the assistant bot user, if one is registered.
func (s *Store) BotUser() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Role == RoleBot {
			return u, true
		}
	}
	return User{}, false
}

// UpdateUserStatus sets a user's presence status.
func (s *Store) UpdateUserStatus(id int64, status Status) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrUnknownUser
	}
	u.Status = status
	s.users[id] = u
	return u, nil
}

// AllUsers returns every user ordered by role (founder, bot, member), then
// presence status (online, away, offline), then username. The sidebar
// grouping in clients depends on this ordering.
func (s *Store) AllUsers() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Role.rank() != b.Role.rank() {
			return a.Role.rank() < b.Role.rank()
		}
		if a.Status.rank() != b.Status.rank() {
			return a.Status.rank() < b.Status.rank()
		}
		return a.Username < b.Username
	})
	return out
}

// CreateMessage stores a new message authored by authorID in channelID,
// allocating the next message id. The spam verdict is recorded before the
// method returns, so the message is fully scored by the time it is
// considered posted. An empty channelID falls back to DefaultChannelID.
func (s *Store) CreateMessage(content string, authorID int64, channelID string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[authorID]; !ok {
		return Message{}, ErrUnknownAuthor
	}
	if channelID == "" {
		channelID = DefaultChannelID
	}
	msg := Message{
		ID:        s.nextMessageID,
		Content:   content,
		AuthorID:  authorID,
		ChannelID: channelID,
		CreatedAt: time.Now(),
	}
	s.nextMessageID++
	msg.SpamScore, msg.IsSpam = ScoreSpam(content)
	s.messages[msg.ID] = msg
	return msg, nil
}

// MessageByID returns the message with the given id.
func (s *Store) MessageByID(id int64) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	return m, ok
}

// Messages returns the most recent limit messages of a channel, oldest
// first, each resolved to a MessageView. An unknown channel yields an empty
// slice. A non-positive limit means DefaultMessageLimit.
func (s *Store) Messages(channelID string, limit int) []MessageView {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var msgs []Message
	for _, m := range s.messages {
		if m.ChannelID == channelID {
			msgs = append(msgs, m)
		}
	}
	sort.Slice(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return msgs[i].ID < msgs[j].ID
	})
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	out := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, s.viewLocked(m))
	}
	return out
}

// View resolves a message to its client-facing representation.
func (s *Store) View(msg Message) MessageView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(msg)
}

func (s *Store) viewLocked(msg Message) MessageView {
	return MessageView{
		Message:        msg,
		Author:         s.users[msg.AuthorID],
		ReactionCounts: s.reactionCountsLocked(msg.ID),
	}
}

// AddReaction records a (message, user, emoji) reaction. Adding a reaction
// that already exists is a no-op, not an error.
func (s *Store) AddReaction(messageID, userID int64, emoji string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[messageID]; !ok {
		return ErrUnknownMessage
	}
	if _, ok := s.users[userID]; !ok {
		return ErrUnknownUser
	}
	for _, r := range s.reactions[messageID] {
		if r.UserID == userID && r.Emoji == emoji {
			return nil
		}
	}
	s.reactions[messageID] = append(s.reactions[messageID], reaction{UserID: userID, Emoji: emoji})
	return nil
}

// RemoveReaction deletes a (message, user, emoji) reaction. Removing one
// that does not exist is a no-op.
func (s *Store) RemoveReaction(messageID, userID int64, emoji string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := s.reactions[messageID]
	for i, r := range rs {
		if r.UserID == userID && r.Emoji == emoji {
			s.reactions[messageID] = append(rs[:i], rs[i+1:]...)
			return
		}
	}
}

// ReactionCounts returns the emoji counts for a message. The map is always
// non-nil, empty when the message has no reactions.
func (s *Store) ReactionCounts(messageID int64) map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reactionCountsLocked(messageID)
}

func (s *Store) reactionCountsLocked(messageID int64) map[string]int {
	counts := make(map[string]int)
	for _, r := range s.reactions[messageID] {
		counts[r.Emoji]++
	}
	return counts
}

// Seed populates the store with the default community: the founder, the
// assistant bot, a handful of members and two welcome messages in the
// general channel.
func (s *Store) Seed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	founder, _ := s.createUserLocked("Mozzy", RoleFounder, StatusOnline)
	bot, _ := s.createUserLocked("Marge", RoleBot, StatusOnline)

	members := []string{
		"SydneyMate", "MelbourneMate", "BrisbaneBuddy", "PerthPal",
		"AdelaideAce", "DarwinDude", "CanberraCrew", "TassieTiger",
	}
	for _, username := range members {
		status := StatusOnline
		if rand.Float64() <= 0.3 {
			status = StatusAway
		}
		s.createUserLocked(username, RoleMember, status)
	}

	s.seedMessageLocked(bot.ID,
		"G'day everyone! I'm Marge, your friendly AI assistant. Just mention my name if you need help! 🤖",
		5*time.Minute)
	s.seedMessageLocked(founder.ID,
		"Thanks Marge! Welcome to the community everyone. Let's keep it friendly and fair dinkum! 🇦🇺",
		4*time.Minute)
}

func (s *Store) seedMessageLocked(authorID int64, content string, age time.Duration) {
	msg := Message{
		ID:        s.nextMessageID,
		Content:   content,
		AuthorID:  authorID,
		ChannelID: DefaultChannelID,
		CreatedAt: time.Now().Add(-age),
	}
	s.nextMessageID++
	s.messages[msg.ID] = msg
}
