package chat

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/matechat/matechat/metrics"
)

// Event types broadcast by the service.
const (
	EventNewMessage     = "new_message"
	EventReactionUpdate = "reaction_update"
)

// A Broadcaster delivers an event to every subscriber of a channel.
// Delivery is best-effort and must never fail the caller.
type Broadcaster interface {
	Broadcast(channelID, eventType string, payload any)
}

// Service coordinates message ingestion: it drives the store, the spam
// scorer and the auto-responder for each inbound request and broadcasts the
// resulting state changes. A single mutex serializes every mutation together
// with its broadcast, so events reach a channel's subscribers in the same
// order their mutations were committed.
type Service struct {
	Store     *Store
	Responder *Responder
	Hub       Broadcaster
	Logger    *slog.Logger

	mu sync.Mutex
}

// PostMessage creates a message, scores it for spam, possibly schedules a
// delayed bot reply, and broadcasts the new message to the channel. The
// returned view carries the resolved author and zero reaction counts. The
// bot reply, if any, is injected by a detached timer and is never awaited.
func (s *Service) PostMessage(content string, authorID int64, channelID string) (MessageView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, err := s.Store.CreateMessage(content, authorID, channelID)
	if err != nil {
		return MessageView{}, fmt.Errorf("create message: %w", err)
	}
	metrics.MessagesCreated.Inc()
	if msg.IsSpam {
		metrics.SpamFlagged.Inc()
		s.Logger.Info("Message flagged as spam", "messageID", msg.ID, "score", msg.SpamScore)
	}

	s.scheduleReply(msg)

	view := s.Store.View(msg)
	s.Hub.Broadcast(msg.ChannelID, EventNewMessage, view)
	return view, nil
}

// scheduleReply consults the responder and, on a trigger, arms a one-shot
// timer that injects a bot reply through the normal PostMessage path. Only
// the channel id and the triggering content cross into the timer; both are
// immutable.
func (s *Service) scheduleReply(msg Message) {
	bot, ok := s.Store.BotUser()
	if !ok || !s.Responder.ShouldReply(msg.Content, msg.AuthorID, bot.ID) {
		return
	}
	content, channelID := msg.Content, msg.ChannelID
	delay := s.Responder.delay()
	s.Logger.Info("Bot reply scheduled", "channelID", channelID, "delay", delay)
	time.AfterFunc(delay, func() {
		reply := s.Responder.Reply(content)
		if _, err := s.PostMessage(reply, bot.ID, channelID); err != nil {
			// Nobody is waiting on this write; log and move on.
			s.Logger.Error("Could not inject bot reply", "error", err.Error(), "channelID", channelID)
			return
		}
		metrics.BotReplies.Inc()
	})
}

// AddReaction records a reaction and broadcasts the message's updated
// reaction counts. Duplicate reactions are acknowledged without effect.
func (s *Service) AddReaction(messageID, userID int64, emoji string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Store.AddReaction(messageID, userID, emoji); err != nil {
		return fmt.Errorf("add reaction: %w", err)
	}
	s.broadcastCountsLocked(messageID)
	return nil
}

// RemoveReaction removes a reaction, if present, and broadcasts the updated
// counts. Removing a reaction that does not exist is not an error.
func (s *Service) RemoveReaction(messageID, userID int64, emoji string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Store.RemoveReaction(messageID, userID, emoji)
	s.broadcastCountsLocked(messageID)
}

// broadcastCountsLocked recomputes a message's reaction counts and emits a
// reaction_update to the message's channel. It is called with the service
// mutex held so counts are never broadcast out of mutation order.
func (s *Service) broadcastCountsLocked(messageID int64) {
	msg, ok := s.Store.MessageByID(messageID)
	if !ok {
		return
	}
	s.Hub.Broadcast(msg.ChannelID, EventReactionUpdate, ReactionUpdate{
		MessageID:      messageID,
		ReactionCounts: s.Store.ReactionCounts(messageID),
	})
}

// Messages lists a channel's recent messages, oldest first.
func (s *Service) Messages(channelID string, limit int) []MessageView {
	return s.Store.Messages(channelID, limit)
}

// Users lists all users in sidebar order.
func (s *Service) Users() []User {
	return s.Store.AllUsers()
}

// CreateUser registers a new member.
func (s *Service) CreateUser(username string, role Role) (User, error) {
	u, err := s.Store.CreateUser(username, role, StatusOnline)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// SetUserStatus updates a user's presence status.
func (s *Service) SetUserStatus(userID int64, status Status) (User, error) {
	u, err := s.Store.UpdateUserStatus(userID, status)
	if err != nil {
		return User{}, fmt.Errorf("update status: %w", err)
	}
	return u, nil
}
