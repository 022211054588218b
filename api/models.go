package api

import (
	"net/http"

	"github.com/matechat/matechat/chat"
)

// A Chat coordinates message ingestion, reactions and user management, and
// broadcasts the resulting events to channel subscribers.
type Chat interface {
	Users() []chat.User
	CreateUser(username string, role chat.Role) (chat.User, error)
	SetUserStatus(userID int64, status chat.Status) (chat.User, error)
	Messages(channelID string, limit int) []chat.MessageView
	PostMessage(content string, authorID int64, channelID string) (chat.MessageView, error)
	AddReaction(messageID, userID int64, emoji string) error
	RemoveReaction(messageID, userID int64, emoji string)
}

// A Realtime accepts websocket connections for the realtime event stream.
type Realtime interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}
