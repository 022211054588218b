// Package api provides the HTTP surface of the chat service: the REST
// endpoints consumed by the UI layer and the websocket upgrade route for the
// realtime event stream.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/matechat/matechat/api/validator"
	"github.com/matechat/matechat/chat"
)

// API provides the REST endpoints for the application.
type API struct {
	Logger   *slog.Logger
	Chat     Chat
	Realtime Realtime
	Val      *validator.Validator

	once sync.Once
	mux  *http.ServeMux
}

func (a *API) setupRoutes() {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /users", a.listUsers)
	mux.HandleFunc("POST /users", a.createUser)
	mux.HandleFunc("PATCH /users/{userID}/status", a.updateUserStatus)
	mux.HandleFunc("GET /messages/{channelID}", a.listMessages)
	mux.HandleFunc("POST /messages", a.createMessage)
	mux.HandleFunc("POST /reactions", a.createReaction)
	mux.HandleFunc("DELETE /reactions", a.deleteReaction)
	mux.HandleFunc("GET /ws", a.Realtime.ServeWS)

	a.mux = mux
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.once.Do(a.setupRoutes)
	a.Logger.Info("Request received", "method", r.Method, "path", r.URL.Path)
	a.mux.ServeHTTP(w, r)
}

func (a *API) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.Logger.Error("Could not encode JSON body", "error", err.Error())
	}
}

func (a *API) respondError(w http.ResponseWriter, status int, err error, msg string) {
	type response struct {
		Error string `json:"error"`
	}
	a.Logger.Error("Error", "error", err.Error())
	a.respond(w, status, response{Error: msg})
}

func (a *API) validateBody(w http.ResponseWriter, s interface{}) bool {
	errs := a.Val.ValidateStruct(s)
	type response struct {
		Errors []validator.ValidationError `json:"errors"`
	}

	if len(errs) > 0 {
		a.respond(w, http.StatusBadRequest, &response{
			Errors: errs,
		})
		return false
	}
	return true
}

func (a *API) listUsers(w http.ResponseWriter, _ *http.Request) {
	type response struct {
		Users []chat.User `json:"users"`
	}
	a.respond(w, http.StatusOK, response{Users: a.Chat.Users()})
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Username string `json:"username" validate:"required"`
		Role     string `json:"role" validate:"omitempty,oneof=founder bot member"`
	}

	var body request
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.respondError(w, http.StatusBadRequest, err, "Could not decode request body")
		return
	}
	if !a.validateBody(w, &body) {
		return
	}

	role := chat.Role(body.Role)
	if role == "" {
		role = chat.RoleMember
	}

	user, err := a.Chat.CreateUser(body.Username, role)
	if err != nil {
		if errors.Is(err, chat.ErrUsernameTaken) {
			a.respondError(w, http.StatusBadRequest, err, "Username already taken")
			return
		}
		a.respondError(w, http.StatusInternalServerError, err, "Could not create user")
		return
	}

	a.respond(w, http.StatusCreated, user)
}

func (a *API) updateUserStatus(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Status string `json:"status" validate:"required,oneof=online away offline"`
	}

	userID, err := strconv.ParseInt(r.PathValue("userID"), 10, 64)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, err, "Invalid user id")
		return
	}

	var body request
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.respondError(w, http.StatusBadRequest, err, "Could not decode request body")
		return
	}
	if !a.validateBody(w, &body) {
		return
	}

	user, err := a.Chat.SetUserStatus(userID, chat.Status(body.Status))
	if err != nil {
		if errors.Is(err, chat.ErrUnknownUser) {
			a.respondError(w, http.StatusBadRequest, err, "User not found")
			return
		}
		a.respondError(w, http.StatusInternalServerError, err, "Could not update status")
		return
	}

	a.respond(w, http.StatusOK, user)
}

func (a *API) listMessages(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Messages []chat.MessageView `json:"messages"`
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			a.respondError(w, http.StatusBadRequest, err, "Invalid limit")
			return
		}
		limit = n
	}

	msgs := a.Chat.Messages(r.PathValue("channelID"), limit)
	if msgs == nil {
		msgs = []chat.MessageView{}
	}
	a.respond(w, http.StatusOK, response{Messages: msgs})
}

func (a *API) createMessage(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Content   string `json:"content" validate:"required"`
		AuthorID  int64  `json:"authorId" validate:"required"`
		ChannelID string `json:"channelId"`
	}

	var body request
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.respondError(w, http.StatusBadRequest, err, "Could not decode request body")
		return
	}
	if !a.validateBody(w, &body) {
		return
	}

	view, err := a.Chat.PostMessage(body.Content, body.AuthorID, body.ChannelID)
	if err != nil {
		if errors.Is(err, chat.ErrUnknownAuthor) {
			a.respondError(w, http.StatusBadRequest, err, "Author not found")
			return
		}
		a.respondError(w, http.StatusInternalServerError, err, "Could not create message")
		return
	}

	a.respond(w, http.StatusCreated, view)
}

// reactionRequest is shared by the add and remove endpoints; a reaction is
// fully identified by its (message, user, emoji) triple.
type reactionRequest struct {
	MessageID int64  `json:"messageId" validate:"required"`
	UserID    int64  `json:"userId" validate:"required"`
	Emoji     string `json:"emoji" validate:"required"`
}

type reactionResponse struct {
	Success bool `json:"success"`
}

func (a *API) createReaction(w http.ResponseWriter, r *http.Request) {
	var body reactionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.respondError(w, http.StatusBadRequest, err, "Could not decode request body")
		return
	}
	if !a.validateBody(w, &body) {
		return
	}

	if err := a.Chat.AddReaction(body.MessageID, body.UserID, body.Emoji); err != nil {
		switch {
		case errors.Is(err, chat.ErrUnknownMessage):
			a.respondError(w, http.StatusBadRequest, err, "Message not found")
		case errors.Is(err, chat.ErrUnknownUser):
			a.respondError(w, http.StatusBadRequest, err, "User not found")
		default:
			a.respondError(w, http.StatusInternalServerError, err, "Could not add reaction")
		}
		return
	}

	a.respond(w, http.StatusCreated, reactionResponse{Success: true})
}

func (a *API) deleteReaction(w http.ResponseWriter, r *http.Request) {
	var body reactionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.respondError(w, http.StatusBadRequest, err, "Could not decode request body")
		return
	}
	if !a.validateBody(w, &body) {
		return
	}

	// Removing a reaction that does not exist is a no-op, not an error.
	a.Chat.RemoveReaction(body.MessageID, body.UserID, body.Emoji)
	a.respond(w, http.StatusOK, reactionResponse{Success: true})
}
