package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/neilotoole/slogt"

	"github.com/matechat/matechat/api/validator"
	"github.com/matechat/matechat/chat"
)

var testTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testAlice() chat.User {
	return chat.User{
		ID:        3,
		Username:  "alice",
		Role:      chat.RoleMember,
		Status:    chat.StatusOnline,
		CreatedAt: testTime,
	}
}

func testView() chat.MessageView {
	return chat.MessageView{
		Message: chat.Message{
			ID:        1,
			Content:   "hello",
			AuthorID:  3,
			ChannelID: "general",
			CreatedAt: testTime,
		},
		Author:         testAlice(),
		ReactionCounts: map[string]int{},
	}
}

const testViewJSON = `{
	"id": 1,
	"content": "hello",
	"authorId": 3,
	"channelId": "general",
	"isSpam": false,
	"spamScore": 0,
	"createdAt": "2024-01-01T00:00:00Z",
	"author": {
		"id": 3,
		"username": "alice",
		"role": "member",
		"status": "online",
		"createdAt": "2024-01-01T00:00:00Z"
	},
	"reactionCounts": {}
}`

func TestAPI_listMessages(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		chat       *testchat
		wantStatus int
		wantBody   string
	}{
		{
			name:   "Empty",
			target: "/messages/general",
			chat: &testchat{
				messages: func(t *testing.T, channelID string, limit int) []chat.MessageView {
					if channelID != "general" {
						t.Errorf("Got channelID %q, want general", channelID)
					}
					if limit != 0 {
						t.Errorf("Got limit %d, want 0", limit)
					}
					return nil
				},
			},
			wantStatus: 200,
			wantBody: `{
				"messages": []
			}`,
		},
		{
			name:   "Populated",
			target: "/messages/general",
			chat: &testchat{
				messages: func(t *testing.T, channelID string, limit int) []chat.MessageView {
					return []chat.MessageView{testView()}
				},
			},
			wantStatus: 200,
			wantBody:   `{"messages": [` + testViewJSON + `]}`,
		},
		{
			name:   "LimitPassedThrough",
			target: "/messages/random?limit=5",
			chat: &testchat{
				messages: func(t *testing.T, channelID string, limit int) []chat.MessageView {
					if channelID != "random" {
						t.Errorf("Got channelID %q, want random", channelID)
					}
					if limit != 5 {
						t.Errorf("Got limit %d, want 5", limit)
					}
					return nil
				},
			},
			wantStatus: 200,
			wantBody: `{
				"messages": []
			}`,
		},
		{
			name:       "InvalidLimit",
			target:     "/messages/general?limit=abc",
			chat:       &testchat{},
			wantStatus: 400,
			wantBody: `{
				"error": "Invalid limit"
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.chat)
			defer srv.Close()

			resp, err := http.Get(srv.URL + tt.target)
			if err != nil {
				t.Fatal(err)
			}
			checkStatus(t, resp.StatusCode, tt.wantStatus)
			checkBody(t, resp, tt.wantBody)
		})
	}
}

func TestAPI_createMessage(t *testing.T) {
	tests := []struct {
		name       string
		chat       *testchat
		req        string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "InvalidJSON",
			chat:       &testchat{},
			req:        `not json`,
			wantStatus: 400,
			wantBody: `{
				"error": "Could not decode request body"
			}`,
		},
		{
			name:       "MissingFields",
			chat:       &testchat{},
			req:        `{}`,
			wantStatus: 400,
			wantBody: `{
				"errors": [
					{"field": "content", "message": "failed on the 'required' rule"},
					{"field": "authorId", "message": "failed on the 'required' rule"}
				]
			}`,
		},
		{
			name: "UnknownAuthor",
			chat: &testchat{
				postMessage: func(t *testing.T, content string, authorID int64, channelID string) (chat.MessageView, error) {
					return chat.MessageView{}, chat.ErrUnknownAuthor
				},
			},
			req: `{
				"content": "hello",
				"authorId": 999
			}`,
			wantStatus: 400,
			wantBody: `{
				"error": "Author not found"
			}`,
		},
		{
			name: "OK",
			chat: &testchat{
				postMessage: func(t *testing.T, content string, authorID int64, channelID string) (chat.MessageView, error) {
					if content != "hello" {
						t.Errorf("Got content %q, want hello", content)
					}
					if authorID != 3 {
						t.Errorf("Got authorID %d, want 3", authorID)
					}
					if channelID != "general" {
						t.Errorf("Got channelID %q, want general", channelID)
					}
					return testView(), nil
				},
			},
			req: `{
				"content": "hello",
				"authorId": 3,
				"channelId": "general"
			}`,
			wantStatus: 201,
			wantBody:   testViewJSON,
		},
		{
			name: "ChannelDefaultsUpstream",
			chat: &testchat{
				postMessage: func(t *testing.T, content string, authorID int64, channelID string) (chat.MessageView, error) {
					if channelID != "" {
						t.Errorf("Got channelID %q, want empty (store applies the default)", channelID)
					}
					return testView(), nil
				},
			},
			req: `{
				"content": "hello",
				"authorId": 3
			}`,
			wantStatus: 201,
			wantBody:   testViewJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.chat)
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/messages", "application/json", strings.NewReader(tt.req))
			if err != nil {
				t.Fatal(err)
			}
			checkStatus(t, resp.StatusCode, tt.wantStatus)
			checkBody(t, resp, tt.wantBody)
		})
	}
}

func TestAPI_createReaction(t *testing.T) {
	tests := []struct {
		name       string
		chat       *testchat
		req        string
		wantStatus int
		wantBody   string
	}{
		{
			name: "OK",
			chat: &testchat{
				addReaction: func(t *testing.T, messageID, userID int64, emoji string) error {
					if messageID != 1 || userID != 3 || emoji != "👍" {
						t.Errorf("Got (%d, %d, %q), want (1, 3, 👍)", messageID, userID, emoji)
					}
					return nil
				},
			},
			req: `{
				"messageId": 1,
				"userId": 3,
				"emoji": "👍"
			}`,
			wantStatus: 201,
			wantBody: `{
				"success": true
			}`,
		},
		{
			name: "UnknownMessage",
			chat: &testchat{
				addReaction: func(t *testing.T, messageID, userID int64, emoji string) error {
					return chat.ErrUnknownMessage
				},
			},
			req: `{
				"messageId": 999,
				"userId": 3,
				"emoji": "👍"
			}`,
			wantStatus: 400,
			wantBody: `{
				"error": "Message not found"
			}`,
		},
		{
			name: "UnknownUser",
			chat: &testchat{
				addReaction: func(t *testing.T, messageID, userID int64, emoji string) error {
					return chat.ErrUnknownUser
				},
			},
			req: `{
				"messageId": 1,
				"userId": 999,
				"emoji": "👍"
			}`,
			wantStatus: 400,
			wantBody: `{
				"error": "User not found"
			}`,
		},
		{
			name:       "MissingEmoji",
			chat:       &testchat{},
			req:        `{"messageId": 1, "userId": 3}`,
			wantStatus: 400,
			wantBody: `{
				"errors": [
					{"field": "emoji", "message": "failed on the 'required' rule"}
				]
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.chat)
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/reactions", "application/json", strings.NewReader(tt.req))
			if err != nil {
				t.Fatal(err)
			}
			checkStatus(t, resp.StatusCode, tt.wantStatus)
			checkBody(t, resp, tt.wantBody)
		})
	}
}

func TestAPI_deleteReaction(t *testing.T) {
	called := false
	tc := &testchat{
		removeReaction: func(t *testing.T, messageID, userID int64, emoji string) {
			called = true
			if messageID != 1 || userID != 3 || emoji != "👍" {
				t.Errorf("Got (%d, %d, %q), want (1, 3, 👍)", messageID, userID, emoji)
			}
		},
	}
	srv := newTestServer(t, tc)
	defer srv.Close()

	body := `{"messageId": 1, "userId": 3, "emoji": "👍"}`
	req, _ := http.NewRequest("DELETE", srv.URL+"/reactions", strings.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	// Removal is idempotent; the response is a success ack either way.
	checkStatus(t, resp.StatusCode, 200)
	checkBody(t, resp, `{"success": true}`)
	if !called {
		t.Error("RemoveReaction was not called")
	}
}

func TestAPI_listUsers(t *testing.T) {
	tc := &testchat{
		users: func(t *testing.T) []chat.User {
			return []chat.User{testAlice()}
		},
	}
	srv := newTestServer(t, tc)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/users")
	if err != nil {
		t.Fatal(err)
	}
	checkStatus(t, resp.StatusCode, 200)
	checkBody(t, resp, `{
		"users": [
			{
				"id": 3,
				"username": "alice",
				"role": "member",
				"status": "online",
				"createdAt": "2024-01-01T00:00:00Z"
			}
		]
	}`)
}

func TestAPI_createUser(t *testing.T) {
	tests := []struct {
		name       string
		chat       *testchat
		req        string
		wantStatus int
		wantBody   string
	}{
		{
			name: "OK",
			chat: &testchat{
				createUser: func(t *testing.T, username string, role chat.Role) (chat.User, error) {
					if username != "alice" {
						t.Errorf("Got username %q, want alice", username)
					}
					if role != chat.RoleMember {
						t.Errorf("Got role %q, want member (default)", role)
					}
					return testAlice(), nil
				},
			},
			req:        `{"username": "alice"}`,
			wantStatus: 201,
			wantBody: `{
				"id": 3,
				"username": "alice",
				"role": "member",
				"status": "online",
				"createdAt": "2024-01-01T00:00:00Z"
			}`,
		},
		{
			name: "DuplicateUsername",
			chat: &testchat{
				createUser: func(t *testing.T, username string, role chat.Role) (chat.User, error) {
					return chat.User{}, chat.ErrUsernameTaken
				},
			},
			req:        `{"username": "alice"}`,
			wantStatus: 400,
			wantBody: `{
				"error": "Username already taken"
			}`,
		},
		{
			name:       "InvalidRole",
			chat:       &testchat{},
			req:        `{"username": "alice", "role": "wizard"}`,
			wantStatus: 400,
			wantBody: `{
				"errors": [
					{"field": "role", "message": "failed on the 'oneof' rule"}
				]
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.chat)
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/users", "application/json", strings.NewReader(tt.req))
			if err != nil {
				t.Fatal(err)
			}
			checkStatus(t, resp.StatusCode, tt.wantStatus)
			checkBody(t, resp, tt.wantBody)
		})
	}
}

func TestAPI_updateUserStatus(t *testing.T) {
	tests := []struct {
		name       string
		chat       *testchat
		target     string
		req        string
		wantStatus int
		wantBody   string
	}{
		{
			name: "OK",
			chat: &testchat{
				setUserStatus: func(t *testing.T, userID int64, status chat.Status) (chat.User, error) {
					if userID != 3 {
						t.Errorf("Got userID %d, want 3", userID)
					}
					if status != chat.StatusAway {
						t.Errorf("Got status %q, want away", status)
					}
					u := testAlice()
					u.Status = chat.StatusAway
					return u, nil
				},
			},
			target:     "/users/3/status",
			req:        `{"status": "away"}`,
			wantStatus: 200,
			wantBody: `{
				"id": 3,
				"username": "alice",
				"role": "member",
				"status": "away",
				"createdAt": "2024-01-01T00:00:00Z"
			}`,
		},
		{
			name:       "InvalidUserID",
			chat:       &testchat{},
			target:     "/users/abc/status",
			req:        `{"status": "away"}`,
			wantStatus: 400,
			wantBody: `{
				"error": "Invalid user id"
			}`,
		},
		{
			name:       "InvalidStatus",
			chat:       &testchat{},
			target:     "/users/3/status",
			req:        `{"status": "sleeping"}`,
			wantStatus: 400,
			wantBody: `{
				"errors": [
					{"field": "status", "message": "failed on the 'oneof' rule"}
				]
			}`,
		},
		{
			name: "UnknownUser",
			chat: &testchat{
				setUserStatus: func(t *testing.T, userID int64, status chat.Status) (chat.User, error) {
					return chat.User{}, chat.ErrUnknownUser
				},
			},
			target:     "/users/999/status",
			req:        `{"status": "away"}`,
			wantStatus: 400,
			wantBody: `{
				"error": "User not found"
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.chat)
			defer srv.Close()

			req, _ := http.NewRequest("PATCH", srv.URL+tt.target, strings.NewReader(tt.req))
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			checkStatus(t, resp.StatusCode, tt.wantStatus)
			checkBody(t, resp, tt.wantBody)
		})
	}
}

func newTestServer(t *testing.T, tc *testchat) *httptest.Server {
	t.Helper()
	tc.T = t
	a := &API{
		Logger:   slogt.New(t),
		Chat:     tc,
		Realtime: &testrealtime{},
		Val:      validator.New(),
	}
	return httptest.NewServer(a)
}

// testchat is a fake Chat built from optional funcs, one per operation.
type testchat struct {
	T              *testing.T
	users          func(t *testing.T) []chat.User
	createUser     func(t *testing.T, username string, role chat.Role) (chat.User, error)
	setUserStatus  func(t *testing.T, userID int64, status chat.Status) (chat.User, error)
	messages       func(t *testing.T, channelID string, limit int) []chat.MessageView
	postMessage    func(t *testing.T, content string, authorID int64, channelID string) (chat.MessageView, error)
	addReaction    func(t *testing.T, messageID, userID int64, emoji string) error
	removeReaction func(t *testing.T, messageID, userID int64, emoji string)
}

func (c *testchat) Users() []chat.User {
	return c.users(c.T)
}

func (c *testchat) CreateUser(username string, role chat.Role) (chat.User, error) {
	return c.createUser(c.T, username, role)
}

func (c *testchat) SetUserStatus(userID int64, status chat.Status) (chat.User, error) {
	return c.setUserStatus(c.T, userID, status)
}

func (c *testchat) Messages(channelID string, limit int) []chat.MessageView {
	return c.messages(c.T, channelID, limit)
}

func (c *testchat) PostMessage(content string, authorID int64, channelID string) (chat.MessageView, error) {
	return c.postMessage(c.T, content, authorID, channelID)
}

func (c *testchat) AddReaction(messageID, userID int64, emoji string) error {
	return c.addReaction(c.T, messageID, userID, emoji)
}

func (c *testchat) RemoveReaction(messageID, userID int64, emoji string) {
	c.removeReaction(c.T, messageID, userID, emoji)
}

// testrealtime satisfies Realtime; the realtime stream has its own tests in
// the hub package.
type testrealtime struct{}

func (*testrealtime) ServeWS(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotImplemented)
}

func checkStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("Got HTTP status %d, want %d", got, want)
	}
}

func checkBody(t *testing.T, resp *http.Response, want string) {
	t.Helper()
	gotBody := normalizeJSON(t, resp.Body)
	wantBody := normalizeJSON(t, bytes.NewReader([]byte(want)))
	if gotBody != wantBody {
		t.Errorf("Body does not match\nGot\n  %s\n\nWant\n  %s", gotBody, wantBody)
	}
}

func normalizeJSON(t *testing.T, r io.Reader) string {
	t.Helper()
	var buf bytes.Buffer
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Could not read JSON: %v", err)
	}
	if err := json.Indent(&buf, b, "  ", "  "); err != nil {
		t.Fatalf("Could not indent JSON: %v", err)
	}
	return strings.TrimSpace(buf.String())
}
