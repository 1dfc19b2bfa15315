package api

import (
	"encoding/json"
	"strings"

	"coursepocket/internal/domain"
)

// AuthEnvelope is the server's response shape for login and register. It is
// returned verbatim for every call that completes a round-trip, whatever the
// HTTP status: Success=false is a business failure, not an error.
type AuthEnvelope struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Data    *AuthData `json:"data,omitempty"`
}

type AuthData struct {
	User         AuthUser `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
}

// AuthUser mirrors the user object inside the envelope. The server uses a
// Mongo-style "_id"; some responses carry a plain "id" instead.
type AuthUser struct {
	ID       string `json:"_id"`
	AltID    string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u AuthUser) ToUser() domain.User {
	id := u.ID
	if id == "" {
		id = u.AltID
	}
	return domain.User{ID: id, Username: u.Username, Email: u.Email}
}

// FeedUser is a record from the public random-users feed.
type FeedUser struct {
	Name NameValue `json:"name"`
}

// FeedProduct is a record from the public random-products feed.
type FeedProduct struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// NameValue may arrive as:
// - "Jane Doe" (string)
// - {title, first, last} (obj)
type NameValue string

func (n *NameValue) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*n = ""
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NameValue(s)
		return nil
	}

	if b[0] == '{' {
		var obj struct {
			Title string `json:"title"`
			First string `json:"first"`
			Last  string `json:"last"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		parts := make([]string, 0, 2)
		for _, p := range []string{obj.First, obj.Last} {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		*n = NameValue(strings.Join(parts, " "))
		return nil
	}

	*n = ""
	return nil
}
