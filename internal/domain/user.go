package domain

import "encoding/json"

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// UnmarshalJSON accepts both "id" and the backend's "_id".
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*u = User(aux.plain)
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	return nil
}

type AuthStatus int

const (
	AuthPending AuthStatus = iota
	AuthAuthenticated
	AuthAnonymous
)

func (s AuthStatus) String() string {
	switch s {
	case AuthPending:
		return "pending"
	case AuthAuthenticated:
		return "authenticated"
	case AuthAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// AuthState is exactly one of Pending, Authenticated(user) or Anonymous.
// The zero value is Pending.
type AuthState struct {
	status AuthStatus
	user   User
}

func Pending() AuthState { return AuthState{status: AuthPending} }

func Authenticated(user User) AuthState {
	return AuthState{status: AuthAuthenticated, user: user}
}

func Anonymous() AuthState { return AuthState{status: AuthAnonymous} }

func (a AuthState) Status() AuthStatus { return a.status }

// User returns the signed-in user; ok is false unless Authenticated.
func (a AuthState) User() (User, bool) {
	if a.status != AuthAuthenticated {
		return User{}, false
	}
	return a.user, true
}

func (a AuthState) String() string { return a.status.String() }
