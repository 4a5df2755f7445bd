package domain

import (
	"slices"
	"time"
)

type Credentials struct {
	Username Username
	Password Password
}

type User struct {
	Id          UserId
	Username    Username
	PassHash    string
	Permissions []Permission
	CreatedAt   time.Time
}

// Actor is the authenticated identity performing a request.
type Actor struct {
	Id          UserId
	Username    Username
	Permissions []Permission
}

func (a *Actor) HasPerm(perm Permission) bool {
	if a == nil {
		return false
	}
	return slices.Contains(a.Permissions, perm)
}

type UserProfile struct {
	UserId          UserId    `json:"user_id"`
	Username        Username  `json:"username"`
	Avatar          *FileRef  `json:"avatar,omitempty"`
	ObservedThreads []*Thread `json:"observed_threads"`
}
