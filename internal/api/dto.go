// Package api holds the JSON request and response bodies of the HTTP API.
package api

import (
	"github.com/forumcore/forum/internal/domain"
)

// Request DTOs

type CredentialsRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type CreateBoardRequest struct {
	Name        string `json:"name" validate:"required,max=16"`
	Description string `json:"description" validate:"max=500"`
}

type UpdateBoardRequest struct {
	Description string `json:"description" validate:"max=500"`
}

type CreatePostRequest struct {
	Content  string  `json:"content" validate:"required,max=10000"`
	ParentId *int64  `json:"parent,omitempty" validate:"omitempty,gt=0"`
	RefersTo []int64 `json:"refers_to,omitempty" validate:"max=50,dive,gt=0"`
}

type CreateThreadRequest struct {
	Name         string            `json:"name" validate:"required,max=100"`
	StartingPost CreatePostRequest `json:"starting_post"`
}

type UpdateThreadRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Content *string `json:"content,omitempty" validate:"omitempty,max=10000"`
	Closed  *bool   `json:"closed,omitempty"`
}

type UpdatePostRequest struct {
	Content      string `json:"content" validate:"required,max=10000"`
	Hidden       *bool  `json:"hidden,omitempty"`
	StartingPost *bool  `json:"starting_post,omitempty"`
}

type ObservedRequest struct {
	Id int64 `json:"id" validate:"required,gt=0"`
}

// Duration is in seconds.
type CreateBanRequest struct {
	UserId   int64  `json:"user_id" validate:"required,gt=0"`
	Reason   string `json:"reason" validate:"required,max=150"`
	Duration int64  `json:"duration" validate:"required,gt=0"`
}

type UpdateBanRequest struct {
	Reason   *string `json:"reason,omitempty" validate:"omitempty,max=150"`
	Duration *int64  `json:"duration,omitempty" validate:"omitempty,gt=0"`
}

// Response DTOs

type IdResponse struct {
	Id int64 `json:"id"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// PostResponse carries the post with its content rendered to HTML.
type PostResponse struct {
	domain.Post
	ContentHTML string `json:"content_html"`
}

type ForestEntryResponse struct {
	Post     PostResponse   `json:"post"`
	Children []PostResponse `json:"children"`
}

// ThreadResponse is a thread page. StartingPostChildren holds the direct
// replies to the starting post.
type ThreadResponse struct {
	Thread               domain.Thread         `json:"thread"`
	StartingPost         *PostResponse         `json:"starting_post"`
	StartingPostChildren []PostResponse        `json:"starting_post_children"`
	Forest               []ForestEntryResponse `json:"forest"`
}

type CreateThreadResponse struct {
	Thread       domain.Thread `json:"thread"`
	StartingPost PostResponse  `json:"starting_post"`
}

type ThreadListResponse struct {
	Threads []*domain.Thread `json:"threads"`
	Page    int              `json:"page"`
}

type BanResponse struct {
	Id        int64  `json:"id"`
	UserId    int64  `json:"user_id"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at"`
	Duration  int64  `json:"duration"` // seconds
	Expires   string `json:"expires"`
}

// BanNoticeResponse is shown to a banned user instead of the page they tried to use.
type BanNoticeResponse struct {
	Banned   bool         `json:"banned"`
	Ban      *BanResponse `json:"ban,omitempty"`
	TimeLeft string       `json:"time_left,omitempty"`
}

// ObservedResponse bodies are part of the public contract and must not change.
type ObservedResponse struct {
	Result  string `json:"result"`
	Success string `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

var (
	ObservedCreated  = ObservedResponse{Result: "success", Success: "created"}
	ObservedDeleted  = ObservedResponse{Result: "success", Success: "deleted"}
	ObservedNotFound = ObservedResponse{Result: "error", Error: "thread does not exist"}
)
