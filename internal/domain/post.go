package domain

import (
	"time"
)

// to iterate thru layers: handler -> service -> storage
type PostCreationData struct {
	ThreadId ThreadId
	AuthorId UserId
	Content  PostContent
	ParentId *PostId
	RefersTo []PostId
	File     *FileRef
	Starting bool
}

type PostUpdateData struct {
	Id           PostId
	Content      PostContent
	File         *FileRef
	Hidden       *bool
	StartingPost *bool // nil leaves the flag as is
}

type Post struct {
	Id           PostId      `json:"id"`
	ThreadId     ThreadId    `json:"thread_id"`
	AuthorId     UserId      `json:"author_id"`
	Content      PostContent `json:"content"`
	CreatedAt    time.Time   `json:"created_on"`
	UpdatedAt    time.Time   `json:"updated_on"`
	Updated      bool        `json:"updated"`
	Hidden       *bool       `json:"hidden,omitempty"`
	ParentId     *PostId     `json:"parent,omitempty"`
	RefersTo     []PostId    `json:"refers_to"`
	StartingPost bool        `json:"starting_post"`
	File         *FileRef    `json:"file,omitempty"`
}

func (p *Post) HasParent() bool {
	return p.ParentId != nil
}
