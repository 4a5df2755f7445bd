package domain

import (
	"time"
)

// to iterate thru layers: handler -> service -> storage
type ThreadCreationData struct {
	Board        BoardName
	AuthorId     UserId
	Name         ThreadName
	StartingPost PostCreationData
}

type ThreadUpdateData struct {
	Id      ThreadId
	Name    *ThreadName
	Closed  *bool        // true closes the thread as of today, false reopens it
	Content *PostContent // new starting post content
}

type Thread struct {
	Id            ThreadId   `json:"id"`
	Board         BoardName  `json:"board"`
	AuthorId      UserId     `json:"author_id"`
	Name          ThreadName `json:"name"`
	Closed        *time.Time `json:"closed,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastPostAdded time.Time  `json:"last_post_added"`
	PostCount     int        `json:"post_count"` // replies, starting post excluded
}

func (t *Thread) IsClosed() bool {
	return t.Closed != nil
}
