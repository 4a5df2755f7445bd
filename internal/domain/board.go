package domain

import (
	"time"
)

// to iterate thru layers: handler -> service -> storage
type BoardCreationData struct {
	Name        BoardName
	Description string
	CreatorId   UserId
}

type Board struct {
	Name        BoardName `json:"name"`
	CreatorId   UserId    `json:"creator_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
