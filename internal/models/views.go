package models

import "time"

// Read-model projections assembled per request. Short forms carry just the
// fields a nested context needs; full forms are the enriched API responses.

type BookingShort struct {
	ID       int64 `json:"id"`
	BookerID int64 `json:"booker_id"`
}

type ItemShort struct {
	ID        int64  `json:"id"`
	OwnerID   int64  `json:"owner_id"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
	RequestID *int64 `json:"request_id,omitempty"`
}

type CommentView struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"author_name"`
	Created    time.Time `json:"created"`
}

type RequestView struct {
	ID          int64       `json:"id"`
	Description string      `json:"description"`
	RequestorID int64       `json:"requestor_id"`
	Created     time.Time   `json:"created"`
	Items       []ItemShort `json:"items"`
}

type ItemView struct {
	ID          int64         `json:"id"`
	OwnerID     int64         `json:"owner_id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Available   bool          `json:"available"`
	LastBooking *BookingShort `json:"last_booking,omitempty"`
	NextBooking *BookingShort `json:"next_booking,omitempty"`
	Comments    []CommentView `json:"comments"`
	Request     *RequestView  `json:"request,omitempty"`
}

type BookingView struct {
	ID     int64     `json:"id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status"`
	Item   ItemShort `json:"item"`
	Booker User      `json:"booker"`
}
