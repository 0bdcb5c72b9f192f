package events

// Payload publicado em event_deleted e bet_deleted.
type Deleted struct {
	ID string `json:"id"`
}
