package patent

import (
	"strconv"

	"github.com/ipfolio/ipfolio/pkg/types/common"
)

// Event type names as published on the message bus.
const (
	EventTypeCreated = "patent.created"
	EventTypeUpdated = "patent.updated"
	EventTypeDeleted = "patent.deleted"
)

// Event is the payload published after a successful aggregate write.
// Publishing is best-effort: a failed publish never fails the write.
type Event struct {
	common.BaseEvent

	Type      string  `json:"type"`
	PatentID  int64   `json:"patent_id"`
	Title     string  `json:"title,omitempty"`
	ActorID   string  `json:"actor_id,omitempty"`
	ClientIDs []int64 `json:"client_ids,omitempty"`
}

// NewEvent builds an event for the given patent and type.
func NewEvent(eventType string, p *Patent, actorID string) Event {
	ev := Event{
		BaseEvent: common.NewBaseEvent(strconv.FormatInt(p.ID, 10)),
		Type:      eventType,
		PatentID:  p.ID,
		Title:     p.Title,
		ActorID:   actorID,
	}
	ev.ClientIDs = append(ev.ClientIDs, p.ClientIDs...)
	return ev
}
