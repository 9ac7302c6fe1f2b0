package models

import "time"

// ActivityAction enumerates the mutation kinds recorded in the activity log.
type ActivityAction string

const (
	ActionCreate ActivityAction = "CREATE"
	ActionUpdate ActivityAction = "UPDATE"
	ActionDelete ActivityAction = "DELETE"
)

// Activity is one entry in a user's activity feed. UserID is the recipient;
// ActorID is who performed the action.
type Activity struct {
	ID          string         `db:"id" json:"id"`
	UserID      string         `db:"user_id" json:"user_id"`
	ActorID     string         `db:"actor_id" json:"actor_id"`
	Action      ActivityAction `db:"action" json:"action"`
	Entity      string         `db:"entity" json:"entity"`
	EntityID    string         `db:"entity_id" json:"entity_id"`
	Description string         `db:"description" json:"description"`
	Read        bool           `db:"read" json:"read"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// ActivityEvent is the payload emitted after a successful mutation. The
// emission is best-effort and never part of the mutation's atomic unit.
type ActivityEvent struct {
	Actor       Caller
	Action      ActivityAction
	Entity      string
	EntityID    string
	Description string
	Timestamp   time.Time
}
