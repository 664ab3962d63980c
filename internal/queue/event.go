// Package queue defines message payloads exchanged over the message broker.
package queue

// Event types carried by ActivityEvent.
const (
	EventUserRegistered = "user.registered"
	EventRecipeCreated  = "recipe.created"
)

// ActivityEvent is published when a user registers or a recipe is created.
// It carries enough information for downstream consumers to log or notify
// without querying the primary database.  Recipe fields are zero for
// user events.
type ActivityEvent struct {
	Type        string `json:"type"`
	UserID      uint64 `json:"user_id"`
	UserName    string `json:"user_name"`
	RecipeID    uint64 `json:"recipe_id,omitempty"`
	RecipeTitle string `json:"recipe_title,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}
