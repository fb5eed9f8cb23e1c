// Package audit records every access to protected data for compliance
// review. Events are appended to a remote store through a fire-and-forget
// pipeline: recording an event never blocks the primary data path and never
// fails the caller. Durability is explicitly best-effort: there is no
// dedup, no batching and no retry queue.
package audit

import "time"

// Action classifies what happened to a protected resource.
type Action string

const (
	ActionRead    Action = "read"
	ActionWrite   Action = "write"
	ActionDelete  Action = "delete"
	ActionDecrypt Action = "decrypt"
	ActionEncrypt Action = "encrypt"
	ActionAccess  Action = "access"
)

// ResourceType names the kind of protected record an event refers to.
type ResourceType string

const (
	ResourceJournal          ResourceType = "journal"
	ResourceChat             ResourceType = "chat"
	ResourceFoodAnalysis     ResourceType = "food_analysis"
	ResourceRecipe           ResourceType = "recipe"
	ResourceFridgeItem       ResourceType = "fridge_item"
	ResourceMealPlan         ResourceType = "meal_plan"
	ResourceCheckin          ResourceType = "checkin"
	ResourceDetailedAnalysis ResourceType = "detailed_analysis"
	ResourceEncryptionKey    ResourceType = "encryption_key"
)

// Event is one append-only audit row. Events are never updated or deleted
// by this core.
type Event struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	Action       Action            `json:"action"`
	ResourceType ResourceType      `json:"resource_type"`
	ResourceID   string            `json:"resource_id,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ValidAction reports whether a is one of the known actions. Used by the
// backend to reject malformed writes.
func ValidAction(a Action) bool {
	switch a {
	case ActionRead, ActionWrite, ActionDelete, ActionDecrypt, ActionEncrypt, ActionAccess:
		return true
	}
	return false
}

// ValidResourceType reports whether rt is one of the known resource types.
func ValidResourceType(rt ResourceType) bool {
	switch rt {
	case ResourceJournal, ResourceChat, ResourceFoodAnalysis, ResourceRecipe,
		ResourceFridgeItem, ResourceMealPlan, ResourceCheckin,
		ResourceDetailedAnalysis, ResourceEncryptionKey:
		return true
	}
	return false
}
