package models

// ActivityType enumerates the user activity kinds recorded by the backend.
type ActivityType string

const (
	ActivityCreated     ActivityType = "CREATED"
	ActivityUpdated     ActivityType = "UPDATED"
	ActivityDeleted     ActivityType = "DELETED"
	ActivityViewed      ActivityType = "VIEWED"
	ActivityFavorited   ActivityType = "FAVORITED"
	ActivityUnfavorited ActivityType = "UNFAVORITED"
	ActivityShared      ActivityType = "SHARED"
	ActivityUnshared    ActivityType = "UNSHARED"
)

// Activity is one entry of the user's activity feed. Locally recorded
// activities carry a LocalID and no backend ID.
type Activity struct {
	ID            int64        `json:"id,omitempty"`
	LocalID       string       `json:"localId,omitempty"`
	Username      string       `json:"username,omitempty"`
	Action        ActivityType `json:"action"`
	ResourceType  string       `json:"resourceType"`
	ResourceID    int64        `json:"resourceId"`
	ResourceTitle string       `json:"resourceTitle"`
	Description   string       `json:"description,omitempty"`
	Timestamp     Timestamp    `json:"timestamp"`
}
