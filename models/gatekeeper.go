package models

const (
	// UserAccessStore holds the per-user onboarding state machine records
	UserAccessStore = "user_data"
	// RateLimitStore holds userID -> last trigger unix timestamp
	RateLimitStore = "button_cooldowns"
	// WelcomeMessageStore holds the persistent welcome message pointer
	WelcomeMessageStore = "welcome_message"
)

// UserAccessRecord tracks one user's onboarding progress. External role
// grants are the source of truth for the three role flags, the record
// only owns the timestamps. Timestamps are unix seconds, 0 means unknown
// or never.
type UserAccessRecord struct {
	JoinedAt               float64 `json:"joined_at"`
	ButtonClickedAt        float64 `json:"button_clicked_at"`
	HasAccess              bool    `json:"has_access"`
	RoleAssigned           bool    `json:"role_assigned"`
	UnverifiedRoleAssigned bool    `json:"unverified_role_assigned"`
}

// WelcomeMessagePointer remembers the welcome message posted last, so a
// refresh edits it instead of posting a duplicate
type WelcomeMessagePointer struct {
	MessageID string `json:"message_id"`
	ChannelID string `json:"channel_id"`
}
