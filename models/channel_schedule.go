package models

const (
	// ChannelScheduleStore holds channelID -> ChannelSchedule
	ChannelScheduleStore = "daily_channel_schedules"
)

// ChannelSchedule describes a time window during which a role may send
// messages in a channel. Viewing is never gated, only sending. Days are
// lowercase english weekday names, hours are an inclusive local-time
// window with StartHour < EndHour.
type ChannelSchedule struct {
	RoleID        string   `json:"role_id"`
	Days          []string `json:"days"`
	StartHour     int      `json:"start_hour"`
	EndHour       int      `json:"end_hour"`
	Timezone      string   `json:"timezone"`
	Notifications bool     `json:"notifications"`
	CreatedBy     string   `json:"created_by"`
	CreatedAt     string   `json:"created_at"`
}

// OpenOnDay checks if $weekday (lowercase english) is in the schedule
func (s *ChannelSchedule) OpenOnDay(weekday string) bool {
	for _, day := range s.Days {
		if day == weekday {
			return true
		}
	}

	return false
}
