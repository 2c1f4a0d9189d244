package dailyaccess

import (
	"strings"
	"time"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/models"
	"github.com/sirupsen/logrus"
)

// ValidDays are the accepted lowercase weekday names
var ValidDays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Evaluate decides if $schedule is open at $nowUTC. The moment gets
// converted to the schedule's timezone, unknown zones fall back to UTC
// with a warning. The hour window is inclusive on both ends.
func Evaluate(schedule models.ChannelSchedule, nowUTC time.Time) bool {
	location, err := time.LoadLocation(schedule.Timezone)
	if err != nil {
		logger().Warnf("unknown timezone %q, falling back to UTC", schedule.Timezone)
		location = time.UTC
	}

	local := nowUTC.In(location)
	weekday := strings.ToLower(local.Weekday().String())
	hour := local.Hour()

	return schedule.OpenOnDay(weekday) && schedule.StartHour <= hour && hour <= schedule.EndHour
}

// IsValidDay checks a lowercase weekday name
func IsValidDay(day string) bool {
	for _, valid := range ValidDays {
		if day == valid {
			return true
		}
	}

	return false
}

func logger() *logrus.Entry {
	return cache.GetLogger().WithField("module", "dailyaccess")
}
