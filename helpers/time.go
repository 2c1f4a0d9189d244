package helpers

import (
	"fmt"
	"strconv"
	"time"
)

// SecondsToDuration turns an int (seconds) into HH:MM:SS
func SecondsToDuration(input int) string {
	hours := 0
	minutes := 0
	seconds := input

	if seconds%60 != seconds {
		minutes = seconds / 60
		seconds %= 60
	}

	if minutes%60 != minutes {
		hours = minutes / 60
		minutes %= 60
	}

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

func HumanizeDuration(d time.Duration) (result string) {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) - (hours * 60)
	seconds := int(d.Seconds()) - (minutes * 60) - (hours * 60 * 60)

	if hours > 0 {
		days := hours / 24
		hoursLeft := hours % 24
		if days > 0 {
			result += strconv.Itoa(days) + "d"
		}
		if hoursLeft > 0 {
			result += strconv.Itoa(hoursLeft) + "h"
		}
	}
	if minutes > 0 {
		result += strconv.Itoa(minutes) + "m"
	}
	if seconds > 0 {
		result += strconv.Itoa(seconds) + "s"
	}
	return result
}
