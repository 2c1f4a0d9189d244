package dailyaccess

import (
	"fmt"
	"time"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/metrics"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/models"
	"github.com/pkg/errors"
)

// Scheduler applies every stored schedule against the channels' actual
// permission overrides. The overrides are ground truth for the current
// open/closed state, so transitions are detected without any local
// bookkeeping and a crashed tick simply gets redone on the next one.
type Scheduler struct {
	permissions ChannelPermissions
	notifier    ScheduleNotifier
	schedules   *ScheduleStore
}

func NewScheduler(permissions ChannelPermissions, notifier ScheduleNotifier, schedules *ScheduleStore) *Scheduler {
	return &Scheduler{
		permissions: permissions,
		notifier:    notifier,
		schedules:   schedules,
	}
}

// ApplyAll evaluates every schedule at $now. A single channel's failure
// is reported and does not abort the tick.
func (s *Scheduler) ApplyAll(now time.Time) {
	for channelID, schedule := range s.schedules.All() {
		err := s.applyChannel(channelID, schedule, now)
		if err != nil {
			logger().Errorf("failed to apply schedule of channel %s: %s", channelID, err.Error())
			helpers.Escalate("Channel Schedule Error",
				fmt.Sprintf("Error applying the schedule of channel %s: %s", channelID, err.Error()), nil)
		}
	}
}

func (s *Scheduler) applyChannel(channelID string, schedule models.ChannelSchedule, now time.Time) error {
	open := Evaluate(schedule, now.UTC())

	viewGranted, send, err := s.permissions.RoleOverride(channelID, schedule.RoleID)
	if err != nil {
		return errors.Wrap(err, "unable to read permission override")
	}

	// viewing is never gated
	if !viewGranted {
		err = s.permissions.GrantView(channelID, schedule.RoleID)
		if err != nil {
			return errors.Wrap(err, "unable to grant the view permission")
		}
		logger().Infof("granted the view permission on channel %s", channelID)
	}

	currentlyOpen := send == SendAllowed
	if open == currentlyOpen {
		return nil
	}

	if open {
		err = s.permissions.AllowSend(channelID, schedule.RoleID)
		if err != nil {
			return errors.Wrap(err, "unable to open the channel")
		}
		metrics.ChannelsOpened.Add(1)
		logger().Infof("opened channel %s", channelID)
		if schedule.Notifications && s.notifier != nil {
			s.notifier.ChannelOpened(channelID, schedule)
		}
		return nil
	}

	err = s.permissions.DenySend(channelID, schedule.RoleID)
	if err != nil {
		return errors.Wrap(err, "unable to close the channel")
	}
	metrics.ChannelsClosed.Add(1)
	logger().Infof("closed channel %s", channelID)
	if schedule.Notifications && s.notifier != nil {
		s.notifier.ChannelClosed(channelID, schedule)
	}
	return nil
}
