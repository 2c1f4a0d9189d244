package dailyaccess

import (
	"sync"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/models"
)

// ScheduleStore wraps the flat-file schedule document with a
// read-modify-write lock
type ScheduleStore struct {
	sync.Mutex
}

func (s *ScheduleStore) Get(channelID string) (schedule models.ChannelSchedule, found bool) {
	s.Lock()
	defer s.Unlock()

	schedule, found = s.readAll()[channelID]
	return schedule, found
}

func (s *ScheduleStore) All() map[string]models.ChannelSchedule {
	s.Lock()
	defer s.Unlock()

	return s.readAll()
}

func (s *ScheduleStore) Set(channelID string, schedule models.ChannelSchedule) error {
	s.Lock()
	defer s.Unlock()

	schedules := s.readAll()
	schedules[channelID] = schedule
	return helpers.WriteDocument(models.ChannelScheduleStore, schedules)
}

// Remove deletes the schedule for $channelID, removing an absent
// schedule is a no-op
func (s *ScheduleStore) Remove(channelID string) error {
	s.Lock()
	defer s.Unlock()

	schedules := s.readAll()
	if _, found := schedules[channelID]; !found {
		return nil
	}

	delete(schedules, channelID)
	return helpers.WriteDocument(models.ChannelScheduleStore, schedules)
}

func (s *ScheduleStore) readAll() map[string]models.ChannelSchedule {
	schedules := make(map[string]models.ChannelSchedule)
	helpers.ReadDocument(models.ChannelScheduleStore, &schedules)
	return schedules
}
