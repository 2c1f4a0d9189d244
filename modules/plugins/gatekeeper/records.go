package gatekeeper

import (
	"sync"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/models"
)

// RecordStore keeps the per-user access records in one flat document.
// The store mutex makes every Upsert a full read-modify-write, so two
// workers never lose each other's updates, on top of the per-name file
// lock the storage layer already holds.
type RecordStore struct {
	sync.Mutex
}

// Get returns the record for $userID, absent records return found=false
func (s *RecordStore) Get(userID string) (record models.UserAccessRecord, found bool) {
	s.Lock()
	defer s.Unlock()

	records := s.readAll()
	record, found = records[userID]
	return record, found
}

// All returns a copy of every stored record
func (s *RecordStore) All() map[string]models.UserAccessRecord {
	s.Lock()
	defer s.Unlock()

	return s.readAll()
}

// Upsert applies $mutate to the stored record for $userID (or a zero
// record) and persists the result
func (s *RecordStore) Upsert(userID string, mutate func(models.UserAccessRecord) models.UserAccessRecord) error {
	s.Lock()
	defer s.Unlock()

	records := s.readAll()
	records[userID] = mutate(records[userID])
	return helpers.WriteDocument(models.UserAccessStore, records)
}

// Remove deletes the record for $userID, removing an absent record is a
// no-op
func (s *RecordStore) Remove(userID string) error {
	s.Lock()
	defer s.Unlock()

	records := s.readAll()
	if _, ok := records[userID]; !ok {
		return nil
	}

	delete(records, userID)
	return helpers.WriteDocument(models.UserAccessStore, records)
}

func (s *RecordStore) readAll() map[string]models.UserAccessRecord {
	records := make(map[string]models.UserAccessRecord)
	helpers.ReadDocument(models.UserAccessStore, &records)
	return records
}
