package gatekeeper

import (
	"sync"
	"testing"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/models"
	"github.com/sirupsen/logrus"
)

func TestRecordStoreInterleavedUpserts(t *testing.T) {
	cache.SetLogger(logrus.New())
	err := helpers.SetStorageDir(t.TempDir())
	if err != nil {
		t.Fatalf("unable to set up storage dir: %s", err.Error())
	}

	store := &RecordStore{}

	// concurrent upserts must not lose each other's updates
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				err := store.Upsert("alice", func(record models.UserAccessRecord) models.UserAccessRecord {
					record.JoinedAt++
					return record
				})
				if err != nil {
					t.Errorf("unexpected upsert error: %s", err.Error())
				}
			}
		}()
	}
	wg.Wait()

	record, found := store.Get("alice")
	if !found {
		t.Fatal("expected a record for alice")
	}
	if record.JoinedAt != 100 {
		t.Fatalf("lost updates: expected 100 increments, got %.0f", record.JoinedAt)
	}
}

func TestRecordStoreRemoveAbsent(t *testing.T) {
	cache.SetLogger(logrus.New())
	err := helpers.SetStorageDir(t.TempDir())
	if err != nil {
		t.Fatalf("unable to set up storage dir: %s", err.Error())
	}

	store := &RecordStore{}

	// removing an unknown user is a no-op
	err = store.Remove("nobody")
	if err != nil {
		t.Fatalf("unexpected remove error: %s", err.Error())
	}
}
