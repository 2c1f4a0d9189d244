package gatekeeper

import (
	"sync"
	"testing"
	"time"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/models"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/ratelimits"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	testGuildID          = "guild"
	testMemberRoleID     = "role-member"
	testUnverifiedRoleID = "role-unverified"
)

type fakeDirectory struct {
	sync.Mutex
	members     map[string][]string
	lookupErrs  map[string]error
	addCalls    int
	removeCalls int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		members:    make(map[string][]string),
		lookupErrs: make(map[string]error),
	}
}

func (d *fakeDirectory) MemberRoles(guildID string, userID string) ([]string, bool, error) {
	d.Lock()
	defer d.Unlock()

	if err := d.lookupErrs[userID]; err != nil {
		return nil, false, err
	}
	roles, present := d.members[userID]
	return append([]string{}, roles...), present, nil
}

func (d *fakeDirectory) AddRole(guildID string, userID string, roleID string) error {
	d.Lock()
	defer d.Unlock()

	d.addCalls++
	d.members[userID] = append(d.members[userID], roleID)
	return nil
}

func (d *fakeDirectory) RemoveRole(guildID string, userID string, roleID string) error {
	d.Lock()
	defer d.Unlock()

	d.removeCalls++
	kept := make([]string, 0, len(d.members[userID]))
	for _, role := range d.members[userID] {
		if role != roleID {
			kept = append(kept, role)
		}
	}
	d.members[userID] = kept
	return nil
}

func (d *fakeDirectory) ListMembers(guildID string) (map[string][]string, error) {
	d.Lock()
	defer d.Unlock()

	members := make(map[string][]string, len(d.members))
	for userID, roles := range d.members {
		members[userID] = append([]string{}, roles...)
	}
	return members, nil
}

func (d *fakeDirectory) hasRole(userID string, roleID string) bool {
	d.Lock()
	defer d.Unlock()

	return containsRole(d.members[userID], roleID)
}

type fakeNotifier struct {
	sync.Mutex
	joins             int
	triggers          int
	memberAssigned    int
	unverifiedRemoved int
}

func (n *fakeNotifier) MemberJoined(userID string) {
	n.Lock()
	n.joins++
	n.Unlock()
}

func (n *fakeNotifier) TriggerClicked(userID string, hadUnverifiedRole bool) {
	n.Lock()
	n.triggers++
	n.Unlock()
}

func (n *fakeNotifier) MemberRoleAssigned(userID string) {
	n.Lock()
	n.memberAssigned++
	n.Unlock()
}

func (n *fakeNotifier) UnverifiedRoleRemoved(userID string) {
	n.Lock()
	n.unverifiedRemoved++
	n.Unlock()
}

func newTestReconciler(t *testing.T, directory *fakeDirectory, delay time.Duration, cooldown time.Duration) (*Reconciler, *fakeNotifier) {
	cache.SetLogger(logrus.New())
	err := helpers.SetStorageDir(t.TempDir())
	if err != nil {
		t.Fatalf("unable to set up storage dir: %s", err.Error())
	}

	notifier := &fakeNotifier{}
	reconciler := NewReconciler(ReconcilerConfig{
		GuildID:          testGuildID,
		MemberRoleID:     testMemberRoleID,
		UnverifiedRoleID: testUnverifiedRoleID,
		AssignmentDelay:  delay,
	}, directory, notifier, &RecordStore{}, ratelimits.NewCooldownContainer(cooldown))
	return reconciler, notifier
}

func TestJoinAssignsUnverifiedRole(t *testing.T) {
	directory := newFakeDirectory()
	directory.members["alice"] = []string{}
	reconciler, notifier := newTestReconciler(t, directory, 5*time.Minute, time.Minute)

	now := time.Unix(1500000000, 0)
	processed, err := reconciler.OnJoin("alice", now)
	if err != nil {
		t.Fatalf("unexpected join error: %s", err.Error())
	}
	if !processed {
		t.Fatal("expected the join to be processed")
	}

	if !directory.hasRole("alice", testUnverifiedRoleID) {
		t.Fatal("expected alice to receive the unverified role")
	}

	record, found := reconciler.records.Get("alice")
	if !found {
		t.Fatal("expected a record for alice")
	}
	if record.JoinedAt != float64(now.Unix()) {
		t.Fatalf("expected joined at %d, got %f", now.Unix(), record.JoinedAt)
	}
	if !record.UnverifiedRoleAssigned || record.HasAccess || record.RoleAssigned {
		t.Fatalf("unexpected record flags: %+v", record)
	}
	if notifier.joins != 1 {
		t.Fatalf("expected 1 join notification, got %d", notifier.joins)
	}
}

func TestDuplicateJoinSuppressed(t *testing.T) {
	directory := newFakeDirectory()
	directory.members["alice"] = []string{}
	reconciler, notifier := newTestReconciler(t, directory, 5*time.Minute, time.Minute)

	now := time.Unix(1500000000, 0)
	processed, err := reconciler.OnJoin("alice", now)
	if err != nil || !processed {
		t.Fatalf("expected first join to be processed, got %v / %v", processed, err)
	}

	processed, err = reconciler.OnJoin("alice", now.Add(1*time.Second))
	if err != nil {
		t.Fatalf("unexpected join error: %s", err.Error())
	}
	if processed {
		t.Fatal("expected duplicate join inside the window to be suppressed")
	}
	if notifier.joins != 1 {
		t.Fatalf("expected 1 join notification, got %d", notifier.joins)
	}
	if directory.addCalls != 1 {
		t.Fatalf("expected exactly 1 role grant, got %d", directory.addCalls)
	}

	// past the suppression window the same user joins normally again
	processed, err = reconciler.OnJoin("alice", now.Add(JoinSuppressWindow+time.Second))
	if err != nil || !processed {
		t.Fatalf("expected join past the window to be processed, got %v / %v", processed, err)
	}
}

func TestRejoinDropsStaleMemberRole(t *testing.T) {
	directory := newFakeDirectory()
	directory.members["bob"] = []string{testMemberRoleID}
	reconciler, _ := newTestReconciler(t, directory, 5*time.Minute, time.Minute)

	_, err := reconciler.OnJoin("bob", time.Unix(1500000000, 0))
	if err != nil {
		t.Fatalf("unexpected join error: %s", err.Error())
	}

	if directory.hasRole("bob", testMemberRoleID) {
		t.Fatal("expected the stale member role to be removed on rejoin")
	}
	if !directory.hasRole("bob", testUnverifiedRoleID) {
		t.Fatal("expected bob to receive the unverified role")
	}
}

func TestTriggerThenPromotionAfterDelay(t *testing.T) {
	directory := newFakeDirectory()
	directory.members["alice"] = []string{}
	reconciler, notifier := newTestReconciler(t, directory, 300*time.Second, time.Minute)

	joinedAt := time.Unix(1500000000, 0)
	_, err := reconciler.OnJoin("alice", joinedAt)
	if err != nil {
		t.Fatalf("unexpected join error: %s", err.Error())
	}

	clickedAt := joinedAt.Add(10 * time.Second)
	result, err := reconciler.OnTrigger("alice", clickedAt)
	if err != nil {
		t.Fatalf("unexpected trigger error: %s", err.Error())
	}
	if result.Outcome != TriggerAccepted {
		t.Fatalf("expected the trigger to be accepted, got %v", result.Outcome)
	}
	if !result.HadUnverifiedRole {
		t.Fatal("expected alice to hold the unverified role at trigger time")
	}

	// one second before the delay ran out nothing happens
	reconciler.ReconcileAll(clickedAt.Add(299 * time.Second))
	if directory.hasRole("alice", testMemberRoleID) {
		t.Fatal("promoted before the assignment delay ran out")
	}

	reconciler.ReconcileAll(clickedAt.Add(300 * time.Second))
	if !directory.hasRole("alice", testMemberRoleID) {
		t.Fatal("expected alice to be promoted once the delay ran out")
	}
	if directory.hasRole("alice", testUnverifiedRoleID) {
		t.Fatal("expected the unverified role to be removed on promotion")
	}

	record, found := reconciler.records.Get("alice")
	if !found {
		t.Fatal("expected a record for alice")
	}
	if !record.HasAccess || !record.RoleAssigned || record.UnverifiedRoleAssigned {
		t.Fatalf("unexpected record flags after promotion: %+v", record)
	}
	if notifier.memberAssigned != 1 || notifier.unverifiedRemoved != 1 {
		t.Fatalf("expected one promotion notification pair, got %d / %d",
			notifier.memberAssigned, notifier.unverifiedRemoved)
	}

	// a second pass changes nothing and notifies nobody
	reconciler.ReconcileAll(clickedAt.Add(600 * time.Second))
	if notifier.memberAssigned != 1 || notifier.unverifiedRemoved != 1 {
		t.Fatal("promotion notifications are not idempotent")
	}
}

func TestTriggerOnCooldown(t *testing.T) {
	directory := newFakeDirectory()
	directory.members["alice"] = []string{testUnverifiedRoleID}
	reconciler, _ := newTestReconciler(t, directory, 5*time.Minute, 60*time.Second)

	now := time.Unix(1500000000, 0)
	result, err := reconciler.OnTrigger("alice", now)
	if err != nil || result.Outcome != TriggerAccepted {
		t.Fatalf("expected the first trigger to be accepted, got %v / %v", result.Outcome, err)
	}

	result, err = reconciler.OnTrigger("alice", now.Add(5*time.Second))
	if err != nil {
		t.Fatalf("unexpected trigger error: %s", err.Error())
	}
	if result.Outcome != TriggerOnCooldown {
		t.Fatalf("expected the second trigger to be on cooldown, got %v", result.Outcome)
	}
	if result.RemainingSeconds != 55 {
		t.Fatalf("expected 55 seconds remaining, got %d", result.RemainingSeconds)
	}

	result, err = reconciler.OnTrigger("alice", now.Add(60*time.Second))
	if err != nil || result.Outcome != TriggerAccepted {
		t.Fatalf("expected the trigger to be accepted after the cooldown, got %v / %v", result.Outcome, err)
	}
}

func TestAlreadyMemberDoesNotConsumeCooldown(t *testing.T) {
	directory := newFakeDirectory()
	directory.members["carol"] = []string{testMemberRoleID}
	reconciler, _ := newTestReconciler(t, directory, 5*time.Minute, 60*time.Second)

	now := time.Unix(1500000000, 0)
	result, err := reconciler.OnTrigger("carol", now)
	if err != nil {
		t.Fatalf("unexpected trigger error: %s", err.Error())
	}
	if result.Outcome != TriggerAlreadyMember {
		t.Fatalf("expected the already member outcome, got %v", result.Outcome)
	}

	// the short circuit must not burn the cooldown
	directory.Lock()
	directory.members["carol"] = []string{}
	directory.Unlock()

	result, err = reconciler.OnTrigger("carol", now.Add(1*time.Second))
	if err != nil || result.Outcome != TriggerAccepted {
		t.Fatalf("expected the trigger to be accepted right away, got %v / %v", result.Outcome, err)
	}
}

func TestFailedTriggerDoesNotConsumeCooldown(t *testing.T) {
	directory := newFakeDirectory()
	directory.members["dave"] = []string{}
	directory.lookupErrs["dave"] = errors.New("api is down")
	reconciler, _ := newTestReconciler(t, directory, 5*time.Minute, 60*time.Second)

	now := time.Unix(1500000000, 0)
	_, err := reconciler.OnTrigger("dave", now)
	if err == nil {
		t.Fatal("expected the trigger to fail")
	}

	directory.Lock()
	delete(directory.lookupErrs, "dave")
	directory.Unlock()

	result, err := reconciler.OnTrigger("dave", now.Add(1*time.Second))
	if err != nil || result.Outcome != TriggerAccepted {
		t.Fatalf("expected the retry to be accepted right away, got %v / %v", result.Outcome, err)
	}
}

func TestReconcileRemovesAbsentUsers(t *testing.T) {
	directory := newFakeDirectory()
	directory.members["alice"] = []string{}
	reconciler, _ := newTestReconciler(t, directory, 5*time.Minute, time.Minute)

	now := time.Unix(1500000000, 0)
	_, err := reconciler.OnJoin("alice", now)
	if err != nil {
		t.Fatalf("unexpected join error: %s", err.Error())
	}

	directory.Lock()
	delete(directory.members, "alice")
	directory.Unlock()

	reconciler.ReconcileAll(now.Add(time.Minute))

	_, found := reconciler.records.Get("alice")
	if found {
		t.Fatal("expected the record of the absent user to be removed")
	}
}

func TestReconcileIsolatesFailures(t *testing.T) {
	directory := newFakeDirectory()
	directory.members["broken"] = []string{testUnverifiedRoleID}
	directory.members["fine"] = []string{testUnverifiedRoleID}
	reconciler, _ := newTestReconciler(t, directory, 300*time.Second, time.Minute)

	now := time.Unix(1500000000, 0)
	for _, userID := range []string{"broken", "fine"} {
		_, err := reconciler.OnTrigger(userID, now)
		if err != nil {
			t.Fatalf("unexpected trigger error: %s", err.Error())
		}
	}

	directory.Lock()
	directory.lookupErrs["broken"] = errors.New("api is down")
	directory.Unlock()

	reconciler.ReconcileAll(now.Add(300 * time.Second))

	if !directory.hasRole("fine", testMemberRoleID) {
		t.Fatal("one user's failure aborted another user's promotion")
	}
}

func TestSyncWithExternalCorrectsDrift(t *testing.T) {
	directory := newFakeDirectory()
	directory.members["alice"] = []string{testMemberRoleID}
	reconciler, _ := newTestReconciler(t, directory, 5*time.Minute, time.Minute)

	// the record claims alice is still onboarding, the guild says member
	err := reconciler.records.Upsert("alice", func(record models.UserAccessRecord) models.UserAccessRecord {
		record.JoinedAt = 1500000000
		record.UnverifiedRoleAssigned = true
		return record
	})
	if err != nil {
		t.Fatalf("unexpected upsert error: %s", err.Error())
	}
	err = reconciler.records.Upsert("gone", func(record models.UserAccessRecord) models.UserAccessRecord {
		record.JoinedAt = 1500000000
		return record
	})
	if err != nil {
		t.Fatalf("unexpected upsert error: %s", err.Error())
	}

	corrected, removed, err := reconciler.SyncWithExternal(time.Unix(1500000100, 0))
	if err != nil {
		t.Fatalf("unexpected sync error: %s", err.Error())
	}
	if corrected != 1 || removed != 1 {
		t.Fatalf("expected 1 corrected and 1 removed, got %d / %d", corrected, removed)
	}

	record, found := reconciler.records.Get("alice")
	if !found {
		t.Fatal("expected a record for alice")
	}
	if !record.HasAccess || !record.RoleAssigned || record.UnverifiedRoleAssigned {
		t.Fatalf("unexpected record flags after the sync: %+v", record)
	}
	if record.JoinedAt != 1500000000 {
		t.Fatal("the sync must not touch the timestamps")
	}

	if _, found = reconciler.records.Get("gone"); found {
		t.Fatal("expected the record of the absent user to be removed")
	}

	// ground truth correction never mutates the guild
	if directory.addCalls != 0 || directory.removeCalls != 0 {
		t.Fatalf("expected no role mutation during the sync, got %d adds and %d removes",
			directory.addCalls, directory.removeCalls)
	}
}
