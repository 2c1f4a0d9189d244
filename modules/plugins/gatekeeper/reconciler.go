package gatekeeper

import (
	"fmt"
	"sync"
	"time"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/metrics"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/models"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/ratelimits"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// Duplicate join notifications inside this window get suppressed
	JoinSuppressWindow = 30 * time.Second

	// How long join stamps stay around for suppression
	joinStampRetention = 1 * time.Hour
)

// TriggerOutcome classifies what happened to an onboarding trigger
type TriggerOutcome int

const (
	TriggerAccepted TriggerOutcome = iota
	TriggerAlreadyMember
	TriggerOnCooldown
)

type TriggerResult struct {
	Outcome           TriggerOutcome
	RemainingSeconds  int
	HadUnverifiedRole bool
}

type ReconcilerConfig struct {
	GuildID          string
	MemberRoleID     string
	UnverifiedRoleID string
	AssignmentDelay  time.Duration
}

// Reconciler advances the per-user onboarding state machine and corrects
// drift between the stored records and the grants the guild actually
// shows. The external grants are ground truth for the role flags, the
// records own only the timestamps.
type Reconciler struct {
	config    ReconcilerConfig
	directory MemberDirectory
	notifier  Notifier
	records   *RecordStore
	cooldowns *ratelimits.CooldownContainer

	joinsLock   sync.Mutex
	recentJoins map[string]time.Time
}

func NewReconciler(config ReconcilerConfig, directory MemberDirectory, notifier Notifier,
	records *RecordStore, cooldowns *ratelimits.CooldownContainer) *Reconciler {
	return &Reconciler{
		config:      config,
		directory:   directory,
		notifier:    notifier,
		records:     records,
		cooldowns:   cooldowns,
		recentJoins: make(map[string]time.Time),
	}
}

// OnJoin handles a member join event. Duplicate notifications for the
// same user inside the suppression window only get processed once. The
// member grant gets dropped defensively (rejoins), the unverified grant
// gets ensured, and the record is reset to a fresh join.
func (r *Reconciler) OnJoin(userID string, now time.Time) (processed bool, err error) {
	if !r.markJoin(userID, now) {
		r.logger().Infof("duplicate join event for user %s, skipping", userID)
		return false, nil
	}
	defer func() {
		if err != nil {
			r.unmarkJoin(userID)
		}
	}()

	if r.config.GuildID == "" || r.config.UnverifiedRoleID == "" {
		r.logger().Error("guild id or unverified role id not configured, skipping join handling")
		return false, nil
	}

	roles, present, err := r.directory.MemberRoles(r.config.GuildID, userID)
	if err != nil {
		return false, errors.Wrap(err, "unable to look up member roles")
	}
	if !present {
		return false, nil
	}

	// drop a stale member grant in case of a rejoin
	if r.config.MemberRoleID != "" && containsRole(roles, r.config.MemberRoleID) {
		err = r.directory.RemoveRole(r.config.GuildID, userID, r.config.MemberRoleID)
		if err != nil {
			return false, errors.Wrap(err, "unable to remove stale member role")
		}
		r.logger().Infof("removed member role from rejoining user %s", userID)
	}

	if !containsRole(roles, r.config.UnverifiedRoleID) {
		err = r.directory.AddRole(r.config.GuildID, userID, r.config.UnverifiedRoleID)
		if err != nil {
			return false, errors.Wrap(err, "unable to assign unverified role")
		}
		metrics.UnverifiedRolesGranted.Add(1)
	}

	err = r.records.Upsert(userID, func(models.UserAccessRecord) models.UserAccessRecord {
		// full reset, a rejoin starts the onboarding over
		return models.UserAccessRecord{
			JoinedAt:               float64(now.Unix()),
			UnverifiedRoleAssigned: true,
		}
	})
	if err != nil {
		return false, err
	}

	metrics.MemberJoins.Add(1)
	if r.notifier != nil {
		r.notifier.MemberJoined(userID)
	}
	return true, nil
}

// OnTrigger handles the onboarding trigger action. Rate limited, the
// cooldown only gets consumed once the full flow succeeded.
func (r *Reconciler) OnTrigger(userID string, now time.Time) (result TriggerResult, err error) {
	if r.config.GuildID == "" || r.config.MemberRoleID == "" || r.config.UnverifiedRoleID == "" {
		return result, errors.New("gatekeeper role ids not configured")
	}

	allowed, remaining := r.cooldowns.Check(userID, now)
	if !allowed {
		return TriggerResult{Outcome: TriggerOnCooldown, RemainingSeconds: remaining}, nil
	}

	roles, present, err := r.directory.MemberRoles(r.config.GuildID, userID)
	if err != nil {
		r.cooldowns.Release(userID)
		return result, errors.Wrap(err, "unable to look up member roles")
	}

	if present && containsRole(roles, r.config.MemberRoleID) {
		r.cooldowns.Release(userID)
		return TriggerResult{Outcome: TriggerAlreadyMember}, nil
	}

	hasUnverified := present && containsRole(roles, r.config.UnverifiedRoleID)
	if present && !hasUnverified {
		// best effort, a failure here does not abort the trigger
		err = r.directory.AddRole(r.config.GuildID, userID, r.config.UnverifiedRoleID)
		if err != nil {
			helpers.RelaxLog(errors.Wrap(err, "unable to assign unverified role on trigger"))
		} else {
			hasUnverified = true
			metrics.UnverifiedRolesGranted.Add(1)
		}
	}

	err = r.records.Upsert(userID, func(record models.UserAccessRecord) models.UserAccessRecord {
		record.ButtonClickedAt = float64(now.Unix())
		record.HasAccess = false
		record.RoleAssigned = false
		record.UnverifiedRoleAssigned = hasUnverified
		return record
	})
	if err != nil {
		r.cooldowns.Release(userID)
		return result, err
	}

	r.cooldowns.Commit(userID, now)
	metrics.TriggerActions.Add(1)
	if r.notifier != nil {
		r.notifier.TriggerClicked(userID, hasUnverified)
	}
	return TriggerResult{Outcome: TriggerAccepted, HadUnverifiedRole: hasUnverified}, nil
}

// ReconcileAll advances every stored record: deletes records of users
// who left, and promotes users whose assignment delay ran out. A single
// user's failure is reported and does not abort the pass.
func (r *Reconciler) ReconcileAll(now time.Time) {
	if r.config.GuildID == "" {
		r.logger().Error("guild id not configured, skipping reconciliation pass")
		return
	}

	for userID, record := range r.records.All() {
		err := r.reconcileUser(userID, record, now)
		if err != nil {
			r.logger().Errorf("failed to reconcile user %s: %s", userID, err.Error())
			helpers.Escalate("Reconciliation Error",
				fmt.Sprintf("Error reconciling user %s: %s", userID, err.Error()), nil)
		}
	}

	metrics.ReconcilePasses.Add(1)
}

func (r *Reconciler) reconcileUser(userID string, record models.UserAccessRecord, now time.Time) error {
	roles, present, err := r.directory.MemberRoles(r.config.GuildID, userID)
	if err != nil {
		return errors.Wrap(err, "unable to look up member roles")
	}

	if !present {
		err = r.records.Remove(userID)
		if err != nil {
			return err
		}
		metrics.RecordsDropped.Add(1)
		r.logger().Infof("user %s left the guild, removed record", userID)
		return nil
	}

	if record.ButtonClickedAt <= 0 || record.HasAccess || record.RoleAssigned {
		return nil
	}
	if float64(now.Unix())-record.ButtonClickedAt < r.config.AssignmentDelay.Seconds() {
		return nil
	}

	if r.config.MemberRoleID == "" {
		r.logger().Error("member role id not configured, cannot promote user " + userID)
		return nil
	}

	if !containsRole(roles, r.config.MemberRoleID) {
		err = r.directory.AddRole(r.config.GuildID, userID, r.config.MemberRoleID)
		if err != nil {
			return errors.Wrap(err, "unable to assign member role")
		}
		metrics.MemberRolesGranted.Add(1)
		if r.notifier != nil {
			r.notifier.MemberRoleAssigned(userID)
		}
		r.logger().Infof("assigned member role to user %s", userID)
	}

	stillUnverified := false
	if r.config.UnverifiedRoleID != "" && containsRole(roles, r.config.UnverifiedRoleID) {
		err = r.directory.RemoveRole(r.config.GuildID, userID, r.config.UnverifiedRoleID)
		if err != nil {
			// the record keeps the flag, the next sync pass corrects it
			helpers.RelaxLog(errors.Wrap(err, "unable to remove unverified role"))
			stillUnverified = true
		} else {
			if r.notifier != nil {
				r.notifier.UnverifiedRoleRemoved(userID)
			}
			r.logger().Infof("removed unverified role from user %s", userID)
		}
	}

	return r.records.Upsert(userID, func(record models.UserAccessRecord) models.UserAccessRecord {
		record.HasAccess = true
		record.RoleAssigned = true
		record.UnverifiedRoleAssigned = stillUnverified
		return record
	})
}

// SyncWithExternal recomputes every record's role flags from the grants
// the guild actually shows. This is the authoritative drift corrector,
// it performs no external mutation. Records of absent users get deleted.
func (r *Reconciler) SyncWithExternal(now time.Time) (corrected int, removed int, err error) {
	if r.config.GuildID == "" {
		return 0, 0, errors.New("guild id not configured")
	}

	members, err := r.directory.ListMembers(r.config.GuildID)
	if err != nil {
		return 0, 0, errors.Wrap(err, "unable to list guild members")
	}

	for userID, record := range r.records.All() {
		roles, present := members[userID]
		if !present {
			err = r.records.Remove(userID)
			if err != nil {
				helpers.RelaxLog(err)
				continue
			}
			metrics.RecordsDropped.Add(1)
			removed++
			continue
		}

		hasMember := r.config.MemberRoleID != "" && containsRole(roles, r.config.MemberRoleID)
		hasUnverified := r.config.UnverifiedRoleID != "" && containsRole(roles, r.config.UnverifiedRoleID)

		if record.HasAccess == hasMember && record.RoleAssigned == hasMember &&
			record.UnverifiedRoleAssigned == hasUnverified {
			continue
		}

		err = r.records.Upsert(userID, func(record models.UserAccessRecord) models.UserAccessRecord {
			record.HasAccess = hasMember
			record.RoleAssigned = hasMember
			record.UnverifiedRoleAssigned = hasUnverified
			return record
		})
		if err != nil {
			helpers.RelaxLog(err)
			continue
		}
		corrected++
	}

	if corrected > 0 || removed > 0 {
		r.logger().Infof("sync corrected %d records and removed %d records", corrected, removed)
	}
	return corrected, removed, nil
}

func (r *Reconciler) markJoin(userID string, now time.Time) bool {
	r.joinsLock.Lock()
	defer r.joinsLock.Unlock()

	for id, stamp := range r.recentJoins {
		if now.Sub(stamp) > joinStampRetention {
			delete(r.recentJoins, id)
		}
	}

	if stamp, ok := r.recentJoins[userID]; ok && now.Sub(stamp) <= JoinSuppressWindow {
		return false
	}

	r.recentJoins[userID] = now
	return true
}

func (r *Reconciler) unmarkJoin(userID string) {
	r.joinsLock.Lock()
	delete(r.recentJoins, userID)
	r.joinsLock.Unlock()
}

func (r *Reconciler) logger() *logrus.Entry {
	return cache.GetLogger().WithField("module", "gatekeeper")
}

func containsRole(roles []string, roleID string) bool {
	for _, role := range roles {
		if role == roleID {
			return true
		}
	}

	return false
}
