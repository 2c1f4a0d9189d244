package metrics

import (
	"expvar"
	"net/http"
	"time"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
)

var (
	// CommandsExecuted increases after each command execution
	CommandsExecuted = expvar.NewInt("commands_executed")

	// MemberJoins counts processed (non-duplicate) member join events
	MemberJoins = expvar.NewInt("member_joins")

	// TriggerActions counts onboarding triggers that passed the rate limiter
	TriggerActions = expvar.NewInt("trigger_actions")

	// MemberRolesGranted counts member role grants by the reconciler
	MemberRolesGranted = expvar.NewInt("member_roles_granted")

	// UnverifiedRolesGranted counts unverified role grants
	UnverifiedRolesGranted = expvar.NewInt("unverified_roles_granted")

	// ReconcilePasses counts completed reconciliation ticks
	ReconcilePasses = expvar.NewInt("reconcile_passes")

	// RecordsDropped counts records deleted for users who left the guild
	RecordsDropped = expvar.NewInt("records_dropped")

	// ChannelsOpened counts closed->open schedule transitions
	ChannelsOpened = expvar.NewInt("channels_opened")

	// ChannelsClosed counts open->closed schedule transitions
	ChannelsClosed = expvar.NewInt("channels_closed")

	// CriticalErrors counts escalated errors
	CriticalErrors = expvar.NewInt("critical_errors")

	// Uptime stores the timestamp of the bot's boot
	Uptime = expvar.NewInt("uptime")
)

// Init starts the expvar http endpoint on $address, or does nothing if
// no address is configured
func Init(address string) {
	Uptime.Set(time.Now().Unix())

	if address == "" {
		return
	}

	cache.GetLogger().WithField("module", "metrics").Info("Listening on " + address)
	go http.ListenAndServe(address, nil)
}
