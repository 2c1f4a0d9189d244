package ratelimits

import (
	"math"
	"sync"
	"time"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/models"
)

const (
	// How often expired entries get swept from memory and disk
	SWEEP_INTERVAL = 5 * time.Minute

	// Default cooldown between two trigger actions by the same key
	DEFAULT_COOLDOWN = 60 * time.Second
)

// Global pointer to a container instance
var Container = &CooldownContainer{}

// CooldownContainer tracks the last successful trigger per key, backed
// by the flat-file store. A trigger only consumes its cooldown once the
// guarded action completed, an action that fails partway gets Release()d
// so the user can retry promptly. In-flight claims keep two concurrent
// triggers for the same key from both passing the check.
type CooldownContainer struct {
	sync.Mutex

	cooldown time.Duration
	entries  map[string]float64
	claims   map[string]time.Time
	stop     chan struct{}
}

// NewCooldownContainer allocates a container with $cooldown, without
// loading persisted state or starting the sweeper
func NewCooldownContainer(cooldown time.Duration) *CooldownContainer {
	return &CooldownContainer{
		cooldown: cooldown,
		entries:  make(map[string]float64),
		claims:   make(map[string]time.Time),
	}
}

// Init loads the persisted entries, drops expired ones and starts the
// sweep routine
func (c *CooldownContainer) Init() {
	c.Lock()
	c.cooldown = time.Duration(helpers.GetConfigInt("gatekeeper.trigger_cooldown", int(DEFAULT_COOLDOWN/time.Second))) * time.Second
	c.entries = make(map[string]float64)
	c.claims = make(map[string]time.Time)
	c.stop = make(chan struct{})

	stored := make(map[string]float64)
	if helpers.ReadDocument(models.RateLimitStore, &stored) {
		cutoff := float64(time.Now().Add(-c.cooldown).Unix())
		for key, stamp := range stored {
			if stamp >= cutoff {
				c.entries[key] = stamp
			}
		}
	}
	c.Unlock()

	go c.sweeper()
}

// Uninit stops the sweep routine
func (c *CooldownContainer) Uninit() {
	c.Lock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.Unlock()
}

// Check decides if $key may trigger at $now. An allowed check places an
// in-memory claim, the caller has to Commit() after the guarded action
// succeeded or Release() after it failed. Denied checks return the
// remaining seconds, rounded up.
func (c *CooldownContainer) Check(key string, now time.Time) (allowed bool, remainingSeconds int) {
	c.Lock()
	defer c.Unlock()

	if stamp, ok := c.entries[key]; ok {
		elapsed := float64(now.Unix()) - stamp
		if elapsed < c.cooldown.Seconds() {
			return false, int(math.Ceil(c.cooldown.Seconds() - elapsed))
		}
	}

	if claimedAt, ok := c.claims[key]; ok {
		elapsed := now.Sub(claimedAt).Seconds()
		if elapsed < c.cooldown.Seconds() {
			return false, int(math.Ceil(c.cooldown.Seconds() - elapsed))
		}
	}

	c.claims[key] = now
	return true, 0
}

// Commit persists the trigger timestamp for $key after the guarded
// action completed successfully
func (c *CooldownContainer) Commit(key string, now time.Time) {
	c.Lock()
	delete(c.claims, key)
	c.entries[key] = float64(now.Unix())
	snapshot := c.snapshot()
	c.Unlock()

	helpers.RelaxLog(helpers.WriteDocument(models.RateLimitStore, snapshot))
}

// Release drops an uncommitted claim for $key, a failed action must not
// consume the cooldown
func (c *CooldownContainer) Release(key string) {
	c.Lock()
	delete(c.claims, key)
	c.Unlock()
}

// Get returns the committed last-trigger timestamp for $key, 0 if none
func (c *CooldownContainer) Get(key string) float64 {
	c.Lock()
	defer c.Unlock()

	return c.entries[key]
}

func (c *CooldownContainer) snapshot() map[string]float64 {
	snapshot := make(map[string]float64, len(c.entries))
	for key, stamp := range c.entries {
		snapshot[key] = stamp
	}
	return snapshot
}

// Sweep drops entries and claims older than the cooldown window, and
// persists the pruned entries if anything got removed
func (c *CooldownContainer) Sweep(now time.Time) {
	c.Lock()
	removed := 0
	cutoff := float64(now.Add(-c.cooldown).Unix())
	for key, stamp := range c.entries {
		if stamp < cutoff {
			delete(c.entries, key)
			removed++
		}
	}
	for key, claimedAt := range c.claims {
		if now.Sub(claimedAt) > c.cooldown {
			delete(c.claims, key)
		}
	}
	var snapshot map[string]float64
	if removed > 0 {
		snapshot = c.snapshot()
	}
	c.Unlock()

	if removed > 0 {
		helpers.RelaxLog(helpers.WriteDocument(models.RateLimitStore, snapshot))
	}
}

func (c *CooldownContainer) sweeper() {
	defer helpers.Recover()

	c.Lock()
	stop := c.stop
	c.Unlock()

	for {
		select {
		case <-stop:
			return
		case <-time.After(SWEEP_INTERVAL):
			c.Sweep(time.Now())
		}
	}
}
