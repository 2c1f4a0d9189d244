package ratelimits

import (
	"testing"
	"time"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/helpers"
	"github.com/sirupsen/logrus"
)

func setupCooldownTest(t *testing.T) {
	cache.SetLogger(logrus.New())

	err := helpers.SetStorageDir(t.TempDir())
	if err != nil {
		t.Fatalf("ratelimits.SetStorageDir() failed: %s", err.Error())
	}
}

func TestCooldownDeniesWithinWindow(t *testing.T) {
	setupCooldownTest(t)

	c := NewCooldownContainer(10 * time.Second)
	now := time.Unix(1000, 0)

	allowed, _ := c.Check("user1", now)
	if !allowed {
		t.Fatalf("ratelimits.Check() denied a fresh key")
	}
	c.Commit("user1", now)

	allowed, remaining := c.Check("user1", now.Add(5*time.Second))
	if allowed {
		t.Fatalf("ratelimits.Check() allowed a key 5s into a 10s cooldown")
	}
	if remaining != 5 {
		t.Fatalf("ratelimits.Check() returned remaining %d, expected 5", remaining)
	}

	allowed, _ = c.Check("user1", now.Add(10*time.Second))
	if !allowed {
		t.Fatalf("ratelimits.Check() denied a key after the cooldown expired")
	}
}

func TestFailedActionDoesNotConsumeCooldown(t *testing.T) {
	setupCooldownTest(t)

	c := NewCooldownContainer(10 * time.Second)
	now := time.Unix(1000, 0)

	allowed, _ := c.Check("user1", now)
	if !allowed {
		t.Fatalf("ratelimits.Check() denied a fresh key")
	}

	// the guarded action failed, the claim gets released
	c.Release("user1")

	allowed, _ = c.Check("user1", now)
	if !allowed {
		t.Fatalf("ratelimits.Check() denied a retry after a released claim")
	}
}

func TestConcurrentClaimsSerialize(t *testing.T) {
	setupCooldownTest(t)

	c := NewCooldownContainer(10 * time.Second)
	now := time.Unix(1000, 0)

	allowed, _ := c.Check("user1", now)
	if !allowed {
		t.Fatalf("ratelimits.Check() denied the first concurrent trigger")
	}

	allowed, _ = c.Check("user1", now)
	if allowed {
		t.Fatalf("ratelimits.Check() allowed a second trigger while a claim was in flight")
	}
}

func TestSweepPrunesExpiredEntries(t *testing.T) {
	setupCooldownTest(t)

	c := NewCooldownContainer(10 * time.Second)
	now := time.Unix(1000, 0)

	allowed, _ := c.Check("user1", now)
	if !allowed {
		t.Fatalf("ratelimits.Check() denied a fresh key")
	}
	c.Commit("user1", now)

	c.Sweep(now.Add(11 * time.Second))

	if c.Get("user1") != 0 {
		t.Fatalf("ratelimits.Sweep() kept an expired entry")
	}
}

func TestCommittedEntriesSurviveRestart(t *testing.T) {
	setupCooldownTest(t)

	c := NewCooldownContainer(10 * time.Second)
	now := time.Now()

	allowed, _ := c.Check("user1", now)
	if !allowed {
		t.Fatalf("ratelimits.Check() denied a fresh key")
	}
	c.Commit("user1", now)

	restarted := &CooldownContainer{}
	restarted.Init()
	defer restarted.Uninit()

	allowed, _ = restarted.Check("user1", now.Add(time.Second))
	if allowed {
		t.Fatalf("ratelimits.Check() forgot a committed entry across a restart")
	}
}
