// Package gate decides whether a sync run should happen at all. It is an
// availability and cost control: skipping a run never loses data, it only
// delays propagation until a later run.
package gate

import (
	"encoding/json"
	"log"
	"time"

	"github.com/peterbourgon/diskv/v3"
)

const (
	stateKey = "gate-state"

	// DefaultCooldown is the minimum interval between runs.
	DefaultCooldown = 30 * time.Second
)

// State is what the gate remembers between runs.
type State struct {
	LastSyncAt  time.Time `json:"last_sync_at"`
	SourceMtime time.Time `json:"source_mtime"`
}

// Gate evaluates the run preconditions: target application focused, cooldown
// elapsed, and local source data changed since the last successful run.
type Gate struct {
	d        *diskv.Diskv
	state    State
	Cooldown time.Duration

	// Focus reports whether the target application is frontmost. Best
	// effort; errors report false.
	Focus func() bool
	// SourceMtime reports the local source storage's modification time,
	// ok=false when it cannot be determined.
	SourceMtime func() (time.Time, bool)

	now func() time.Time
}

// Open loads the gate state from basePath. A missing or corrupt state reads
// as the zero State, which always passes the staleness checks.
func Open(basePath string) *Gate {
	g := &Gate{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			CacheSizeMax: 64 * 1024,
		}),
		Cooldown: DefaultCooldown,
		now:      time.Now,
	}
	if val, err := g.d.Read(stateKey); err == nil {
		if err := json.Unmarshal(val, &g.state); err != nil {
			log.Printf("gate: corrupt state, starting cold: %v", err)
			g.state = State{}
		}
	}
	return g
}

// ShouldRun reports whether a run should proceed, with the reason when it
// should not. force bypasses every check.
func (g *Gate) ShouldRun(force bool) (bool, string) {
	if force {
		return true, ""
	}
	if g.Focus != nil && !g.Focus() {
		return false, "target application not active"
	}
	if since := g.now().Sub(g.state.LastSyncAt); since < g.Cooldown {
		return false, "recently synced"
	}
	if g.SourceMtime != nil {
		mtime, ok := g.SourceMtime()
		// Unknown mtime fails open: better a redundant run than a
		// silently stale remote.
		if ok && !mtime.After(g.state.SourceMtime) {
			return false, "source data unchanged"
		}
	}
	return true, ""
}

// MarkSynced records a successful run and persists the state.
func (g *Gate) MarkSynced() error {
	g.state.LastSyncAt = g.now()
	if g.SourceMtime != nil {
		if mtime, ok := g.SourceMtime(); ok {
			g.state.SourceMtime = mtime
		}
	}
	data, err := json.Marshal(g.state)
	if err != nil {
		return err
	}
	return g.d.Write(stateKey, data)
}
