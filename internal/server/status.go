package server

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/build"
)

// buildStatus tracks the most recent build outcome for the status endpoint
// and for deciding whether the site can be served yet.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	lastResult   *build.Result
	lastSuccess  time.Time
	hasGoodBuild bool
	builds       int
}

func (bs *buildStatus) setError(res *build.Result, err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
	bs.lastResult = res
	bs.builds++
}

func (bs *buildStatus) setSuccess(res *build.Result) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.lastResult = res
	bs.lastSuccess = time.Now()
	bs.hasGoodBuild = true
	bs.builds++
}

// markPrebuilt makes an existing output tree servable without counting a
// build. Used when the initial build is skipped.
func (bs *buildStatus) markPrebuilt() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.hasGoodBuild = true
}

// canServe reports whether at least one successful build exists, and the
// current error if the latest build failed.
func (bs *buildStatus) canServe() (ok bool, lastErr error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.hasGoodBuild, bs.lastError
}

// StatusSnapshot is the JSON shape of /api/status.
type StatusSnapshot struct {
	Status       string    `json:"status"` // ok | failed | waiting
	Builds       int       `json:"builds"`
	HasGoodBuild bool      `json:"has_good_build"`
	LastBuildID  string    `json:"last_build_id,omitempty"`
	Pages        int       `json:"pages"`
	Assets       int       `json:"assets"`
	DurationMS   int64     `json:"duration_ms"`
	OutputHash   string    `json:"output_hash,omitempty"`
	FailedStage  string    `json:"failed_stage,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	LastSuccess  time.Time `json:"last_success,omitempty"`
}

func (bs *buildStatus) snapshot() StatusSnapshot {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	snap := StatusSnapshot{
		Status:       "waiting",
		Builds:       bs.builds,
		HasGoodBuild: bs.hasGoodBuild,
		LastSuccess:  bs.lastSuccess,
	}
	if bs.lastResult != nil {
		snap.LastBuildID = bs.lastResult.BuildID
		snap.Pages = bs.lastResult.Pages
		snap.Assets = bs.lastResult.Assets
		snap.DurationMS = bs.lastResult.Duration.Milliseconds()
		snap.OutputHash = bs.lastResult.OutputHash
		snap.FailedStage = bs.lastResult.FailedStage
	}
	switch {
	case bs.lastError != nil:
		snap.Status = "failed"
		snap.LastError = bs.lastError.Error()
	case bs.hasGoodBuild:
		snap.Status = "ok"
	}
	return snap
}
