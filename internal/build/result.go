package build

import "time"

// StageTiming records how long one stage ran.
type StageTiming struct {
	Name     StageName     `json:"name"`
	Duration time.Duration `json:"duration"`
}

// Result summarizes one build. It is returned for failed builds too, with
// FailedStage set and the counters reflecting whatever completed.
type Result struct {
	BuildID     string        `json:"build_id"`
	Started     time.Time     `json:"started"`
	Duration    time.Duration `json:"duration"`
	Stages      []StageTiming `json:"stages"`
	Pages       int           `json:"pages"`
	Assets      int           `json:"assets"`
	FailedStage string        `json:"failed_stage,omitempty"`
	// OutputHash fingerprints the written tree after a successful build. Two
	// builds of identical sources carry the same hash.
	OutputHash string `json:"output_hash,omitempty"`
}
