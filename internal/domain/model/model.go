// Package model contains domain models passed between layers.
package model

// ModelRef identifies one candidate on a leaderboard. The ID is opaque and
// only meaningful to the runtime that produced it.
type ModelRef struct {
	ID   string `json:"id"`
	Rank int    `json:"rank"` // 1-based position on the leaderboard
}

// Leaderboard is the rank-ordered list of candidates produced by a model
// search. Index 0 is the leader. It is treated as read-only.
type Leaderboard []ModelRef

// Leader returns the top-ranked candidate.
func (lb Leaderboard) Leader() (ModelRef, bool) {
	if len(lb) == 0 {
		return ModelRef{}, false
	}
	return lb[0], true
}

// Top returns at most n leading entries without copying.
func (lb Leaderboard) Top(n int) Leaderboard {
	if n < 0 || n >= len(lb) {
		return lb
	}
	return lb[:n]
}

// NewLeaderboard builds a leaderboard from ids in rank order.
func NewLeaderboard(ids ...string) Leaderboard {
	lb := make(Leaderboard, len(ids))
	for i, id := range ids {
		lb[i] = ModelRef{ID: id, Rank: i + 1}
	}
	return lb
}

// ArtifactResult describes the files produced by one export.
type ArtifactResult struct {
	// PortablePath is empty when no candidate could export a portable artifact.
	PortablePath string `json:"portable_path,omitempty" yaml:"portable_path,omitempty"`
	// SourceModelID is the candidate that produced PortablePath.
	SourceModelID string `json:"source_model_id,omitempty" yaml:"source_model_id,omitempty"`
	// NativePath is always set when the export succeeded.
	NativePath string `json:"native_path" yaml:"native_path"`
	// NativeModelID is the leader the native artifact was saved from.
	NativeModelID string `json:"native_model_id" yaml:"native_model_id"`
}

// Portable reports whether a portable artifact was produced.
func (r ArtifactResult) Portable() bool {
	return r.PortablePath != ""
}

// Findings is the alert plus model explanation text handed to the
// playbook generator. It is not parsed.
type Findings string
