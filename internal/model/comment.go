package model

import "time"

// PinnedScore is the score assigned to pinned comments instead of asking the
// scoring model. It deliberately sits one above the nominal 0-100 scoring
// range so pinned comments always rank ahead of organically scored ones; the
// merge engine never treats it specially, it is just a big score.
const PinnedScore = 101.0

// MaxBatchItems is the largest number of comments accepted in one submission.
const MaxBatchItems = 50

// Comment is a single comment as submitted for scoring. ID is unique within
// one batch only; the same comment text can reappear across batches under a
// different id, so merging keys on Content, never on ID.
type Comment struct {
	ID          int    `json:"id"`
	Content     string `json:"content"`
	Likes       string `json:"likes"`
	Replies     string `json:"replies"`
	TimeAgoDays string `json:"timeAgoDays"`
	IsPinned    bool   `json:"isPinned,omitempty"`
}

// BatchRecord is one persisted scoring pass: the comments in original request
// order plus the scores that came back for them, keyed by stringified comment
// id. A comment with no entry in Scores was never scored and is dropped at
// merge time. Records are written once and never mutated.
type BatchRecord struct {
	CreatedAt time.Time          `json:"createdAt"`
	Items     []Comment          `json:"items"`
	Scores    map[string]float64 `json:"scoreMap"`

	// Provenance, carried through for audit but not interpreted.
	Prompt   string `json:"prompt,omitempty"`
	KeepHint int    `json:"topN,omitempty"`
}

// MergedComment decorates a comment with its resolved score and the creation
// time of the batch it came from. Produced only by the merge engine.
type MergedComment struct {
	Comment
	FinalScore  float64   `json:"finalScore"`
	SourceBatch time.Time `json:"sourceBatchTimestamp"`
}

// Summary holds the aggregate stats of one merge run.
type Summary struct {
	TotalItems    int     `json:"totalItems"`
	SourceBatches int     `json:"sourceBatches"`
	MinScore      float64 `json:"minScore"`
	MaxScore      float64 `json:"maxScore"`
}

// Snapshot is the immutable output of one merge run: all currently known
// comments, deduplicated and sorted descending by score.
type Snapshot struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Items       []MergedComment `json:"items"`
	Summary     Summary         `json:"summary"`
}
