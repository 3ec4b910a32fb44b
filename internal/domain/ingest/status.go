package ingest

// Stage is a pipeline checkpoint. Transitions are strictly forward; the stage
// recorded in a status is the last one the paper completed.
type Stage string

// Pipeline stages in order.
const (
	StageFetched        Stage = "fetched"
	StageMetadataStored Stage = "metadata_stored"
	StageChunked        Stage = "chunked"
	StageEmbedded       Stage = "embedded"
	StageIndexed        Stage = "indexed"
)

// Outcome is the terminal result for one paper in a batch.
type Outcome string

// Batch outcome values.
const (
	OutcomeOK      Outcome = "ok"
	OutcomeSkipped Outcome = "skipped"
	OutcomeError   Outcome = "error"
)

// Status is the per-paper result of one ingestion batch. One paper's failure
// never aborts the batch; each paper reports independently.
type Status struct {
	arxivID string
	outcome Outcome
	stage   Stage
	chunks  int
	err     error
}

// NewOK creates a successful status for a fully indexed paper.
func NewOK(arxivID string, chunks int) Status {
	return Status{arxivID: arxivID, outcome: OutcomeOK, stage: StageIndexed, chunks: chunks}
}

// NewSkipped creates a status for a paper left untouched (already indexed).
func NewSkipped(arxivID string) Status {
	return Status{arxivID: arxivID, outcome: OutcomeSkipped, stage: StageIndexed}
}

// NewError creates a failed status recording the last completed stage.
func NewError(arxivID string, stage Stage, err error) Status {
	return Status{arxivID: arxivID, outcome: OutcomeError, stage: stage, err: err}
}

// ArxivID returns the paper identifier.
func (s Status) ArxivID() string { return s.arxivID }

// Outcome returns the terminal result.
func (s Status) Outcome() Outcome { return s.outcome }

// Stage returns the last completed pipeline stage.
func (s Status) Stage() Stage { return s.stage }

// Chunks returns the number of chunks written to the index.
func (s Status) Chunks() int { return s.chunks }

// Err returns the error, if any.
func (s Status) Err() error { return s.err }
