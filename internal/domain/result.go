package domain

import "time"

// VerdictStatus is the classified outcome of a finished process
type VerdictStatus string

const (
	VerdictPassed        VerdictStatus = "passed"
	VerdictFailed        VerdictStatus = "failed"
	VerdictIndeterminate VerdictStatus = "indeterminate"
)

// Metrics holds auxiliary values scraped from tool output
type Metrics struct {
	Timings                []string `json:"timings,omitempty"`
	ProofGenerated         bool     `json:"proofGenerated,omitempty"`
	CircuitCompiled        bool     `json:"circuitCompiled,omitempty"`
	VerificationSuccessful bool     `json:"verificationSuccessful,omitempty"`
	DataFetched            bool     `json:"dataFetched,omitempty"`
	SizeMetrics            []string `json:"sizeMetrics,omitempty"`
}

// Verdict is what the output classifier derives from captured text
type Verdict struct {
	Status             VerdictStatus  `json:"status"`
	VerificationPassed bool           `json:"verificationPassed"`
	MatchedMarker      string         `json:"matchedMarker,omitempty"`
	RulesVersion       string         `json:"rulesVersion,omitempty"`
	ProofData          map[string]any `json:"proofData,omitempty"`
	Proof              any            `json:"proof,omitempty"`
	Metrics            Metrics        `json:"metrics"`
}

// ExecutionOutcome is the process runner's result for one invocation
type ExecutionOutcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Verdict  Verdict
}

// VerificationResult summarises the verdict inside a report
type VerificationResult struct {
	Success          bool          `json:"success"`
	ZKProofGenerated bool          `json:"zkProofGenerated"`
	Status           string        `json:"status"`
	Verdict          VerdictStatus `json:"verdict"`
	Reason           string        `json:"reason"`
}

// Report is the structured payload of an execution result
type Report struct {
	Status             string              `json:"status"`
	ZKProofGenerated   bool                `json:"zkProofGenerated"`
	Timestamp          time.Time           `json:"timestamp"`
	ExecutionMode      string              `json:"executionMode"`
	Output             string              `json:"output,omitempty"`
	Stderr             string              `json:"stderr,omitempty"`
	Error              string              `json:"error,omitempty"`
	VerificationResult *VerificationResult `json:"verificationResult,omitempty"`
	ProofData          map[string]any      `json:"proofData,omitempty"`
	ZKProof            any                 `json:"zkProof,omitempty"`
	ExecutionMetrics   *Metrics            `json:"executionMetrics,omitempty"`
}

// Result is the single failure/success shape shared by sync calls and jobs
type Result struct {
	Success         bool    `json:"success"`
	Result          *Report `json:"result"`
	ExecutionTimeMs int64   `json:"executionTimeMs"`
	Error           string  `json:"error,omitempty"`

	// Err keeps the failure's error chain for status mapping; it is not serialized
	Err error `json:"-"`

	// Set when the result belongs to an async job
	JobID       string     `json:"jobId,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Mode        string     `json:"mode,omitempty"`
}
