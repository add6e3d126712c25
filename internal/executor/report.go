package executor

import (
	"time"

	"github.com/cuongbtq/verifier-gateway/internal/domain"
)

// Report statuses
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Verification statuses reported alongside the verdict
const (
	VerificationPassed        = "verification_passed"
	VerificationFailed        = "verification_failed"
	VerificationIndeterminate = "verification_indeterminate"
)

func successReport(outcome *domain.ExecutionOutcome) *domain.Report {
	verdict := outcome.Verdict
	metrics := verdict.Metrics

	return &domain.Report{
		Status:             StatusCompleted,
		ZKProofGenerated:   true,
		Timestamp:          time.Now().UTC(),
		ExecutionMode:      domain.ExecutionModeIntegrated,
		Output:             outcome.Stdout,
		Stderr:             outcome.Stderr,
		VerificationResult: verificationResult(verdict),
		ProofData:          verdict.ProofData,
		ZKProof:            verdict.Proof,
		ExecutionMetrics:   &metrics,
	}
}

func failureReport(err error) *domain.Report {
	return &domain.Report{
		Status:           StatusFailed,
		ZKProofGenerated: false,
		Timestamp:        time.Now().UTC(),
		ExecutionMode:    domain.ExecutionModeIntegrated,
		Error:            err.Error(),
	}
}

func verificationResult(v domain.Verdict) *domain.VerificationResult {
	vr := &domain.VerificationResult{
		Success:          v.VerificationPassed,
		ZKProofGenerated: true,
		Verdict:          v.Status,
	}

	switch v.Status {
	case domain.VerdictFailed:
		vr.Status = VerificationFailed
		vr.Reason = "Business logic verification failed"
	case domain.VerdictPassed:
		vr.Status = VerificationPassed
		vr.Reason = "Verification completed successfully"
	default:
		vr.Status = VerificationIndeterminate
		vr.Reason = "No verification marker found in output"
	}

	if v.MatchedMarker != "" {
		vr.Reason += ": " + v.MatchedMarker
	}

	return vr
}
