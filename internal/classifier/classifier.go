// Package classifier derives a verdict from the free-form text an external
// verification program prints. Matching is plain substring search.
package classifier

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/cuongbtq/verifier-gateway/internal/domain"
)

var (
	proofFragment = regexp.MustCompile(`\{[^}]*"proof"[^}]*\}`)
	timingToken   = regexp.MustCompile(`\b(\d+)\s*ms\b`)
	sizeToken     = regexp.MustCompile(`(?i)\b\d+\s*(bytes|kb|mb)\b`)
)

// Flag markers for auxiliary metrics
const (
	markerProofGenerated  = "Proof generated successfully"
	markerCircuitCompiled = "Circuit compiled"
	markerVerified        = "Verification successful"
	markerDataFetched     = "data fetched"
)

// Classifier applies a marker table. Safe for concurrent use.
type Classifier struct {
	table *Table
}

// New creates a classifier; a nil table uses the builtin rules
func New(table *Table) *Classifier {
	if table == nil {
		table = DefaultTable()
	}
	return &Classifier{table: table}
}

// Classify uses the builtin rules
func Classify(stdout, stderr string) domain.Verdict {
	return classify(DefaultRules(), stdout, stderr)
}

// Classify uses the rules configured for tool
func (c *Classifier) Classify(tool, stdout, stderr string) domain.Verdict {
	return classify(c.table.For(tool), stdout, stderr)
}

func classify(rules Rules, stdout, stderr string) domain.Verdict {
	combined := stdout + "\n" + stderr

	verdict := domain.Verdict{
		Status:             domain.VerdictIndeterminate,
		VerificationPassed: true,
		RulesVersion:       rules.Version,
		Metrics:            ExtractMetrics(stdout),
	}

	if m, ok := firstMarker(combined, rules.FailureMarkers); ok {
		verdict.Status = domain.VerdictFailed
		verdict.VerificationPassed = false
		verdict.MatchedMarker = m
	} else if m, ok := firstMarker(combined, rules.SuccessMarkers); ok {
		verdict.Status = domain.VerdictPassed
		verdict.MatchedMarker = m
	}

	if data, ok := ExtractProof(stdout); ok {
		verdict.ProofData = data
		verdict.Proof = data["proof"]
	}

	return verdict
}

func firstMarker(text string, markers []string) (string, bool) {
	for _, m := range markers {
		if m != "" && strings.Contains(text, m) {
			return m, true
		}
	}
	return "", false
}

// ExtractProof parses the last JSON fragment in stdout that mentions "proof".
// Unparseable fragments are ignored.
func ExtractProof(stdout string) (map[string]any, bool) {
	matches := proofFragment.FindAllString(stdout, -1)
	if len(matches) == 0 {
		return nil, false
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(matches[len(matches)-1]), &data); err != nil {
		return nil, false
	}
	if _, ok := data["proof"]; !ok {
		return nil, false
	}
	return data, true
}

// ExtractMetrics scrapes timing, size and progress markers from output
func ExtractMetrics(output string) domain.Metrics {
	var m domain.Metrics

	for _, match := range timingToken.FindAllStringSubmatch(output, -1) {
		m.Timings = append(m.Timings, match[1])
	}
	m.SizeMetrics = sizeToken.FindAllString(output, -1)

	m.ProofGenerated = strings.Contains(output, markerProofGenerated)
	m.CircuitCompiled = strings.Contains(output, markerCircuitCompiled)
	m.VerificationSuccessful = strings.Contains(output, markerVerified)
	m.DataFetched = strings.Contains(output, markerDataFetched)

	return m
}
