package classifier

import (
	"testing"

	"github.com/cuongbtq/verifier-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		stdout     string
		stderr     string
		wantStatus domain.VerdictStatus
		wantPassed bool
		wantMarker string
	}{
		{
			name:       "success marker",
			stdout:     "compiling...\nVerification successful\n",
			wantStatus: domain.VerdictPassed,
			wantPassed: true,
			wantMarker: "Verification successful",
		},
		{
			name:       "failure marker takes precedence",
			stdout:     "Verification successful\nRisk threshold not met\n",
			wantStatus: domain.VerdictFailed,
			wantPassed: false,
			wantMarker: "Risk threshold not met",
		},
		{
			name:       "failure marker in stderr",
			stdout:     "Proof verified",
			stderr:     "warning: verification failed for entity",
			wantStatus: domain.VerdictFailed,
			wantPassed: false,
			wantMarker: "verification failed",
		},
		{
			name:       "no marker is indeterminate but passing",
			stdout:     "done",
			wantStatus: domain.VerdictIndeterminate,
			wantPassed: true,
		},
		{
			name:       "compliance check passed",
			stdout:     "Compliance check passed",
			wantStatus: domain.VerdictPassed,
			wantPassed: true,
			wantMarker: "Compliance check passed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Classify(tt.stdout, tt.stderr)

			assert.Equal(t, tt.wantStatus, verdict.Status)
			assert.Equal(t, tt.wantPassed, verdict.VerificationPassed)
			assert.Equal(t, tt.wantMarker, verdict.MatchedMarker)
			assert.Equal(t, DefaultRulesVersion, verdict.RulesVersion)
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	stdout := "Proof generated successfully in 1200 ms\n{\"proof\":\"abc\"}"
	assert.Equal(t, Classify(stdout, ""), Classify(stdout, ""))
}

func TestExtractProof(t *testing.T) {
	tests := []struct {
		name      string
		stdout    string
		wantOK    bool
		wantProof any
	}{
		{
			name:      "trailing fragment",
			stdout:    `Verification successful {"proof":"abc123"}`,
			wantOK:    true,
			wantProof: "abc123",
		},
		{
			name:      "last fragment wins",
			stdout:    "{\"proof\":\"first\"}\nmore output\n{\"proof\":\"second\",\"publicInput\":\"x\"}",
			wantOK:    true,
			wantProof: "second",
		},
		{
			name:   "malformed fragment is swallowed",
			stdout: `{"proof": abc}`,
			wantOK: false,
		},
		{
			name:   "no fragment",
			stdout: "nothing here",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, ok := ExtractProof(tt.stdout)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantProof, data["proof"])
			} else {
				assert.Nil(t, data)
			}
		})
	}
}

func TestClassify_AttachesProof(t *testing.T) {
	verdict := Classify(`Verification successful
{"proof":"abc123"}`, "")

	assert.Equal(t, "abc123", verdict.Proof)
	require.NotNil(t, verdict.ProofData)
	assert.Equal(t, "abc123", verdict.ProofData["proof"])
}

func TestExtractMetrics(t *testing.T) {
	output := "GLEIF data fetched\nCircuit compiled in 350 ms\nProof generated successfully (4096 bytes, 2 MB peak) 1200ms\nVerification successful"

	m := ExtractMetrics(output)

	assert.Equal(t, []string{"350", "1200"}, m.Timings)
	assert.Equal(t, []string{"4096 bytes", "2 MB"}, m.SizeMetrics)
	assert.True(t, m.ProofGenerated)
	assert.True(t, m.CircuitCompiled)
	assert.True(t, m.DataFetched)
	assert.True(t, m.VerificationSuccessful)
}

func TestExtractMetrics_Empty(t *testing.T) {
	m := ExtractMetrics("")
	assert.Equal(t, domain.Metrics{}, m)
}

func TestLoadTable(t *testing.T) {
	t.Run("overrides per tool", func(t *testing.T) {
		table, err := LoadTable("testdata/markers.yaml")
		require.NoError(t, err)

		c := New(table)

		verdict := c.Classify("get-BSDI-compliance-verification", "Integrity mismatch", "")
		assert.Equal(t, domain.VerdictFailed, verdict.Status)
		assert.Equal(t, "bsdi-v2", verdict.RulesVersion)

		verdict = c.Classify("get-BSDI-compliance-verification", "Verification successful", "")
		assert.Equal(t, domain.VerdictIndeterminate, verdict.Status)

		verdict = c.Classify("get-GLEIF-verification-with-sign", "Verification successful", "")
		assert.Equal(t, domain.VerdictPassed, verdict.Status)
		assert.Equal(t, "2025-01", verdict.RulesVersion)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTable("testdata/nonexistent.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read marker table")
	})

	t.Run("malformed file", func(t *testing.T) {
		_, err := LoadTable("testdata/malformed.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse marker table")
	})
}

func TestNew_NilTableUsesDefaults(t *testing.T) {
	c := New(nil)
	verdict := c.Classify("any-tool", "Proof verified", "")
	assert.Equal(t, domain.VerdictPassed, verdict.Status)
}
