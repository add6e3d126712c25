package handler

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobCursor(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		in := &jobCursor{StartTime: time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC), JobID: "job_a|b"}

		out, err := decodeJobCursor(encodeJobCursor(in))
		require.NoError(t, err)
		assert.True(t, in.StartTime.Equal(out.StartTime))
		assert.Equal(t, in.JobID, out.JobID)
	})

	t.Run("empty", func(t *testing.T) {
		out, err := decodeJobCursor("")
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	invalid := []struct {
		name   string
		cursor string
	}{
		{name: "not base64", cursor: "!!"},
		{name: "no separator", cursor: base64.RawURLEncoding.EncodeToString([]byte("12345"))},
		{name: "no job id", cursor: base64.RawURLEncoding.EncodeToString([]byte("12345|"))},
		{name: "bad time", cursor: base64.RawURLEncoding.EncodeToString([]byte("abc|job_1"))},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeJobCursor(tt.cursor)
			assert.Error(t, err)
		})
	}
}

func TestRiskTool(t *testing.T) {
	tests := []struct {
		riskType any
		want     string
	}{
		{riskType: "advanced", want: "get-RiskLiquidityAdvancedOptimMerkle-verification-with-sign"},
		{riskType: "basel3", want: "get-RiskLiquidityBasel3Optim-Merkle-verification-with-sign"},
		{riskType: "stablecoin", want: "get-StablecoinProofOfReservesRisk-verification-with-sign"},
		{riskType: "other", want: "get-RiskLiquidityAdvancedOptimMerkle-verification-with-sign"},
		{riskType: 3, want: "get-RiskLiquidityAdvancedOptimMerkle-verification-with-sign"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, riskTool(map[string]any{"riskType": tt.riskType}))
	}
}
