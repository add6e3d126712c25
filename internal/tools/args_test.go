package tools

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/cuongbtq/verifier-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BuildArgs(t *testing.T) {
	registry := DefaultRegistry()

	tests := []struct {
		name     string
		tool     string
		params   map[string]any
		expected []string
	}{
		{
			name:     "gleif defaults company name and network",
			tool:     ToolGLEIF,
			params:   map[string]any{},
			expected: []string{DefaultCompanyName, "TESTNET"},
		},
		{
			name:     "gleif prefers companyName over aliases",
			tool:     ToolGLEIF,
			params:   map[string]any{"legalName": "Legal Co", "companyName": "Acme Ltd"},
			expected: []string{"Acme Ltd", "TESTNET"},
		},
		{
			name:     "gleif uses entityName when others empty",
			tool:     ToolGLEIF,
			params:   map[string]any{"companyName": "", "entityName": "Entity Inc"},
			expected: []string{"Entity Inc", "TESTNET"},
		},
		{
			name:     "gleif honours network parameter",
			tool:     ToolGLEIF,
			params:   map[string]any{"companyName": "Acme", "network": "mainnet"},
			expected: []string{"Acme", "MAINNET"},
		},
		{
			name:     "gleif treats blank network as absent",
			tool:     ToolGLEIF,
			params:   map[string]any{"companyName": "Acme", "network": "   "},
			expected: []string{"Acme", "TESTNET"},
		},
		{
			name:     "gleif falls through blank network to networkType",
			tool:     ToolGLEIF,
			params:   map[string]any{"companyName": "Acme", "network": " ", "networkType": "mainnet "},
			expected: []string{"Acme", "MAINNET"},
		},
		{
			name:     "corporate registration omits missing cin",
			tool:     ToolCorporateRegistration,
			params:   map[string]any{"companyName": "ignored"},
			expected: []string{"TESTNET"},
		},
		{
			name:     "corporate registration passes cin",
			tool:     ToolCorporateRegistration,
			params:   map[string]any{"cin": "U01112TZ2022PTC039493"},
			expected: []string{"U01112TZ2022PTC039493", "TESTNET"},
		},
		{
			name:     "exim omits missing company name",
			tool:     ToolEXIM,
			params:   nil,
			expected: []string{"TESTNET"},
		},
		{
			name:     "advanced risk default threshold",
			tool:     ToolRiskAdvanced,
			params:   map[string]any{},
			expected: []string{"95"},
		},
		{
			name:     "advanced risk zero threshold falls back to default",
			tool:     ToolRiskAdvanced,
			params:   map[string]any{"liquidityThreshold": float64(0)},
			expected: []string{"95"},
		},
		{
			name:     "advanced risk renders float without trailing zeros",
			tool:     ToolRiskAdvanced,
			params:   map[string]any{"liquidityThreshold": 87.5},
			expected: []string{"87.5"},
		},
		{
			name:     "basel3 uses liquidityThreshold alias for lcr",
			tool:     ToolRiskBasel3,
			params:   map[string]any{"liquidityThreshold": float64(110)},
			expected: []string{"110", "100"},
		},
		{
			name:     "basel3 lcr wins over alias",
			tool:     ToolRiskBasel3,
			params:   map[string]any{"lcrThreshold": 120, "liquidityThreshold": 110, "nsfrThreshold": "105"},
			expected: []string{"120", "105"},
		},
		{
			name:     "stablecoin defaults",
			tool:     ToolStablecoinReservesRisk,
			params:   map[string]any{},
			expected: []string{"100", "20", "25", "80"},
		},
		{
			name:     "stablecoin independent defaults",
			tool:     ToolStablecoinReservesRisk,
			params:   map[string]any{"maxVolatility": json.Number("30")},
			expected: []string{"100", "20", "30", "80"},
		},
		{
			name:     "fallback shape prefers legalName",
			tool:     "execute-composed-proof-full-kyc",
			params:   map[string]any{"companyName": "Acme", "legalName": "Acme Legal"},
			expected: []string{"Acme Legal", "TESTNET"},
		},
		{
			name:     "fallback shape without name",
			tool:     "get-BPI-compliance-verification",
			params:   map[string]any{"unrelated": true},
			expected: []string{"TESTNET"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := registry.BuildArgs(tt.tool, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, args)
		})
	}
}

func TestRegistry_BuildArgs_IsPure(t *testing.T) {
	registry := DefaultRegistry()
	params := map[string]any{"companyName": "Acme", "network": "mainnet"}

	first, err := registry.BuildArgs(ToolGLEIF, params)
	require.NoError(t, err)
	second, err := registry.BuildArgs(ToolGLEIF, params)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, map[string]any{"companyName": "Acme", "network": "mainnet"}, params)
}

func TestRegistry_BuildArgs_UnknownTool(t *testing.T) {
	registry := DefaultRegistry()

	_, err := registry.BuildArgs("nonexistent-tool", map[string]any{})
	require.Error(t, err)

	var invalid *domain.InvalidToolError
	require.True(t, errors.As(err, &invalid))
	assert.True(t, errors.Is(err, domain.ErrUnknownTool))
	assert.Equal(t, "nonexistent-tool", invalid.Tool)
	assert.Contains(t, err.Error(), ToolGLEIF)
	assert.Contains(t, err.Error(), "execute-composed-proof-comprehensive")
}

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name      string
		input     []Descriptor
		errString string
	}{
		{
			name:      "missing name",
			input:     []Descriptor{{Artifact: "a.js"}},
			errString: "name is required",
		},
		{
			name:      "missing artifact",
			input:     []Descriptor{{Name: "tool"}},
			errString: "artifact is required",
		},
		{
			name:      "duplicate name",
			input:     []Descriptor{{Name: "tool", Artifact: "a.js"}, {Name: "tool", Artifact: "b.js"}},
			errString: "duplicate name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.input)
			require.Error(t, err)
			assert.Nil(t, r)
			assert.Contains(t, err.Error(), tt.errString)
		})
	}
}

func TestDefaultRegistry_Names(t *testing.T) {
	registry := DefaultRegistry()
	names := registry.Names()

	require.Len(t, names, 15)
	assert.Equal(t, ToolGLEIF, names[0])
	assert.Equal(t, "execute-composed-proof-comprehensive", names[14])

	// callers get a copy
	names[0] = "mutated"
	assert.Equal(t, ToolGLEIF, registry.Names()[0])
}

func TestNewRegistry_EmptyRuleGetsFallback(t *testing.T) {
	registry, err := NewRegistry([]Descriptor{{Name: "custom", Artifact: "custom.js"}})
	require.NoError(t, err)

	args, err := registry.BuildArgs("custom", map[string]any{"entityName": "Entity"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Entity", "TESTNET"}, args)
}
