package tools

import (
	"fmt"
	"slices"

	"github.com/cuongbtq/verifier-gateway/internal/domain"
)

// Tool identifiers with dedicated convenience endpoints
const (
	ToolGLEIF                  = "get-GLEIF-verification-with-sign"
	ToolCorporateRegistration  = "get-Corporate-Registration-verification-with-sign"
	ToolEXIM                   = "get-EXIM-verification-with-sign"
	ToolRiskAdvanced           = "get-RiskLiquidityAdvancedOptimMerkle-verification-with-sign"
	ToolRiskBasel3             = "get-RiskLiquidityBasel3Optim-Merkle-verification-with-sign"
	ToolStablecoinReservesRisk = "get-StablecoinProofOfReservesRisk-verification-with-sign"
)

// DefaultCompanyName is used by GLEIF verification when no name is supplied
const DefaultCompanyName = "SREE PALANI ANDAVAR AGROS PRIVATE LIMITED"

const composedArtifact = "ComposedRecursiveOptim3LevelVerificationTestWithSign.js"

// Descriptor maps a tool identifier to its artifact and argument rule
type Descriptor struct {
	Name     string  `yaml:"name"`
	Artifact string  `yaml:"artifact"`
	Rule     ArgRule `yaml:"rule"`
}

// Registry is the read-only tool table. Safe for concurrent use.
type Registry struct {
	order  []string
	byName map[string]Descriptor
}

// BuiltinDescriptors returns the default tool table in listing order
func BuiltinDescriptors() []Descriptor {
	return []Descriptor{
		{Name: ToolGLEIF, Artifact: "GLEIFOptimMultiCompanyVerificationTestWithSign.js", Rule: ArgRule{
			Params:  []Param{{Keys: nameKeys, Default: DefaultCompanyName}},
			Network: true,
		}},
		{Name: ToolCorporateRegistration, Artifact: "CorporateRegistrationOptimMultiCompanyVerificationTestWithSign.js", Rule: ArgRule{
			Params:  []Param{{Keys: []string{"cin"}}},
			Network: true,
		}},
		{Name: ToolEXIM, Artifact: "EXIMOptimMultiCompanyVerificationTestWithSign.js", Rule: ArgRule{
			Params:  []Param{{Keys: nameKeys}},
			Network: true,
		}},
		{Name: "get-Composed-Compliance-verification-with-sign", Artifact: composedArtifact},
		{Name: "get-BSDI-compliance-verification", Artifact: "BusinessStdIntegrityOptimMerkleVerificationTestWithSign.js"},
		{Name: "get-BPI-compliance-verification", Artifact: "BusinessProcessIntegrityOptimMerkleVerificationFileTestWithSign.js"},
		{Name: "get-RiskLiquidityACTUS-Verifier-Test_adv_zk", Artifact: "RiskLiquidityAdvancedOptimMerkleVerificationTestWithSign.js"},
		{Name: "get-RiskLiquidityACTUS-Verifier-Test_Basel3_Withsign", Artifact: "RiskLiquidityBasel3OptimMerkleVerificationTestWithSign.js"},
		{Name: ToolRiskBasel3, Artifact: "RiskLiquidityBasel3OptimMerkleVerificationTestWithSign.js", Rule: ArgRule{
			Params: []Param{
				{Keys: []string{"lcrThreshold", "liquidityThreshold"}, Default: "100"},
				{Keys: []string{"nsfrThreshold"}, Default: "100"},
			},
		}},
		{Name: ToolRiskAdvanced, Artifact: "RiskLiquidityAdvancedOptimMerkleVerificationTestWithSign.js", Rule: ArgRule{
			Params: []Param{{Keys: []string{"liquidityThreshold"}, Default: "95"}},
		}},
		{Name: ToolStablecoinReservesRisk, Artifact: "RiskLiquidityStableCoinOptimMerkleVerificationTestWithSign.js", Rule: ArgRule{
			Params: []Param{
				{Keys: []string{"liquidityThreshold"}, Default: "100"},
				{Keys: []string{"minReserveRatio"}, Default: "20"},
				{Keys: []string{"maxVolatility"}, Default: "25"},
				{Keys: []string{"minLiquidityBuffer"}, Default: "80"},
			},
		}},
		{Name: "execute-composed-proof-full-kyc", Artifact: composedArtifact},
		{Name: "execute-composed-proof-financial-risk", Artifact: composedArtifact},
		{Name: "execute-composed-proof-business-integrity", Artifact: composedArtifact},
		{Name: "execute-composed-proof-comprehensive", Artifact: composedArtifact},
	}
}

// NewRegistry validates descriptors and builds a registry.
// A descriptor without an argument rule gets the fallback identity rule.
func NewRegistry(descriptors []Descriptor) (*Registry, error) {
	r := &Registry{
		order:  make([]string, 0, len(descriptors)),
		byName: make(map[string]Descriptor, len(descriptors)),
	}

	for i, d := range descriptors {
		if d.Name == "" {
			return nil, fmt.Errorf("tool[%d]: name is required", i)
		}
		if _, ok := r.byName[d.Name]; ok {
			return nil, fmt.Errorf("tool[%d] %q: duplicate name", i, d.Name)
		}
		if d.Artifact == "" {
			return nil, fmt.Errorf("tool[%d] %q: artifact is required", i, d.Name)
		}
		if d.Rule.isZero() {
			d.Rule = FallbackRule()
		}
		r.order = append(r.order, d.Name)
		r.byName[d.Name] = d
	}

	return r, nil
}

// DefaultRegistry returns a registry over the builtin tool table
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinDescriptors())
	if err != nil {
		panic(err)
	}
	return r
}

// Names returns the registered identifiers in listing order
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Lookup returns the descriptor for name or an *domain.InvalidToolError
func (r *Registry) Lookup(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, &domain.InvalidToolError{Tool: name, Known: r.Names()}
	}
	return d, nil
}

// BuildArgs shapes parameters into the positional arguments for name
func (r *Registry) BuildArgs(name string, params map[string]any) ([]string, error) {
	d, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return d.Rule.Build(params), nil
}
