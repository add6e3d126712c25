package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultNetwork is appended when a network-bearing tool gets no network parameter
const DefaultNetwork = "TESTNET"

var (
	nameKeys         = []string{"companyName", "legalName", "entityName"}
	fallbackNameKeys = []string{"legalName", "entityName", "companyName"}
	networkKeys      = []string{"network", "networkType"}
)

// Param is one positional argument. The first key holding a usable value wins;
// with none, Default is used, and an empty Default omits the argument.
type Param struct {
	Keys    []string `yaml:"keys"`
	Default string   `yaml:"default"`
}

// ArgRule describes the ordered arguments of a tool
type ArgRule struct {
	Params  []Param `yaml:"params"`
	Network bool    `yaml:"network"` // append the network mode after Params
}

// FallbackRule is the identity shape used by tools without a dedicated rule
func FallbackRule() ArgRule {
	return ArgRule{
		Params:  []Param{{Keys: fallbackNameKeys}},
		Network: true,
	}
}

func (r ArgRule) isZero() bool {
	return len(r.Params) == 0 && !r.Network
}

// Build returns the argument list for params. It is pure and never fails.
func (r ArgRule) Build(params map[string]any) []string {
	args := make([]string, 0, len(r.Params)+1)

	for _, p := range r.Params {
		if v, ok := firstValue(params, p.Keys); ok {
			args = append(args, v)
		} else if p.Default != "" {
			args = append(args, p.Default)
		}
	}

	if r.Network {
		args = append(args, networkMode(params))
	}

	return args
}

// networkMode picks the first non-blank network key, upper-cased
func networkMode(params map[string]any) string {
	for _, k := range networkKeys {
		if v, ok := render(params[k]); ok {
			if v = strings.TrimSpace(v); v != "" {
				return strings.ToUpper(v)
			}
		}
	}
	return DefaultNetwork
}

func firstValue(params map[string]any, keys []string) (string, bool) {
	for _, k := range keys {
		if s, ok := render(params[k]); ok {
			return s, true
		}
	}
	return "", false
}

// render converts a loosely typed value to its argument form. Zero values
// (nil, "", 0, false) count as absent so that defaults apply.
func render(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, x != ""
	case bool:
		if !x {
			return "", false
		}
		return "true", true
	case float64:
		return renderFloat(x)
	case float32:
		return renderFloat(float64(x))
	case int:
		return strconv.Itoa(x), x != 0
	case int64:
		return strconv.FormatInt(x, 10), x != 0
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return x.String(), x.String() != ""
		}
		return renderFloat(f)
	default:
		s := fmt.Sprint(x)
		return s, s != ""
	}
}

func renderFloat(f float64) (string, bool) {
	if f == 0 || math.IsNaN(f) {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}
