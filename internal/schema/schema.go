// Package schema checks extracted records against the shape each prompt
// asks for. A mismatch is reported, not enforced: the wizard keeps a
// record that parses even if the model drifted from the contract.
package schema

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/bobmcallan/macro-alpha/internal/models"
	"github.com/bobmcallan/macro-alpha/internal/prompts"
)

// Kind names the stage a record belongs to.
type Kind string

const (
	KindCritique   Kind = "critique"
	KindStrategies Kind = "strategies"
	KindDeepDive   Kind = "deep_dive"
)

const scenarioDef = `#Scenario: {
	move:    string
	outcome: string
	pnl:     string | number
	...
}
`

var sources = map[prompts.Variant]map[Kind]string{
	prompts.Classic: {
		KindCritique: `
consensus_view:        string
risk_factors:          string
calibration_questions: [...string]
`,
		KindStrategies: `
#Strategy: {
	id:                number | string
	name:              string
	instrument:        string
	specific_tickers:  string | [...string]
	brief_explanation: string
	max_profit:        string | number
	max_loss:          string | number
	...
}
strategies: [#Strategy, ...#Strategy]
`,
		KindDeepDive: scenarioDef + `
educational_terms: [...{term: string, definition: string}]
asset_analysis:    string
market_context:    string
scenarios: [...#Scenario]
`,
	},
	prompts.Structured: {
		KindCritique: `
consensus_view:   string
contrarian_angle: string
calibration_questions: [...{question: string, rationale?: string}]
`,
		KindStrategies: `
#Strategy: {
	id:               number | string
	name:             string
	instrument:       string
	specific_tickers: string | [...string]
	direction:        string
	logic:            string
	max_profit:       string | number
	max_loss:         string | number
	risk_reward:      string | number
	search_query?:    string
	...
}
strategies: [#Strategy, ...#Strategy]
`,
		KindDeepDive: scenarioDef + `
bull_case:             string
bear_case:             string
key_metric:            string
institutional_context: string
scenarios: [...#Scenario]
`,
	},
}

// Checker validates records for one prompt variant. Safe for concurrent use.
type Checker struct {
	mu      sync.Mutex
	ctx     *cue.Context
	schemas map[Kind]cue.Value
}

// NewChecker compiles the schemas for variant.
func NewChecker(variant prompts.Variant) (*Checker, error) {
	srcs, ok := sources[variant]
	if !ok {
		return nil, fmt.Errorf("unknown schema variant %q", variant)
	}

	ctx := cuecontext.New()
	c := &Checker{ctx: ctx, schemas: make(map[Kind]cue.Value, len(srcs))}
	for kind, src := range srcs {
		v := ctx.CompileString(src, cue.Filename(string(variant)+"/"+string(kind)+".cue"))
		if err := v.Err(); err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", kind, err)
		}
		c.schemas[kind] = v
	}
	return c, nil
}

// Check reports whether rec has every field the kind's contract asks
// for, with the right types. Extra fields are allowed.
func (c *Checker) Check(kind Kind, rec models.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	schema, ok := c.schemas[kind]
	if !ok {
		return fmt.Errorf("unknown record kind %q", kind)
	}

	value := c.ctx.Encode(map[string]any(rec))
	if err := value.Err(); err != nil {
		return fmt.Errorf("encode %s record: %w", kind, err)
	}
	if err := schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s record does not match schema: %w", kind, err)
	}
	return nil
}
