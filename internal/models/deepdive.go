package models

// Term is an educational glossary entry.
type Term struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Scenario is one row of the price-move table.
type Scenario struct {
	Move    string `json:"move"`
	Outcome string `json:"outcome"`
	PnL     string `json:"pnl"`
}

// DeepDive is the risk analysis for one selected strategy.
type DeepDive struct {
	AssetAnalysis        string     `json:"asset_analysis,omitempty"`
	MarketContext        string     `json:"market_context,omitempty"`
	BullCase             string     `json:"bull_case,omitempty"`
	BearCase             string     `json:"bear_case,omitempty"`
	KeyMetric            string     `json:"key_metric,omitempty"`
	InstitutionalContext string     `json:"institutional_context,omitempty"`
	Terms                []Term     `json:"terms,omitempty"`
	Scenarios            []Scenario `json:"scenarios,omitempty"`
	Raw                  Record     `json:"raw"`
}

// DeepDiveFromRecord reads a deep dive out of either schema variant.
// educational_terms may be a list of {term, definition} objects or a
// single term->definition object.
func DeepDiveFromRecord(rec Record) *DeepDive {
	d := &DeepDive{
		AssetAnalysis:        rec.String("asset_analysis"),
		MarketContext:        rec.String("market_context"),
		BullCase:             rec.String("bull_case"),
		BearCase:             rec.String("bear_case"),
		KeyMetric:            rec.String("key_metric"),
		InstitutionalContext: rec.String("institutional_context"),
		Raw:                  rec,
	}

	switch terms := rec["educational_terms"].(type) {
	case []any:
		for _, t := range rec.Records("educational_terms") {
			if name := t.String("term"); name != "" {
				d.Terms = append(d.Terms, Term{Term: name, Definition: t.String("definition")})
			}
		}
	case map[string]any:
		for _, name := range Record(terms).Keys() {
			d.Terms = append(d.Terms, Term{Term: name, Definition: scalarString(terms[name])})
		}
	}

	for _, s := range rec.Records("scenarios") {
		d.Scenarios = append(d.Scenarios, Scenario{
			Move:    s.First("move", "scenario"),
			Outcome: s.String("outcome"),
			PnL:     s.First("pnl", "p&l", "profit_loss"),
		})
	}
	return d
}
