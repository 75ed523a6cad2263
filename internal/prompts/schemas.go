package prompts

import "strings"

// Output contracts embedded in each prompt. The extractor and the model
// converters expect replies shaped like these.

const classicCritiqueSchema = `{
  "consensus_view": "What the market currently believes",
  "risk_factors": "Risks to the user's view",
  "calibration_questions": ["Q1", "Q2", "Q3"]
}`

const structuredCritiqueSchema = `{
  "consensus_view": "What the market currently believes",
  "contrarian_angle": "Where the user's view disagrees with consensus and why that could be wrong",
  "calibration_questions": [
    {"question": "Q1", "rationale": "Why the answer changes the trade"},
    {"question": "Q2", "rationale": "..."},
    {"question": "Q3", "rationale": "..."}
  ]
}`

const classicStrategiesSchema = `{
  "strategies": [
    {
      "id": 0,
      "name": "Name of strategy",
      "instrument": "Type (e.g. Stocks, Options, ETF)",
      "specific_tickers": "Specific tickers (e.g. XLE, USO)",
      "brief_explanation": "Short explanation",
      "max_profit": "Estimated profit",
      "max_loss": "Maximum risk"
    },
    {"id": 1, "name": "...", "instrument": "...", "specific_tickers": "...", "brief_explanation": "...", "max_profit": "...", "max_loss": "..."},
    {"id": 2, "name": "...", "instrument": "...", "specific_tickers": "...", "brief_explanation": "...", "max_profit": "...", "max_loss": "..."}
  ]
}`

const structuredStrategiesSchema = `{
  "strategies": [
    {
      "id": 0,
      "name": "Name of strategy",
      "instrument": "Type (e.g. Stocks, Options, ETF)",
      "specific_tickers": ["XLE", "USO"],
      "direction": "long | short | neutral",
      "logic": "Step-by-step chain from the thesis to this trade",
      "max_profit": "Estimated profit",
      "max_loss": "Maximum risk",
      "risk_reward": "e.g. 1:3",
      "search_query": "A web search that would verify the key assumption"
    },
    {"id": 1, "name": "...", "instrument": "...", "specific_tickers": ["..."], "direction": "...", "logic": "...", "max_profit": "...", "max_loss": "...", "risk_reward": "...", "search_query": "..."},
    {"id": 2, "name": "...", "instrument": "...", "specific_tickers": ["..."], "direction": "...", "logic": "...", "max_profit": "...", "max_loss": "...", "risk_reward": "...", "search_query": "..."}
  ]
}`

const classicDeepDiveSchema = `{
  "educational_terms": [
    {"term": "Term name", "definition": "Simple definition"},
    {"term": "Term name", "definition": "Simple definition"}
  ],
  "asset_analysis": "Deep analysis of the asset",
  "market_context": "Current market context",
  "scenarios": [
    {"move": "Bear case (-5%)", "outcome": "What happens", "pnl": "-$..."},
    {"move": "Base case (0%)", "outcome": "What happens", "pnl": "+$..."},
    {"move": "Bull case (+5%)", "outcome": "What happens", "pnl": "+$..."}
  ]
}`

const structuredDeepDiveSchema = `{
  "bull_case": "What has to go right",
  "bear_case": "What breaks the trade",
  "key_metric": "The single number to watch",
  "institutional_context": "How large players are positioned",
  "scenarios": [
    {"move": "Bear case (-5%)", "outcome": "What happens", "pnl": "-$..."},
    {"move": "Base case (0%)", "outcome": "What happens", "pnl": "+$..."},
    {"move": "Bull case (+5%)", "outcome": "What happens", "pnl": "+$..."}
  ]
}`

// indent prefixes every line of s.
func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}
