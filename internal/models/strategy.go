package models

import (
	"errors"
	"strconv"
)

// ErrNoStrategies is returned when a record carries no usable strategy list.
var ErrNoStrategies = errors.New("record contains no strategies")

// Strategy is one candidate trade produced by the strategy stage.
type Strategy struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Instrument  string   `json:"instrument"`
	Tickers     []string `json:"tickers,omitempty"`
	Direction   string   `json:"direction,omitempty"`
	Explanation string   `json:"explanation"`
	MaxProfit   string   `json:"max_profit,omitempty"`
	MaxLoss     string   `json:"max_loss,omitempty"`
	RiskReward  string   `json:"risk_reward,omitempty"`
	SearchQuery string   `json:"search_query,omitempty"`
	Raw         Record   `json:"raw"`
}

// StrategiesFromRecord reads the "strategies" list. A strategy without
// an id is identified by its 1-based position so the deep-dive cache
// still has a key.
func StrategiesFromRecord(rec Record) ([]Strategy, error) {
	items := rec.Records("strategies")
	if len(items) == 0 {
		return nil, ErrNoStrategies
	}

	out := make([]Strategy, 0, len(items))
	for i, item := range items {
		id := item.String("id")
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		out = append(out, Strategy{
			ID:          id,
			Name:        item.First("name", "title"),
			Instrument:  item.First("instrument", "ticker"),
			Tickers:     item.Strings("specific_tickers"),
			Direction:   item.First("direction", "bias"),
			Explanation: item.First("brief_explanation", "logic", "explanation"),
			MaxProfit:   item.String("max_profit"),
			MaxLoss:     item.String("max_loss"),
			RiskReward:  item.String("risk_reward"),
			SearchQuery: item.String("search_query"),
			Raw:         item,
		})
	}
	return out, nil
}
