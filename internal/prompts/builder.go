// Package prompts renders the instruction sent to the model at each stage.
// All builders are pure: equal inputs give byte-identical prompts.
package prompts

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bobmcallan/macro-alpha/internal/models"
)

var (
	// ErrEmptyThesis is returned when the thesis is blank.
	ErrEmptyThesis = errors.New("thesis is empty")
	// ErrNegativeCapital is returned when the allocated capital is below zero.
	ErrNegativeCapital = errors.New("capital must not be negative")
)

// Variant selects the record schema requested from the model.
type Variant string

const (
	Classic    Variant = "classic"
	Structured Variant = "structured"
)

// ParseVariant maps a config value to a Variant, defaulting to Classic.
func ParseVariant(s string) Variant {
	if Variant(strings.ToLower(strings.TrimSpace(s))) == Structured {
		return Structured
	}
	return Classic
}

// Builder renders stage prompts for one schema variant and output language.
type Builder struct {
	variant  Variant
	language string
	printer  *message.Printer
}

// NewBuilder creates a Builder. An empty language means English.
func NewBuilder(variant Variant, outputLanguage string) *Builder {
	if variant != Structured {
		variant = Classic
	}
	outputLanguage = strings.TrimSpace(outputLanguage)
	if outputLanguage == "" {
		outputLanguage = "English"
	}
	return &Builder{
		variant:  variant,
		language: outputLanguage,
		printer:  message.NewPrinter(language.English),
	}
}

// Variant returns the schema variant the builder emits.
func (b *Builder) Variant() Variant { return b.variant }

// Critique renders the stage-one prompt that challenges the thesis.
func (b *Builder) Critique(thesis string) (string, error) {
	thesis = strings.TrimSpace(thesis)
	if thesis == "" {
		return "", ErrEmptyThesis
	}

	schema := classicCritiqueSchema
	if b.variant == Structured {
		schema = structuredCritiqueSchema
	}

	var sb strings.Builder
	sb.WriteString("You are a mentor and risk manager for a macro investor.\n")
	fmt.Fprintf(&sb, "User view: %q\n", thesis)
	sb.WriteString("Analyze the view critically. State the market consensus, challenge the view, ")
	sb.WriteString("and ask exactly three calibration questions that would sharpen the trade.\n")
	b.writeContract(&sb, schema)
	return sb.String(), nil
}

// Strategies renders the stage-two prompt. Answers are passed through
// as given; a count that differs from the question count is not an error.
func (b *Builder) Strategies(thesis string, answers []models.Answer, capital decimal.Decimal) (string, error) {
	thesis = strings.TrimSpace(thesis)
	if thesis == "" {
		return "", ErrEmptyThesis
	}
	if capital.IsNegative() {
		return "", ErrNegativeCapital
	}

	schema := classicStrategiesSchema
	if b.variant == Structured {
		schema = structuredStrategiesSchema
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "User view: %s\n", thesis)
	if b.variant == Structured {
		sb.WriteString("Calibration:\n")
		for i, a := range answers {
			fmt.Fprintf(&sb, "  %d. Q: %s\n     A: %s\n", i+1, a.Question, a.Answer)
		}
	} else {
		replies := make([]string, len(answers))
		for i, a := range answers {
			replies[i] = a.Answer
		}
		fmt.Fprintf(&sb, "User answers: %s\n", strings.Join(replies, ", "))
	}
	fmt.Fprintf(&sb, "Capital: $%s\n\n", b.FormatCapital(capital))
	sb.WriteString("Create 3 distinct trading strategies sized for this capital. Be specific with tickers.\n")
	b.writeContract(&sb, schema)
	return sb.String(), nil
}

// DeepDive renders the stage-three prompt for one strategy. The
// strategy is embedded as its original record so nothing the model
// said about it is lost.
func (b *Builder) DeepDive(strategy models.Strategy, thesis string) (string, error) {
	thesis = strings.TrimSpace(thesis)
	if thesis == "" {
		return "", ErrEmptyThesis
	}

	raw := strategy.Raw
	if raw == nil {
		raw = models.Record{
			"id":                strategy.ID,
			"name":              strategy.Name,
			"instrument":        strategy.Instrument,
			"specific_tickers":  strategy.Tickers,
			"brief_explanation": strategy.Explanation,
		}
	}

	schema := classicDeepDiveSchema
	if b.variant == Structured {
		schema = structuredDeepDiveSchema
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze this specific strategy:\n%s\n", raw.JSON())
	fmt.Fprintf(&sb, "It was built from the user view: %s\n", thesis)
	sb.WriteString("Explain the risks plainly for a non-professional investor.\n")
	b.writeContract(&sb, schema)
	return sb.String(), nil
}

// FormatCapital renders capital with thousands grouping, dropping the
// fraction when it is whole: 1000 -> "1,000", 2500.5 -> "2,500.50".
// Amounts beyond int64 are grouped from their exact decimal digits.
func (b *Builder) FormatCapital(capital decimal.Decimal) string {
	rounded := capital
	if !capital.IsInteger() {
		rounded = capital.Round(2)
	}
	whole := rounded.Truncate(0)

	var out string
	if whole.GreaterThanOrEqual(minInt64) && whole.LessThanOrEqual(maxInt64) {
		out = b.printer.Sprintf("%d", whole.IntPart())
	} else {
		out = groupThousands(whole.String())
	}
	if whole.IsZero() && rounded.IsNegative() {
		out = "-" + out
	}

	if capital.IsInteger() {
		return out
	}
	fixed := rounded.StringFixed(2)
	return out + fixed[strings.LastIndex(fixed, "."):]
}

var (
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
	minInt64 = decimal.NewFromInt(math.MinInt64)
)

// groupThousands inserts "," every three digits of an integer string.
func groupThousands(digits string) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	var sb strings.Builder
	sb.WriteString(sign)
	sb.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		sb.WriteByte(',')
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}

func (b *Builder) writeContract(sb *strings.Builder, schema string) {
	fmt.Fprintf(sb, "Write every text value in %s. Keep the JSON keys exactly as shown.\n", b.language)
	sb.WriteString("Output JSON ONLY in this format:\n")
	sb.WriteString(indent(schema, "  "))
	sb.WriteString("\n")
}
