package models

// CalibrationQuestion is one clarifying question posed back to the user.
type CalibrationQuestion struct {
	Question  string `json:"question"`
	Rationale string `json:"rationale,omitempty"`
}

// Critique is the first-stage assessment of a thesis.
type Critique struct {
	ConsensusView string                `json:"consensus_view"`
	RiskAngle     string                `json:"risk_angle"`
	Questions     []CalibrationQuestion `json:"questions"`
	Raw           Record                `json:"raw"`
}

// QuestionTexts returns the questions without rationale.
func (c *Critique) QuestionTexts() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.Questions))
	for i, q := range c.Questions {
		out[i] = q.Question
	}
	return out
}

// CritiqueFromRecord reads a critique out of either schema variant.
// Questions may be plain strings or {question, rationale} objects.
// Missing fields are left empty.
func CritiqueFromRecord(rec Record) *Critique {
	c := &Critique{
		ConsensusView: rec.String("consensus_view"),
		RiskAngle:     rec.First("risk_factors", "contrarian_angle"),
		Raw:           rec,
	}

	key := "calibration_questions"
	if _, ok := rec[key]; !ok {
		key = "questions"
	}
	list, _ := rec[key].([]any)
	for _, item := range list {
		switch v := item.(type) {
		case map[string]any:
			q := Record(v)
			text := q.First("question", "q", "text")
			if text == "" {
				continue
			}
			c.Questions = append(c.Questions, CalibrationQuestion{
				Question:  text,
				Rationale: q.First("rationale", "why"),
			})
		default:
			if text := scalarString(v); text != "" {
				c.Questions = append(c.Questions, CalibrationQuestion{Question: text})
			}
		}
	}
	return c
}

// Answer pairs a calibration question with the user's reply. Either side
// may be empty.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// PairAnswers lines replies up with the critique's questions by position.
// Extra replies keep an empty question; missing replies stay empty.
func PairAnswers(c *Critique, replies []string) []Answer {
	questions := c.QuestionTexts()
	n := len(questions)
	if len(replies) > n {
		n = len(replies)
	}
	out := make([]Answer, n)
	for i := range out {
		if i < len(questions) {
			out[i].Question = questions[i]
		}
		if i < len(replies) {
			out[i].Answer = replies[i]
		}
	}
	return out
}
