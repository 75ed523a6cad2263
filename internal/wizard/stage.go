package wizard

import "fmt"

// Stage is one step of the wizard.
type Stage int

const (
	StageIntake Stage = iota
	StageCalibration
	StageStrategySelection
	StageDeepDive
)

var stageNames = [...]string{
	StageIntake:            "intake",
	StageCalibration:       "calibration",
	StageStrategySelection: "strategy_selection",
	StageDeepDive:          "deep_dive",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// MarshalText renders the stage name.
func (s Stage) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(stageNames) {
		return nil, fmt.Errorf("invalid stage %d", int(s))
	}
	return []byte(stageNames[s]), nil
}

// UnmarshalText parses a stage name.
func (s *Stage) UnmarshalText(b []byte) error {
	for i, name := range stageNames {
		if name == string(b) {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", string(b))
}
