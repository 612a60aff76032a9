package bot

import (
	"fmt"
)

// NewBrain creates a brain for the specified level.
func NewBrain(level Level) (Brain, error) {
	switch level {
	case LevelEasy:
		return &EasyBot{}, nil
	case LevelMedium:
		return &MediumBot{}, nil
	case LevelHard:
		return &HardBot{}, nil
	case LevelExpert:
		return NewExpertBot(), nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}
