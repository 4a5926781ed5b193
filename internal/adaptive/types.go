package adaptive

import "diagnosis-service/internal/estimator"

// Config bounds every session the engine runs. Sessions may override
// the limits through their own SessionConfig; zero fields fall back to
// these values when a session is created.
type Config struct {
	MinQuestions    int     `json:"min_questions"`
	MaxQuestions    int     `json:"max_questions"`
	TargetPrecision float64 `json:"target_precision"`
	AbilityStep     float64 `json:"ability_step"`
	StabilityWindow int     `json:"stability_window"`
}

// DefaultConfig returns the platform assessment defaults.
func DefaultConfig() *Config {
	return &Config{
		MinQuestions:    10,
		MaxQuestions:    30,
		TargetPrecision: 0.3,
		AbilityStep:     estimator.DefaultStep,
		StabilityWindow: 5,
	}
}
