package excel

import "roidecode/internal/config"

// Selection decides which sample table rows enter the cohort and how their
// target maps to valence
type Selection struct {
	Group          string
	PositiveTarget string
	NegativeTarget string
}

// SelectionFromConfig builds the row selection from the data configuration
func SelectionFromConfig(cfg config.DataConfig) Selection {
	return Selection{
		Group:          cfg.CohortGroup,
		PositiveTarget: cfg.PositiveTarget,
		NegativeTarget: cfg.NegativeTarget,
	}
}
