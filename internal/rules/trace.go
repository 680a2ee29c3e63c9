package rules

type ExecutionTrace struct {
	Passes     int         `json:"passes"`
	Fired      []FiredRule `json:"fired,omitempty"`
	Terminated string      `json:"terminated"`
}

// FiredRule records a rule activation that added at least one fact.
type FiredRule struct {
	Pass     int      `json:"pass"`
	Rule     string   `json:"rule"`
	Declared []string `json:"declared"`
}

const (
	TerminatedFixpoint  = "fixpoint"
	TerminatedMaxPasses = "error_max_passes"
)
