package app

// DiagnoseService is what the transports depend on.
type DiagnoseService interface {
	Diagnose(evidence map[string]int, opts DiagnoseOptions) (*Diagnosis, error)
}
