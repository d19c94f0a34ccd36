package domain

// HealthStatus is the verdict of one doctor check. Only HealthError makes
// `puremath doctor` exit non-zero.
type HealthStatus string

const (
	HealthOK    HealthStatus = "ok"
	HealthWarn  HealthStatus = "warn"
	HealthError HealthStatus = "error"
)

// HealthCheck is one line of the doctor report, e.g. the Telegram token
// check with the bot username in Details.
type HealthCheck struct {
	Name    string
	Status  HealthStatus
	Details string
}

// HealthReport lists checks in the order they ran.
type HealthReport struct {
	Checks []HealthCheck
}

// Failed counts checks with HealthError.
func (r HealthReport) Failed() int {
	n := 0
	for _, c := range r.Checks {
		if c.Status == HealthError {
			n++
		}
	}
	return n
}
