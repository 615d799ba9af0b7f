package report

import "fmt"

const (
	ExitPass    = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Failure is a finding that ends the run. Details carries extra lines
// printed under the message, such as individual schema violations.
type Failure struct {
	Message string
	Details []string
}

func (f *Failure) Error() string { return f.Message }

func Failf(format string, args ...any) *Failure {
	return &Failure{Message: fmt.Sprintf(format, args...)}
}
