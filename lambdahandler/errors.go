package lambdahandler

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

// ReportingError is a failure of the reporting pipeline itself. The wrapper
// never sends it to Sentry, it only propagates it.
type ReportingError struct {
	Op  string
	Err error
}

func (e *ReportingError) Error() string {
	if e.Err == nil {
		return "sentry: " + e.Op
	}
	return fmt.Sprintf("sentry: %s: %v", e.Op, e.Err)
}

func (e *ReportingError) Unwrap() error {
	return e.Err
}

// NewReportingError wraps err as a ReportingError for operation op.
func NewReportingError(op string, err error) error {
	return &ReportingError{Op: op, Err: err}
}

// IsReportingError reports whether err, or anything it wraps, is a ReportingError.
func IsReportingError(err error) bool {
	if err == nil {
		return false
	}
	var reportingErr *ReportingError
	return errors.As(err, &reportingErr)
}

// TimeoutWarning is captured when an invocation gets close to its deadline.
type TimeoutWarning struct {
	FunctionName string
	Remaining    time.Duration
}

func (w *TimeoutWarning) Error() string {
	return fmt.Sprintf("function %s is expected to get timed out, %s remaining", w.FunctionName, w.Remaining)
}
