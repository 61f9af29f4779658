package crawler

import (
	"context"
	"net/http"
	"time"

	"sjsage522/dealwatcher/pkg/errors"
)

// Outcome classifies a single request attempt
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeBlocked
	OutcomeFailed
	// OutcomeAborted is a failure that another attempt cannot fix
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeAborted:
		return "aborted"
	default:
		return "failed"
	}
}

// StepKind is the state the fetch loop moves to after an attempt
type StepKind int

const (
	StepDone StepKind = iota
	StepRetry
	StepExhausted
)

// Step tells the fetch loop what to do next.
// An exhausted step still carries the wait owed for the last failure.
type Step struct {
	Kind        StepKind
	Delay       time.Duration
	RotateProxy bool
}

// Policy is the retry policy for listing pages.
// Blocked responses back off BlockedBase + BlockedStep*attempt and switch proxy,
// other failures wait FailureDelay on the same proxy.
type Policy struct {
	MaxAttempts  int
	BlockedBase  time.Duration
	BlockedStep  time.Duration
	FailureDelay time.Duration
}

// DefaultPolicy returns 3 attempts with 40s/70s/100s block backoff and 10s failure backoff
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		BlockedBase:  40 * time.Second,
		BlockedStep:  30 * time.Second,
		FailureDelay: 10 * time.Second,
	}
}

// BlockedDelay returns the wait after a 403 on the zero-based attempt
func (p Policy) BlockedDelay(attempt int) time.Duration {
	return p.BlockedBase + time.Duration(attempt)*p.BlockedStep
}

// Next returns the step following the zero-based attempt that ended with outcome
func (p Policy) Next(attempt int, outcome Outcome) Step {
	switch outcome {
	case OutcomeSuccess:
		return Step{Kind: StepDone}
	case OutcomeAborted:
		return Step{Kind: StepExhausted}
	}

	step := Step{Kind: StepRetry, Delay: p.FailureDelay}
	if outcome == OutcomeBlocked {
		step = Step{Kind: StepRetry, Delay: p.BlockedDelay(attempt), RotateProxy: true}
	}
	if attempt+1 >= p.MaxAttempts {
		step.Kind = StepExhausted
		step.RotateProxy = false
	}
	return step
}

// Classify maps a transport response or error to an outcome
func Classify(resp *Response, err error) Outcome {
	switch {
	case err != nil && !errors.IsRetryable(err):
		return OutcomeAborted
	case err != nil || resp == nil:
		return OutcomeFailed
	case resp.StatusCode == http.StatusForbidden:
		return OutcomeBlocked
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return OutcomeSuccess
	default:
		return OutcomeFailed
	}
}

// Sleeper blocks for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
