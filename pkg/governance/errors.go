/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: errors.go
Description: Canonical error taxonomy for the governance core. Every failure
surfaced to SDK and CLI callers is a GovernanceError carrying a stable numeric
code (1000s request/stake errors, 2000s governance errors, 5000s connection
errors) paired with a human-readable message.
*/

package governance

import (
	"errors"
	"fmt"
)

// GovernanceError is a typed error with a stable numeric code. Two
// GovernanceErrors compare equal under errors.Is when their codes match,
// so the exported sentinels below can be used as match targets.
type GovernanceError struct {
	Code    int    // Stable numeric error code
	Message string // Human-readable message
	Err     error  // Wrapped cause, may be nil
}

// Error implements the error interface
func (e *GovernanceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause
func (e *GovernanceError) Unwrap() error {
	return e.Err
}

// Is matches any GovernanceError with the same code
func (e *GovernanceError) Is(target error) bool {
	var other *GovernanceError
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// WithCause returns a copy of the error wrapping the given cause.
// The sentinel itself is never mutated.
func (e *GovernanceError) WithCause(cause error) *GovernanceError {
	return &GovernanceError{Code: e.Code, Message: e.Message, Err: cause}
}

// WithMessagef returns a copy of the error with extra detail appended to the
// message, keeping the code stable for programmatic matching.
func (e *GovernanceError) WithMessagef(format string, args ...interface{}) *GovernanceError {
	return &GovernanceError{
		Code:    e.Code,
		Message: fmt.Sprintf("%s: %s", e.Message, fmt.Sprintf(format, args...)),
		Err:     e.Err,
	}
}

// Request and stake errors (1000s)
var (
	ErrRateLimitExceeded   = &GovernanceError{Code: 1001, Message: "rate limit exceeded"}
	ErrInsufficientStake   = &GovernanceError{Code: 1002, Message: "staking amount below minimum"}
	ErrInsufficientFunds   = &GovernanceError{Code: 1003, Message: "insufficient funds"}
	ErrInvalidStakeAmount  = &GovernanceError{Code: 1004, Message: "invalid stake amount"}
	ErrInvalidLockupPeriod = &GovernanceError{Code: 1005, Message: "lockup period out of range"}
	ErrStakeLocked         = &GovernanceError{Code: 1006, Message: "stake still locked"}
)

// Governance errors (2000s)
var (
	ErrInvalidProposalParameters   = &GovernanceError{Code: 2001, Message: "invalid proposal parameters"}
	ErrInvalidVotingPeriod         = &GovernanceError{Code: 2002, Message: "voting period out of range"}
	ErrProposalNotFound            = &GovernanceError{Code: 2003, Message: "proposal not found"}
	ErrVotingNotStarted            = &GovernanceError{Code: 2004, Message: "voting has not started"}
	ErrVotingEnded                 = &GovernanceError{Code: 2005, Message: "voting has ended"}
	ErrAlreadyVoted                = &GovernanceError{Code: 2006, Message: "voter has already voted on this proposal"}
	ErrInsufficientVotingPower     = &GovernanceError{Code: 2007, Message: "insufficient voting power"}
	ErrQuorumNotReached            = &GovernanceError{Code: 2008, Message: "quorum not reached"}
	ErrProposalNotSucceeded        = &GovernanceError{Code: 2009, Message: "proposal did not succeed"}
	ErrAlreadyExecuted             = &GovernanceError{Code: 2010, Message: "proposal already executed"}
	ErrTimelockNotElapsed          = &GovernanceError{Code: 2011, Message: "timelock has not elapsed"}
	ErrInvalidStateForCancellation = &GovernanceError{Code: 2012, Message: "proposal cannot be cancelled in its current state"}
	ErrMalformedData               = &GovernanceError{Code: 2013, Message: "malformed proposal account data"}
	ErrProposalNotActive           = &GovernanceError{Code: 2014, Message: "proposal is not open for voting"}
)

// Connection errors (5000s)
var (
	ErrConnectionFailed  = &GovernanceError{Code: 5001, Message: "connection to RPC endpoint failed"}
	ErrTransactionFailed = &GovernanceError{Code: 5002, Message: "transaction submission failed"}
)
