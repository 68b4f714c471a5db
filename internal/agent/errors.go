// internal/agent/errors.go
package agent

import (
	"fmt"

	"github.com/xkilldash9x/cuakit/api/schemas"
)

// ErrorCode is a string type used for structured error reporting from the
// turn loop. Using a custom type ensures only predefined constants appear
// where an ErrorCode is expected.
type ErrorCode string

const (
	ErrCodeMalformedArguments  ErrorCode = "MALFORMED_ARGUMENTS"
	ErrCodeSafetyCheckRejected ErrorCode = "SAFETY_CHECK_REJECTED"
	ErrCodeBlockedURL          ErrorCode = "BLOCKED_URL"
	ErrCodeNoModelOutput       ErrorCode = "NO_MODEL_OUTPUT"
)

// MalformedArgumentsError reports a function-call argument payload that is
// not valid JSON. It aborts processing of the single item that carried it;
// the caller decides whether to retry the turn.
type MalformedArgumentsError struct {
	Tool   string
	CallID string
	Err    error
}

func (e *MalformedArgumentsError) Error() string {
	return fmt.Sprintf("malformed arguments for tool %q (call %s): %v", e.Tool, e.CallID, e.Err)
}

func (e *MalformedArgumentsError) Unwrap() error { return e.Err }

func (e *MalformedArgumentsError) Code() ErrorCode { return ErrCodeMalformedArguments }

// SafetyCheckRejectedError reports that the operator declined a pending
// safety check. It is fatal for the run: the pending computer_call_output is
// never emitted and the loop must not retry.
type SafetyCheckRejectedError struct {
	Check schemas.SafetyCheck
}

func (e *SafetyCheckRejectedError) Error() string {
	return fmt.Sprintf("safety check rejected: %s", e.Check.Message)
}

func (e *SafetyCheckRejectedError) Code() ErrorCode { return ErrCodeSafetyCheckRejected }

// BlockedURLError reports a page URL matching the blocklist. It stops output
// construction for the current item.
type BlockedURLError struct {
	URL     string
	Pattern string
}

func (e *BlockedURLError) Error() string {
	return fmt.Sprintf("url %q is blocked (matched %q)", e.URL, e.Pattern)
}

func (e *BlockedURLError) Code() ErrorCode { return ErrCodeBlockedURL }

// NoModelOutputError reports a model response that carried no output items.
// Continuing the loop with nothing new would spin forever, so this always
// surfaces to the caller.
type NoModelOutputError struct {
	ResponseID string
}

func (e *NoModelOutputError) Error() string {
	if e.ResponseID == "" {
		return "model response contained no output"
	}
	return fmt.Sprintf("model response %s contained no output", e.ResponseID)
}

func (e *NoModelOutputError) Code() ErrorCode { return ErrCodeNoModelOutput }
