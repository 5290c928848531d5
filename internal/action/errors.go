// internal/action/errors.go
package action

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidOperation marks protocol violations: acting out of turn, answering
	// the wrong dialog, or starting an action while another one is pending.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrActionAlreadyActive is returned by SetActive when the room already has a
	// pending action.
	ErrActionAlreadyActive = fmt.Errorf("%w: an action is already pending", ErrInvalidOperation)

	// ErrNoActiveAction is returned when a response arrives with nothing pending.
	ErrNoActiveAction = fmt.Errorf("%w: no action is pending", ErrInvalidOperation)

	// ErrInterruptResolved is returned when an interrupt window is answered twice.
	ErrInterruptResolved = fmt.Errorf("%w: interrupt already resolved", ErrInvalidOperation)

	ErrMissingParameter = errors.New("missing parameter")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ParameterError reports a stored parameter a step needed but found absent or
// malformed. Context names the action being processed.
type ParameterError struct {
	Context string
	Param   ParamKey
	Reason  string
	missing bool
}

func missingParam(ctx *ActionContext, key ParamKey) *ParameterError {
	return &ParameterError{Context: ctx.String(), Param: key, missing: true}
}

func invalidParam(ctx *ActionContext, key ParamKey, format string, args ...any) *ParameterError {
	return &ParameterError{Context: ctx.String(), Param: key, Reason: fmt.Sprintf(format, args...)}
}

func (e *ParameterError) Error() string {
	if e.missing {
		return fmt.Sprintf("%s: missing parameter %s", e.Context, e.Param)
	}
	return fmt.Sprintf("%s: invalid parameter %s: %s", e.Context, e.Param, e.Reason)
}

func (e *ParameterError) Is(target error) bool {
	if e.missing {
		return target == ErrMissingParameter
	}
	return target == ErrInvalidParameter
}

// ProtocolViolationError reports a player acting when not entitled to.
type ProtocolViolationError struct {
	Player uuid.UUID
	Dialog DialogKind
	Reason string
}

func violation(player uuid.UUID, dialog DialogKind, format string, args ...any) *ProtocolViolationError {
	return &ProtocolViolationError{Player: player, Dialog: dialog, Reason: fmt.Sprintf(format, args...)}
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("invalid operation: player %s on %s: %s", e.Player, e.Dialog, e.Reason)
}

func (e *ProtocolViolationError) Unwrap() error {
	return ErrInvalidOperation
}
