package forecast

import (
	"errors"
	"fmt"
)

// Kind classifies forecasting errors so callers can branch on them
// programmatically instead of parsing messages.
type Kind string

const (
	// KindInsufficientData means the history is shorter than the model's
	// minimum window.
	KindInsufficientData Kind = "insufficient_data"
	// KindInvalidState means Predict was called before a successful Train.
	KindInvalidState Kind = "invalid_state"
	// KindModelFitFailure means the numeric fit did not converge, even
	// after fallback.
	KindModelFitFailure Kind = "model_fit_failure"
	// KindShapeMismatch means paired sequences had unequal lengths.
	KindShapeMismatch Kind = "shape_mismatch"
	// KindUnknownModelType means the factory was given an unrecognized label.
	KindUnknownModelType Kind = "unknown_model_type"
	// KindCapabilityUnavailable means an optional model variant is not
	// present in this runtime.
	KindCapabilityUnavailable Kind = "capability_unavailable"
	// KindNoModelsAvailable means an ensemble had no trained member able to
	// produce a prediction.
	KindNoModelsAvailable Kind = "no_models_available"
)

// Error is the forecasting core's error type.
type Error struct {
	Kind    Kind
	Model   string // model type label, when known
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Model != "" {
		msg = fmt.Sprintf("%s: %s", e.Model, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a forecast Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == kind
}

func errInsufficientData(model string, need, got int) *Error {
	return &Error{
		Kind:    KindInsufficientData,
		Model:   model,
		Message: fmt.Sprintf("insufficient history: need at least %d observations, got %d (short by %d)", need, got, need-got),
	}
}

func errInvalidState(model string) *Error {
	return &Error{
		Kind:    KindInvalidState,
		Model:   model,
		Message: "model must be trained before predicting",
	}
}

func errFitFailure(model, message string, err error) *Error {
	return &Error{Kind: KindModelFitFailure, Model: model, Message: message, Err: err}
}

func errShapeMismatch(message string) *Error {
	return &Error{Kind: KindShapeMismatch, Message: message}
}
