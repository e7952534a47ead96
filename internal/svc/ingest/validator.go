// If you are AI: This file defines the pluggable stream validation policy.
// The dispatcher consults the validator at fixed checkpoints; policy logic
// lives entirely behind this interface.

package ingest

// Stage names a validation checkpoint in the publish lifecycle.
type Stage string

const (
	// StagePublish is consulted when a publish command names its stream key.
	StagePublish Stage = "publish"
	// StageReleaseStream is consulted when releaseStream names a stream key.
	StageReleaseStream Stage = "release_stream"
	// StageSetDataFrame is consulted when @setDataFrame delivers stream metadata.
	StageSetDataFrame Stage = "set_data_frame"
)

// Outcome is the result of a single validation call.
// Exactly one of Value or Reason is meaningful, selected by OK.
type Outcome struct {
	OK     bool
	Value  interface{} // policy-provided value on success, often the input params
	Reason string      // human-readable rejection reason on failure
}

// Accept builds a success outcome carrying a value.
func Accept(value interface{}) Outcome {
	return Outcome{OK: true, Value: value}
}

// Reject builds a failure outcome carrying a reason.
func Reject(reason string) Outcome {
	return Outcome{Reason: reason}
}

// Validator decides whether an inbound stream may proceed past a stage.
// Implementations must be safe to call even when the stream is ultimately
// rejected; the dispatcher may consult later stages regardless.
type Validator interface {
	Validate(stage Stage, params map[string]interface{}) Outcome
}

// AllowAll accepts every stream at every stage. It is the default policy:
// the ingest path is fully usable without any custom validator.
type AllowAll struct{}

// Validate returns success with the input parameters as the value.
func (AllowAll) Validate(stage Stage, params map[string]interface{}) Outcome {
	return Accept(params)
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(stage Stage, params map[string]interface{}) Outcome

// Validate calls the wrapped function.
func (f ValidatorFunc) Validate(stage Stage, params map[string]interface{}) Outcome {
	return f(stage, params)
}
