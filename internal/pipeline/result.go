package pipeline

type resultKind int

const (
	resultOk resultKind = iota
	resultSkip
	resultFail
	resultFatal
)

// Result is the outcome of one transform or fallback invocation. It is
// created per invocation and consumed immediately by the stage runtime.
type Result[T any] struct {
	kind resultKind
	item T
	err  error
}

// Ok forwards the (possibly rewritten) item downstream.
func Ok[T any](item T) Result[T] {
	return Result[T]{kind: resultOk, item: item}
}

// Skip silently drops the item without treating it as a failure.
func Skip[T any]() Result[T] {
	return Result[T]{kind: resultSkip}
}

// Fail reports a transient failure. The stage applies its fallback when one
// is configured; otherwise the item is failure-marked and still forwarded.
func Fail[T any](err error) Result[T] {
	return Result[T]{kind: resultFail, err: err}
}

// Fatal reports an unprocessable item. The stage drops it and records a
// diagnostic; the pipeline keeps running.
func Fatal[T any](err error) Result[T] {
	return Result[T]{kind: resultFatal, err: err}
}

// Err returns the failure attached to a Fail or Fatal result.
func (r Result[T]) Err() error {
	return r.err
}
