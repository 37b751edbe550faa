// Package loadable holds the state of a value that is fetched
// asynchronously: still loading, failed, or loaded.
package loadable

import (
	"fmt"

	"golang.org/x/exp/slices"
)

type State uint8

const (
	StateLoading State = iota
	StateError
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateLoaded:
		return "loaded"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Loadable is a plain tagged union; the owner may move it between any two
// states. The zero value is loading.
type Loadable[T any] struct {
	state State
	err   error
	value T
}

func Loading[T any]() Loadable[T] {
	return Loadable[T]{}
}

func Failed[T any](err error) Loadable[T] {
	return Loadable[T]{state: StateError, err: err}
}

func Loaded[T any](value T) Loadable[T] {
	return Loadable[T]{state: StateLoaded, value: value}
}

// Empty is a successfully loaded, empty collection.
func Empty[S ~[]E, E any]() Loadable[S] {
	return Loaded(S{})
}

func (l Loadable[T]) State() State {
	return l.state
}

func (l Loadable[T]) IsLoading() bool {
	return l.state == StateLoading
}

// Err returns the cause of an error state, nil otherwise.
func (l Loadable[T]) Err() error {
	if l.state != StateError {
		return nil
	}
	return l.err
}

// Peek returns the loaded payload. ok is false in any other state.
func (l Loadable[T]) Peek() (value T, ok bool) {
	if l.state != StateLoaded {
		return value, false
	}
	return l.value, true
}

// AssignIfPresent moves l to loaded(*value) whatever its current state.
// A nil value leaves l untouched.
func (l *Loadable[T]) AssignIfPresent(value *T) {
	if value == nil {
		return
	}
	*l = Loaded(*value)
}

// Update rewrites a loaded payload in place. In any other state fn is not
// called.
func (l *Loadable[T]) Update(fn func(T) T) {
	value, ok := l.Peek()
	if !ok {
		return
	}
	value = fn(value)
	l.AssignIfPresent(&value)
}

func (l Loadable[T]) String() string {
	switch l.state {
	case StateError:
		return fmt.Sprintf("error(%v)", l.err)
	case StateLoaded:
		return fmt.Sprintf("loaded(%v)", l.value)
	default:
		return l.state.String()
	}
}

// EqualFunc compares two states. Errors are equal when their messages
// match; payloads are compared with eq; different states never match.
func EqualFunc[T any](a, b Loadable[T], eq func(T, T) bool) bool {
	if a.state != b.state {
		return false
	}
	switch a.state {
	case StateLoading:
		return true
	case StateError:
		return errorText(a.err) == errorText(b.err)
	case StateLoaded:
		return eq(a.value, b.value)
	default:
		return false
	}
}

func Equal[T comparable](a, b Loadable[T]) bool {
	return EqualFunc(a, b, func(x, y T) bool { return x == y })
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// EqualSlices compares loaded collections element by element.
func EqualSlices[S ~[]E, E comparable](a, b Loadable[S]) bool {
	return EqualFunc(a, b, func(x, y S) bool { return slices.Equal(x, y) })
}
