package models

// ErrorKind classifies a failed Resource so callers can branch on the
// kind instead of matching message text.
type ErrorKind int

const (
	ErrInternal ErrorKind = iota
	ErrNotFound
	ErrValidation
	ErrConflict
	ErrInsufficientStock
	ErrUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNotFound:
		return "not_found"
	case ErrValidation:
		return "validation"
	case ErrConflict:
		return "conflict"
	case ErrInsufficientStock:
		return "insufficient_stock"
	case ErrUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

type resourceState int

const (
	stateLoading resourceState = iota
	stateSuccess
	stateError
)

// Resource is the uniform result shape between repositories and their
// callers: exactly one of Loading, Success(value) or Error(kind, message).
// One-shot operations never return Loading; Watch streams emit it as
// their first element.
type Resource[T any] struct {
	state resourceState
	value T
	kind  ErrorKind
	msg   string
}

func NewLoading[T any]() Resource[T] {
	return Resource[T]{state: stateLoading}
}

func NewSuccess[T any](value T) Resource[T] {
	return Resource[T]{state: stateSuccess, value: value}
}

func NewFailure[T any](kind ErrorKind, msg string) Resource[T] {
	return Resource[T]{state: stateError, kind: kind, msg: msg}
}

func (r Resource[T]) IsLoading() bool { return r.state == stateLoading }
func (r Resource[T]) IsSuccess() bool { return r.state == stateSuccess }
func (r Resource[T]) IsError() bool   { return r.state == stateError }

// Value is only meaningful when IsSuccess reports true.
func (r Resource[T]) Value() T { return r.value }

func (r Resource[T]) Kind() ErrorKind { return r.kind }
func (r Resource[T]) Message() string { return r.msg }
