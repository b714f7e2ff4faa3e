package pdfgen

import (
	"context"
	"errors"

	errorslib "github.com/goliatone/go-errors"
)

// ErrorKind defines generation error kinds.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindPlatform   ErrorKind = "unsupported_platform"
	KindRasterizer ErrorKind = "rasterizer"
	KindNotFound   ErrorKind = "not_found"
	KindTimeout    ErrorKind = "timeout"
	KindCanceled   ErrorKind = "canceled"
	KindInternal   ErrorKind = "internal"
	KindNotImpl    ErrorKind = "not_implemented"
)

// GenerateError wraps errors with a kind.
type GenerateError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *GenerateError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *GenerateError) Unwrap() error {
	return e.Err
}

// NewError creates a new generation error.
func NewError(kind ErrorKind, msg string, err error) *GenerateError {
	return &GenerateError{Kind: kind, Msg: msg, Err: err}
}

// AsGoError maps an error into a go-errors error.
func AsGoError(err error) *errorslib.Error {
	if err == nil {
		return nil
	}

	var ge *errorslib.Error
	if errors.As(err, &ge) {
		return ge
	}

	kind := KindInternal
	msg := err.Error()

	var genErr *GenerateError
	if errors.As(err, &genErr) {
		kind = genErr.Kind
		if genErr.Msg != "" {
			msg = genErr.Msg
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		kind = KindCanceled
	}

	switch kind {
	case KindValidation:
		return errorslib.New(msg, errorslib.CategoryValidation).WithTextCode("validation")
	case KindPlatform:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("unsupported_platform")
	case KindRasterizer:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("rasterizer")
	case KindNotFound:
		return errorslib.New(msg, errorslib.CategoryNotFound).WithTextCode("not_found")
	case KindTimeout:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("timeout")
	case KindCanceled:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("canceled")
	case KindNotImpl:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("not_implemented")
	default:
		return errorslib.New(msg, errorslib.CategoryInternal).WithTextCode("internal")
	}
}

// KindFromError maps an error to its generation error kind.
func KindFromError(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var genErr *GenerateError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	return KindInternal
}
