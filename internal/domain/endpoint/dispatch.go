package endpoint

import (
	"context"
	"fmt"
)

// Dispatch performs the request over t and decodes the body into T.
//
// Errors from the transport are returned as-is and no decode is attempted.
// If ctx ends while the transport is in flight the result is discarded and a
// *TransportError wrapping ctx.Err() is returned, so callers never observe a
// value decoded after cancellation.
func Dispatch[T any](ctx context.Context, t Transport, req Request[T]) (*T, error) {
	if !req.valid() {
		return nil, fmt.Errorf("%w: request was not built from an endpoint", ErrInvalidRequest)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidRequest)
	}
	path := req.Path()
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Path: path, Namespace: req.Namespace(), Cause: err}
	}

	body, err := t.Get(ctx, path, req.Namespace())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Path: path, Namespace: req.Namespace(), Cause: err}
	}

	out, err := Decode[T](body)
	if err != nil {
		return nil, err
	}
	return out, nil
}
