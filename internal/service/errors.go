package service

import (
	"context"
	"errors"
	"log"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gurkanbulca/teamboard/internal/apperr"
)

// toStatus converts a domain error into a gRPC status. Services call it
// once, on the way out.
func toStatus(method string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	if reason, ok := apperr.ForbiddenReason(err); ok {
		if reason == apperr.ReasonUnauthenticated {
			return status.Error(codes.Unauthenticated, err.Error())
		}
		return status.Error(codes.PermissionDenied, err.Error())
	}

	var ve *apperr.ValidationError
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "authentication required")
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Error())
	case errors.Is(err, apperr.ErrNotFound):
		return status.Error(codes.NotFound, notFoundMessage(err))
	case errors.Is(err, apperr.ErrConflict):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, apperr.ErrTransaction):
		log.Printf("[WARN] %s rolled back: %v", method, err)
		return status.Error(codes.Aborted, "the change was not saved, please retry")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	log.Printf("[ERROR] %s: %v", method, err)
	return status.Error(codes.Internal, "internal error")
}

// notFound tags ErrNotFound with the entity that was missing
type notFound struct {
	what string
}

func (e *notFound) Error() string { return e.what + " not found" }

func (e *notFound) Unwrap() error { return apperr.ErrNotFound }

func missing(what string, err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return &notFound{what: what}
	}
	return err
}

func notFoundMessage(err error) string {
	var nf *notFound
	if errors.As(err, &nf) {
		return nf.Error()
	}
	return "not found"
}
