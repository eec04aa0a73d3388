// Package grpcstatus translates booking errors into gRPC statuses and holds
// the unary interceptors shared by the gRPC services.
package grpcstatus

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/Domenick1991/surgefare/internal/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const errorDomain = "surgefare"

func CodeFor(kind domain.ErrorKind) codes.Code {
	switch kind {
	case domain.KindInvalidRequest:
		return codes.InvalidArgument
	case domain.KindFlightNotFound, domain.KindBookingNotFound:
		return codes.NotFound
	case domain.KindInsufficientFunds:
		return codes.FailedPrecondition
	case domain.KindReferenceExhausted:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// Error converts err to a status error carrying the public message and an
// ErrorInfo detail whose reason is the error kind.
func Error(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	kind := domain.KindOf(err)
	st := status.New(CodeFor(kind), domain.PublicMessage(err))

	info := &errdetails.ErrorInfo{Reason: string(kind), Domain: errorDomain}
	var derr *domain.Error
	if kind == domain.KindInsufficientFunds && errors.As(err, &derr) {
		info.Metadata = map[string]string{
			"required":  strconv.FormatInt(derr.Required, 10),
			"available": strconv.FormatInt(derr.Available, 10),
		}
	}
	if detailed, detailErr := st.WithDetails(info); detailErr == nil {
		st = detailed
	}
	return st.Err()
}

// UnaryLogger attaches a request scoped logger to the context, logs every
// call and converts returned errors with Error.
func UnaryLogger() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		ctx = logger.WithFields(ctx, logrus.Fields{
			"request_id": uuid.NewString(),
			"method":     info.FullMethod,
		})

		resp, err := handler(ctx, req)
		err = Error(err)

		entry := logger.FromContext(ctx).WithFields(logrus.Fields{
			"code":     status.Code(err).String(),
			"duration": time.Since(start).String(),
		})
		switch status.Code(err) {
		case codes.OK:
			entry.Info("grpc call")
		case codes.Internal, codes.Unavailable:
			entry.WithError(err).Error("grpc call failed")
		default:
			entry.Warn("grpc call rejected")
		}
		return resp, err
	}
}
