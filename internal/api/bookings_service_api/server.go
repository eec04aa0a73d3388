package bookings_service_api

import (
	"context"
	"time"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/Domenick1991/surgefare/internal/service/booking"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "surgefare.v1.BookingsService"

// Bookings is the part of the booking service exposed over gRPC.
type Bookings interface {
	BookFlight(ctx context.Context, input booking.BookFlightInput) (*domain.Confirmation, error)
	GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error)
}

// BookingsServiceServer is the server API for surgefare.v1.BookingsService.
type BookingsServiceServer interface {
	BookFlight(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBooking(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

type Server struct {
	bookings Bookings
}

func NewServer(bookings Bookings) *Server {
	return &Server{bookings: bookings}
}

func Register(s grpc.ServiceRegistrar, srv BookingsServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// BookFlight expects {"passengerName": ..., "flightId": ...}.
func (s *Server) BookFlight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	conf, err := s.bookings.BookFlight(ctx, booking.BookFlightInput{
		FlightID:      fields["flightId"].GetStringValue(),
		PassengerName: fields["passengerName"].GetStringValue(),
	})
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]any{
		"booking": bookingFields(conf.Booking),
		"wallet": map[string]any{
			"previousBalance": conf.WalletPreviousBalance,
			"currentBalance":  conf.WalletCurrentBalance,
			"deducted":        conf.Deducted,
		},
	})
}

func (s *Server) GetBooking(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	b, err := s.bookings.GetByPNR(ctx, req.GetValue())
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(bookingFields(*b))
}

func bookingFields(b domain.Booking) map[string]any {
	return map[string]any{
		"pnr":           b.PNR,
		"passengerName": b.PassengerName,
		"flightId":      b.FlightID,
		"airline":       b.Airline,
		"route":         b.Route,
		"finalPrice":    b.FinalPrice,
		"bookingTime":   b.BookingTime.UTC().Format(time.RFC3339),
	}
}

func bookFlightHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingsServiceServer).BookFlight(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/BookFlight"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingsServiceServer).BookFlight(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getBookingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingsServiceServer).GetBooking(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetBooking"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingsServiceServer).GetBooking(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*BookingsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "BookFlight", Handler: bookFlightHandler},
		{MethodName: "GetBooking", Handler: getBookingHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "surgefare/v1/bookings.proto",
}
