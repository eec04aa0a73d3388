package flights_service_api

import (
	"context"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/Domenick1991/surgefare/internal/service/flights"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "surgefare.v1.FlightsService"

type PriceRecomputer interface {
	RecomputePrice(ctx context.Context, flightID string) (*domain.PriceUpdate, error)
}

// FlightsServiceServer is the server API for surgefare.v1.FlightsService.
type FlightsServiceServer interface {
	ListFlights(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecomputePrice(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

type Server struct {
	flights flights.FlightUseCase
	pricing PriceRecomputer
}

func NewServer(flights flights.FlightUseCase, pricing PriceRecomputer) *Server {
	return &Server{flights: flights, pricing: pricing}
}

func Register(s grpc.ServiceRegistrar, srv FlightsServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ListFlights takes optional "departureCity" and "arrivalCity" filters.
func (s *Server) ListFlights(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	list, err := s.flights.Search(ctx, domain.FlightFilter{
		DepartureCity: fields["departureCity"].GetStringValue(),
		ArrivalCity:   fields["arrivalCity"].GetStringValue(),
	})
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, len(list))
	for _, f := range list {
		out = append(out, map[string]any{
			"flightId":      f.FlightID,
			"airline":       f.Airline,
			"departureCity": f.DepartureCity,
			"arrivalCity":   f.ArrivalCity,
			"basePrice":     f.BasePrice,
			"currentPrice":  f.CurrentPrice,
			"surged":        f.Surged(),
		})
	}
	return structpb.NewStruct(map[string]any{"flights": out, "count": len(out)})
}

func (s *Server) RecomputePrice(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	update, err := s.pricing.RecomputePrice(ctx, req.GetValue())
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]any{
		"action":       string(update.Action),
		"flightId":     update.FlightID,
		"basePrice":    update.BasePrice,
		"currentPrice": update.CurrentPrice,
		"increase":     update.Increase,
	})
}

func listFlightsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FlightsServiceServer).ListFlights(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ListFlights"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FlightsServiceServer).ListFlights(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func recomputePriceHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FlightsServiceServer).RecomputePrice(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/RecomputePrice"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FlightsServiceServer).RecomputePrice(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*FlightsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListFlights", Handler: listFlightsHandler},
		{MethodName: "RecomputePrice", Handler: recomputePriceHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "surgefare/v1/flights.proto",
}
