package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"backtestvault/internal/domain"
	"backtestvault/internal/engine"
	"backtestvault/internal/live"
	"backtestvault/internal/store"
)

// Fully-qualified gRPC names of the result service.
const (
	ServiceName          = "backtestvault.ResultService"
	GetStatisticsMethod  = "/" + ServiceName + "/GetStatistics"
	ListBacktestsMethod  = "/" + ServiceName + "/ListBacktests"
	GetHoldingsMethod    = "/" + ServiceName + "/GetHoldings"
	WatchBacktestsMethod = "/" + ServiceName + "/WatchBacktests"
)

// ResultService answers queries about cataloged backtest runs. Requests
// carry well-known protobuf types, so no generated code is needed.
type ResultService struct {
	catalog store.BacktestStore
	engine  *engine.Service
	events  *live.Hub
	log     *slog.Logger
}

// NewResultService creates a ResultService reading from catalog. eng is
// used to open archives for holdings; events feeds WatchBacktests.
func NewResultService(catalog store.BacktestStore, eng *engine.Service, events *live.Hub, log *slog.Logger) *ResultService {
	if log == nil {
		log = slog.Default()
	}
	return &ResultService{catalog: catalog, engine: eng, events: events, log: log}
}

// RegisterGRPC registers the service on the given gRPC server instance.
func (s *ResultService) RegisterGRPC(gs *grpc.Server) {
	gs.RegisterService(&resultServiceDesc, s)
}

// GetStatistics returns the normalized statistics of the most recent run
// with the given name.
func (s *ResultService) GetStatistics(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	bt, err := s.lookup(ctx, req.GetValue())
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{Fields: make(map[string]*structpb.Value)}
	if bt.Statistics == nil {
		return out, nil
	}
	for _, e := range bt.Statistics.Entries() {
		out.Fields[e.Name] = structpb.NewNumberValue(e.Value.InexactFloat64())
	}
	return out, nil
}

// ListBacktests returns one summary object per cataloged run, oldest first.
func (s *ResultService) ListBacktests(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	runs, err := s.catalog.ListBacktests(ctx)
	if err != nil {
		s.log.Error("listing backtests failed", "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(runs))}
	for i := range runs {
		bt := &runs[i]
		out.Values = append(out.Values, structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				"id":               structpb.NewStringValue(bt.ID),
				"name":             structpb.NewStringValue(bt.Name),
				"status":           structpb.NewStringValue(string(bt.Status)),
				"archive_path":     structpb.NewStringValue(bt.ArchivePath),
				"account_currency": structpb.NewStringValue(bt.AccountCurrency),
				"initial_capital":  structpb.NewNumberValue(bt.InitialCapital.InexactFloat64()),
				"created_at":       structpb.NewStringValue(bt.CreatedAt.UTC().Format(time.RFC3339)),
			},
		}))
	}
	return out, nil
}

// GetHoldings opens the archive of the most recent run with the given name
// and returns its reconstructed holdings.
func (s *ResultService) GetHoldings(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	bt, err := s.lookup(ctx, req.GetValue())
	if err != nil {
		return nil, err
	}
	if s.engine == nil {
		return nil, status.Error(codes.Unimplemented, "holdings are not served")
	}
	v, err := s.engine.Open(ctx, bt)
	if err != nil {
		s.log.Error("opening backtest failed", "name", bt.Name, "error", err)
		return nil, status.Error(codes.DataLoss, err.Error())
	}
	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(v.Holdings))}
	for _, h := range v.Holdings {
		out.Values = append(out.Values, structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				"symbol":      structpb.NewStringValue(h.Symbol.String()),
				"quantity":    structpb.NewNumberValue(h.Quantity.InexactFloat64()),
				"entry_price": structpb.NewNumberValue(h.EntryPrice.InexactFloat64()),
				"entry_value": structpb.NewNumberValue(h.EntryValue.InexactFloat64()),
			},
		}))
	}
	return out, nil
}

// WatchBacktests sends a snapshot event for every cataloged run, then
// streams catalog changes. The stream ends when the client disconnects.
func (s *ResultService) WatchBacktests(_ *emptypb.Empty, stream grpc.ServerStream) error {
	if s.events == nil {
		return status.Error(codes.Unimplemented, "events are not served")
	}

	// Subscribe before the snapshot so no change is missed.
	subID, ch := s.events.Subscribe(256)
	defer s.events.Unsubscribe(subID)

	ctx := stream.Context()
	runs, err := s.catalog.ListBacktests(ctx)
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	for i := range runs {
		if err := stream.SendMsg(eventToProto(live.NewEvent(live.EventSnapshot, &runs[i]))); err != nil {
			return err
		}
	}

	s.log.Info("grpc client subscribed", "subID", subID)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("grpc client disconnected", "subID", subID)
			return nil
		case evt, ok := <-ch:
			if !ok {
				return nil
			}
			if err := stream.SendMsg(eventToProto(evt)); err != nil {
				return err
			}
		}
	}
}

func eventToProto(e live.Event) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"type":         structpb.NewStringValue(string(e.Type)),
		"id":           structpb.NewStringValue(e.ID),
		"name":         structpb.NewStringValue(e.Name),
		"status":       structpb.NewStringValue(string(e.Status)),
		"archive_path": structpb.NewStringValue(e.ArchivePath),
		"time":         structpb.NewStringValue(e.Time.Format(time.RFC3339Nano)),
	}}
}

func (s *ResultService) lookup(ctx context.Context, name string) (*domain.Backtest, error) {
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "backtest name is required")
	}
	bt, err := s.catalog.GetBacktestByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, status.Errorf(codes.NotFound, "backtest %q not found", name)
	}
	if err != nil {
		s.log.Error("catalog lookup failed", "name", name, "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	return bt, nil
}

// ---------------------------------------------------------------------------
// Service descriptor
// ---------------------------------------------------------------------------

type resultServer interface {
	GetStatistics(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListBacktests(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetHoldings(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	WatchBacktests(*emptypb.Empty, grpc.ServerStream) error
}

var resultServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*resultServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStatistics", Handler: getStatisticsHandler},
		{MethodName: "ListBacktests", Handler: listBacktestsHandler},
		{MethodName: "GetHoldings", Handler: getHoldingsHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchBacktests", Handler: watchBacktestsHandler, ServerStreams: true},
	},
	Metadata: "backtestvault/result.proto",
}

func getStatisticsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(resultServer).GetStatistics(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetStatisticsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(resultServer).GetStatistics(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func listBacktestsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(resultServer).ListBacktests(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListBacktestsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(resultServer).ListBacktests(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getHoldingsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(resultServer).GetHoldings(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetHoldingsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(resultServer).GetHoldings(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func watchBacktestsHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(resultServer).WatchBacktests(in, stream)
}
