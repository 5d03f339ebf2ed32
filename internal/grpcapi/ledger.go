package grpcapi

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/BrandonDHaskell/Asamblea/internal/asamblea/errors"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/service"
)

// LedgerServiceName is the full gRPC name of the ledger query service.
// Requests and responses are google.protobuf.Struct documents with the
// same fields as the HTTP API.
const LedgerServiceName = "asamblea.v1.Ledger"

// Full method names, for clients calling through grpc.ClientConn.Invoke.
const (
	MethodQuorumStats  = "/" + LedgerServiceName + "/QuorumStats"
	MethodHourlyCounts = "/" + LedgerServiceName + "/HourlyEntryCounts"
	MethodFindHolder   = "/" + LedgerServiceName + "/FindHolder"
)

type ledgerService interface {
	QuorumStats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	HourlyEntryCounts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	FindHolder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type ledgerServer struct {
	stats   *service.StatsService
	proxies *service.ProxyService
}

func (l *ledgerServer) QuorumStats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredField(req, "assembly_id")
	if err != nil {
		return nil, err
	}
	st, err := l.stats.QuorumStats(ctx, id)
	if err != nil {
		return nil, err
	}
	return toStruct(st)
}

func (l *ledgerServer) HourlyEntryCounts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredField(req, "assembly_id")
	if err != nil {
		return nil, err
	}
	counts, err := l.stats.HourlyEntryCounts(ctx, id)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"counts": counts})
}

func (l *ledgerServer) FindHolder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredField(req, "assembly_id")
	if err != nil {
		return nil, err
	}
	t := service.ProxyTuple{
		Tower:         stringField(req, "tower"),
		Unit:          stringField(req, "unit"),
		ControlNumber: stringField(req, "control_number"),
	}
	h, found, err := l.proxies.FindHolder(ctx, id, t)
	if err != nil {
		return nil, err
	}
	if !found {
		return toStruct(map[string]any{"found": false})
	}
	return toStruct(map[string]any{
		"found":     true,
		"record_id": h.Record.ID,
		"name":      h.Record.Name,
		"slot":      ledger.ProxyKey(h.Slot),
	})
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

func requiredField(req *structpb.Struct, name string) (string, error) {
	v := stringField(req, name)
	if v == "" {
		return "", apperrors.New(apperrors.CodeInvalidArgument, name+" is required")
	}
	return v, nil
}

// toStruct renders v through its JSON form so the fields match the HTTP
// API, decimals included.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func registerLedger(s grpc.ServiceRegistrar, srv ledgerService) {
	s.RegisterService(&ledgerServiceDesc, srv)
}

func unaryHandler(method string, call func(ledgerService, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ledgerService), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ledgerService), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ledgerServiceDesc = grpc.ServiceDesc{
	ServiceName: LedgerServiceName,
	HandlerType: (*ledgerService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "QuorumStats", Handler: unaryHandler(MethodQuorumStats, ledgerService.QuorumStats)},
		{MethodName: "HourlyEntryCounts", Handler: unaryHandler(MethodHourlyCounts, ledgerService.HourlyEntryCounts)},
		{MethodName: "FindHolder", Handler: unaryHandler(MethodFindHolder, ledgerService.FindHolder)},
	},
	Metadata: "asamblea/v1/ledger.proto",
}
