// Package backtestvault is a Go SDK for the backtestvault gRPC server.
package backtestvault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"backtestvault/internal/api"
)

// Run is a cataloged backtest run.
type Run struct {
	ID              string
	Name            string
	Status          string
	ArchivePath     string
	AccountCurrency string
	InitialCapital  float64
	CreatedAt       time.Time
}

// Holding is an open position of a run.
type Holding struct {
	Symbol     string
	Quantity   float64
	EntryPrice float64
	EntryValue float64
}

// Event is a catalog change streamed by WatchBacktests. Type is one of
// "snapshot", "finalized" or "deleted".
type Event struct {
	Type        string
	ID          string
	Name        string
	Status      string
	ArchivePath string
	Time        time.Time
}

// Client provides a Go SDK for interacting with the backtestvault server.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient creates a client targeting the given gRPC address.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// GetStatistics retrieves the normalized statistics of the most recent run
// with the given name.
func (c *Client) GetStatistics(ctx context.Context, name string) (map[string]float64, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, api.GetStatisticsMethod, wrapperspb.String(name), out); err != nil {
		return nil, fmt.Errorf("GetStatistics %s: %w", name, err)
	}
	stats := make(map[string]float64, len(out.Fields))
	for k, v := range out.Fields {
		stats[k] = v.GetNumberValue()
	}
	return stats, nil
}

// ListBacktests retrieves all cataloged runs, oldest first.
func (c *Client) ListBacktests(ctx context.Context) ([]Run, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, api.ListBacktestsMethod, &emptypb.Empty{}, out); err != nil {
		return nil, fmt.Errorf("ListBacktests: %w", err)
	}
	runs := make([]Run, 0, len(out.Values))
	for _, v := range out.Values {
		f := v.GetStructValue().GetFields()
		created, _ := time.Parse(time.RFC3339, f["created_at"].GetStringValue())
		runs = append(runs, Run{
			ID:              f["id"].GetStringValue(),
			Name:            f["name"].GetStringValue(),
			Status:          f["status"].GetStringValue(),
			ArchivePath:     f["archive_path"].GetStringValue(),
			AccountCurrency: f["account_currency"].GetStringValue(),
			InitialCapital:  f["initial_capital"].GetNumberValue(),
			CreatedAt:       created,
		})
	}
	return runs, nil
}

// GetHoldings retrieves the open holdings of the most recent run with the
// given name.
func (c *Client) GetHoldings(ctx context.Context, name string) ([]Holding, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, api.GetHoldingsMethod, wrapperspb.String(name), out); err != nil {
		return nil, fmt.Errorf("GetHoldings %s: %w", name, err)
	}
	holdings := make([]Holding, 0, len(out.Values))
	for _, v := range out.Values {
		f := v.GetStructValue().GetFields()
		holdings = append(holdings, Holding{
			Symbol:     f["symbol"].GetStringValue(),
			Quantity:   f["quantity"].GetNumberValue(),
			EntryPrice: f["entry_price"].GetNumberValue(),
			EntryValue: f["entry_value"].GetNumberValue(),
		})
	}
	return holdings, nil
}

var watchDesc = &grpc.StreamDesc{StreamName: "WatchBacktests", ServerStreams: true}

// WatchBacktests streams catalog events to fn until ctx is cancelled, the
// server closes the stream or fn returns an error. The stream opens with a
// snapshot event per cataloged run.
func (c *Client) WatchBacktests(ctx context.Context, fn func(Event) error) error {
	stream, err := c.conn.NewStream(ctx, watchDesc, api.WatchBacktestsMethod)
	if err != nil {
		return fmt.Errorf("WatchBacktests: %w", err)
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return fmt.Errorf("WatchBacktests: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return fmt.Errorf("WatchBacktests: %w", err)
	}
	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("WatchBacktests: %w", err)
		}
		f := msg.GetFields()
		ts, _ := time.Parse(time.RFC3339Nano, f["time"].GetStringValue())
		if err := fn(Event{
			Type:        f["type"].GetStringValue(),
			ID:          f["id"].GetStringValue(),
			Name:        f["name"].GetStringValue(),
			Status:      f["status"].GetStringValue(),
			ArchivePath: f["archive_path"].GetStringValue(),
			Time:        ts,
		}); err != nil {
			return err
		}
	}
}
