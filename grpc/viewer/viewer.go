// Package viewer describes the pagenote.v1.Viewer gRPC service. Every method
// takes and returns a google.protobuf.Struct whose fields mirror the JSON
// shape of the request and response types below.
package viewer

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pagenote-project/pagenote/pkg/annotation"
	"github.com/pagenote-project/pagenote/pkg/geometry"
	"github.com/pagenote-project/pagenote/pkg/overlay"
	"github.com/pagenote-project/pagenote/pkg/zoom"
)

const ServiceName = "pagenote.v1.Viewer"

const (
	NormalizeMethod       = "/" + ServiceName + "/Normalize"
	ComputeFitScaleMethod = "/" + ServiceName + "/ComputeFitScale"
	RenderOverlayMethod   = "/" + ServiceName + "/RenderOverlay"
)

type NormalizeRequest struct {
	// Client rects of the selection in device pixels.
	Fragments []geometry.Rect `json:"fragments"`
	Scale     float64         `json:"scale"`
	// Top-left corner of the page container in the same coordinate system as Fragments.
	Origin geometry.Point `json:"origin"`
	// Overrides the configured tolerance when positive.
	LineTolerance float64 `json:"lineTolerance,omitempty"`
}

type NormalizeResponse struct {
	Rects []geometry.Rect `json:"rects"`
}

type FitScaleRequest struct {
	Mode      zoom.FitMode    `json:"mode"`
	Container zoom.Dimensions `json:"container"`
	Page      zoom.Dimensions `json:"page"`
}

type FitScaleResponse struct {
	Scale float64 `json:"scale"`
	// False when the inputs cannot produce a scale; Scale is then zero.
	OK bool `json:"ok"`
}

type RenderOverlayRequest struct {
	DocumentID string  `json:"documentId"`
	PageNumber int     `json:"pageNumber"`
	Scale      float64 `json:"scale"`
	ActiveID   string  `json:"activeId,omitempty"`
	HoveredID  string  `json:"hoveredId,omitempty"`
	// The selection awaiting a comment, if any.
	Pending *annotation.Position `json:"pending,omitempty"`
}

// OverlayRect is a rendered rect with its CSS fill. E.g., "rgba(255, 235, 59, 0.30)"
type OverlayRect struct {
	overlay.Rect
	Fill string `json:"fill"`
}

type RenderOverlayResponse struct {
	Rects []OverlayRect `json:"rects"`
}

type ViewerServer interface {
	Normalize(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error)
	ComputeFitScale(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error)
	RenderOverlay(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ViewerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Normalize", Handler: unaryHandler(NormalizeMethod, ViewerServer.Normalize)},
		{MethodName: "ComputeFitScale", Handler: unaryHandler(ComputeFitScaleMethod, ViewerServer.ComputeFitScale)},
		{MethodName: "RenderOverlay", Handler: unaryHandler(RenderOverlayMethod, ViewerServer.RenderOverlay)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pagenote/v1/viewer.proto",
}

func RegisterViewerServer(registrar grpc.ServiceRegistrar, server ViewerServer) {
	registrar.RegisterService(&ServiceDesc, server)
}

type method func(ViewerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call method) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ViewerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, request any) (any, error) {
			return call(srv.(ViewerServer), ctx, request.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client calls the Viewer service with typed requests.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) Normalize(ctx context.Context, request NormalizeRequest, opts ...grpc.CallOption) (NormalizeResponse, error) {
	var response NormalizeResponse
	err := c.invoke(ctx, NormalizeMethod, request, &response, opts...)
	return response, err
}

func (c *Client) ComputeFitScale(ctx context.Context, request FitScaleRequest, opts ...grpc.CallOption) (FitScaleResponse, error) {
	var response FitScaleResponse
	err := c.invoke(ctx, ComputeFitScaleMethod, request, &response, opts...)
	return response, err
}

func (c *Client) RenderOverlay(ctx context.Context, request RenderOverlayRequest, opts ...grpc.CallOption) (RenderOverlayResponse, error) {
	var response RenderOverlayResponse
	err := c.invoke(ctx, RenderOverlayMethod, request, &response, opts...)
	return response, err
}

func (c *Client) invoke(ctx context.Context, fullMethod string, request any, response any, opts ...grpc.CallOption) error {
	in, err := Encode(request)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod, in, out, opts...); err != nil {
		return err
	}
	return Decode(out, response)
}

// Encode converts a JSON-serializable value into a Struct.
func Encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	message := new(structpb.Struct)
	if err := protojson.Unmarshal(data, message); err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return message, nil
}

// Decode fills v from the fields of message.
func Decode(message *structpb.Struct, v any) error {
	data, err := protojson.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}
	return nil
}
