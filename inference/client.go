package inference

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	pb "go.viam.com/api/service/mlmodel/v1"
	"go.viam.com/utils/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/viam-labs/cloudseg/ml"
)

// client implements Service over an MLModelService connection.
type client struct {
	name     string
	conn     rpc.ClientConn
	ownsConn bool
	client   pb.MLModelServiceClient
	logger   golog.Logger
}

// NewClient dials a model server directly over gRPC and returns a Service
// talking to the named model on it. Closing the Service closes the
// connection.
func NewClient(
	ctx context.Context,
	address string,
	modelName string,
	logger golog.Logger,
	opts ...rpc.DialOption,
) (Service, error) {
	conn, err := rpc.DialDirectGRPC(ctx, address, logger, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing model server at %q", address)
	}
	return &client{
		name:     modelName,
		conn:     conn,
		ownsConn: true,
		client:   pb.NewMLModelServiceClient(conn),
		logger:   logger,
	}, nil
}

// NewClientFromConn constructs a new client from the connection passed in.
// The caller keeps ownership of the connection.
func NewClientFromConn(conn rpc.ClientConn, modelName string, logger golog.Logger) Service {
	return &client{
		name:   modelName,
		conn:   conn,
		client: pb.NewMLModelServiceClient(conn),
		logger: logger,
	}
}

func (c *client) Infer(ctx context.Context, tensors ml.Tensors) (ml.Tensors, error) {
	tensorProto, err := TensorsToProto(tensors)
	if err != nil {
		return nil, err
	}
	if tensors == nil {
		tensorProto = nil
	}
	resp, err := c.client.Infer(ctx, &pb.InferRequest{
		Name:         c.name,
		InputTensors: tensorProto,
	})
	if err != nil {
		return nil, err
	}
	return ProtoToTensors(resp.OutputTensors)
}

func (c *client) Metadata(ctx context.Context) (Metadata, error) {
	resp, err := c.client.Metadata(ctx, &pb.MetadataRequest{
		Name: c.name,
	})
	if err != nil {
		if status.Code(err) == codes.Unimplemented {
			c.logger.Debugw("model server does not implement Metadata", "model", c.name)
			return Metadata{}, nil
		}
		return Metadata{}, err
	}
	return protoToMetadata(resp.Metadata), nil
}

func (c *client) Close(ctx context.Context) error {
	if !c.ownsConn {
		return nil
	}
	return c.conn.Close()
}

// protoToMetadata takes a pb.Metadata protobuf message and turns it into a
// Metadata struct.
func protoToMetadata(pbmd *pb.Metadata) Metadata {
	if pbmd == nil {
		return Metadata{}
	}
	metadata := Metadata{
		ModelName:        pbmd.Name,
		ModelType:        pbmd.Type,
		ModelDescription: pbmd.Description,
	}
	inputData := make([]TensorInfo, 0, len(pbmd.InputInfo))
	for _, idproto := range pbmd.InputInfo {
		inputData = append(inputData, protoToTensorInfo(idproto))
	}
	metadata.Inputs = inputData
	outputData := make([]TensorInfo, 0, len(pbmd.OutputInfo))
	for _, odproto := range pbmd.OutputInfo {
		outputData = append(outputData, protoToTensorInfo(odproto))
	}
	metadata.Outputs = outputData
	return metadata
}

// protoToTensorInfo takes a pb.TensorInfo protobuf message and turns it into
// a TensorInfo struct.
func protoToTensorInfo(pbti *pb.TensorInfo) TensorInfo {
	ti := TensorInfo{
		Name:        pbti.Name,
		Description: pbti.Description,
		DataType:    pbti.DataType,
	}
	shape := make([]int, 0, len(pbti.Shape))
	for _, s := range pbti.Shape {
		shape = append(shape, int(s))
	}
	ti.Shape = shape
	return ti
}
