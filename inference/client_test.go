package inference_test

import (
	"context"
	"net"
	"testing"

	"github.com/edaniels/golog"
	pb "go.viam.com/api/service/mlmodel/v1"
	"go.viam.com/test"
	"go.viam.com/utils/rpc"
	"gorgonia.org/tensor"

	"github.com/viam-labs/cloudseg/inference"
	"github.com/viam-labs/cloudseg/ml"
)

// echoModelServer sends every input tensor straight back, which exercises
// both directions of the wire conversion. Metadata stays unimplemented
// unless meta is set.
type echoModelServer struct {
	pb.UnimplementedMLModelServiceServer
	lastName string
	meta     *pb.Metadata
}

func (s *echoModelServer) Infer(ctx context.Context, req *pb.InferRequest) (*pb.InferResponse, error) {
	s.lastName = req.Name
	out := req.InputTensors
	if out == nil {
		out = &pb.FlatTensors{Tensors: map[string]*pb.FlatTensor{}}
	}
	return &pb.InferResponse{OutputTensors: out}, nil
}

func (s *echoModelServer) Metadata(ctx context.Context, req *pb.MetadataRequest) (*pb.MetadataResponse, error) {
	if s.meta == nil {
		return s.UnimplementedMLModelServiceServer.Metadata(ctx, req)
	}
	return &pb.MetadataResponse{Metadata: s.meta}, nil
}

func startModelServer(t *testing.T, srv pb.MLModelServiceServer) (string, func()) {
	t.Helper()
	logger := golog.NewTestLogger(t)
	listener, err := net.Listen("tcp", "localhost:0")
	test.That(t, err, test.ShouldBeNil)
	rpcServer, err := rpc.NewServer(logger, rpc.WithUnauthenticated())
	test.That(t, err, test.ShouldBeNil)
	err = rpcServer.RegisterServiceServer(
		context.Background(),
		&pb.MLModelService_ServiceDesc,
		srv,
		pb.RegisterMLModelServiceHandlerFromEndpoint,
	)
	test.That(t, err, test.ShouldBeNil)
	go rpcServer.Serve(listener)
	return listener.Addr().String(), func() {
		test.That(t, rpcServer.Stop(), test.ShouldBeNil)
	}
}

func TestClientInfer(t *testing.T) {
	logger := golog.NewTestLogger(t)
	srv := &echoModelServer{}
	addr, stop := startModelServer(t, srv)
	defer stop()

	client, err := inference.NewClient(context.Background(), addr, "segmenter", logger, rpc.WithInsecure())
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, client.Close(context.Background()), test.ShouldBeNil)
	}()

	input := ml.Tensors{
		"color":    tensor.New(tensor.WithShape(1, 2, 3), tensor.WithBacking([]uint8{10, 20, 30, 1, 2, 3})),
		"position": tensor.New(tensor.WithShape(1, 2, 3), tensor.WithBacking([]float64{1.5, -2, 3, 0, 0.25, 9})),
	}
	out, err := client.Infer(context.Background(), input)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(out), test.ShouldEqual, 2)
	test.That(t, out["color"].Data(), test.ShouldResemble, []uint8{10, 20, 30, 1, 2, 3})
	test.That(t, []int(out["color"].Shape()), test.ShouldResemble, []int{1, 2, 3})
	test.That(t, out["position"].Data(), test.ShouldResemble, []float64{1.5, -2, 3, 0, 0.25, 9})
	test.That(t, srv.lastName, test.ShouldEqual, "segmenter")

	// nil input tensors are a valid request
	out, err = client.Infer(context.Background(), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldHaveLength, 0)
}

func TestClientMetadata(t *testing.T) {
	logger := golog.NewTestLogger(t)

	srv := &echoModelServer{meta: &pb.Metadata{
		Name:        "fake_segmenter",
		Type:        "semantic_segmenter",
		Description: "desc",
		InputInfo: []*pb.TensorInfo{
			{Name: "color", DataType: "uint8", Shape: []int32{480, 640, 3}},
		},
		OutputInfo: []*pb.TensorInfo{
			{Name: "mask", DataType: "uint8", Shape: []int32{480, 640, 1}},
		},
	}}
	addr, stop := startModelServer(t, srv)
	defer stop()

	client, err := inference.NewClient(context.Background(), addr, "segmenter", logger, rpc.WithInsecure())
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, client.Close(context.Background()), test.ShouldBeNil)
	}()

	meta, err := client.Metadata(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, meta.ModelName, test.ShouldEqual, "fake_segmenter")
	test.That(t, meta.ModelType, test.ShouldEqual, "semantic_segmenter")
	test.That(t, meta.Inputs, test.ShouldHaveLength, 1)
	test.That(t, meta.Inputs[0].Shape, test.ShouldResemble, []int{480, 640, 3})
	test.That(t, meta.Outputs, test.ShouldHaveLength, 1)
	test.That(t, meta.Outputs[0].Name, test.ShouldEqual, "mask")
}

func TestClientMetadataUnimplemented(t *testing.T) {
	logger := golog.NewTestLogger(t)
	srv := &echoModelServer{}
	addr, stop := startModelServer(t, srv)
	defer stop()

	client, err := inference.NewClient(context.Background(), addr, "segmenter", logger, rpc.WithInsecure())
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, client.Close(context.Background()), test.ShouldBeNil)
	}()

	// metadata is an optional server capability, not an error
	meta, err := client.Metadata(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, meta, test.ShouldResemble, inference.Metadata{})
}
