package inference

import (
	"unsafe"

	"github.com/pkg/errors"
	pb "go.viam.com/api/service/mlmodel/v1"
	"gorgonia.org/tensor"

	"github.com/viam-labs/cloudseg/ml"
)

// TensorsToProto takes a Tensors map and turns it into a pb.FlatTensors.
func TensorsToProto(tensors ml.Tensors) (*pb.FlatTensors, error) {
	pbts := &pb.FlatTensors{Tensors: make(map[string]*pb.FlatTensor)}
	for name, t := range tensors {
		pbt, err := tensorToProto(t)
		if err != nil {
			return nil, errors.Wrapf(err, "tensor %q", name)
		}
		pbts.Tensors[name] = pbt
	}
	return pbts, nil
}

// tensorToProto turns a *tensor.Dense into a proto FlatTensor.
func tensorToProto(t *tensor.Dense) (*pb.FlatTensor, error) {
	ftpb := &pb.FlatTensor{}
	shape := t.Shape()
	ftpb.Shape = make([]uint64, 0, len(shape))
	for _, s := range shape {
		ftpb.Shape = append(ftpb.Shape, uint64(s))
	}
	switch data := t.Data().(type) {
	case []int8:
		byteSlice := *(*[]byte)(unsafe.Pointer(&data)) //nolint:gosec
		bytes := make([]byte, len(byteSlice))
		copy(bytes, byteSlice)
		ftpb.Tensor = &pb.FlatTensor_Int8Tensor{Int8Tensor: &pb.FlatTensorDataInt8{Data: bytes}}
	case []uint8:
		ftpb.Tensor = &pb.FlatTensor_Uint8Tensor{Uint8Tensor: &pb.FlatTensorDataUInt8{Data: data}}
	case []int16:
		ftpb.Tensor = &pb.FlatTensor_Int16Tensor{Int16Tensor: &pb.FlatTensorDataInt16{Data: int16ToUint32(data)}}
	case []uint16:
		ftpb.Tensor = &pb.FlatTensor_Uint16Tensor{Uint16Tensor: &pb.FlatTensorDataUInt16{Data: uint16ToUint32(data)}}
	case []int32:
		ftpb.Tensor = &pb.FlatTensor_Int32Tensor{Int32Tensor: &pb.FlatTensorDataInt32{Data: data}}
	case []uint32:
		ftpb.Tensor = &pb.FlatTensor_Uint32Tensor{Uint32Tensor: &pb.FlatTensorDataUInt32{Data: data}}
	case []int64:
		ftpb.Tensor = &pb.FlatTensor_Int64Tensor{Int64Tensor: &pb.FlatTensorDataInt64{Data: data}}
	case []uint64:
		ftpb.Tensor = &pb.FlatTensor_Uint64Tensor{Uint64Tensor: &pb.FlatTensorDataUInt64{Data: data}}
	case []float32:
		ftpb.Tensor = &pb.FlatTensor_FloatTensor{FloatTensor: &pb.FlatTensorDataFloat{Data: data}}
	case []float64:
		ftpb.Tensor = &pb.FlatTensor_DoubleTensor{DoubleTensor: &pb.FlatTensorDataDouble{Data: data}}
	default:
		return nil, errors.Errorf("cannot turn backing data of type %T into a FlatTensor", t.Data())
	}
	return ftpb, nil
}

// ProtoToTensors takes a pb.FlatTensors and turns it into a Tensors map.
func ProtoToTensors(pbft *pb.FlatTensors) (ml.Tensors, error) {
	if pbft == nil {
		return nil, errors.New("protobuf FlatTensors is nil")
	}
	tensors := ml.Tensors{}
	for name, ftproto := range pbft.Tensors {
		t, err := createNewTensor(ftproto)
		if err != nil {
			return nil, errors.Wrapf(err, "tensor %q", name)
		}
		tensors[name] = t
	}
	return tensors, nil
}

// createNewTensor turns a proto FlatTensor into a *tensor.Dense.
func createNewTensor(pft *pb.FlatTensor) (*tensor.Dense, error) {
	shape := make([]int, 0, len(pft.Shape))
	for _, s := range pft.Shape {
		shape = append(shape, int(s))
	}
	pt := pft.Tensor
	switch t := pt.(type) {
	case *pb.FlatTensor_Int8Tensor:
		data := t.Int8Tensor
		if data == nil {
			return nil, errors.New("tensor of type Int8Tensor is nil")
		}
		dataSlice := data.GetData()
		unsafeInt8Slice := *(*[]int8)(unsafe.Pointer(&dataSlice)) //nolint:gosec
		int8Slice := make([]int8, 0, len(dataSlice))
		int8Slice = append(int8Slice, unsafeInt8Slice...)
		return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(int8Slice)), nil
	case *pb.FlatTensor_Uint8Tensor:
		data := t.Uint8Tensor
		if data == nil {
			return nil, errors.New("tensor of type Uint8Tensor is nil")
		}
		return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data.GetData())), nil
	case *pb.FlatTensor_Int16Tensor:
		data := t.Int16Tensor
		if data == nil {
			return nil, errors.New("tensor of type Int16Tensor is nil")
		}
		int16Data := uint32ToInt16(data.GetData())
		return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(int16Data)), nil
	case *pb.FlatTensor_Uint16Tensor:
		data := t.Uint16Tensor
		if data == nil {
			return nil, errors.New("tensor of type Uint16Tensor is nil")
		}
		uint16Data := uint32ToUint16(data.GetData())
		return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(uint16Data)), nil
	case *pb.FlatTensor_Int32Tensor:
		data := t.Int32Tensor
		if data == nil {
			return nil, errors.New("tensor of type Int32Tensor is nil")
		}
		return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data.GetData())), nil
	case *pb.FlatTensor_Uint32Tensor:
		data := t.Uint32Tensor
		if data == nil {
			return nil, errors.New("tensor of type Uint32Tensor is nil")
		}
		return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data.GetData())), nil
	case *pb.FlatTensor_Int64Tensor:
		data := t.Int64Tensor
		if data == nil {
			return nil, errors.New("tensor of type Int64Tensor is nil")
		}
		return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data.GetData())), nil
	case *pb.FlatTensor_Uint64Tensor:
		data := t.Uint64Tensor
		if data == nil {
			return nil, errors.New("tensor of type Uint64Tensor is nil")
		}
		return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data.GetData())), nil
	case *pb.FlatTensor_FloatTensor:
		data := t.FloatTensor
		if data == nil {
			return nil, errors.New("tensor of type FloatTensor is nil")
		}
		return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data.GetData())), nil
	case *pb.FlatTensor_DoubleTensor:
		data := t.DoubleTensor
		if data == nil {
			return nil, errors.New("tensor of type DoubleTensor is nil")
		}
		return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data.GetData())), nil
	default:
		return nil, errors.Errorf("don't know how to create tensor.Dense from proto type %T", pt)
	}
}

func int16ToUint32(int16Slice []int16) []uint32 {
	uint32Slice := make([]uint32, len(int16Slice))

	for i, value := range int16Slice {
		uint32Slice[i] = uint32(uint16(value))
	}
	return uint32Slice
}

func uint16ToUint32(uint16Slice []uint16) []uint32 {
	uint32Slice := make([]uint32, len(uint16Slice))

	for i, value := range uint16Slice {
		uint32Slice[i] = uint32(value)
	}
	return uint32Slice
}

func uint32ToInt16(uint32Slice []uint32) []int16 {
	int16Slice := make([]int16, len(uint32Slice))

	for i, value := range uint32Slice {
		int16Slice[i] = int16(value)
	}
	return int16Slice
}

func uint32ToUint16(uint32Slice []uint32) []uint16 {
	uint16Slice := make([]uint16, len(uint32Slice))

	for i, value := range uint32Slice {
		uint16Slice[i] = uint16(value)
	}
	return uint16Slice
}
