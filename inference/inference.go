// Package inference connects the annotation pipeline to an external ML model
// server speaking the mlmodel service protocol. The model itself always runs
// out of process; this package only moves tensors across the wire.
package inference

import (
	"context"

	"github.com/viam-labs/cloudseg/ml"
)

// Service is the boundary to an external model. Implementations must be safe
// for concurrent Infer calls. Close ends the association and is the owner's
// to call once no calls are in flight.
type Service interface {
	// Infer sends the input tensors to the model and returns its output
	// tensors.
	Infer(ctx context.Context, tensors ml.Tensors) (ml.Tensors, error)

	// Metadata returns what the model advertises about itself. Metadata is
	// an optional capability; models without it return a zero value and no
	// error.
	Metadata(ctx context.Context) (Metadata, error)

	// Close releases whatever the service holds open.
	Close(ctx context.Context) error
}

// Metadata contains the metadata of the model, such as the name of the model,
// what kind of model it is, and the expected tensor shapes and types of its
// inputs and outputs.
type Metadata struct {
	ModelName        string
	ModelType        string
	ModelDescription string
	Inputs           []TensorInfo
	Outputs          []TensorInfo
}

// TensorInfo describes one input or output tensor of a model.
type TensorInfo struct {
	Name        string
	Description string
	DataType    string
	Shape       []int
}
