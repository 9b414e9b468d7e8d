package segmentation

import (
	"context"
	"sort"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/viam-labs/cloudseg/inference"
	"github.com/viam-labs/cloudseg/ml"
	"github.com/viam-labs/cloudseg/pointcloud"
	"github.com/viam-labs/cloudseg/raster"
)

// Annotator runs clouds through an external segmentation model and attaches
// the result. It holds no state between calls, so one Annotator may serve
// several goroutines as long as the underlying model service does.
type Annotator struct {
	model  inference.Service
	conf   Config
	logger golog.Logger
}

// NewAnnotator wraps a model service. The Annotator takes ownership of the
// service; closing the Annotator closes it.
func NewAnnotator(model inference.Service, conf Config, logger golog.Logger) *Annotator {
	return &Annotator{model: model, conf: conf, logger: logger}
}

// Annotate sends the cloud's rasters through the model and returns a fresh
// cloud with the model's mask applied: background colors are zeroed and every
// point carries the mask's class value, zero meaning background. The input
// cloud is never modified. Positions survive bit for bit; the result keeps
// the input's header and is marked not dense.
func (a *Annotator) Annotate(ctx context.Context, cloud *pointcloud.Structured) (*pointcloud.Structured, error) {
	position, colors, err := raster.CloudToRasters(cloud)
	if err != nil {
		return nil, err
	}

	inputs := ml.Tensors{a.conf.ColorTensor: ml.TensorFromBGR(colors)}
	if a.conf.SendPosition {
		inputs[a.conf.PositionTensor] = ml.TensorFromPosition(position)
	}

	inferCtx, cancel := context.WithTimeout(ctx, time.Duration(a.conf.TimeoutSecs*float64(time.Second)))
	defer cancel()
	outputs, err := a.model.Infer(inferCtx, inputs)
	if err != nil {
		return nil, errors.Wrap(err, "inference failed")
	}

	maskTensor, ok := outputs[a.conf.MaskTensor]
	if !ok && len(outputs) == 1 {
		// A single unnamed output is unambiguous, take it.
		for _, t := range outputs {
			maskTensor = t
		}
		ok = true
	}
	if !ok {
		names := ml.TensorNames(outputs)
		sort.Strings(names)
		return nil, errors.Errorf("model returned no tensor named %q (got %v)", a.conf.MaskTensor, names)
	}

	mask, err := ml.MaskFromTensor(maskTensor)
	if err != nil {
		return nil, errors.Wrapf(err, "output tensor %q is not a mask", a.conf.MaskTensor)
	}
	if mask.Width() != colors.Width() || mask.Height() != colors.Height() {
		return nil, errors.Errorf("model returned a %dx%d mask for a %dx%d cloud",
			mask.Width(), mask.Height(), cloud.Width(), cloud.Height())
	}

	masked, err := raster.ApplyMask(colors, mask)
	if err != nil {
		return nil, err
	}

	annotated, err := raster.CloudFromRasters(masked, position, cloud.Header())
	if err != nil {
		return nil, err
	}
	for y := 0; y < annotated.Height(); y++ {
		for x := 0; x < annotated.Width(); x++ {
			p, d := annotated.At(x, y)
			annotated.Set(x, y, p, d.SetValue(classOf(mask, x, y)))
		}
	}
	return annotated, nil
}

// classOf reads the class value of a mask cell. Model servers disagree on
// which channel carries the class for broadcast masks, so take the largest.
func classOf(mask *raster.BGR, x, y int) int {
	c := mask.GetXY(x, y)
	v := c.R
	if c.G > v {
		v = c.G
	}
	if c.B > v {
		v = c.B
	}
	return int(v)
}

// Close closes the underlying model service.
func (a *Annotator) Close(ctx context.Context) error {
	return a.model.Close(ctx)
}
