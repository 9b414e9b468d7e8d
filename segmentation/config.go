// Package segmentation runs the annotation pipeline: a structured cloud is
// projected onto rasters, the rasters go to an external model server as
// tensors, and the mask that comes back is applied to the cloud's colors and
// recorded as per-point class values.
package segmentation

import (
	"bytes"
	"encoding/json"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
)

// Default tensor names used when the config leaves them blank. Model servers
// following the mlmodel convention name their tensors this way.
const (
	DefaultColorTensor    = "color"
	DefaultPositionTensor = "position"
	DefaultMaskTensor     = "mask"

	defaultTimeoutSecs = 30
)

// Config specifies where the model server lives and how tensors are named on
// its side of the wire.
type Config struct {
	// InferenceAddress is the host:port of the model server.
	InferenceAddress string `json:"inference_address"`

	// ModelName selects a model when the server hosts several. Servers with
	// a single model usually accept the empty name.
	ModelName string `json:"model_name"`

	// ColorTensor, PositionTensor and MaskTensor name the tensors on the
	// model's side. Blank fields take the defaults above.
	ColorTensor    string `json:"color_tensor"`
	PositionTensor string `json:"position_tensor"`
	MaskTensor     string `json:"mask_tensor"`

	// SendPosition includes the position raster in the model input.
	SendPosition bool `json:"send_position"`

	// Insecure dials the model server without TLS.
	Insecure bool `json:"insecure"`

	// TimeoutSecs bounds a single Infer call. Zero takes the default.
	TimeoutSecs float64 `json:"timeout_secs"`
}

// Validate checks the config and fills in defaults for the blank fields.
func (conf *Config) Validate(path string) error {
	if conf.InferenceAddress == "" {
		return errors.Errorf("%s: inference_address cannot be empty", path)
	}
	if conf.TimeoutSecs < 0 {
		return errors.Errorf("%s: timeout_secs cannot be negative", path)
	}
	if conf.ColorTensor == "" {
		conf.ColorTensor = DefaultColorTensor
	}
	if conf.PositionTensor == "" {
		conf.PositionTensor = DefaultPositionTensor
	}
	if conf.MaskTensor == "" {
		conf.MaskTensor = DefaultMaskTensor
	}
	if conf.TimeoutSecs == 0 {
		conf.TimeoutSecs = defaultTimeoutSecs
	}
	return nil
}

// ReadConfig reads a config from the given JSON file, substituting
// environment variables of the form ${VAR} first.
func ReadConfig(filePath string) (Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return Config{}, err
	}

	var conf Config
	decoder := json.NewDecoder(bytes.NewReader(buf))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&conf); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %q", filePath)
	}
	if err := conf.Validate(filePath); err != nil {
		return Config{}, err
	}
	return conf, nil
}
