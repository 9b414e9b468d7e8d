// Package main annotates a point cloud file with an external segmentation
// model: cloud in, masked and class-labeled cloud out.
package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"go.viam.com/utils/rpc"

	"github.com/viam-labs/cloudseg/inference"
	"github.com/viam-labs/cloudseg/pointcloud"
	"github.com/viam-labs/cloudseg/raster"
	"github.com/viam-labs/cloudseg/segmentation"
)

var logger = golog.NewDevelopmentLogger("annotate")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	InFile     string `flag:"0,required,usage=point cloud to annotate (.pcd or .las)"`
	OutFile    string `flag:"1,required,usage=where to write the annotated cloud (.pcd or .las)"`
	ConfigFile string `flag:"config,required,usage=JSON config with the model server address"`
	DebugDir   string `flag:"debug-dir,usage=directory to dump intermediate rasters into as PNGs"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) (err error) {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	conf, err := segmentation.ReadConfig(argsParsed.ConfigFile)
	if err != nil {
		return err
	}

	cloud, err := pointcloud.NewFromFile(argsParsed.InFile, logger)
	if err != nil {
		return errors.Wrapf(err, "reading %q", argsParsed.InFile)
	}
	logger.Infow("cloud loaded",
		"file", argsParsed.InFile,
		"width", cloud.Width(),
		"height", cloud.Height(),
	)

	var dialOpts []rpc.DialOption
	if conf.Insecure {
		dialOpts = append(dialOpts, rpc.WithInsecure())
	}
	model, err := inference.NewClient(ctx, conf.InferenceAddress, conf.ModelName, logger, dialOpts...)
	if err != nil {
		return err
	}
	annotator := segmentation.NewAnnotator(model, conf, logger)
	defer func() {
		err = multierr.Combine(err, annotator.Close(ctx))
	}()

	if md, mdErr := model.Metadata(ctx); mdErr == nil && md.ModelName != "" {
		logger.Infow("model server ready", "model", md.ModelName, "type", md.ModelType)
	}

	annotated, err := annotator.Annotate(ctx, cloud)
	if err != nil {
		return err
	}

	foreground := 0
	annotated.Iterate(func(x, y int, p r3.Vector, d pointcloud.Data) bool {
		if d != nil && d.Value() != 0 {
			foreground++
		}
		return true
	})
	logger.Infow("cloud annotated",
		"points", annotated.Size(),
		"foreground_fraction", float64(foreground)/float64(annotated.Size()),
	)

	if argsParsed.DebugDir != "" {
		if err := writeDebugImages(cloud, annotated, argsParsed.DebugDir); err != nil {
			return err
		}
	}

	if err := pointcloud.WriteToFile(annotated, argsParsed.OutFile); err != nil {
		return errors.Wrapf(err, "writing %q", argsParsed.OutFile)
	}
	logger.Infow("annotated cloud written", "file", argsParsed.OutFile)
	return nil
}

// writeDebugImages dumps the color raster before and after masking plus a
// depth visualization of the position raster.
func writeDebugImages(cloud, annotated *pointcloud.Structured, dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	position, colors, err := raster.CloudToRasters(cloud)
	if err != nil {
		return err
	}
	_, masked, err := raster.CloudToRasters(annotated)
	if err != nil {
		return err
	}

	if err := imaging.Save(colors.ToImage(), filepath.Join(dir, "color.png")); err != nil {
		return err
	}
	if err := imaging.Save(masked.ToImage(), filepath.Join(dir, "masked.png")); err != nil {
		return err
	}
	return imaging.Save(position.ToPrettyPicture(2), filepath.Join(dir, "position.png"))
}
