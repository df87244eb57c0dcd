package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/esimov/faceseg"
	"github.com/esimov/faceseg/server"
)

const helpBanner = `
┌─┐┌─┐┌─┐┌─┐┌─┐┌─┐┌─┐
├┤ ├─┤│  ├┤ └─┐├┤ │ ┬
└  ┴ ┴└─┘└─┘└─┘└─┘└─┘

Face segmentation from facial landmarks.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	source      string
	destination string
	workers     int
	meta        bool

	debugImage     bool
	facesImage     bool
	cutoutImage    bool
	crops          bool
	landmarksImage bool
	cropSize       int
	contraction    float64
	polyline       bool
	orientation    string

	detOpts detectorOptions
)

var rootCmd = &cobra.Command{
	Use:   "faceseg",
	Short: "Segment the faces of an image using their facial landmarks",
	Long:  fmt.Sprintf(helpBanner, Version),
	Args:  cobra.NoArgs,
	RunE:  runSegment,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the face segmentation over HTTP",
	Long: `Serve the face segmentation over HTTP.

The listen address and the maximum upload size are read from the
FACESEG_SERVER_ADDRESS and FACESEG_MAX_UPLOAD_MB environment variables.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&detOpts.cascade, "cc", "", "Face detection cascade file")
	pf.StringVar(&detOpts.pupils, "pl", "", "Pupil localization cascade file")
	pf.StringVar(&detOpts.landmarks, "flpl", "", "Facial landmark points cascade directory")

	f := rootCmd.Flags()
	f.StringVarP(&source, "in", "i", pipeName, "Source image, directory or URL")
	f.StringVarP(&destination, "out", "o", ".", "Destination directory")
	f.BoolVar(&debugImage, "debug", false, "Draw the debug overlay")
	f.BoolVar(&facesImage, "faces", false, "Draw the faces-only image")
	f.BoolVar(&cutoutImage, "cutout", false, "Draw the image with the faces cut out")
	f.BoolVar(&crops, "crops", false, "Crop every face into a square image")
	f.BoolVar(&landmarksImage, "landmarks-image", false, "Draw the landmark points on a black canvas")
	f.IntVar(&cropSize, "crop-size", faceseg.DefaultFaceCropSize, "Side of the face crops")
	f.Float64Var(&contraction, "contraction", faceseg.DefaultConfig().ContractionFactor, "Curvature of the smooth outlines")
	f.BoolVar(&polyline, "polyline", false, "Join the outline points with straight segments")
	f.StringVar(&orientation, "orientation", "up", "Orientation of the source pixels: up, right, down or left")
	f.BoolVar(&detOpts.sidecar, "sidecar", false, "Read the landmarks of every image from a <name>.json, <name>.msgpack or <name>.mp file next to it")
	f.BoolVar(&meta, "meta", false, "Write the face metadata as <name>.csv")
	f.IntVar(&workers, "conc", runtime.NumCPU(), "Number of files to process concurrently")

	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalf("%v", err)
	}
}

func segmentConfig() faceseg.Config {
	cfg := faceseg.DefaultConfig()
	cfg.DrawDebugImage = debugImage
	cfg.DrawFacesImage = facesImage
	cfg.DrawCutoutFacesImage = cutoutImage
	cfg.DrawFacesInBoundingBoxes = crops
	cfg.DrawLandmarksImage = landmarksImage
	cfg.FaceCropSize = cropSize
	cfg.ContractionFactor = contraction
	cfg.Orientation = faceseg.ParseOrientation(orientation)
	if polyline {
		cfg.Outline = faceseg.PolylineOutline
	}
	return cfg
}

func runSegment(cmd *cobra.Command, _ []string) error {
	cfg := segmentConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	det, err := detOpts.pigo()
	if err != nil {
		return err
	}
	op := &faceseg.Ops{
		Src:      source,
		Dst:      destination,
		PipeName: pipeName,
		Workers:  workers,
		Config:   cfg,
		Meta:     meta,
		Out:      cmd.ErrOrStderr(),
	}
	if detOpts.sidecar {
		op.DetectorFor = detOpts.sidecarFor(det)
	} else if det == nil {
		return errors.New("please provide a face cascade with --cc or use --sidecar landmark files")
	}

	proc := &faceseg.Processor{Logger: logrus.StandardLogger()}
	if det != nil {
		proc.Detector = det
	}
	return proc.Execute(op)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := server.LoadConfig()
	if err != nil {
		return err
	}
	proc := &faceseg.Processor{Logger: logrus.StandardLogger()}

	det, err := detOpts.pigo()
	if err != nil {
		return err
	}
	if det != nil {
		proc.Detector = det
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, proc, faceseg.DefaultConfig()).Run(ctx)
}
