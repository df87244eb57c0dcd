package faceseg

import (
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/esimov/faceseg/curve"
)

// State is a stage of a single Process call.
type State int

const (
	Idle State = iota
	Detecting
	BuildingOutlines
	Compositing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Detecting:
		return "detecting"
	case BuildingOutlines:
		return "building_outlines"
	case Compositing:
		return "compositing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}()

// Processor runs the face segmentation pipeline: landmark detection, face
// outline construction and compositing of the requested output images.
// A Processor holds no per-call state and can serve concurrent calls as long
// as its Detector does.
type Processor struct {
	Detector Detector
	Logger   logrus.FieldLogger

	// OnStateChange, when set, is called synchronously on every state transition.
	OnStateChange func(from, to State)
}

// NewProcessor returns a Processor logging through the logrus standard logger.
func NewProcessor(d Detector) *Processor {
	return &Processor{
		Detector: d,
		Logger:   logrus.StandardLogger(),
	}
}

// run tracks the state of one Process call.
type run struct {
	p     *Processor
	state State
	log   logrus.FieldLogger
}

func (p *Processor) newRun() *run {
	log := p.Logger
	if log == nil {
		log = discardLogger
	}
	return &run{p: p, state: Idle, log: log}
}

func (r *run) transition(to State) {
	from := r.state
	r.state = to
	r.log.WithFields(logrus.Fields{
		"from": from.String(),
		"to":   to.String(),
	}).Debug("segmentation state change")

	if r.p.OnStateChange != nil {
		r.p.OnStateChange(from, to)
	}
}

// Process segments the faces of img according to cfg.
//
// Fatal failures are reported through the returned error, which matches one of
// ErrImageConversionFailed, ErrVisionRequestFailed, ErrObservationMissingData
// or ErrInvalidConfig with errors.Is. An image without faces is not an error:
// the result is NoFaces(). Failures of individual output images are collected
// in Result.Errors while the other outputs are still delivered.
func (p *Processor) Process(img image.Image, cfg Config) (*Result, error) {
	r := p.newRun()
	start := time.Now()

	res, err := r.process(img, cfg)
	if err != nil {
		r.log.WithError(err).Warn("face segmentation failed")
		r.transition(Failed)
		return nil, err
	}
	r.log.WithFields(logrus.Fields{
		"faces":    res.Metadata.FaceCount,
		"warnings": len(res.Errors),
		"elapsed":  time.Since(start).String(),
	}).Debug("face segmentation finished")
	r.transition(Done)
	return res, nil
}

// ProcessAsync runs Process on a new goroutine. The returned channel delivers
// exactly one Outcome and is then closed.
func (p *Processor) ProcessAsync(img image.Image, cfg Config) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		res, err := p.Process(img, cfg)
		ch <- Outcome{Result: res, Err: err}
	}()
	return ch
}

// ProcessReader decodes an image from r and processes it.
func (p *Processor) ProcessReader(rd io.Reader, cfg Config) (*Result, error) {
	img, err := DecodeImage(rd)
	if err != nil {
		r := p.newRun()
		r.log.WithError(err).Warn("face segmentation failed")
		r.transition(Failed)
		return nil, err
	}
	return p.Process(img, cfg)
}

func (r *run) process(img image.Image, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if r.p.Detector == nil {
		return nil, fmt.Errorf("%w: no detector configured", ErrVisionRequestFailed)
	}

	r.transition(Detecting)
	src, err := toNRGBA(img)
	if err != nil {
		return nil, err
	}
	observations, err := r.p.Detector.Detect(src, cfg.Orientation)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVisionRequestFailed, err)
	}
	if len(observations) == 0 {
		return NoFaces(), nil
	}

	r.transition(BuildingOutlines)
	md, err := buildMetadata(observations, src.Bounds().Size(), cfg)
	if err != nil {
		return nil, err
	}
	res := &Result{Metadata: md}

	// Compositing is entered even when only the metadata was requested.
	r.transition(Compositing)
	if cfg.anyImage() {
		r.composite(res, src, observations, cfg)
	}
	return res, nil
}

// buildMetadata builds the outline of every face. A single malformed
// observation fails the whole call.
func buildMetadata(observations []FaceObservation, size image.Point, cfg Config) (Metadata, error) {
	n := len(observations)
	md := Metadata{
		FaceCount:     n,
		BoundingBoxes: make([]Rect, n),
		Landmarks:     make([][]ImagePoint, n),
		FacePaths:     make([]*curve.Path, n),
	}
	for i, obs := range observations {
		points, err := BuildOutline(obs, size)
		if err != nil {
			return Metadata{}, fmt.Errorf("face %d: %w", i, err)
		}
		path, err := buildPath(points, cfg)
		if err != nil {
			return Metadata{}, fmt.Errorf("face %d: %w", i, err)
		}
		md.BoundingBoxes[i] = ToImageRect(obs.BoundingBox, size)
		md.Landmarks[i] = points
		md.FacePaths[i] = path
	}
	return md, nil
}

// composite computes the requested output images concurrently. Each goroutine
// owns the result fields and error slot it writes.
func (r *run) composite(res *Result, src *image.NRGBA, observations []FaceObservation, cfg Config) {
	var (
		g        errgroup.Group
		debugErr error
		cropErrs []error
	)
	md := res.Metadata

	if cfg.DrawDebugImage {
		g.Go(func() error {
			res.DebugImage, debugErr = drawDebugImage(src, md, cfg)
			return nil
		})
	}
	if cfg.DrawFacesImage || cfg.DrawFacesInBoundingBoxes {
		g.Go(func() error {
			faces := drawFacesImage(src, md.FacePaths)
			if cfg.DrawFacesImage {
				res.FacesImage = faces
			}
			if cfg.DrawFacesInBoundingBoxes {
				res.FacesInBoundingBoxes, cropErrs = drawFacesInBoundingBoxes(
					md.BoundingBoxes, len(md.FacePaths), faces, cfg.cropSize())
			}
			return nil
		})
	}
	if cfg.DrawCutoutFacesImage {
		g.Go(func() error {
			res.CutoutFacesImage = drawCutoutImage(src, md.FacePaths)
			return nil
		})
	}
	if cfg.DrawLandmarksImage {
		g.Go(func() error {
			res.LandmarksImage = drawLandmarksImage(src.Bounds().Size(), observations)
			return nil
		})
	}
	_ = g.Wait()

	if debugErr != nil {
		res.Errors = append(res.Errors, debugErr)
	}
	res.Errors = append(res.Errors, cropErrs...)

	for _, err := range res.Errors {
		var verr *VariantError
		if errors.As(err, &verr) {
			r.log.WithField("variant", string(verr.Variant)).Warn(verr.Reason)
		}
	}
}
