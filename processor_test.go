package faceseg

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) record(from, to State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		r.states = append(r.states, from)
	}
	r.states = append(r.states, to)
}

func newTestProcessor(d Detector) (*Processor, *stateRecorder) {
	rec := &stateRecorder{}
	logger := logrus.New()
	logger.Out = io.Discard
	return &Processor{
		Detector:      d,
		Logger:        logger,
		OnStateChange: rec.record,
	}, rec
}

func allOutputs() Config {
	cfg := DefaultConfig()
	cfg.DrawDebugImage = true
	cfg.DrawFacesImage = true
	cfg.DrawCutoutFacesImage = true
	cfg.DrawFacesInBoundingBoxes = true
	cfg.DrawLandmarksImage = true
	cfg.FaceCropSize = 32
	return cfg
}

func TestProcessor_AllOutputs(t *testing.T) {
	assert := assert.New(t)
	p, rec := newTestProcessor(staticDetector(
		testObservation(centeredBox),
		testObservation(Rect{X: 0, Y: 0.7, Width: 0.3, Height: 0.3}),
	))
	src := newOpaqueImage(200, 200, gray)

	res, err := p.Process(src, allOutputs())
	require.NoError(t, err)

	md := res.Metadata
	assert.Equal(2, md.FaceCount)
	assert.Len(md.BoundingBoxes, 2)
	assert.Len(md.Landmarks, 2)
	assert.Len(md.FacePaths, 2)
	for _, points := range md.Landmarks {
		assert.Len(points, contourPoints+3)
	}

	for _, img := range []*image.NRGBA{res.DebugImage, res.FacesImage, res.CutoutFacesImage, res.LandmarksImage} {
		require.NotNil(t, img)
		assert.Equal(src.Bounds(), img.Bounds())
	}
	require.Len(t, res.FacesInBoundingBoxes, md.FaceCount)
	for _, crop := range res.FacesInBoundingBoxes {
		assert.Equal(image.Rect(0, 0, 32, 32), crop.Bounds())
	}
	assert.Empty(res.Errors)

	assert.Equal([]State{Idle, Detecting, BuildingOutlines, Compositing, Done}, rec.states)
}

func TestProcessor_MetadataOnly(t *testing.T) {
	p, rec := newTestProcessor(staticDetector(testObservation(centeredBox)))

	res, err := p.Process(newOpaqueImage(100, 100, gray), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Metadata.FaceCount)
	assert.Nil(t, res.DebugImage)
	assert.Nil(t, res.FacesImage)
	assert.Nil(t, res.CutoutFacesImage)
	assert.Nil(t, res.LandmarksImage)
	assert.Nil(t, res.FacesInBoundingBoxes)
	assert.Equal(t, []State{Idle, Detecting, BuildingOutlines, Compositing, Done}, rec.states)
}

func TestProcessor_NoFaces(t *testing.T) {
	p, rec := newTestProcessor(staticDetector())

	res, err := p.Process(newOpaqueImage(100, 100, gray), allOutputs())
	require.NoError(t, err)
	assert.Equal(t, NoFaces(), res)
	assert.Equal(t, 0, res.Metadata.FaceCount)
	assert.Equal(t, []State{Idle, Detecting, Done}, rec.states)
}

func TestProcessor_Failures(t *testing.T) {
	detectErr := errors.New("model not loaded")
	missingBrow := testObservation(centeredBox)
	delete(missingBrow.Landmarks, LeftEyebrow)

	tests := []struct {
		name     string
		detector Detector
		img      image.Image
		cfg      func(*Config)
		want     error
		states   []State
	}{
		{
			name:     "nil image",
			detector: staticDetector(testObservation(centeredBox)),
			want:     ErrImageConversionFailed,
			states:   []State{Idle, Detecting, Failed},
		},
		{
			name:     "empty image",
			detector: staticDetector(testObservation(centeredBox)),
			img:      image.NewNRGBA(image.Rect(0, 0, 0, 0)),
			want:     ErrImageConversionFailed,
			states:   []State{Idle, Detecting, Failed},
		},
		{
			name: "detector error",
			detector: DetectorFunc(func(*image.NRGBA, Orientation) ([]FaceObservation, error) {
				return nil, detectErr
			}),
			img:    newOpaqueImage(10, 10, gray),
			want:   ErrVisionRequestFailed,
			states: []State{Idle, Detecting, Failed},
		},
		{
			name:   "no detector",
			img:    newOpaqueImage(10, 10, gray),
			want:   ErrVisionRequestFailed,
			states: []State{Idle, Failed},
		},
		{
			name:     "missing eyebrow",
			detector: staticDetector(testObservation(centeredBox), missingBrow),
			img:      newOpaqueImage(100, 100, gray),
			want:     ErrObservationMissingData,
			states:   []State{Idle, Detecting, BuildingOutlines, Failed},
		},
		{
			name:     "negative contraction",
			detector: staticDetector(testObservation(centeredBox)),
			img:      newOpaqueImage(10, 10, gray),
			cfg:      func(c *Config) { c.ContractionFactor = -1 },
			want:     ErrInvalidConfig,
			states:   []State{Idle, Failed},
		},
		{
			name:     "bad palette",
			detector: staticDetector(testObservation(centeredBox)),
			img:      newOpaqueImage(10, 10, gray),
			cfg:      func(c *Config) { c.Palette.Box = "#zz0000" },
			want:     ErrInvalidConfig,
			states:   []State{Idle, Failed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, rec := newTestProcessor(tt.detector)
			cfg := allOutputs()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}

			res, err := p.Process(tt.img, cfg)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.states, rec.states)
		})
	}

	p, _ := newTestProcessor(DetectorFunc(func(*image.NRGBA, Orientation) ([]FaceObservation, error) {
		return nil, detectErr
	}))
	_, err := p.Process(newOpaqueImage(10, 10, gray), DefaultConfig())
	assert.ErrorIs(t, err, detectErr)
}

func TestProcessor_NilImageSkipsDetector(t *testing.T) {
	called := false
	p, _ := newTestProcessor(DetectorFunc(func(*image.NRGBA, Orientation) ([]FaceObservation, error) {
		called = true
		return nil, nil
	}))

	_, err := p.Process(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrImageConversionFailed)
	assert.False(t, called)
}

func TestProcessor_PassesOrientationAndPixels(t *testing.T) {
	var (
		gotOrientation Orientation
		gotBounds      image.Rectangle
	)
	p, _ := newTestProcessor(DetectorFunc(func(img *image.NRGBA, o Orientation) ([]FaceObservation, error) {
		gotOrientation, gotBounds = o, img.Bounds()
		return nil, nil
	}))

	cfg := DefaultConfig()
	cfg.Orientation = Left
	src := image.NewGray(image.Rect(10, 10, 40, 30))
	_, err := p.Process(src, cfg)
	require.NoError(t, err)
	assert.Equal(t, Left, gotOrientation)
	assert.Equal(t, image.Rect(0, 0, 30, 20), gotBounds)
}

func TestProcessor_CropFailureKeepsOtherOutputs(t *testing.T) {
	// The second face is entirely outside the frame.
	p, _ := newTestProcessor(staticDetector(
		testObservation(centeredBox),
		testObservation(Rect{X: 2, Y: 2, Width: 0.5, Height: 0.5}),
	))

	res, err := p.Process(newOpaqueImage(100, 100, gray), allOutputs())
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], ErrDrawFacesInBoxesFailed)

	assert.NotNil(t, res.DebugImage)
	assert.NotNil(t, res.FacesImage)
	assert.NotNil(t, res.CutoutFacesImage)
	require.Len(t, res.FacesInBoundingBoxes, 2)
	assert.Equal(t, image.Rect(0, 0, 32, 32), res.FacesInBoundingBoxes[1].Bounds())
}

func TestProcessor_LogsVariantErrors(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := &Processor{
		Detector: staticDetector(
			testObservation(centeredBox),
			testObservation(Rect{X: -3, Y: -3, Width: 0.5, Height: 0.5}),
		),
		Logger: logger,
	}
	cfg := DefaultConfig()
	cfg.DrawFacesInBoundingBoxes = true

	res, err := p.Process(newOpaqueImage(50, 50, gray), cfg)
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, string(CropsVariant), entry.Data["variant"])
	assert.Nil(t, res.FacesImage)
}

func TestProcessor_PolylineOutline(t *testing.T) {
	p, _ := newTestProcessor(staticDetector(testObservation(centeredBox)))
	cfg := DefaultConfig()
	cfg.Outline = PolylineOutline

	res, err := p.Process(newOpaqueImage(100, 100, gray), cfg)
	require.NoError(t, err)
	assert.Equal(t, contourPoints+3+1, res.Metadata.FacePaths[0].Len())
}

func TestProcessor_ProcessAsync(t *testing.T) {
	p, _ := newTestProcessor(staticDetector(testObservation(centeredBox)))

	ch := p.ProcessAsync(newOpaqueImage(100, 100, gray), allOutputs())
	out, ok := <-ch
	require.True(t, ok)
	require.NoError(t, out.Err)
	assert.Equal(t, 1, out.Result.Metadata.FaceCount)

	_, ok = <-ch
	assert.False(t, ok, "channel must be closed after the single outcome")

	out = <-p.ProcessAsync(nil, DefaultConfig())
	assert.Nil(t, out.Result)
	assert.ErrorIs(t, out.Err, ErrImageConversionFailed)
}

func TestProcessor_ConcurrentCalls(t *testing.T) {
	p, _ := newTestProcessor(staticDetector(testObservation(centeredBox)))
	p.OnStateChange = nil
	src := newOpaqueImage(100, 100, gray)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := p.Process(src, allOutputs())
			if assert.NoError(t, err) {
				assert.Len(t, res.FacesInBoundingBoxes, 1)
			}
		}()
	}
	wg.Wait()
}

func TestProcessor_ProcessReader(t *testing.T) {
	p, _ := newTestProcessor(staticDetector(testObservation(centeredBox)))

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, newOpaqueImage(100, 100, gray)))
	res, err := p.ProcessReader(&buf, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Metadata.FaceCount)

	_, err = p.ProcessReader(bytes.NewReader([]byte("GIF89a but not really")), DefaultConfig())
	assert.ErrorIs(t, err, ErrImageConversionFailed)
}
