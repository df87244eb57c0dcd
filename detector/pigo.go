package detector

import (
	"image"
	"math"
	"os"
	"sort"
	"sync"

	pigo "github.com/esimov/pigo/core"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/esimov/faceseg"
	"github.com/esimov/faceseg/utils"
)

// Facial landmark point cascades, as shipped with pigo under cascade/lps.
var (
	eyeCascades   = []string{"lp46", "lp44", "lp42", "lp38", "lp312"}
	mouthCascades = []string{"lp93", "lp84", "lp82", "lp81"}
)

// PigoOptions holds the pigo face detection parameters.
type PigoOptions struct {
	MinSize          int
	MaxSize          int
	ShiftFactor      float64
	ScaleFactor      float64
	IoUThreshold     float64
	QualityThreshold float32
	// Perturbs is the number of perturbations used by the pupil and
	// landmark point localization.
	Perturbs int
}

// DefaultPigoOptions returns the detection parameters used by the CLI.
func DefaultPigoOptions() PigoOptions {
	return PigoOptions{
		MinSize:          20,
		MaxSize:          1000,
		ShiftFactor:      0.1,
		ScaleFactor:      1.1,
		IoUThreshold:     0.2,
		QualityThreshold: 5.0,
		Perturbs:         63,
	}
}

// Pigo detects faces with the pigo cascade classifier. Only the face
// detection circle is mandatory; pupils and mouth points are localized when
// the corresponding cascades are loaded. The outline groups (contour and
// eyebrows) are approximated from the detection circle and the pupils.
type Pigo struct {
	Options PigoOptions
	Logger  logrus.FieldLogger

	face *pigo.Pigo

	mu     sync.RWMutex
	pupils *pigo.PuplocCascade
	flps   map[string][]*pigo.FlpCascade
}

// NewPigo unpacks the face detection cascade.
func NewPigo(cascade []byte, opts PigoOptions) (*Pigo, error) {
	p := pigo.NewPigo()
	classifier, err := p.Unpack(cascade)
	if err != nil {
		return nil, errors.Wrap(err, "error unpacking the face cascade file")
	}
	return &Pigo{
		Options: opts,
		Logger:  logrus.StandardLogger(),
		face:    classifier,
	}, nil
}

// NewPigoFromFile reads and unpacks the face detection cascade found at path.
func NewPigoFromFile(path string, opts PigoOptions) (*Pigo, error) {
	cascade, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "error reading the face cascade file")
	}
	return NewPigo(cascade, opts)
}

// LoadPupilCascade unpacks the pupil localization cascade.
func (d *Pigo) LoadPupilCascade(data []byte) error {
	pl := &pigo.PuplocCascade{}
	plc, err := pl.UnpackCascade(data)
	if err != nil {
		return errors.Wrap(err, "error unpacking the pupil localization cascade")
	}
	d.mu.Lock()
	d.pupils = plc
	d.mu.Unlock()
	return nil
}

// LoadLandmarkCascades reads the facial landmark point cascades from dir.
// They are only used when a pupil cascade is loaded as well.
func (d *Pigo) LoadLandmarkCascades(dir string) error {
	pl := &pigo.PuplocCascade{}
	flps, err := pl.ReadCascadeDir(dir)
	if err != nil {
		return errors.Wrap(err, "error reading the facial landmark point cascades")
	}
	d.mu.Lock()
	d.flps = flps
	d.mu.Unlock()
	return nil
}

// landmarks holds the points localized inside a detection, in raster
// coordinates.
type landmarks struct {
	leftPupil  *pigo.Puploc // image left
	rightPupil *pigo.Puploc // image right
	eyes       []image.Point
	mouth      []image.Point
}

// Detect implements faceseg.Detector.
func (d *Pigo) Detect(img *image.NRGBA, orientation faceseg.Orientation) ([]faceseg.FaceObservation, error) {
	if d.face == nil {
		return nil, errors.New("face cascade not loaded")
	}
	size := img.Bounds().Size()
	params := pigo.ImageParams{
		Pixels: pigo.RgbToGrayscale(img),
		Rows:   size.Y,
		Cols:   size.X,
		Dim:    size.X,
	}
	opts := d.Options
	dets := d.face.RunCascade(pigo.CascadeParams{
		MinSize:     opts.MinSize,
		MaxSize:     utils.Min(opts.MaxSize, utils.Min(size.X, size.Y)),
		ShiftFactor: opts.ShiftFactor,
		ScaleFactor: opts.ScaleFactor,
		ImageParams: params,
	}, orientation.Angle())
	dets = d.face.ClusterDetections(dets, opts.IoUThreshold)

	d.mu.RLock()
	defer d.mu.RUnlock()

	var observations []faceseg.FaceObservation
	for _, det := range dets {
		if det.Q < opts.QualityThreshold {
			continue
		}
		lm := d.localize(det, params, orientation.Angle())
		observations = append(observations, observationFromDetection(det, size, lm))
	}

	log := d.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{
		"detections": len(dets),
		"faces":      len(observations),
		"pupils":     d.pupils != nil,
		"flp":        len(d.flps),
	}).Debug("pigo detection finished")

	return observations, nil
}

// localize runs the optional pupil and landmark point cascades for det.
func (d *Pigo) localize(det pigo.Detection, params pigo.ImageParams, angle float64) landmarks {
	var lm landmarks
	if d.pupils == nil {
		return lm
	}
	scale := float32(det.Scale)
	pupil := func(colOffset float32) *pigo.Puploc {
		pl := pigo.Puploc{
			Row:      det.Row - int(0.075*scale),
			Col:      det.Col + int(colOffset*scale),
			Scale:    scale * 0.25,
			Perturbs: d.Options.Perturbs,
		}
		res := d.pupils.RunDetector(pl, params, angle, false)
		if res == nil || res.Row <= 0 || res.Col <= 0 {
			return nil
		}
		found := *res
		return &found
	}
	lm.leftPupil = pupil(-0.175)
	lm.rightPupil = pupil(0.185)
	if lm.leftPupil == nil || lm.rightPupil == nil {
		return lm
	}

	point := func(c *pigo.PuplocCascade, flipV bool) (image.Point, bool) {
		res := c.GetLandmarkPoint(lm.leftPupil, lm.rightPupil, params, d.Options.Perturbs, flipV)
		if res == nil || res.Row <= 0 || res.Col <= 0 {
			return image.Point{}, false
		}
		return image.Pt(res.Col, res.Row), true
	}
	collect := func(names []string, both bool) []image.Point {
		var pts []image.Point
		for _, name := range names {
			for _, flpc := range d.flps[name] {
				if flpc.PuplocCascade == nil {
					continue
				}
				if pt, ok := point(flpc.PuplocCascade, false); ok {
					pts = append(pts, pt)
				}
				if both {
					if pt, ok := point(flpc.PuplocCascade, true); ok {
						pts = append(pts, pt)
					}
				}
			}
		}
		return pts
	}
	lm.eyes = collect(eyeCascades, true)
	lm.mouth = collect(mouthCascades, true)
	return lm
}

// observationFromDetection converts a pigo detection to a face observation.
// Detections are circles given by their center and diameter in raster
// coordinates; observations use a box normalized to the image with a
// bottom-left origin and landmarks normalized to that box.
func observationFromDetection(det pigo.Detection, size image.Point, lm landmarks) faceseg.FaceObservation {
	w, h := float64(size.X), float64(size.Y)
	s := float64(det.Scale)
	left := float64(det.Col) - s/2
	bottom := float64(det.Row) + s/2

	box := faceseg.Rect{
		X:      left / w,
		Y:      (h - bottom) / h,
		Width:  s / w,
		Height: s / h,
	}
	norm := func(col, row float64) faceseg.NormalizedPoint {
		return faceseg.NormalizedPoint{X: (col - left) / s, Y: (bottom - row) / s}
	}

	// Pupils default to the offsets used to seed the pupil localization.
	leftPupil := norm(float64(det.Col)-0.175*s, float64(det.Row)-0.075*s)
	rightPupil := norm(float64(det.Col)+0.185*s, float64(det.Row)-0.075*s)
	if lm.leftPupil != nil && lm.rightPupil != nil {
		leftPupil = norm(float64(lm.leftPupil.Col), float64(lm.leftPupil.Row))
		rightPupil = norm(float64(lm.rightPupil.Col), float64(lm.rightPupil.Row))
	}

	groups := faceseg.Landmarks{
		faceseg.FaceContour: contour(leftPupil, rightPupil),
		// The subject's right eye appears on the image left.
		faceseg.RightPupil:   {leftPupil},
		faceseg.LeftPupil:    {rightPupil},
		faceseg.RightEyebrow: eyebrow(leftPupil, -1),
		faceseg.LeftEyebrow:  eyebrow(rightPupil, 1),
	}

	mid := (leftPupil.X + rightPupil.X) / 2
	for _, pt := range lm.eyes {
		p := norm(float64(pt.X), float64(pt.Y))
		if p.X < mid {
			groups[faceseg.RightEye] = append(groups[faceseg.RightEye], p)
		} else {
			groups[faceseg.LeftEye] = append(groups[faceseg.LeftEye], p)
		}
	}
	if len(lm.mouth) > 0 {
		lips := make([]faceseg.NormalizedPoint, len(lm.mouth))
		for i, pt := range lm.mouth {
			lips[i] = norm(float64(pt.X), float64(pt.Y))
		}
		groups[faceseg.OuterLips] = sortAround(lips)
	}

	return faceseg.FaceObservation{BoundingBox: box, Landmarks: groups}
}

const contourPoints = 17

// contour approximates the jaw line with the lower half of an ellipse
// running from the image-left temple, below the chin, to the image-right
// temple. The temples sit slightly below the eye line.
func contour(leftPupil, rightPupil faceseg.NormalizedPoint) []faceseg.NormalizedPoint {
	cx := (leftPupil.X + rightPupil.X) / 2
	cy := (leftPupil.Y+rightPupil.Y)/2 - 0.05
	rx := math.Max(0.46, (rightPupil.X-leftPupil.X)*1.3)
	ry := cy - 0.02

	pts := make([]faceseg.NormalizedPoint, contourPoints)
	for i := range pts {
		theta := math.Pi + float64(i)*math.Pi/float64(contourPoints-1)
		pts[i] = faceseg.NormalizedPoint{
			X: cx + rx*math.Cos(theta),
			Y: cy + ry*math.Sin(theta),
		}
	}
	return pts
}

// eyebrow returns three points arching above the pupil, outer point first.
// dir is -1 for the image-left brow and 1 for the image-right one.
func eyebrow(pupil faceseg.NormalizedPoint, dir float64) []faceseg.NormalizedPoint {
	return []faceseg.NormalizedPoint{
		{X: pupil.X + dir*0.13, Y: pupil.Y + 0.08},
		{X: pupil.X, Y: pupil.Y + 0.12},
		{X: pupil.X - dir*0.1, Y: pupil.Y + 0.1},
	}
}

// sortAround orders points by their angle around the centroid.
func sortAround(pts []faceseg.NormalizedPoint) []faceseg.NormalizedPoint {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(len(pts))
	cy /= float64(len(pts))

	sort.SliceStable(pts, func(i, j int) bool {
		return math.Atan2(pts[i].Y-cy, pts[i].X-cx) < math.Atan2(pts[j].Y-cy, pts[j].X-cx)
	})
	return pts
}
