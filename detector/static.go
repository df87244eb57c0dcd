// Package detector provides faceseg.Detector implementations: a pigo based
// face and landmark detector and a static detector replaying landmarks
// exported by an external tool.
package detector

import (
	"encoding/json"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/esimov/faceseg"
)

// Format is the encoding of a landmark document.
type Format int

const (
	JSON Format = iota
	MsgPack
)

func (f Format) String() string {
	if f == MsgPack {
		return "msgpack"
	}
	return "json"
}

// Document is the on-disk shape of a landmark dump:
//
//	{"faces":[{"boundingBox":{"x":0.2,"y":0.3,"width":0.4,"height":0.4},"landmarks":{"faceContour":[...]}}]}
type Document struct {
	Faces []faceseg.FaceObservation `json:"faces" msgpack:"faces"`
}

// Static returns the same observations for every image.
type Static struct {
	Observations []faceseg.FaceObservation
}

// Detect returns a copy of the stored observations.
func (s *Static) Detect(_ *image.NRGBA, _ faceseg.Orientation) ([]faceseg.FaceObservation, error) {
	out := make([]faceseg.FaceObservation, len(s.Observations))
	copy(out, s.Observations)
	return out, nil
}

// FormatFromPath returns the document format implied by the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".msgpack", ".mp":
		return MsgPack, nil
	}
	return 0, errors.Errorf("unsupported landmark file %q: expected .json, .msgpack or .mp", path)
}

// ReadFile loads a landmark document from path.
func ReadFile(path string) (*Static, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open landmark file")
	}
	defer f.Close()

	s, err := Decode(f, format)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %s", path)
	}
	return s, nil
}

// Decode reads a landmark document encoded in the given format.
func Decode(r io.Reader, format Format) (*Static, error) {
	var doc Document
	switch format {
	case JSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding json landmarks")
		}
	case MsgPack:
		if err := msgpack.NewDecoder(r).Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding msgpack landmarks")
		}
	default:
		return nil, errors.Errorf("unknown landmark format %d", format)
	}
	return &Static{Observations: doc.Faces}, nil
}
