package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/esimov/faceseg"
	"github.com/esimov/faceseg/detector"
)

var sidecarExts = []string{".json", ".msgpack", ".mp"}

type detectorOptions struct {
	cascade   string
	pupils    string
	landmarks string
	sidecar   bool
}

// pigo returns the cascade based detector, or nil when no face cascade is set.
func (o detectorOptions) pigo() (*detector.Pigo, error) {
	if o.cascade == "" {
		if o.pupils != "" || o.landmarks != "" {
			return nil, errors.New("--pl and --flpl require a face cascade (--cc)")
		}
		return nil, nil
	}
	det, err := detector.NewPigoFromFile(o.cascade, detector.DefaultPigoOptions())
	if err != nil {
		return nil, err
	}
	if o.pupils != "" {
		data, err := os.ReadFile(o.pupils)
		if err != nil {
			return nil, errors.Wrap(err, "error reading the pupil localization cascade")
		}
		if err := det.LoadPupilCascade(data); err != nil {
			return nil, err
		}
	}
	if o.landmarks != "" {
		if o.pupils == "" {
			return nil, errors.New("--flpl requires a pupil localization cascade (--pl)")
		}
		if err := det.LoadLandmarkCascades(o.landmarks); err != nil {
			return nil, err
		}
	}
	return det, nil
}

// sidecarFor returns a per-image detector lookup reading the landmark
// document stored next to the image. Images without one fall back to
// fallback, if any.
func (o detectorOptions) sidecarFor(fallback *detector.Pigo) func(string) (faceseg.Detector, error) {
	return func(path string) (faceseg.Detector, error) {
		base := strings.TrimSuffix(path, filepath.Ext(path))
		for _, ext := range sidecarExts {
			name := base + ext
			if _, err := os.Stat(name); err != nil {
				continue
			}
			return detector.ReadFile(name)
		}
		if fallback == nil {
			return nil, errors.Errorf("no landmark file found for %s", filepath.Base(path))
		}
		return fallback, nil
	}
}
