package server

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/esimov/faceseg"
	"github.com/esimov/faceseg/detector"
)

type segmentQuery struct {
	Debug       bool     `form:"debug"`
	Faces       bool     `form:"faces"`
	Cutout      bool     `form:"cutout"`
	Crops       bool     `form:"crops"`
	Landmarks   bool     `form:"landmarks"`
	CropSize    int      `form:"cropSize" binding:"min=0"`
	Polyline    bool     `form:"polyline"`
	Contraction *float64 `form:"contraction"`
	Orientation string   `form:"orientation"`
}

// segmentResponse is the JSON body of a successful segmentation. Images are
// base64 encoded PNGs; face paths are SVG path data.
type segmentResponse struct {
	Metadata faceseg.Metadata  `json:"metadata"`
	Images   map[string]string `json:"images,omitempty"`
	Crops    []string          `json:"crops,omitempty"`
	Errors   []string          `json:"errors,omitempty"`
}

func (s *Server) config(q segmentQuery) faceseg.Config {
	cfg := s.defaults
	cfg.DrawDebugImage = q.Debug
	cfg.DrawFacesImage = q.Faces
	cfg.DrawCutoutFacesImage = q.Cutout
	cfg.DrawFacesInBoundingBoxes = q.Crops
	cfg.DrawLandmarksImage = q.Landmarks
	if q.CropSize > 0 {
		cfg.FaceCropSize = q.CropSize
	}
	if q.Polyline {
		cfg.Outline = faceseg.PolylineOutline
	}
	if q.Contraction != nil {
		cfg.ContractionFactor = *q.Contraction
	}
	if q.Orientation != "" {
		cfg.Orientation = faceseg.ParseOrientation(q.Orientation)
	}
	return cfg
}

func (s *Server) handleSegment(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.maxUploadBytes())

	var q segmentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query: " + err.Error()})
		return
	}

	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing image file"})
		return
	}
	defer file.Close()

	proc := s.processor
	if lf, hdr, err := c.Request.FormFile("landmarks"); err == nil {
		defer lf.Close()

		format, err := detector.FormatFromPath(hdr.Filename)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		static, err := detector.Decode(lf, format)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		proc = &faceseg.Processor{Detector: static, Logger: s.log}
	}
	if proc.Detector == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no landmarks provided and no detector configured"})
		return
	}

	res, err := proc.ProcessReader(file, s.config(q))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	resp, err := newSegmentResponse(res)
	if err != nil {
		s.log.WithError(err).Error("encoding segmentation response")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not encode the output images"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// statusFor maps a fatal processing error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, faceseg.ErrImageConversionFailed), errors.Is(err, faceseg.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, faceseg.ErrObservationMissingData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, faceseg.ErrVisionRequestFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func newSegmentResponse(res *faceseg.Result) (*segmentResponse, error) {
	resp := &segmentResponse{
		Metadata: res.Metadata,
		Images:   make(map[string]string),
	}
	images := map[faceseg.Variant]*image.NRGBA{
		faceseg.DebugVariant:     res.DebugImage,
		faceseg.FacesVariant:     res.FacesImage,
		faceseg.CutoutVariant:    res.CutoutFacesImage,
		faceseg.LandmarksVariant: res.LandmarksImage,
	}
	for variant, img := range images {
		if img == nil {
			continue
		}
		enc, err := encodePNG(img)
		if err != nil {
			return nil, err
		}
		resp.Images[string(variant)] = enc
	}
	for _, crop := range res.FacesInBoundingBoxes {
		enc, err := encodePNG(crop)
		if err != nil {
			return nil, err
		}
		resp.Crops = append(resp.Crops, enc)
	}
	for _, err := range res.Errors {
		resp.Errors = append(resp.Errors, err.Error())
	}
	return resp, nil
}

func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := faceseg.EncodeImage(&buf, ".png", img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
