// Package export reads and writes the versioned JSON interchange format
// for calibration data: committed concentration points, per-label well
// colors, and fitted regression models. The external persistence layer
// stores these documents without understanding their semantics.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"plate-reader/internal/calib"
	"plate-reader/internal/shape"
	"plate-reader/pkg/colorutil"
)

// Version is the interchange format version this package produces.
const Version = "3.0"

// ErrInvalidFormat is returned for files that do not parse as a
// calibration document. The caller's state is left untouched.
var ErrInvalidFormat = errors.New("invalid calibration file format")

// ShapeColor pairs a well label with its sampled color.
type ShapeColor struct {
	Label string        `json:"label"`
	Color colorutil.RGB `json:"color"`
}

// Document is the exported calibration record.
type Document struct {
	Version          string                 `json:"version"`
	ExportDate       string                 `json:"exportDate"`
	CommittedPoints  []calib.Point          `json:"committedPoints"`
	ShapeData        []ShapeColor           `json:"shapeData"`
	RegressionModels map[string]calib.Model `json:"regressionModels,omitempty"`
}

// New builds a document from the current session data.
func New(points []calib.Point, shapes []shape.Shape, models map[string]calib.Model) Document {
	shapeData := make([]ShapeColor, 0, len(shapes))
	for _, s := range shapes {
		shapeData = append(shapeData, ShapeColor{Label: s.Label, Color: s.Color})
	}
	if points == nil {
		points = []calib.Point{}
	}
	return Document{
		Version:          Version,
		ExportDate:       time.Now().Format(time.RFC3339),
		CommittedPoints:  points,
		ShapeData:        shapeData,
		RegressionModels: models,
	}
}

// Encode serializes the document as indented JSON.
func Encode(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Decode parses a calibration document. Missing committedPoints,
// shapeData, or regressionModels keys are tolerated and read as empty;
// anything that fails to parse as a JSON object is rejected with
// ErrInvalidFormat.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if doc.CommittedPoints == nil {
		doc.CommittedPoints = []calib.Point{}
	}
	if doc.ShapeData == nil {
		doc.ShapeData = []ShapeColor{}
	}
	if doc.RegressionModels == nil {
		doc.RegressionModels = map[string]calib.Model{}
	}
	return doc, nil
}

// Save writes the document to a file.
func Save(path string, doc Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a calibration document from a file.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Decode(data)
}
