// Package calib fits linear calibration models relating sampled well
// colors to known concentrations, and inverts them to predict the
// concentration of an unknown sample.
package calib

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"plate-reader/internal/shape"
	"plate-reader/pkg/colorutil"
)

// Channel keys for the fitted models. RGB channels are raw 0-255
// values; CMYK channels are scaled to the 0-100 percentage convention;
// magnitude is the Euclidean norm of the RGB vector.
const (
	ChannelRed       = "red"
	ChannelGreen     = "green"
	ChannelBlue      = "blue"
	ChannelCyan      = "cyan"
	ChannelMagenta   = "magenta"
	ChannelYellow    = "yellow"
	ChannelBlack     = "black"
	ChannelMagnitude = "magnitude"
)

// Channels lists every channel a fit attempts, in presentation order.
var Channels = []string{
	ChannelRed, ChannelGreen, ChannelBlue,
	ChannelCyan, ChannelMagenta, ChannelYellow, ChannelBlack,
	ChannelMagnitude,
}

// epsilon bounds the normal-equation denominator and the fitted slope
// below which a channel is considered unfittable.
const epsilon = 1e-10

// ErrInsufficientData is returned when fewer than two committed points
// join to a current shape; no partial model is produced.
var ErrInsufficientData = errors.New("regression requires at least 2 points with matching shapes")

// ErrDegenerateSlope is returned by Predict when the model's slope is
// too close to zero to invert.
var ErrDegenerateSlope = errors.New("slope too close to zero to predict")

// Point pairs a shape label with its known concentration. Re-committing
// a label overwrites the prior value; the pairing survives shape edits
// as long as the label does.
type Point struct {
	Label string  `json:"label"`
	Y     float64 `json:"y"` // Known concentration
}

// Model is a fitted line for one channel: value = M·concentration + B.
type Model struct {
	M  float64 `json:"m"`
	B  float64 `json:"b"`
	R2 float64 `json:"r2"`
}

// Predict inverts the fitted line to recover a concentration from an
// observed channel value. Fails with ErrDegenerateSlope rather than
// returning garbage when the slope is below epsilon.
func (m Model) Predict(observed float64) (float64, error) {
	if math.Abs(m.M) < epsilon {
		return 0, ErrDegenerateSlope
	}
	return (observed - m.B) / m.M, nil
}

// Fit joins the committed points to the shapes by label and fits one
// ordinary-least-squares line per channel. Committed points whose label
// matches no shape are silently excluded; channels whose normal
// equations are degenerate are omitted from the result rather than
// stored with undefined values. The fit is a full recompute every call.
func Fit(points []Point, shapes []shape.Shape) (map[string]Model, error) {
	byLabel := make(map[string]shape.Shape, len(shapes))
	for _, s := range shapes {
		byLabel[s.Label] = s
	}

	var xs []float64
	var colors []colorutil.RGB
	for _, p := range points {
		s, ok := byLabel[p.Label]
		if !ok {
			continue // orphaned point, not an error
		}
		xs = append(xs, p.Y)
		colors = append(colors, s.Color)
	}

	if len(xs) < 2 {
		return nil, ErrInsufficientData
	}

	models := make(map[string]Model)
	for _, channel := range Channels {
		ys := make([]float64, len(colors))
		for i, c := range colors {
			ys[i] = ChannelValue(c, channel)
		}
		if model, ok := fitChannel(xs, ys); ok {
			models[channel] = model
		}
	}
	return models, nil
}

// fitChannel fits a single channel, reporting ok=false when the
// denominator of the normal equations is degenerate.
func fitChannel(xs, ys []float64) (Model, bool) {
	n := float64(len(xs))
	var sumX, sumXX float64
	for _, x := range xs {
		sumX += x
		sumXX += x * x
	}
	if math.Abs(n*sumXX-sumX*sumX) < epsilon {
		return Model{}, false
	}

	b, m := stat.LinearRegression(xs, ys, nil, false)

	// All-identical y values make SStot zero; report R² = 0 by
	// convention instead of dividing by zero.
	meanY := stat.Mean(ys, nil)
	var ssTot float64
	for _, y := range ys {
		d := y - meanY
		ssTot += d * d
	}
	r2 := 0.0
	if ssTot > epsilon {
		r2 = stat.RSquared(xs, ys, nil, b, m)
	}

	return Model{M: m, B: b, R2: r2}, true
}

// ChannelValue extracts the scalar regression target for a channel from
// a sampled color.
func ChannelValue(c colorutil.RGB, channel string) float64 {
	switch channel {
	case ChannelRed:
		return float64(c.R)
	case ChannelGreen:
		return float64(c.G)
	case ChannelBlue:
		return float64(c.B)
	case ChannelMagnitude:
		return c.Magnitude()
	}

	cy, ma, ye, k := c.CMYK()
	switch channel {
	case ChannelCyan:
		return cy * 100
	case ChannelMagenta:
		return ma * 100
	case ChannelYellow:
		return ye * 100
	case ChannelBlack:
		return k * 100
	}
	return 0
}

// PredictAll inverse-predicts a concentration from an observed color on
// every fitted channel. Channels whose slope is degenerate are left out
// of the result.
func PredictAll(models map[string]Model, c colorutil.RGB) map[string]float64 {
	out := make(map[string]float64, len(models))
	for channel, model := range models {
		if pred, err := model.Predict(ChannelValue(c, channel)); err == nil {
			out[channel] = pred
		}
	}
	return out
}
