package controller

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateFit signals that the stored samples cannot support a stable
// least-squares solution (too few points, rank-deficient system, or a
// non-finite result). Callers fall back to the default mapping; this is a
// normal path while learned data is sparse, never an operator-visible error.
var ErrDegenerateFit = errors.New("degenerate brightness fit")

// minFitSamples is the number of independent points a quadratic needs
const minFitSamples = 3

// Mapping sources reported by PredictWithSource
const (
	SourceLearnedFit     = "learned_fit"
	SourceDefaultMapping = "default_mapping"
)

// Curve holds the coefficients of brightness = a·lux² + b·lux + c
type Curve struct {
	A, B, C float64
}

// Eval evaluates the curve at the given lux level
func (c Curve) Eval(lux int) float64 {
	x := float64(lux)
	return c.A*x*x + c.B*x + c.C
}

// FitCurve solves the ordinary linear least-squares problem in the basis
// {lux², lux, 1} over the given samples. The model is quadratic in lux but
// linear in its parameters, so a single QR solve suffices.
func FitCurve(samples []Sample) (Curve, error) {
	if len(samples) < minFitSamples {
		return Curve{}, ErrDegenerateFit
	}

	a := mat.NewDense(len(samples), 3, nil)
	b := mat.NewVecDense(len(samples), nil)
	for i, s := range samples {
		x := float64(s.Lux)
		a.Set(i, 0, x*x)
		a.Set(i, 1, x)
		a.Set(i, 2, 1)
		b.SetVec(i, float64(s.Brightness))
	}

	var qr mat.QR
	qr.Factorize(a)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, b); err != nil {
		return Curve{}, ErrDegenerateFit
	}

	curve := Curve{
		A: params.AtVec(0),
		B: params.AtVec(1),
		C: params.AtVec(2),
	}

	for _, v := range []float64{curve.A, curve.B, curve.C} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Curve{}, ErrDegenerateFit
		}
	}

	return curve, nil
}

// Model predicts a backlight level for an ambient light reading. It refits
// the curve from the current store contents on every call; with the store
// bounded at 100 samples the repeated fit is cheap and always fresh.
type Model struct {
	store         *SampleStore
	brightnessMin int
	brightnessMax int
	sensorMaxLux  int
}

// NewModel creates a model over the given store and output range
func NewModel(store *SampleStore, brightnessMin, brightnessMax, sensorMaxLux int) *Model {
	return &Model{
		store:         store,
		brightnessMin: brightnessMin,
		brightnessMax: brightnessMax,
		sensorMaxLux:  sensorMaxLux,
	}
}

// Predict maps a lux reading to a brightness level in
// [brightnessMin, brightnessMax]. With no learned samples, or when the fit
// is degenerate, it uses the default linear mapping.
func (m *Model) Predict(lux int) int {
	brightness, _ := m.PredictWithSource(lux)
	return brightness
}

// PredictWithSource also reports which mapping produced the value:
// "learned_fit" or "default_mapping".
func (m *Model) PredictWithSource(lux int) (int, string) {
	samples := m.store.Samples()
	if len(samples) == 0 {
		return m.defaultMapping(lux), SourceDefaultMapping
	}

	curve, err := FitCurve(samples)
	if err != nil {
		return m.defaultMapping(lux), SourceDefaultMapping
	}

	predicted := curve.Eval(lux)
	if math.IsNaN(predicted) || math.IsInf(predicted, 0) {
		return m.defaultMapping(lux), SourceDefaultMapping
	}

	clamped := math.Min(math.Max(predicted, float64(m.brightnessMin)), float64(m.brightnessMax))
	return int(math.Round(clamped)), SourceLearnedFit
}

// defaultMapping clamps lux to [0, sensorMaxLux] and linearly interpolates
// into the brightness range, truncating to an integer.
func (m *Model) defaultMapping(lux int) int {
	if lux < 0 {
		lux = 0
	}
	if lux > m.sensorMaxLux {
		lux = m.sensorMaxLux
	}
	span := float64(m.brightnessMax - m.brightnessMin)
	return m.brightnessMin + int(float64(lux)/float64(m.sensorMaxLux)*span)
}
