package doublet

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Polynomial is a cubic model of doublet yield as a function of hit count.
type Polynomial struct {
	A0, A1, A2, A3 float64
}

// DefaultYieldModel is the offline fit used when no refit is configured.
var DefaultYieldModel = Polynomial{
	A3: -1.073e-9,
	A2: 1.616e-3,
	A1: -8.490e-2,
	A0: 9000,
}

// Estimate returns the predicted doublet count for nHits hits, truncated
// toward zero. The result is a hint and may be negative for large inputs.
func (p Polynomial) Estimate(nHits int) int {
	n := float64(nHits)
	return int(p.A3*n*n*n + p.A2*n*n + p.A1*n + p.A0)
}

// EstimateDoublets predicts the doublet count for nHits with DefaultYieldModel.
func EstimateDoublets(nHits int) int {
	return DefaultYieldModel.Estimate(nHits)
}

// maxCapacityHint bounds pre-allocation driven by the yield model.
const maxCapacityHint = 1 << 20

// capacityHint turns a yield estimate into a safe slice capacity.
func capacityHint(nHits int) int {
	return min(max(EstimateDoublets(nHits), 0), maxCapacityHint)
}

// YieldSample is one observed (hit count, doublet count) pair.
type YieldSample struct {
	Hits     int
	Doublets int
}

// FitPolynomial fits a cubic yield model to samples by least squares.
// Hit counts are scaled to [0, 1] before factorisation to keep the
// Vandermonde matrix well conditioned.
func FitPolynomial(samples []YieldSample) (Polynomial, error) {
	n := len(samples)
	if n < 4 {
		return Polynomial{}, fmt.Errorf("need at least 4 samples, got %d", n)
	}

	scale := 0.0
	for _, s := range samples {
		scale = max(scale, float64(s.Hits))
	}
	if scale == 0 {
		return Polynomial{}, fmt.Errorf("all samples have zero hits")
	}

	A := mat.NewDense(n, 4, nil)
	B := mat.NewVecDense(n, nil)
	for i, s := range samples {
		x := float64(s.Hits) / scale
		A.Set(i, 0, 1)
		A.Set(i, 1, x)
		A.Set(i, 2, x*x)
		A.Set(i, 3, x*x*x)
		B.SetVec(i, float64(s.Doublets))
	}

	var qr mat.QR
	qr.Factorize(A)

	var coef mat.VecDense
	if err := qr.SolveVecTo(&coef, false, B); err != nil {
		return Polynomial{}, fmt.Errorf("least squares solve: %w", err)
	}

	return Polynomial{
		A0: coef.AtVec(0),
		A1: coef.AtVec(1) / scale,
		A2: coef.AtVec(2) / (scale * scale),
		A3: coef.AtVec(3) / (scale * scale * scale),
	}, nil
}
