package geometry

import "math"

// BinPhi maps a transverse position to an azimuthal slice.
//
// The angle in [0, 2π) is scaled onto nbins-1 slices, so slices
// [0, nbins-2] are populated and slice nbins-1 is only reached for an angle of
// exactly 2π. The pipeline treats that overflow slice as slice 0.
func BinPhi(x, y float64, nbins int) int {
	phi := math.Atan2(y, x)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return int(phi * float64(nbins-1) / (2 * math.Pi))
}
