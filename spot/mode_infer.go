package spot

import "math"

// Digital-mode dial frequencies in kHz. A spot whose frequency lands within
// dialToleranceKHz of a dial is assumed to use that mode when the source
// supplied none. Entries follow the conventional band-plan dial spots.
var ft8Dials = []float64{
	1840, 3573, 7074, 10136, 14074, 18100, 21074, 24915, 28074, 50313, 144174,
}

var ft4Dials = []float64{
	3575, 7047.5, 10140, 14080, 18104, 21140, 24919, 28180, 50318, 144170,
}

const dialToleranceKHz = 3.0

// InferMode guesses a digital mode from frequency proximity to known dial
// frequencies. The nearest dial within tolerance wins; the 80m FT8 and FT4
// dials sit only 2 kHz apart, so a plain table scan would misattribute
// frequencies between them. Ties go to FT8. Returns BandUnknown when no dial
// is within tolerance.
func InferMode(freqKHz float64) string {
	ft8Dist := nearestDial(freqKHz, ft8Dials)
	ft4Dist := nearestDial(freqKHz, ft4Dials)
	if ft8Dist > dialToleranceKHz && ft4Dist > dialToleranceKHz {
		return BandUnknown
	}
	if ft4Dist < ft8Dist {
		return "FT4"
	}
	return "FT8"
}

func nearestDial(freqKHz float64, dials []float64) float64 {
	best := math.MaxFloat64
	for _, dial := range dials {
		if d := math.Abs(freqKHz - dial); d < best {
			best = d
		}
	}
	return best
}
