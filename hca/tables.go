package hca

import "math"

// Quantized-spectrum codebooks. Resolutions 0-7 use prefix codes looked up
// in the read tables below; 8-15 are plain sign-magnitude fields.
var maxBitTable = [16]byte{0, 2, 3, 3, 4, 4, 4, 4, 5, 6, 7, 8, 9, 10, 11, 12}

var readBitTable = [128]byte{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 2, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	2, 2, 2, 2, 2, 2, 3, 3, 0, 0, 0, 0, 0, 0, 0, 0,
	2, 2, 3, 3, 3, 3, 3, 3, 0, 0, 0, 0, 0, 0, 0, 0,
	3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 4, 4,
	3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 4, 4, 4, 4, 4, 4,
	3, 3, 3, 3, 3, 3, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	3, 3, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
}

var readValTable = [128]float32{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 1, -1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 1, 1, -1, -1, 2, -2, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 1, -1, 2, -2, 3, -3, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 1, 1, -1, -1, 2, 2, -2, -2, 3, 3, -3, -3, 4, -4,
	0, 0, 1, 1, -1, -1, 2, 2, -2, -2, 3, -3, 4, -4, 5, -5,
	0, 0, 1, 1, -1, -1, 2, -2, 3, -3, 4, -4, 5, -5, 6, -6,
	0, 0, 1, -1, 2, -2, 3, -3, 4, -4, 5, -5, 6, -6, 7, -7,
}

// invertTable maps the ATH-adjusted curve position to a resolution.
var invertTable = [66]byte{
	14, 14, 14, 14, 14, 14, 13, 13, 13, 13, 13, 13, 12, 12, 12, 12,
	12, 12, 11, 11, 11, 11, 11, 11, 10, 10, 10, 10, 10, 10, 10, 9,
	9, 9, 9, 9, 9, 8, 8, 8, 8, 8, 8, 7, 6, 6, 5, 4,
	4, 4, 3, 3, 3, 2, 2, 2, 2, 1, 1, 1, 1, 1, 1, 1,
	1, 1,
}

// Derived float tables. The closed forms below reproduce the codec's
// fixed tables: scalefactor scaling is sqrt(128) * 2^((i-63) * 53/128), the range
// table is 2/(2r+1) for the linear resolutions and 2/(2^(r-3)-1) for the
// sign-magnitude ones, and scale conversion is 2^((i-64) * 53/128) with
// silenced endpoints.
var (
	scalingTable         [64]float32
	rangeTable           [16]float32
	scaleConversionTable [128]float32
	intensityRatioTable  [16]float32
)

func init() {
	const step = 53.0 / 128.0

	for i := range scalingTable {
		scalingTable[i] = float32(math.Sqrt(128) * math.Pow(2, float64(i-63)*step))
	}

	for r := 1; r <= 7; r++ {
		rangeTable[r] = 2.0 / float32(2*r+1)
	}
	for r := 8; r <= 15; r++ {
		rangeTable[r] = 2.0 / float32((int32(1)<<(r-3))-1)
	}

	for i := 1; i < 127; i++ {
		scaleConversionTable[i] = float32(math.Pow(2, float64(i-64)*step))
	}

	for i := 0; i <= 14; i++ {
		intensityRatioTable[i] = float32(14-i) / 7.0
	}
}
