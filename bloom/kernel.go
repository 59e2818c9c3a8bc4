package bloom

// SamplePoint is one tap of a filter kernel. The offset is in source texel
// units relative to the destination texel's position in source space. Taps
// are fetched with bilinear filtering, so offsets that land between texel
// centers average a 2x2 neighborhood for free.
type SamplePoint struct {
	Offset [2]int32
	Weight float32
}

// Downsample13 is the 13 tap kernel used for every halving step. It covers
// five overlapping 2x2 groups: the inner group at half weight and four outer
// groups at an eighth each, which distributes onto the taps as 0.125 for the
// four inner and the center tap, 0.0625 for the edge taps and 0.03125 for
// the corner taps. The weights sum to 1.
var Downsample13 = [13]SamplePoint{
	{Offset: [2]int32{-2, -2}, Weight: 0.03125},
	{Offset: [2]int32{0, -2}, Weight: 0.0625},
	{Offset: [2]int32{2, -2}, Weight: 0.03125},
	{Offset: [2]int32{-1, -1}, Weight: 0.125},
	{Offset: [2]int32{1, -1}, Weight: 0.125},
	{Offset: [2]int32{-2, 0}, Weight: 0.0625},
	{Offset: [2]int32{0, 0}, Weight: 0.125},
	{Offset: [2]int32{2, 0}, Weight: 0.0625},
	{Offset: [2]int32{-1, 1}, Weight: 0.125},
	{Offset: [2]int32{1, 1}, Weight: 0.125},
	{Offset: [2]int32{-2, 2}, Weight: 0.03125},
	{Offset: [2]int32{0, 2}, Weight: 0.0625},
	{Offset: [2]int32{2, 2}, Weight: 0.03125},
}

// UpsampleTent9 is the 3x3 tent kernel used for every upsample step,
// weighted 1-2-1 / 2-4-2 / 1-2-1 over 16. The weights sum to 1.
var UpsampleTent9 = [9]SamplePoint{
	{Offset: [2]int32{-1, -1}, Weight: 1.0 / 16.0},
	{Offset: [2]int32{0, -1}, Weight: 2.0 / 16.0},
	{Offset: [2]int32{1, -1}, Weight: 1.0 / 16.0},
	{Offset: [2]int32{-1, 0}, Weight: 2.0 / 16.0},
	{Offset: [2]int32{0, 0}, Weight: 4.0 / 16.0},
	{Offset: [2]int32{1, 0}, Weight: 2.0 / 16.0},
	{Offset: [2]int32{-1, 1}, Weight: 1.0 / 16.0},
	{Offset: [2]int32{0, 1}, Weight: 2.0 / 16.0},
	{Offset: [2]int32{1, 1}, Weight: 1.0 / 16.0},
}
