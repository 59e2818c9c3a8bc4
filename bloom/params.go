package bloom

// Params configure one bloom pass. They are immutable per frame; changing
// Levels forces a chain rebuild on the next application.
type Params struct {
	// Threshold is the lower edge of the smoothstep brightness gate applied
	// per channel during the prefilter stage.
	Threshold float32
	// Knee is the width of the gate; the upper edge is Threshold+Knee.
	// Threshold 0 with Knee 1 gates with smoothstep(0, 1, c).
	Knee float32
	// Intensity scales the blurred result before it is added onto the scene.
	Intensity float32
	// Boost raises colors that point towards white during the upsample walk,
	// pushing near-white highlights further towards pure white. 0 disables
	// the boost entirely.
	Boost float32
	// Levels caps the mip chain length. The chain is shorter when a level
	// would fall below one pixel in either dimension.
	Levels int
}

func DefaultParams() Params {
	return Params{
		Threshold: 0,
		Knee:      1,
		Intensity: 1,
		Boost:     0,
		Levels:    8,
	}
}

func (p Params) validate(width, height int) error {
	if p.Levels < 1 {
		return &ConfigurationError{Field: "Levels", Reason: "must be at least 1"}
	}
	if p.Knee <= 0 {
		return &ConfigurationError{Field: "Knee", Reason: "must be positive"}
	}
	if width < 1 || height < 1 {
		return &ConfigurationError{Field: "source", Reason: "resolution must be at least 1x1"}
	}
	return nil
}
