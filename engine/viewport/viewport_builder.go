package viewport

type BuilderOption func(*builderImpl)

// WithUprightCalibration appends a fixed 180° rotation about Z to the primary view,
// for assets authored upside down relative to the tracking space.
//
// Parameters:
//   - enabled: whether to apply the calibration
//
// Returns:
//   - BuilderOption: a function that toggles the calibration
func WithUprightCalibration(enabled bool) BuilderOption {
	return func(b *builderImpl) {
		b.upright = enabled
	}
}
