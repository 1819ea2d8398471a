package light

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithPosition is an option builder that sets the world-space position of the light.
//
// Parameters:
//   - x: the x position component
//   - y: the y position component
//   - z: the z position component
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a lightImpl
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = [3]float32{x, y, z}
	}
}

// WithColor is an option builder that sets the RGB color of the light.
//
// Parameters:
//   - r: the red color component
//   - g: the green color component
//   - b: the blue color component
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = [3]float32{r, g, b}
	}
}

// WithIntensity is an option builder that sets the scalar intensity multiplier.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity option to a lightImpl
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = intensity
	}
}

// WithRadius is an option builder that sets the light's influence radius. The
// radius bounds both attenuation and the shadow distance normalization, and is
// clamped to a small positive minimum so the normalization never divides by zero.
//
// Parameters:
//   - radius: the radius value
//
// Returns:
//   - LightBuilderOption: a function that applies the radius option to a lightImpl
func WithRadius(radius float32) LightBuilderOption {
	return func(l *lightImpl) {
		if radius < minRadius {
			radius = minRadius
		}
		l.radius = radius
	}
}

// WithEnabled is an option builder that sets whether the light is active for rendering.
//
// Parameters:
//   - enabled: true to enable the light
//
// Returns:
//   - LightBuilderOption: a function that applies the enabled option to a lightImpl
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.enabled = enabled
	}
}

// WithEphemeral is an option builder that marks the light as ephemeral, meaning it
// is a short-lived particle-emitted light that is not persisted in the scene registry.
//
// Parameters:
//   - ephemeral: true if the light is ephemeral
//
// Returns:
//   - LightBuilderOption: a function that applies the ephemeral option to a lightImpl
func WithEphemeral(ephemeral bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.ephemeral = ephemeral
	}
}

// WithCastsShadows is an option builder that sets whether the light is eligible for
// a shadow cube slot.
//
// Parameters:
//   - castsShadows: true to enable shadow casting
//
// Returns:
//   - LightBuilderOption: a function that applies the shadow casting option to a lightImpl
func WithCastsShadows(castsShadows bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.castsShadows = castsShadows
	}
}
