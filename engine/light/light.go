package light

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	id           uint32
	position     [3]float32
	color        [3]float32
	intensity    float32
	radius       float32
	enabled      bool
	ephemeral    bool
	castsShadows bool
}

// Light defines the interface for a point light source in the scene.
//
// All Mood lights are omnidirectional point emitters: they radiate in every
// direction from a world-space position and attenuate out to a radius. The
// same radius bounds the light's shadow volume, so a shadow-casting light owns
// one cube of depth maps covering the sphere of that radius.
//
// Lights are managed by the scene and marshaled into a GPU storage buffer
// each frame via the gpu_types helpers.
type Light interface {
	// ID returns the scene-assigned identifier for this light.
	// IDs are stable for the lifetime of the light within a scene and are
	// used to address per-light GPU resources such as shadow cube layers.
	//
	// Returns:
	//   - uint32: the light ID
	ID() uint32

	// Position returns the world-space position of the light.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Radius returns the maximum attenuation distance for the light. Beyond
	// this distance the light contributes zero energy, and fragments beyond it
	// are outside the light's shadow volume.
	//
	// Returns:
	//   - float32: the radius value
	Radius() float32

	// Enabled returns whether this light is active for rendering.
	// Disabled lights are skipped during GPU buffer marshaling.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// Ephemeral returns whether this light is a short-lived particle-emitted light.
	// Ephemeral lights are not persisted in the scene's light registry and are
	// managed by their owning particle system.
	//
	// Returns:
	//   - bool: true if ephemeral
	Ephemeral() bool

	// CastsShadows returns whether this light is eligible for shadow map generation.
	// A shadow-casting light renders six depth passes per frame (one per cube
	// face), which is expensive. Most ephemeral and distant lights should have
	// this disabled.
	//
	// Returns:
	//   - bool: true if the light casts shadows
	CastsShadows() bool

	// SetID sets the scene-assigned identifier. Called by the scene when the
	// light is registered.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint32)

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - r, g, b: color components
	SetColor(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// SetRadius sets the maximum attenuation distance. Values <= 0 are clamped
	// to a small positive epsilon so distance normalization stays well-defined.
	//
	// Parameters:
	//   - radius: the radius value
	SetRadius(radius float32)

	// SetEnabled enables or disables the light for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetEphemeral marks the light as ephemeral (particle-emitted).
	//
	// Parameters:
	//   - ephemeral: true if ephemeral
	SetEphemeral(ephemeral bool)

	// SetCastsShadows sets whether the light is eligible for shadow mapping.
	//
	// Parameters:
	//   - castsShadows: true to enable shadow casting
	SetCastsShadows(castsShadows bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new point Light with sensible defaults and any provided
// options applied.
//
// Parameters:
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(opts ...LightBuilderOption) Light {
	l := &lightImpl{
		position:     [3]float32{0, 0, 0},
		color:        [3]float32{1, 1, 1},
		intensity:    1.0,
		radius:       MaxShadowRadius,
		enabled:      true,
		ephemeral:    false,
		castsShadows: false,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) ID() uint32 {
	return l.id
}

func (l *lightImpl) Position() [3]float32 {
	return l.position
}

func (l *lightImpl) Color() [3]float32 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Radius() float32 {
	return l.radius
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) Ephemeral() bool {
	return l.ephemeral
}

func (l *lightImpl) CastsShadows() bool {
	return l.castsShadows
}

func (l *lightImpl) SetID(id uint32) {
	l.id = id
}

func (l *lightImpl) SetPosition(x, y, z float32) {
	l.position = [3]float32{x, y, z}
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.color = [3]float32{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) SetRadius(radius float32) {
	if radius <= 0 {
		radius = minRadius
	}
	l.radius = radius
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}

func (l *lightImpl) SetEphemeral(ephemeral bool) {
	l.ephemeral = ephemeral
}

func (l *lightImpl) SetCastsShadows(castsShadows bool) {
	l.castsShadows = castsShadows
}
