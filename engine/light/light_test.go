package light

import "testing"

// TestNewLightDefaults verifies the default state of a freshly built light.
func TestNewLightDefaults(t *testing.T) {
	l := NewLight()

	if l.Position() != [3]float32{0, 0, 0} {
		t.Errorf("Position = %v, want origin", l.Position())
	}
	if l.Color() != [3]float32{1, 1, 1} {
		t.Errorf("Color = %v, want white", l.Color())
	}
	if l.Intensity() != 1.0 {
		t.Errorf("Intensity = %v, want 1.0", l.Intensity())
	}
	if l.Radius() != MaxShadowRadius {
		t.Errorf("Radius = %v, want %v", l.Radius(), MaxShadowRadius)
	}
	if !l.Enabled() {
		t.Error("Enabled = false, want true")
	}
	if l.Ephemeral() {
		t.Error("Ephemeral = true, want false")
	}
	if l.CastsShadows() {
		t.Error("CastsShadows = true, want false")
	}
}

// TestNewLightOptions verifies the builder options apply in order.
func TestNewLightOptions(t *testing.T) {
	l := NewLight(
		WithPosition(1, 2, 3),
		WithColor(0.5, 0.25, 0.125),
		WithIntensity(4),
		WithRadius(75),
		WithEnabled(false),
		WithEphemeral(true),
		WithCastsShadows(true),
	)

	if l.Position() != [3]float32{1, 2, 3} {
		t.Errorf("Position = %v, want [1 2 3]", l.Position())
	}
	if l.Color() != [3]float32{0.5, 0.25, 0.125} {
		t.Errorf("Color = %v, want [0.5 0.25 0.125]", l.Color())
	}
	if l.Intensity() != 4 {
		t.Errorf("Intensity = %v, want 4", l.Intensity())
	}
	if l.Radius() != 75 {
		t.Errorf("Radius = %v, want 75", l.Radius())
	}
	if l.Enabled() {
		t.Error("Enabled = true, want false")
	}
	if !l.Ephemeral() {
		t.Error("Ephemeral = false, want true")
	}
	if !l.CastsShadows() {
		t.Error("CastsShadows = false, want true")
	}
}

// TestRadiusClamp verifies that zero and negative radii are clamped to a small
// positive minimum so distance normalization never divides by zero.
func TestRadiusClamp(t *testing.T) {
	tests := []struct {
		name   string
		radius float32
	}{
		{"zero", 0},
		{"negative", -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLight(WithRadius(tt.radius))
			if l.Radius() <= 0 {
				t.Errorf("builder: Radius = %v, want > 0", l.Radius())
			}

			l2 := NewLight()
			l2.SetRadius(tt.radius)
			if l2.Radius() <= 0 {
				t.Errorf("setter: Radius = %v, want > 0", l2.Radius())
			}
		})
	}
}

// TestLightSetters verifies the mutator round trip.
func TestLightSetters(t *testing.T) {
	l := NewLight()

	l.SetID(9)
	l.SetPosition(7, 8, 9)
	l.SetColor(0.2, 0.4, 0.6)
	l.SetIntensity(3)
	l.SetRadius(60)
	l.SetEnabled(false)
	l.SetEphemeral(true)
	l.SetCastsShadows(true)

	if l.ID() != 9 {
		t.Errorf("ID = %d, want 9", l.ID())
	}
	if l.Position() != [3]float32{7, 8, 9} {
		t.Errorf("Position = %v, want [7 8 9]", l.Position())
	}
	if l.Color() != [3]float32{0.2, 0.4, 0.6} {
		t.Errorf("Color = %v, want [0.2 0.4 0.6]", l.Color())
	}
	if l.Intensity() != 3 {
		t.Errorf("Intensity = %v, want 3", l.Intensity())
	}
	if l.Radius() != 60 {
		t.Errorf("Radius = %v, want 60", l.Radius())
	}
	if l.Enabled() {
		t.Error("Enabled = true, want false")
	}
	if !l.Ephemeral() {
		t.Error("Ephemeral = false, want true")
	}
	if !l.CastsShadows() {
		t.Error("CastsShadows = false, want true")
	}
}
