package game_object

import (
	"testing"

	"github.com/CygnusX-26/mood/engine/light"
	"github.com/CygnusX-26/mood/engine/renderer/instancer"
)

func TestNewGameObjectDefaults(t *testing.T) {
	obj := NewGameObject()
	if obj.ID() != 0 {
		t.Errorf("expected default ID 0, got %d", obj.ID())
	}
	if obj.Enabled() {
		t.Error("expected object to be disabled by default")
	}
	if obj.Ephemeral() {
		t.Error("expected object to be non-ephemeral by default")
	}
	sx, sy, sz := obj.Scale()
	if sx != 1 || sy != 1 || sz != 1 {
		t.Errorf("expected default scale (1,1,1), got (%f,%f,%f)", sx, sy, sz)
	}
	if obj.Instancer() != nil {
		t.Error("expected nil instancer by default")
	}
	if obj.Light() != nil {
		t.Error("expected nil light by default")
	}
}

func TestBuilderOptions(t *testing.T) {
	l := light.NewLight(light.WithColor(1, 0, 0))
	obj := NewGameObject(
		WithID(42),
		WithEnabled(true),
		WithEphemeral(true),
		WithPosition(1, 2, 3),
		WithScale(4, 5, 6),
		WithRotation(0.1, 0.2, 0.3),
		WithRotationSpeed(0.4, 0.5, 0.6),
		WithLight(l),
	)
	if obj.ID() != 42 {
		t.Errorf("expected ID 42, got %d", obj.ID())
	}
	if !obj.Enabled() {
		t.Error("expected object to be enabled")
	}
	if !obj.Ephemeral() {
		t.Error("expected object to be ephemeral")
	}
	x, y, z := obj.Position()
	if x != 1 || y != 2 || z != 3 {
		t.Errorf("expected position (1,2,3), got (%f,%f,%f)", x, y, z)
	}
	sx, sy, sz := obj.Scale()
	if sx != 4 || sy != 5 || sz != 6 {
		t.Errorf("expected scale (4,5,6), got (%f,%f,%f)", sx, sy, sz)
	}
	rx, ry, rz := obj.Rotation()
	if rx != 0.1 || ry != 0.2 || rz != 0.3 {
		t.Errorf("expected rotation (0.1,0.2,0.3), got (%f,%f,%f)", rx, ry, rz)
	}
	vx, vy, vz := obj.RotationSpeed()
	if vx != 0.4 || vy != 0.5 || vz != 0.6 {
		t.Errorf("expected rotation speed (0.4,0.5,0.6), got (%f,%f,%f)", vx, vy, vz)
	}
	if obj.Light() != l {
		t.Error("expected attached light to match")
	}
}

func TestSettersWithoutInstancer(t *testing.T) {
	obj := NewGameObject()
	obj.SetPosition(7, 8, 9)
	obj.SetScale(2, 2, 2)
	obj.SetRotation(1, 0, 0)
	obj.SetRotationSpeed(0, 1, 0)

	pos, scale, rot, rotSpeed := obj.TransformData()
	if pos != [3]float32{7, 8, 9} {
		t.Errorf("expected position {7,8,9}, got %v", pos)
	}
	if scale != [3]float32{2, 2, 2} {
		t.Errorf("expected scale {2,2,2}, got %v", scale)
	}
	if rot != [3]float32{1, 0, 0} {
		t.Errorf("expected rotation {1,0,0}, got %v", rot)
	}
	if rotSpeed != [3]float32{0, 1, 0} {
		t.Errorf("expected rotation speed {0,1,0}, got %v", rotSpeed)
	}
}

func TestSettersDelegateToInstancer(t *testing.T) {
	inst := instancer.NewInstancer()
	idx, err := inst.AddInstance()
	if err != nil {
		t.Fatalf("unexpected error adding instance: %v", err)
	}

	obj := NewGameObject()
	obj.SetInstancer(inst)
	obj.SetInstanceID(int(idx))

	obj.SetPosition(10, 20, 30)
	pos, scale := inst.InstanceTransform(idx)
	if pos != [3]float32{10, 20, 30} {
		t.Errorf("expected instancer position {10,20,30}, got %v", pos)
	}
	if scale != [3]float32{1, 1, 1} {
		t.Errorf("expected scale preserved as {1,1,1}, got %v", scale)
	}

	obj.SetScale(3, 3, 3)
	pos, scale = inst.InstanceTransform(idx)
	if pos != [3]float32{10, 20, 30} {
		t.Errorf("expected position preserved as {10,20,30}, got %v", pos)
	}
	if scale != [3]float32{3, 3, 3} {
		t.Errorf("expected instancer scale {3,3,3}, got %v", scale)
	}

	obj.SetRotation(0.5, 0.6, 0.7)
	rotSpeed, rot := inst.InstanceRotation(idx)
	if rot != [3]float32{0.5, 0.6, 0.7} {
		t.Errorf("expected instancer rotation {0.5,0.6,0.7}, got %v", rot)
	}
	if rotSpeed != [3]float32{0, 0, 0} {
		t.Errorf("expected rotation speed preserved as zero, got %v", rotSpeed)
	}

	obj.SetRotationSpeed(1, 2, 3)
	rotSpeed, rot = inst.InstanceRotation(idx)
	if rotSpeed != [3]float32{1, 2, 3} {
		t.Errorf("expected instancer rotation speed {1,2,3}, got %v", rotSpeed)
	}
	if rot != [3]float32{0.5, 0.6, 0.7} {
		t.Errorf("expected rotation preserved as {0.5,0.6,0.7}, got %v", rot)
	}
}

func TestGettersReadThroughInstancer(t *testing.T) {
	inst := instancer.NewInstancer()
	idx, err := inst.AddInstance()
	if err != nil {
		t.Fatalf("unexpected error adding instance: %v", err)
	}
	inst.SetInstanceData(idx, [3]float32{1, 2, 3}, [3]float32{4, 5, 6}, [3]float32{7, 8, 9}, [3]float32{10, 11, 12})

	// Initial transform options are ignored once an instancer is attached.
	obj := NewGameObject(WithPosition(99, 99, 99))
	obj.SetInstancer(inst)
	obj.SetInstanceID(int(idx))

	x, y, z := obj.Position()
	if x != 1 || y != 2 || z != 3 {
		t.Errorf("expected position (1,2,3), got (%f,%f,%f)", x, y, z)
	}
	sx, sy, sz := obj.Scale()
	if sx != 4 || sy != 5 || sz != 6 {
		t.Errorf("expected scale (4,5,6), got (%f,%f,%f)", sx, sy, sz)
	}
	vx, vy, vz := obj.RotationSpeed()
	if vx != 7 || vy != 8 || vz != 9 {
		t.Errorf("expected rotation speed (7,8,9), got (%f,%f,%f)", vx, vy, vz)
	}
	rx, ry, rz := obj.Rotation()
	if rx != 10 || ry != 11 || rz != 12 {
		t.Errorf("expected rotation (10,11,12), got (%f,%f,%f)", rx, ry, rz)
	}

	pos, scale, rot, rotSpeed := obj.TransformData()
	if pos != [3]float32{1, 2, 3} || scale != [3]float32{4, 5, 6} ||
		rot != [3]float32{10, 11, 12} || rotSpeed != [3]float32{7, 8, 9} {
		t.Errorf("unexpected transform data: pos=%v scale=%v rot=%v rotSpeed=%v", pos, scale, rot, rotSpeed)
	}
}

func TestSetLightDetach(t *testing.T) {
	l := light.NewLight()
	obj := NewGameObject(WithLight(l))
	if obj.Light() != l {
		t.Error("expected attached light to match")
	}
	obj.SetLight(nil)
	if obj.Light() != nil {
		t.Error("expected light to be detached")
	}
}
