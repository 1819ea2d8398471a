package instancer

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/CygnusX-26/mood/common"
)

// identityFrustum returns the frustum of the identity view-projection: the
// NDC cube spanning [-1,1] on every axis.
func identityFrustum() common.Frustum {
	identity := make([]float32, 16)
	identity[0], identity[5], identity[10], identity[15] = 1, 1, 1, 1
	return common.ExtractFrustumFromMatrix(identity)
}

// TestAddInstanceDefaults verifies new instances start with identity transform.
func TestAddInstanceDefaults(t *testing.T) {
	inst := NewInstancer()

	idx, err := inst.AddInstance()
	if err != nil {
		t.Fatalf("AddInstance failed: %v", err)
	}
	if idx != 0 {
		t.Errorf("first instance index = %d, want 0", idx)
	}
	if inst.InstanceCount() != 1 {
		t.Errorf("InstanceCount = %d, want 1", inst.InstanceCount())
	}

	pos, scale := inst.InstanceTransform(idx)
	if pos != [3]float32{0, 0, 0} {
		t.Errorf("pos = %v, want origin", pos)
	}
	if scale != [3]float32{1, 1, 1} {
		t.Errorf("scale = %v, want unit", scale)
	}
}

// TestAutoGrow verifies AddInstance grows past the configured capacity without
// losing existing transforms.
func TestAutoGrow(t *testing.T) {
	inst := NewInstancer(WithMaxInstances(2))

	for i := 0; i < 5; i++ {
		idx, err := inst.AddInstance()
		if err != nil {
			t.Fatalf("AddInstance %d failed: %v", i, err)
		}
		inst.SetInstanceTransform(idx, [3]float32{float32(i), 0, 0}, [3]float32{1, 1, 1})
	}

	if inst.InstanceCount() != 5 {
		t.Fatalf("InstanceCount = %d, want 5", inst.InstanceCount())
	}
	if inst.MaxInstances() < 5 {
		t.Errorf("MaxInstances = %d, want >= 5", inst.MaxInstances())
	}
	for i := uint32(0); i < 5; i++ {
		pos, _ := inst.InstanceTransform(i)
		if pos[0] != float32(i) {
			t.Errorf("instance %d pos.x = %v, want %d", i, pos[0], i)
		}
	}
}

// TestRemoveInstanceSwap verifies swap-remove semantics: the last instance's
// data moves into the removed slot and the old last index is reported.
func TestRemoveInstanceSwap(t *testing.T) {
	inst := NewInstancer()
	for i := 0; i < 3; i++ {
		idx, _ := inst.AddInstance()
		inst.SetInstanceTransform(idx, [3]float32{float32(10 * (i + 1)), 0, 0}, [3]float32{1, 1, 1})
	}

	swappedFrom, swapped := inst.RemoveInstance(0)
	if !swapped {
		t.Fatal("RemoveInstance(0) swapped = false, want true")
	}
	if swappedFrom != 2 {
		t.Errorf("swappedFrom = %d, want 2", swappedFrom)
	}
	if inst.InstanceCount() != 2 {
		t.Errorf("InstanceCount = %d, want 2", inst.InstanceCount())
	}

	// The old last instance (pos.x = 30) must now live at index 0.
	pos, _ := inst.InstanceTransform(0)
	if pos[0] != 30 {
		t.Errorf("slot 0 pos.x = %v, want 30", pos[0])
	}
}

// TestRemoveInstanceLast verifies removing the final slot needs no swap.
func TestRemoveInstanceLast(t *testing.T) {
	inst := NewInstancer()
	inst.AddInstance()
	inst.AddInstance()

	_, swapped := inst.RemoveInstance(1)
	if swapped {
		t.Error("removing the last slot reported a swap")
	}
	if inst.InstanceCount() != 1 {
		t.Errorf("InstanceCount = %d, want 1", inst.InstanceCount())
	}
}

// TestRemoveInstanceOutOfRange verifies invalid indices are rejected.
func TestRemoveInstanceOutOfRange(t *testing.T) {
	inst := NewInstancer()
	inst.AddInstance()

	if _, swapped := inst.RemoveInstance(5); swapped {
		t.Error("RemoveInstance(5) on single-instance set reported a swap")
	}
	if inst.InstanceCount() != 1 {
		t.Errorf("InstanceCount = %d, want 1", inst.InstanceCount())
	}
}

// TestPackVisibleNilFrustum verifies a nil frustum packs every instance.
func TestPackVisibleNilFrustum(t *testing.T) {
	inst := NewInstancer()
	for i := 0; i < 4; i++ {
		inst.AddInstance()
	}

	data, count := inst.PackVisible(nil, 1)
	if count != 4 {
		t.Errorf("packed count = %d, want 4", count)
	}
	if len(data) != 4*InstanceStride {
		t.Errorf("packed bytes = %d, want %d", len(data), 4*InstanceStride)
	}
}

// TestPackVisibleCulls verifies instances outside the frustum are dropped and
// the packed stream stays contiguous.
func TestPackVisibleCulls(t *testing.T) {
	inst := NewInstancer()

	inside, _ := inst.AddInstance()
	inst.SetInstanceTransform(inside, [3]float32{0, 0, 0}, [3]float32{1, 1, 1})

	outside, _ := inst.AddInstance()
	inst.SetInstanceTransform(outside, [3]float32{50, 0, 0}, [3]float32{1, 1, 1})

	frustum := identityFrustum()
	data, count := inst.PackVisible(&frustum, 0.5)
	if count != 1 {
		t.Fatalf("packed count = %d, want 1", count)
	}
	if len(data) != InstanceStride {
		t.Errorf("packed bytes = %d, want %d", len(data), InstanceStride)
	}
}

// TestPackVisibleScaledRadius verifies the cull sphere grows with the largest
// instance scale axis, so a big instance just outside the frustum still packs.
func TestPackVisibleScaledRadius(t *testing.T) {
	inst := NewInstancer()
	idx, _ := inst.AddInstance()
	// Centered outside the NDC cube, but scaled so the sphere reaches back in.
	inst.SetInstanceData(idx, [3]float32{3, 0, 0}, [3]float32{1, 5, 1}, [3]float32{}, [3]float32{})

	frustum := identityFrustum()
	_, count := inst.PackVisible(&frustum, 0.5)
	if count != 1 {
		t.Errorf("packed count = %d, want 1 (scaled radius should intersect)", count)
	}

	// Same center with unit scale is out of reach.
	inst.SetInstanceData(idx, [3]float32{3, 0, 0}, [3]float32{1, 1, 1}, [3]float32{}, [3]float32{})
	_, count = inst.PackVisible(&frustum, 0.5)
	if count != 0 {
		t.Errorf("packed count = %d, want 0", count)
	}
}

// TestPackShadowCasters verifies only instances within the light's reach pack.
func TestPackShadowCasters(t *testing.T) {
	inst := NewInstancer()

	near, _ := inst.AddInstance()
	inst.SetInstanceTransform(near, [3]float32{5, 0, 0}, [3]float32{1, 1, 1})

	far, _ := inst.AddInstance()
	inst.SetInstanceTransform(far, [3]float32{100, 0, 0}, [3]float32{1, 1, 1})

	lightPos := [3]float32{0, 0, 0}
	data, count := inst.PackShadowCasters(lightPos, 10, 1)
	if count != 1 {
		t.Fatalf("packed count = %d, want 1", count)
	}
	if len(data) != InstanceStride {
		t.Errorf("packed bytes = %d, want %d", len(data), InstanceStride)
	}

	// An instance exactly on the radius boundary plus bounding sphere packs too.
	boundary, _ := inst.AddInstance()
	inst.SetInstanceTransform(boundary, [3]float32{10.5, 0, 0}, [3]float32{1, 1, 1})
	_, count = inst.PackShadowCasters(lightPos, 10, 1)
	if count != 2 {
		t.Errorf("packed count = %d, want 2 (boundary instance within reach)", count)
	}
}

// TestPackShadowCastersMirroredScale verifies the cull sphere is bounded by
// the scale magnitude, so a mirrored (negative-scale) instance is not dropped.
func TestPackShadowCastersMirroredScale(t *testing.T) {
	inst := NewInstancer()
	idx, _ := inst.AddInstance()
	// Reach is 5*1 = 5 around x=12: inside a radius-10 light only if the
	// negative axis scale counts at full magnitude.
	inst.SetInstanceData(idx, [3]float32{12, 0, 0}, [3]float32{-5, 1, 1}, [3]float32{}, [3]float32{})

	lightPos := [3]float32{0, 0, 0}
	_, count := inst.PackShadowCasters(lightPos, 10, 1)
	if count != 1 {
		t.Errorf("packed count = %d, want 1 (mirrored instance within reach)", count)
	}

	// Positive-scale control at the same transform packs identically.
	inst.SetInstanceData(idx, [3]float32{12, 0, 0}, [3]float32{5, 1, 1}, [3]float32{}, [3]float32{})
	_, count = inst.PackShadowCasters(lightPos, 10, 1)
	if count != 1 {
		t.Errorf("packed count = %d, want 1 for positive-scale control", count)
	}
}

// TestPackArenaReuse verifies successive packs reuse the same arena rather
// than allocating fresh streams.
func TestPackArenaReuse(t *testing.T) {
	inst := NewInstancer()
	inst.AddInstance()

	first, count := inst.PackVisible(nil, 1)
	if count != 1 {
		t.Fatalf("packed count = %d, want 1", count)
	}
	second, _ := inst.PackVisible(nil, 1)
	if &first[0] != &second[0] {
		t.Error("PackVisible allocated a new arena between calls")
	}
}

// TestAdvanceRotation verifies Advance integrates rotation speed into rotation
// and the packed matrix changes accordingly.
func TestAdvanceRotation(t *testing.T) {
	inst := NewInstancer()
	idx, _ := inst.AddInstance()
	inst.SetInstanceData(idx,
		[3]float32{0, 0, 0},
		[3]float32{1, 1, 1},
		[3]float32{0, 1.5, 0},
		[3]float32{0, 0, 0},
	)

	before, _ := inst.PackVisible(nil, 1)
	snapshot := make([]byte, len(before))
	copy(snapshot, before)

	inst.Advance(1.0)

	_, rot := inst.InstanceRotation(idx)
	if rot[1] != 1.5 {
		t.Errorf("rot.y after Advance(1) = %v, want 1.5", rot[1])
	}

	after, _ := inst.PackVisible(nil, 1)
	if bytes.Equal(snapshot, after) {
		t.Error("packed matrix unchanged after rotation advance")
	}
}

// TestAdvanceSkipsStatic verifies instances with zero rotation speed keep an
// identical packed matrix across frames.
func TestAdvanceSkipsStatic(t *testing.T) {
	inst := NewInstancer()
	idx, _ := inst.AddInstance()
	inst.SetInstanceTransform(idx, [3]float32{1, 2, 3}, [3]float32{2, 2, 2})

	before, _ := inst.PackVisible(nil, 1)
	snapshot := make([]byte, len(before))
	copy(snapshot, before)

	inst.Advance(0.5)

	after, _ := inst.PackVisible(nil, 1)
	if !bytes.Equal(snapshot, after) {
		t.Error("static instance matrix changed after Advance")
	}
}

// TestGrowPreservesData verifies explicit growth keeps transforms intact and
// never shrinks.
func TestGrowPreservesData(t *testing.T) {
	inst := NewInstancer(WithMaxInstances(4))
	idx, _ := inst.AddInstance()
	inst.SetInstanceTransform(idx, [3]float32{7, 8, 9}, [3]float32{1, 1, 1})

	inst.Grow(64)
	if inst.MaxInstances() != 64 {
		t.Errorf("MaxInstances after Grow = %d, want 64", inst.MaxInstances())
	}
	pos, _ := inst.InstanceTransform(idx)
	if pos != [3]float32{7, 8, 9} {
		t.Errorf("pos after Grow = %v, want [7 8 9]", pos)
	}

	inst.Grow(8)
	if inst.MaxInstances() != 64 {
		t.Errorf("Grow(8) shrank capacity to %d", inst.MaxInstances())
	}
}

// TestBuildInstanceIdentity verifies the composed matrix for an identity
// transform is the identity and serializes at the documented stride.
func TestBuildInstanceIdentity(t *testing.T) {
	g := BuildInstance([3]float32{0, 0, 0}, [3]float32{0, 0, 0}, [3]float32{1, 1, 1})

	wantModel := [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	if g.Model != wantModel {
		t.Errorf("identity model = %v", g.Model)
	}

	buf := g.Marshal()
	if len(buf) != InstanceStride {
		t.Errorf("marshaled size = %d, want %d", len(buf), InstanceStride)
	}
}

// TestMarshalIntoColumnLayout verifies the serialization boundary is lossless:
// the four model columns occupy bytes 0-63 and the three normal columns bytes
// 64-99, each element recoverable bit-exactly, so the shader's mat4x4
// reassembly from the column attributes reproduces the CPU matrix.
func TestMarshalIntoColumnLayout(t *testing.T) {
	var g GPUInstance
	for i := range g.Model {
		g.Model[i] = float32(i) + 0.5
	}
	for i := range g.Normal {
		g.Normal[i] = -float32(i) - 0.25
	}

	buf := make([]byte, InstanceStride)
	g.MarshalInto(buf)

	for i := range g.Model {
		bits := binary.LittleEndian.Uint32(buf[i*4 : (i+1)*4])
		if got := math.Float32frombits(bits); got != g.Model[i] {
			t.Errorf("model element %d at offset %d = %v, want %v", i, i*4, got, g.Model[i])
		}
	}
	for i := range g.Normal {
		off := 64 + i*4
		bits := binary.LittleEndian.Uint32(buf[off : off+4])
		if got := math.Float32frombits(bits); got != g.Normal[i] {
			t.Errorf("normal element %d at offset %d = %v, want %v", i, off, got, g.Normal[i])
		}
	}
}

// TestBuildInstanceTranslation verifies translation lands in the fourth
// column, matching the column-major attribute layout the shader consumes.
func TestBuildInstanceTranslation(t *testing.T) {
	g := BuildInstance([3]float32{4, 5, 6}, [3]float32{0, 0, 0}, [3]float32{1, 1, 1})

	if g.Model[12] != 4 || g.Model[13] != 5 || g.Model[14] != 6 {
		t.Errorf("translation column = [%v %v %v], want [4 5 6]", g.Model[12], g.Model[13], g.Model[14])
	}
}
