package instancer

import (
	"sync"

	"github.com/CygnusX-26/mood/common"
	"github.com/CygnusX-26/mood/engine/model"
)

// instancerImpl is the implementation of the Instancer interface.
type instancerImpl struct {
	mu *sync.Mutex

	// model is the mesh all instances of this instancer draw.
	model model.Model

	// maxInstances and instanceCount track the current capacity and number of active instances.
	maxInstances, instanceCount uint32

	// Decomposed per-instance transform state, structure-of-arrays so the
	// per-frame rotation advance touches only the fields it reads.
	pos      [][3]float32
	scale    [][3]float32
	rot      [][3]float32
	rotSpeed [][3]float32

	// instances caches the composed matrices for each live instance. Entries
	// are rebuilt lazily for dirty indices before each pack.
	instances []GPUInstance

	// Sparse dirty tracking: dirtyIndices holds instance indices mutated since
	// the last rebuild. dirtyBitset provides O(1) dedup so the same index isn't
	// enqueued twice.
	dirtyIndices []uint32
	dirtyBitset  []uint64 // 1 bit per instance index; word = index/64, bit = index%64

	// packBuf is the reusable serialization arena for Pack calls, sized to
	// maxInstances * InstanceStride.
	packBuf []byte
}

// Instancer manages the per-instance transforms for all drawn copies of one
// model. Transforms are mutated from game logic, advanced once per frame, and
// packed into instance-rate vertex buffer streams per render pass: the camera
// pass packs the set inside the view frustum, each shadow pass packs the set
// within its light's radius. The packed stream is the serialized column-vector
// form consumed by the vertex stage; all CPU-side math happens on whole
// matrices.
type Instancer interface {
	// MaxInstances returns the maximum number of instances this instancer can
	// currently hold without growing.
	//
	// Returns:
	//   - uint32: the current capacity
	MaxInstances() uint32

	// InstanceCount returns the current number of registered instances.
	//
	// Returns:
	//   - uint32: the number of active instances
	InstanceCount() uint32

	// AddInstance registers a new instance with identity transform.
	// If the current capacity is exceeded, the instancer grows automatically.
	//
	// Returns:
	//   - uint32: the index of the newly registered instance
	//   - error: an error if the instance could not be added
	AddInstance() (uint32, error)

	// RemoveInstance removes the instance at the given index using a
	// swap-remove strategy. Returns the old last index that was swapped and
	// whether a swap occurred, so callers can fix up stored instance indices.
	//
	// Parameters:
	//   - index: the instance index to remove
	//
	// Returns:
	//   - uint32: the old last index swapped into the removed slot (only meaningful when bool is true)
	//   - bool: true if the last instance was swapped into the removed slot
	RemoveInstance(index uint32) (uint32, bool)

	// Grow increases the maximum instance capacity to newMax, preserving all
	// existing data. State lives on the CPU, so growing never invalidates GPU
	// resources; the next pack simply produces a larger stream.
	// No-op if newMax is less than or equal to the current capacity.
	//
	// Parameters:
	//   - newMax: the new maximum number of instances to support
	Grow(newMax uint32)

	// SetInstanceTransform sets the position and scale for a specific instance.
	//
	// Parameters:
	//   - index: the instance index to update
	//   - posXYZ: the position as [3]float32 (x, y, z)
	//   - scaleXYZ: the scale as [3]float32 (x, y, z)
	SetInstanceTransform(index uint32, posXYZ, scaleXYZ [3]float32)

	// SetInstanceRotation sets the rotation speed and current rotation for a
	// specific instance.
	//
	// Parameters:
	//   - index: the instance index to update
	//   - rotSpeedXYZ: rotation speed in radians per second around each axis as [3]float32
	//   - rotXYZ: current rotation angles around each axis as [3]float32
	SetInstanceRotation(index uint32, rotSpeedXYZ, rotXYZ [3]float32)

	// SetInstanceData sets all transform data for a specific instance in a
	// single call, combining SetInstanceTransform and SetInstanceRotation to
	// reduce mutex overhead.
	//
	// Parameters:
	//   - index: the instance index to update
	//   - posXYZ: the position as [3]float32 (x, y, z)
	//   - scaleXYZ: the scale as [3]float32 (x, y, z)
	//   - rotSpeedXYZ: rotation speed in radians per second around each axis as [3]float32
	//   - rotXYZ: current rotation angles around each axis as [3]float32
	SetInstanceData(index uint32, posXYZ, scaleXYZ, rotSpeedXYZ, rotXYZ [3]float32)

	// InstanceTransform returns the position and scale for a specific instance.
	//
	// Parameters:
	//   - index: the instance index to query
	//
	// Returns:
	//   - pos: the position as [3]float32 (x, y, z)
	//   - scale: the scale as [3]float32 (x, y, z)
	InstanceTransform(index uint32) (pos, scale [3]float32)

	// InstanceRotation returns the rotation speed and current rotation for a
	// specific instance.
	//
	// Parameters:
	//   - index: the instance index to query
	//
	// Returns:
	//   - rotSpeed: the rotation speed as [3]float32
	//   - rot: the current rotation as [3]float32
	InstanceRotation(index uint32) (rotSpeed, rot [3]float32)

	// Advance applies per-instance rotation speeds for an elapsed frame time
	// and rebuilds the cached matrices of every mutated instance. Call once per
	// frame before packing.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	Advance(deltaTime float32)

	// PackVisible serializes the instances whose bounding spheres intersect
	// the given frustum into an instance buffer stream. A nil frustum packs
	// every instance. The returned slice aliases an internal arena and is
	// valid until the next Pack call on this instancer.
	//
	// Parameters:
	//   - frustum: the world-space view frustum, or nil for no culling
	//   - boundingRadius: the model-space bounding sphere radius of the drawn mesh
	//
	// Returns:
	//   - []byte: the packed instance stream (count * InstanceStride bytes)
	//   - uint32: the number of instances packed
	PackVisible(frustum *common.Frustum, boundingRadius float32) ([]byte, uint32)

	// PackShadowCasters serializes the instances whose bounding spheres lie
	// within a light's shadow radius into an instance buffer stream. Instances
	// entirely beyond the radius cannot write depth inside the light's cube
	// and are rejected. The returned slice aliases an internal arena and is
	// valid until the next Pack call on this instancer.
	//
	// Parameters:
	//   - lightPos: the light position in world space
	//   - lightRadius: the light's shadow radius
	//   - boundingRadius: the model-space bounding sphere radius of the drawn mesh
	//
	// Returns:
	//   - []byte: the packed instance stream (count * InstanceStride bytes)
	//   - uint32: the number of instances packed
	PackShadowCasters(lightPos [3]float32, lightRadius, boundingRadius float32) ([]byte, uint32)

	// Model retrieves the Model associated with this instancer, or nil if not set.
	//
	// Returns:
	//   - model.Model: the associated model or nil
	Model() model.Model

	// SetModel assigns the Model whose mesh all instances draw.
	//
	// Parameters:
	//   - m: the Model to associate with this instancer
	SetModel(m model.Model)
}

var _ Instancer = &instancerImpl{}

// NewInstancer creates a new Instancer with the specified options applied.
//
// Parameters:
//   - options: a variadic list of InstancerBuilderOption functions to configure the Instancer
//
// Returns:
//   - Instancer: a new instance of Instancer configured with the provided options
func NewInstancer(options ...InstancerBuilderOption) Instancer {
	inst := &instancerImpl{
		mu:           &sync.Mutex{},
		maxInstances: 1024,
	}
	for _, opt := range options {
		opt(inst)
	}
	inst.alloc(inst.maxInstances)
	return inst
}

// alloc sizes all per-instance slices and the pack arena for capacity n.
func (inst *instancerImpl) alloc(n uint32) {
	inst.pos = make([][3]float32, n)
	inst.scale = make([][3]float32, n)
	inst.rot = make([][3]float32, n)
	inst.rotSpeed = make([][3]float32, n)
	inst.instances = make([]GPUInstance, n)
	inst.dirtyIndices = make([]uint32, 0, n)
	inst.dirtyBitset = make([]uint64, (n+63)/64)
	inst.packBuf = make([]byte, int(n)*InstanceStride)
}

func (inst *instancerImpl) MaxInstances() uint32 {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.maxInstances
}

func (inst *instancerImpl) InstanceCount() uint32 {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.instanceCount
}

func (inst *instancerImpl) AddInstance() (uint32, error) {
	inst.mu.Lock()
	if inst.instanceCount >= inst.maxInstances {
		// Auto-grow: double capacity (minimum 8). Unlock first because Grow acquires its own lock.
		newCap := max(inst.maxInstances*2, 8)
		inst.mu.Unlock()
		inst.Grow(newCap)
		inst.mu.Lock()
	}
	idx := inst.instanceCount
	inst.instanceCount++

	inst.pos[idx] = [3]float32{0, 0, 0}
	inst.scale[idx] = [3]float32{1, 1, 1}
	inst.rot[idx] = [3]float32{0, 0, 0}
	inst.rotSpeed[idx] = [3]float32{0, 0, 0}
	inst.enqueueDirty(idx)

	inst.mu.Unlock()
	return idx, nil
}

func (inst *instancerImpl) RemoveInstance(index uint32) (uint32, bool) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.instanceCount == 0 || index >= inst.instanceCount {
		return 0, false
	}

	last := inst.instanceCount - 1
	swapped := index != last

	if swapped {
		inst.pos[index] = inst.pos[last]
		inst.scale[index] = inst.scale[last]
		inst.rot[index] = inst.rot[last]
		inst.rotSpeed[index] = inst.rotSpeed[last]
		inst.instances[index] = inst.instances[last]
	}

	inst.pos[last] = [3]float32{}
	inst.scale[last] = [3]float32{}
	inst.rot[last] = [3]float32{}
	inst.rotSpeed[last] = [3]float32{}
	inst.instances[last] = GPUInstance{}
	inst.instanceCount--

	return last, swapped
}

func (inst *instancerImpl) Grow(newMax uint32) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if newMax <= inst.maxInstances {
		return
	}

	oldPos, oldScale := inst.pos, inst.scale
	oldRot, oldRotSpeed := inst.rot, inst.rotSpeed
	oldInstances := inst.instances
	oldDirty := inst.dirtyIndices
	count := inst.instanceCount

	inst.alloc(newMax)
	copy(inst.pos, oldPos[:count])
	copy(inst.scale, oldScale[:count])
	copy(inst.rot, oldRot[:count])
	copy(inst.rotSpeed, oldRotSpeed[:count])
	copy(inst.instances, oldInstances[:count])
	for _, idx := range oldDirty {
		if idx < count {
			inst.enqueueDirty(idx)
		}
	}
	inst.maxInstances = newMax
}

func (inst *instancerImpl) SetInstanceTransform(index uint32, posXYZ, scaleXYZ [3]float32) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if index >= inst.maxInstances {
		return
	}
	inst.pos[index] = posXYZ
	inst.scale[index] = scaleXYZ
	inst.enqueueDirty(index)
}

func (inst *instancerImpl) SetInstanceRotation(index uint32, rotSpeedXYZ, rotXYZ [3]float32) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if index >= inst.maxInstances {
		return
	}
	inst.rotSpeed[index] = rotSpeedXYZ
	inst.rot[index] = rotXYZ
	inst.enqueueDirty(index)
}

func (inst *instancerImpl) SetInstanceData(index uint32, posXYZ, scaleXYZ, rotSpeedXYZ, rotXYZ [3]float32) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if index >= inst.maxInstances {
		return
	}
	inst.pos[index] = posXYZ
	inst.scale[index] = scaleXYZ
	inst.rotSpeed[index] = rotSpeedXYZ
	inst.rot[index] = rotXYZ
	inst.enqueueDirty(index)
}

func (inst *instancerImpl) InstanceTransform(index uint32) (pos, scale [3]float32) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if index >= inst.instanceCount {
		return
	}
	return inst.pos[index], inst.scale[index]
}

func (inst *instancerImpl) InstanceRotation(index uint32) (rotSpeed, rot [3]float32) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if index >= inst.instanceCount {
		return
	}
	return inst.rotSpeed[index], inst.rot[index]
}

func (inst *instancerImpl) Advance(deltaTime float32) {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	for i := uint32(0); i < inst.instanceCount; i++ {
		rs := inst.rotSpeed[i]
		if rs[0] == 0 && rs[1] == 0 && rs[2] == 0 {
			continue
		}
		inst.rot[i][0] += rs[0] * deltaTime
		inst.rot[i][1] += rs[1] * deltaTime
		inst.rot[i][2] += rs[2] * deltaTime
		inst.enqueueDirty(i)
	}

	inst.rebuildDirty()
}

func (inst *instancerImpl) PackVisible(frustum *common.Frustum, boundingRadius float32) ([]byte, uint32) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.rebuildDirty()

	var count uint32
	for i := uint32(0); i < inst.instanceCount; i++ {
		if frustum != nil {
			p := inst.pos[i]
			if !frustum.IntersectsSphere(p[0], p[1], p[2], boundingRadius*maxScale(inst.scale[i])) {
				continue
			}
		}
		inst.instances[i].MarshalInto(inst.packBuf[int(count)*InstanceStride:])
		count++
	}
	return inst.packBuf[:int(count)*InstanceStride], count
}

func (inst *instancerImpl) PackShadowCasters(lightPos [3]float32, lightRadius, boundingRadius float32) ([]byte, uint32) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.rebuildDirty()

	var count uint32
	for i := uint32(0); i < inst.instanceCount; i++ {
		p := inst.pos[i]
		dx := p[0] - lightPos[0]
		dy := p[1] - lightPos[1]
		dz := p[2] - lightPos[2]
		reach := lightRadius + boundingRadius*maxScale(inst.scale[i])
		if dx*dx+dy*dy+dz*dz > reach*reach {
			continue
		}
		inst.instances[i].MarshalInto(inst.packBuf[int(count)*InstanceStride:])
		count++
	}
	return inst.packBuf[:int(count)*InstanceStride], count
}

func (inst *instancerImpl) Model() model.Model {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.model
}

func (inst *instancerImpl) SetModel(m model.Model) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.model = m
}

// enqueueDirty adds an instance index to the dirty queue if not already present.
// Uses a bitset for O(1) dedup. Caller must hold inst.mu.
func (inst *instancerImpl) enqueueDirty(index uint32) {
	word := index / 64
	bit := uint64(1) << (index % 64)
	if inst.dirtyBitset[word]&bit != 0 {
		return // already queued
	}
	inst.dirtyBitset[word] |= bit
	inst.dirtyIndices = append(inst.dirtyIndices, index)
}

// rebuildDirty recomposes the cached matrices for every dirty instance and
// clears the dirty state. Caller must hold inst.mu.
func (inst *instancerImpl) rebuildDirty() {
	if len(inst.dirtyIndices) == 0 {
		return
	}
	for _, idx := range inst.dirtyIndices {
		if idx >= inst.instanceCount {
			continue
		}
		inst.instances[idx] = BuildInstance(inst.pos[idx], inst.rot[idx], inst.scale[idx])
	}
	inst.dirtyIndices = inst.dirtyIndices[:0]
	for i := range inst.dirtyBitset {
		inst.dirtyBitset[i] = 0
	}
}

// maxScale returns the largest axis scale magnitude, used to bound a scaled
// mesh's sphere conservatively under non-uniform or mirrored scale.
func maxScale(s [3]float32) float32 {
	var m float32
	for _, v := range s {
		if v < 0 {
			v = -v
		}
		if v > m {
			m = v
		}
	}
	return m
}
