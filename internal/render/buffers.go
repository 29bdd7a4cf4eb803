package render

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/ibd1279/vks"

	"github.com/ibd1279/vks-examples/rotating-cube/internal/geometry"
)

// uniformSize is one column-major 4x4 float32 matrix, std140 compatible.
const uniformSize = int(unsafe.Sizeof(mgl32.Mat4{}))

// gpuBuffer is a buffer and the memory bound to it.
type gpuBuffer struct {
	buffer vks.Buffer
	memory vks.DeviceMemory
	size   int
}

func (d *Device) destroyBuffer(b gpuBuffer) {
	d.device.DestroyBuffer(b.buffer, nil)
	d.device.FreeMemory(b.memory, nil)
}

// newBuffer creates a buffer of size bytes backed by memory with the
// requested properties. The caller owns the result.
func (d *Device) newBuffer(size int, usage vks.BufferUsageFlags, props vks.MemoryPropertyFlags) (gpuBuffer, error) {
	info := vks.BufferCreateInfo{}.
		WithDefaultSType().
		WithSize(vks.DeviceSize(size)).
		WithUsage(usage).
		WithSharingMode(vks.VK_SHARING_MODE_EXCLUSIVE).
		AsCPtr()
	defer info.Free()

	b := gpuBuffer{size: size}
	if result := d.device.CreateBuffer(info, nil, &b.buffer); result.IsError() {
		return gpuBuffer{}, failResult(ResourceAllocation, "create buffer", result)
	}

	var req vks.MemoryRequirements
	d.device.GetBufferMemoryRequirements(b.buffer, &req)
	typeIndex := pickMemoryType(d.memoryTypes, req.MemoryTypeBits(), props)
	if !typeIndex.IsSet() {
		d.device.DestroyBuffer(b.buffer, nil)
		return gpuBuffer{}, failf(ResourceAllocation, "allocate memory",
			"no memory type with properties %#x in mask %#x", uint32(props), req.MemoryTypeBits())
	}

	allocInfo := vks.MemoryAllocateInfo{}.
		WithDefaultSType().
		WithAllocationSize(req.Size()).
		WithMemoryTypeIndex(typeIndex.Some()).
		AsCPtr()
	defer allocInfo.Free()
	if result := d.device.AllocateMemory(allocInfo, nil, &b.memory); result.IsError() {
		d.device.DestroyBuffer(b.buffer, nil)
		return gpuBuffer{}, failResult(ResourceAllocation, "allocate memory", result)
	}
	if result := d.device.BindBufferMemory(b.buffer, b.memory, 0); result.IsError() {
		d.destroyBuffer(b)
		return gpuBuffer{}, failResult(ResourceAllocation, "bind buffer memory", result)
	}
	return b, nil
}

// write copies data into host-visible buffer memory.
func (d *Device) write(b gpuBuffer, data []byte) error {
	var ptr unsafe.Pointer
	if result := d.device.MapMemory(b.memory, 0, vks.DeviceSize(b.size), 0, &ptr); result.IsError() {
		return failResult(ResourceAllocation, "map memory", result)
	}
	copy(unsafe.Slice((*byte)(ptr), b.size), data)
	d.device.UnmapMemory(b.memory)
	return nil
}

// newDeviceLocal uploads data into a device-local buffer through a
// temporary host-visible staging buffer.
func (d *Device) newDeviceLocal(data []byte, usage vks.BufferUsageFlags) (gpuBuffer, error) {
	hostVisible := vks.MemoryPropertyFlags(vks.VK_MEMORY_PROPERTY_HOST_VISIBLE_BIT | vks.VK_MEMORY_PROPERTY_HOST_COHERENT_BIT)
	staging, err := d.newBuffer(len(data), vks.BufferUsageFlags(vks.VK_BUFFER_USAGE_TRANSFER_SRC_BIT), hostVisible)
	if err != nil {
		return gpuBuffer{}, err
	}
	defer d.destroyBuffer(staging)
	if err := d.write(staging, data); err != nil {
		return gpuBuffer{}, err
	}

	dst, err := d.newBuffer(len(data),
		usage|vks.BufferUsageFlags(vks.VK_BUFFER_USAGE_TRANSFER_DST_BIT),
		vks.MemoryPropertyFlags(vks.VK_MEMORY_PROPERTY_DEVICE_LOCAL_BIT))
	if err != nil {
		return gpuBuffer{}, err
	}

	err = d.oneTimeCommands(func(cb vks.CommandBufferFacade) {
		regions := vks.BufferCopyMakeCSlice(
			vks.BufferCopy{}.WithSize(vks.DeviceSize(len(data))),
		)
		defer vks.BufferCopyFreeCSlice(regions)
		cb.CmdCopyBuffer(staging.buffer, dst.buffer, uint32(len(regions)), regions)
	})
	if err != nil {
		d.destroyBuffer(dst)
		return gpuBuffer{}, err
	}
	return dst, nil
}

// createGeometryBuffers uploads the cube once. The buffers are immutable
// afterwards.
func (d *Device) createGeometryBuffers() error {
	vb, err := d.newDeviceLocal(geometry.VertexBytes(),
		vks.BufferUsageFlags(vks.VK_BUFFER_USAGE_VERTEX_BUFFER_BIT))
	if err != nil {
		return err
	}
	d.vertexBuffer = vb
	d.stack.Push(ResourceVertexBuffer, func() { d.destroyBuffer(d.vertexBuffer) })

	ib, err := d.newDeviceLocal(geometry.IndexBytes(),
		vks.BufferUsageFlags(vks.VK_BUFFER_USAGE_INDEX_BUFFER_BIT))
	if err != nil {
		return err
	}
	d.indexBuffer = ib
	d.stack.Push(ResourceIndexBuffer, func() { d.destroyBuffer(d.indexBuffer) })
	return nil
}

// createUniformBuffer makes the constant buffer holding the transform. It
// stays mapped for the life of the device.
func (d *Device) createUniformBuffer() error {
	ub, err := d.newBuffer(uniformSize,
		vks.BufferUsageFlags(vks.VK_BUFFER_USAGE_UNIFORM_BUFFER_BIT),
		vks.MemoryPropertyFlags(vks.VK_MEMORY_PROPERTY_HOST_VISIBLE_BIT|vks.VK_MEMORY_PROPERTY_HOST_COHERENT_BIT))
	if err != nil {
		return err
	}
	d.uniformBuffer = ub
	d.stack.Push(ResourceConstantBuffer, func() { d.destroyBuffer(d.uniformBuffer) })

	if result := d.device.MapMemory(ub.memory, 0, vks.DeviceSize(ub.size), 0, &d.uniformPtr); result.IsError() {
		return failResult(ResourceAllocation, "map constant buffer", result)
	}
	d.stack.Push("constant buffer mapping", func() {
		d.device.UnmapMemory(d.uniformBuffer.memory)
		d.uniformPtr = nil
	})
	return nil
}
