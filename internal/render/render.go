// Package render owns every Vulkan object the cube needs and implements
// the per-frame device calls on top of them.
//
// New brings the device up in dependency order and records each object on
// a teardown stack as it is created. A failure at any step releases what
// was created so far; Close releases everything after a clean run.
package render

import (
	"log"
	"math"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/ibd1279/vks"

	"github.com/ibd1279/vks-examples/rotating-cube/internal/teardown"
)

// Device is the cube's GPU state: device, swapchain, buffers, shaders and
// the pipeline that ties them together.
type Device struct {
	cfg    Config
	window *glfw.Window
	stack  teardown.Stack

	instance          vks.InstanceFacade
	surface           vks.SurfaceKHR
	physicalDevice    vks.PhysicalDeviceFacade
	memoryTypes       []vks.MemoryPropertyFlags
	graphicQueueIndex uint32
	presentQueueIndex uint32
	graphicQueue      vks.QueueFacade
	presentQueue      vks.QueueFacade
	device            vks.DeviceFacade

	// chain holds everything sized to the surface. It is released and
	// rebuilt when the swapchain goes out of date.
	chain             teardown.Stack
	chainStale        bool
	swapchain         vks.SwapchainKHR
	swapchainImgs     []vks.Image
	swapchainColor    vks.ColorSpaceKHR
	swapchainImgFmt   vks.Format
	swapchainExtent   vks.Extent2D
	swapchainImgViews []vks.ImageView
	renderPass        vks.RenderPass
	framebuffers      []vks.Framebuffer

	vertexBuffer  gpuBuffer
	indexBuffer   gpuBuffer
	uniformBuffer gpuBuffer
	uniformPtr    unsafe.Pointer

	descriptorSetLayout vks.DescriptorSetLayout
	descriptorPool      vks.DescriptorPool
	descriptorSet       vks.DescriptorSet
	pipelineLayout      vks.PipelineLayout
	vertModule          vks.ShaderModule
	fragModule          vks.ShaderModule
	pipeline            vks.Pipeline

	commandPool    vks.CommandPoolFacade
	commandBuffer  vks.CommandBufferFacade
	imageAvailable vks.Semaphore
	renderFinished []vks.Semaphore // one per swapchain image
	inFlight       vks.Fence

	imageIndex uint32
	recording  bool
}

// Names of the owned resources on the teardown stack.
const (
	ResourceDevice         = "device"
	ResourceSwapchain      = "swapchain"
	ResourceRenderTarget   = "render target"
	ResourceVertexBuffer   = "vertex buffer"
	ResourceIndexBuffer    = "index buffer"
	ResourceConstantBuffer = "constant buffer"
	ResourceVertexShader   = "vertex shader"
	ResourcePixelShader    = "pixel shader"
	ResourceInputLayout    = "input layout"
)

// step is one stage of New and the owned resources it pushes, in push
// order.
type step struct {
	name string
	run  func() error
	owns []string
}

func (d *Device) steps() []step {
	return []step{
		{"instance", d.createInstance, nil},
		{"surface", d.createSurface, nil},
		{"physical device", d.selectPhysicalDevice, nil},
		{"device", d.createDevice, []string{ResourceDevice}},
		{"render pass", d.createRenderPass, nil},
		{"swapchain", d.createSwapchain, []string{ResourceSwapchain, ResourceRenderTarget}},
		{"command pool", d.createCommandPool, nil},
		{"geometry", d.createGeometryBuffers, []string{ResourceVertexBuffer, ResourceIndexBuffer}},
		{"constant buffer", d.createUniformBuffer, []string{ResourceConstantBuffer}},
		{"descriptors", d.createDescriptors, nil},
		{"shaders", d.createShaderModules, []string{ResourceVertexShader, ResourcePixelShader}},
		{"pipeline", d.createPipeline, []string{ResourceInputLayout}},
		{"frame sync", d.createFrameSync, nil},
	}
}

// New creates the device for window. vks.Init must have been called.
func New(window *glfw.Window, cfg Config) (_ *Device, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fail(DeviceCreation, "config", err)
	}
	d := &Device{cfg: cfg, window: window}
	defer d.stack.Guard(&err)

	for _, st := range d.steps() {
		if err := st.run(); err != nil {
			return nil, err
		}
	}
	log.Printf("device ready: %d objects to release on close", d.stack.Len()+d.chain.Len())
	return d, nil
}

// Close waits for the GPU to finish and releases every object New created,
// most recently created first. It is safe to call more than once.
func (d *Device) Close() {
	if d.stack.Len() == 0 {
		return
	}
	if d.device.H != vks.NullDevice {
		d.device.DeviceWaitIdle()
	}
	d.stack.Release()
}

// Extent is the swapchain size in pixels.
func (d *Device) Extent() (width, height int) {
	return int(d.swapchainExtent.Width()), int(d.swapchainExtent.Height())
}

func (d *Device) createInstance() error {
	var count uint32
	result := vks.EnumerateInstanceLayerProperties(&count, nil)
	if result.IsError() {
		return failResult(DeviceCreation, "enumerate instance layers", result)
	}
	layerProperties := make([]vks.LayerProperties, count)
	result = vks.EnumerateInstanceLayerProperties(&count, layerProperties)
	if result.IsError() {
		return failResult(DeviceCreation, "enumerate instance layers", result)
	}
	availableLayers := make([]string, 0, len(layerProperties))
	for _, layer := range layerProperties {
		availableLayers = append(availableLayers, vks.ToString(layer.LayerName()))
	}

	result = vks.EnumerateInstanceExtensionProperties(nil, &count, nil)
	if result.IsError() {
		return failResult(DeviceCreation, "enumerate instance extensions", result)
	}
	extensionProperties := make([]vks.ExtensionProperties, count)
	result = vks.EnumerateInstanceExtensionProperties(nil, &count, extensionProperties)
	if result.IsError() {
		return failResult(DeviceCreation, "enumerate instance extensions", result)
	}
	availableExts := make([]string, 0, len(extensionProperties))
	for _, ext := range extensionProperties {
		availableExts = append(availableExts, vks.ToString(ext.ExtensionName()))
	}

	layers, skippedLayers := selectAvailable(d.cfg.OptionalInstanceLayers, availableLayers)
	for _, l := range skippedLayers {
		log.Printf("instance layer %s not available, skipping", l)
	}

	required := d.window.GetRequiredInstanceExtensions()
	if _, missing := selectAvailable(required, availableExts); len(missing) > 0 {
		return failf(DeviceCreation, "create instance", "missing instance extensions %v", missing)
	}
	optional, _ := selectAvailable(d.cfg.OptionalInstanceExtensions, availableExts)
	extensions := append(required, optional...)

	var flags vks.InstanceCreateFlags
	for _, ext := range optional {
		if ext == vks.VK_KHR_PORTABILITY_ENUMERATION_EXTENSION_NAME {
			flags |= vks.InstanceCreateFlags(vks.VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR)
		}
	}

	appInfo := vks.ApplicationInfo{}.
		WithDefaultSType().
		WithApplication(d.cfg.AppName, vks.MakeApiVersion(0, 0, 1, 0)).
		WithEngine("NoEngine", vks.MakeApiVersion(0, 1, 0, 0)).
		WithApiVersion(uint32(vks.VK_API_VERSION_1_3)).
		AsCPtr()
	createInfo := vks.InstanceCreateInfo{}.
		WithDefaultSType().
		WithPApplicationInfo(appInfo).
		WithFlags(flags).
		WithLayers(layers).
		WithExtensions(extensions).
		AsCPtr()
	defer func() { createInfo.Free(); appInfo.Free() }()

	var vkInstance vks.Instance
	if result := vks.CreateInstance(createInfo, nil, &vkInstance); result.IsError() {
		return failResult(DeviceCreation, "create instance", result)
	}
	d.instance = vks.MakeInstanceFacade(vkInstance)
	d.stack.Push("instance", func() { d.instance.DestroyInstance(nil) })

	log.Printf("instance created with layers %v and extensions %v", layers, extensions)
	return nil
}

// Pretty standard glfw surface creation.
func (d *Device) createSurface() error {
	surface, err := d.window.CreateWindowSurface(d.instance.H, nil)
	if err != nil {
		return fail(DeviceCreation, "create surface", err)
	}
	// TODO see if we can hide the unsafe.
	d.surface = *(*vks.SurfaceKHR)(unsafe.Pointer(surface))
	d.stack.Push("surface", func() { d.instance.DestroySurfaceKHR(d.surface, nil) })
	return nil
}

// selectPhysicalDevice takes the first device that can both draw and
// present to the surface.
func (d *Device) selectPhysicalDevice() error {
	var count uint32
	result := d.instance.EnumeratePhysicalDevices(&count, nil)
	if result.IsError() {
		return failResult(DeviceCreation, "enumerate physical devices", result)
	}
	if count < 1 {
		return failf(DeviceCreation, "enumerate physical devices", "no Vulkan devices")
	}
	physicalDevices := make([]vks.PhysicalDevice, count)
	result = d.instance.EnumeratePhysicalDevices(&count, physicalDevices)
	if result.IsError() {
		return failResult(DeviceCreation, "enumerate physical devices", result)
	}

	for k, pd := range physicalDevices {
		phyDev := d.instance.MakePhysicalDeviceFacade(pd)

		var props vks.PhysicalDeviceProperties
		phyDev.GetPhysicalDeviceProperties(&props)
		name := vks.ToString(props.DeviceName())

		var famCount uint32
		phyDev.GetPhysicalDeviceQueueFamilyProperties2(&famCount, nil)
		// TODO see how to hide this initialization step.
		queueFamProps := make([]vks.QueueFamilyProperties2, famCount)
		for h, v := range queueFamProps {
			queueFamProps[h] = v.WithDefaultSType()
		}
		phyDev.GetPhysicalDeviceQueueFamilyProperties2(&famCount, queueFamProps)

		flags := make([]vks.QueueFlags, len(queueFamProps))
		canPresent := make([]bool, len(queueFamProps))
		for h, v := range queueFamProps {
			flags[h] = v.QueueFamilyProperties().QueueFlags()
			var presentSupport vks.Bool32
			phyDev.GetPhysicalDeviceSurfaceSupportKHR(uint32(h), d.surface, &presentSupport)
			canPresent[h] = presentSupport.IsTrue()
		}

		grfxIndex, prntIndex := pickQueueFamilies(flags, canPresent)
		if !grfxIndex.IsSet() || !prntIndex.IsSet() {
			log.Printf("physical device %d %s: no graphics/present queue, skipping", k, name)
			continue
		}

		log.Printf("physical device %d %s %s - %s", k, name, props.DeviceType(),
			vks.ApiVersion(props.ApiVersion()))
		log.Printf("using graphics index %d and presentation index %d",
			grfxIndex.Some(), prntIndex.Some())

		d.physicalDevice = phyDev
		d.graphicQueueIndex = grfxIndex.Some()
		d.presentQueueIndex = prntIndex.Some()

		var memProps vks.PhysicalDeviceMemoryProperties
		phyDev.GetPhysicalDeviceMemoryProperties(&memProps)
		memTypes := memProps.MemoryTypes()
		d.memoryTypes = make([]vks.MemoryPropertyFlags, memProps.MemoryTypeCount())
		for h := range d.memoryTypes {
			d.memoryTypes[h] = memTypes[h].PropertyFlags()
		}
		return nil
	}
	return failf(DeviceCreation, "select physical device", "no device can draw to the window")
}

func (d *Device) createDevice() error {
	var count uint32
	result := d.physicalDevice.EnumerateDeviceExtensionProperties(nil, &count, nil)
	if result.IsError() {
		return failResult(DeviceCreation, "enumerate device extensions", result)
	}
	extensionProperties := make([]vks.ExtensionProperties, count)
	result = d.physicalDevice.EnumerateDeviceExtensionProperties(nil, &count, extensionProperties)
	if result.IsError() {
		return failResult(DeviceCreation, "enumerate device extensions", result)
	}
	available := make([]string, 0, len(extensionProperties))
	for _, ext := range extensionProperties {
		available = append(available, vks.ToString(ext.ExtensionName()))
	}
	if _, missing := selectAvailable(d.cfg.RequiredDeviceExtensions, available); len(missing) > 0 {
		return failf(DeviceCreation, "create device", "missing device extensions %v", missing)
	}
	optional, _ := selectAvailable(d.cfg.OptionalDeviceExtensions, available)
	extensions := append(append([]string{}, d.cfg.RequiredDeviceExtensions...), optional...)

	familyIndices := []uint32{d.graphicQueueIndex, d.presentQueueIndex}
	if familyIndices[0] == familyIndices[1] {
		familyIndices = familyIndices[:1]
	}
	priorities := []float32{1.0}
	queueCreateInfos := make([]vks.DeviceQueueCreateInfo, len(familyIndices))
	for k, idx := range familyIndices {
		queueCreateInfos[k] = vks.DeviceQueueCreateInfo{}.
			WithDefaultSType().
			WithQueueFamilyIndex(idx).
			WithPQueuePriorities(priorities)
	}
	queueCreateInfos = vks.DeviceQueueCreateInfoMakeCSlice(queueCreateInfos...)
	defer vks.DeviceQueueCreateInfoFreeCSlice(queueCreateInfos)

	deviceCreateInfo := vks.DeviceCreateInfo{}.
		WithDefaultSType().
		WithPQueueCreateInfos(queueCreateInfos).
		WithExtensions(extensions).
		AsCPtr()
	defer deviceCreateInfo.Free()

	var vkDevice vks.Device
	if result := d.physicalDevice.CreateDevice(deviceCreateInfo, nil, &vkDevice); result.IsError() {
		return failResult(DeviceCreation, "create device", result)
	}
	d.device = d.physicalDevice.MakeDeviceFacade(vkDevice)
	d.stack.Push(ResourceDevice, func() { d.device.DestroyDevice(nil) })

	var queue vks.Queue
	d.device.GetDeviceQueue(d.graphicQueueIndex, 0, &queue)
	d.graphicQueue = d.device.MakeQueueFacade(queue)
	d.device.GetDeviceQueue(d.presentQueueIndex, 0, &queue)
	d.presentQueue = d.device.MakeQueueFacade(queue)

	log.Printf("logical device created with extensions %v", extensions)
	return nil
}

// waitForever is the timeout for fence waits and image acquisition.
const waitForever = math.MaxUint64
