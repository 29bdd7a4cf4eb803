package render

import (
	"log"

	"github.com/ibd1279/vks"
	"github.com/pkg/errors"

	"github.com/ibd1279/vks-examples/rotating-cube/internal/frame"
)

// createRenderPass picks the surface format and describes the single
// colour attachment: cleared on load, stored, then handed to the
// presentation engine. The format survives swapchain rebuilds, so the
// render pass and pipeline do too.
func (d *Device) createRenderPass() error {
	var count uint32
	d.physicalDevice.GetPhysicalDeviceSurfaceFormatsKHR(d.surface, &count, nil)
	if count == 0 {
		return failf(DeviceCreation, "create render pass", "surface reports no formats")
	}
	formats := make([]vks.SurfaceFormatKHR, count)
	d.physicalDevice.GetPhysicalDeviceSurfaceFormatsKHR(d.surface, &count, formats)
	selected := chooseSurfaceFormat(formats)
	d.swapchainImgFmt = selected.Format()
	d.swapchainColor = selected.ColorSpace()

	attachments := vks.AttachmentDescriptionMakeCSlice(
		vks.AttachmentDescription{}.
			WithFormat(d.swapchainImgFmt).
			WithSamples(vks.VK_SAMPLE_COUNT_1_BIT).
			WithLoadOp(vks.VK_ATTACHMENT_LOAD_OP_CLEAR).
			WithStoreOp(vks.VK_ATTACHMENT_STORE_OP_STORE).
			WithStencilLoadOp(vks.VK_ATTACHMENT_LOAD_OP_DONT_CARE).
			WithStencilStoreOp(vks.VK_ATTACHMENT_STORE_OP_DONT_CARE).
			WithInitialLayout(vks.VK_IMAGE_LAYOUT_UNDEFINED).
			WithFinalLayout(vks.VK_IMAGE_LAYOUT_PRESENT_SRC_KHR),
	)
	colorAttachments := vks.AttachmentReferenceMakeCSlice(
		vks.AttachmentReference{}.
			WithAttachment(0).
			WithLayout(vks.VK_IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL),
	)
	subpasses := vks.SubpassDescriptionMakeCSlice(
		vks.SubpassDescription{}.
			WithPipelineBindPoint(vks.VK_PIPELINE_BIND_POINT_GRAPHICS).
			WithPColorAttachments(colorAttachments),
	)
	dependencies := vks.SubpassDependencyMakeCSlice(
		vks.SubpassDependency{}.
			WithSrcSubpass(vks.VK_SUBPASS_EXTERNAL).
			WithSrcStageMask(vks.PipelineStageFlags(vks.VK_PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT)).
			WithDstStageMask(vks.PipelineStageFlags(vks.VK_PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT)).
			WithDstAccessMask(vks.AccessFlags(vks.VK_ACCESS_COLOR_ATTACHMENT_WRITE_BIT)),
	)
	defer func() {
		vks.SubpassDependencyFreeCSlice(dependencies)
		vks.SubpassDescriptionFreeCSlice(subpasses)
		vks.AttachmentReferenceFreeCSlice(colorAttachments)
		vks.AttachmentDescriptionFreeCSlice(attachments)
	}()

	renderPassCreateInfo := vks.RenderPassCreateInfo{}.
		WithDefaultSType().
		WithPAttachments(attachments).
		WithPSubpasses(subpasses).
		WithPDependencies(dependencies).
		AsCPtr()
	defer renderPassCreateInfo.Free()

	if result := d.device.CreateRenderPass(renderPassCreateInfo, nil, &d.renderPass); result.IsError() {
		return failResult(DeviceCreation, "create render pass", result)
	}
	d.stack.Push("render pass", func() { d.device.DestroyRenderPass(d.renderPass, nil) })
	return nil
}

// createSwapchain registers the chain on the device stack and builds it
// for the current framebuffer size.
func (d *Device) createSwapchain() error {
	d.stack.Push(ResourceSwapchain, d.chain.Release)
	return d.buildChain()
}

// recreateSwapchain rebuilds the chain for the window's new framebuffer
// size. The GPU must be idle since the old images may still be in use.
// The chain stays marked stale until a rebuild succeeds.
func (d *Device) recreateSwapchain() error {
	if result := d.device.DeviceWaitIdle(); result.IsError() {
		return failResult(DeviceCreation, "wait before swapchain rebuild", result)
	}
	d.chain.Release()
	d.chainStale = true
	if err := d.buildChain(); err != nil {
		return err
	}
	d.chainStale = false
	log.Printf("swapchain rebuilt at %dx%d", d.swapchainExtent.Width(), d.swapchainExtent.Height())
	return nil
}

// buildChain creates a FIFO swapchain, which presents once per vertical
// blank, and everything sized to it: image views, one render finished
// semaphore per image and the render targets. Everything goes on d.chain.
func (d *Device) buildChain() error {
	d.swapchainImgs = nil
	d.swapchainImgViews = nil
	d.renderFinished = nil
	d.framebuffers = nil

	var capabilities vks.SurfaceCapabilitiesKHR
	d.physicalDevice.GetPhysicalDeviceSurfaceCapabilitiesKHR(d.surface, &capabilities)

	w, h := d.window.GetFramebufferSize()
	cur, lo, hi := capabilities.CurrentExtent(), capabilities.MinImageExtent(), capabilities.MaxImageExtent()
	extent := chooseExtent(
		[2]uint32{cur.Width(), cur.Height()},
		[2]uint32{lo.Width(), lo.Height()},
		[2]uint32{hi.Width(), hi.Height()},
		w, h,
	)
	if !hasArea(int(extent[0]), int(extent[1])) {
		return errors.Wrap(frame.ErrSkipFrame, "surface has no area")
	}
	selectedExtent := vks.Extent2D{}.
		WithWidth(extent[0]).
		WithHeight(extent[1])

	imageCount := chooseImageCount(capabilities.MinImageCount(), capabilities.MaxImageCount())

	queueFamilyIndices := []uint32{d.graphicQueueIndex, d.presentQueueIndex}
	shareMode := vks.VK_SHARING_MODE_CONCURRENT
	if d.graphicQueueIndex == d.presentQueueIndex {
		queueFamilyIndices = queueFamilyIndices[:1]
		shareMode = vks.VK_SHARING_MODE_EXCLUSIVE
	}

	swapchainCreateInfo := vks.SwapchainCreateInfoKHR{}.
		WithDefaultSType().
		WithSurface(d.surface).
		WithMinImageCount(imageCount).
		WithImageFormat(d.swapchainImgFmt).
		WithImageColorSpace(d.swapchainColor).
		WithImageExtent(selectedExtent).
		WithImageArrayLayers(1).
		WithImageUsage(vks.ImageUsageFlags(vks.VK_IMAGE_USAGE_COLOR_ATTACHMENT_BIT)).
		WithImageSharingMode(shareMode).
		WithPQueueFamilyIndices(queueFamilyIndices).
		WithPreTransform(capabilities.CurrentTransform()).
		WithCompositeAlpha(vks.VK_COMPOSITE_ALPHA_OPAQUE_BIT_KHR).
		WithPresentMode(vks.VK_PRESENT_MODE_FIFO_KHR).
		WithClipped(vks.VK_TRUE).
		WithOldSwapchain(vks.NullSwapchainKHR).
		AsCPtr()
	defer swapchainCreateInfo.Free()

	var swapchain vks.SwapchainKHR
	if result := d.device.CreateSwapchainKHR(swapchainCreateInfo, nil, &swapchain); result.IsError() {
		return failResult(DeviceCreation, "create swapchain", result)
	}
	d.swapchain = swapchain
	d.chain.Push("swapchain handle", func() { d.device.DestroySwapchainKHR(swapchain, nil) })

	var count uint32
	d.device.GetSwapchainImagesKHR(swapchain, &count, nil)
	images := make([]vks.Image, count)
	d.device.GetSwapchainImagesKHR(swapchain, &count, images)
	d.swapchainImgs = images
	d.swapchainExtent = selectedExtent

	for _, img := range d.swapchainImgs {
		imgViewCreateInfo := vks.ImageViewCreateInfo{}.
			WithDefaultSType().
			WithImage(img).
			WithViewType(vks.VK_IMAGE_VIEW_TYPE_2D).
			WithFormat(d.swapchainImgFmt).
			WithSubresourceRange(vks.ImageSubresourceRange{}.
				WithAspectMask(vks.ImageAspectFlags(vks.VK_IMAGE_ASPECT_COLOR_BIT)).
				WithLevelCount(1).
				WithLayerCount(1)).
			AsCPtr()
		var view vks.ImageView
		result := d.device.CreateImageView(imgViewCreateInfo, nil, &view)
		imgViewCreateInfo.Free()
		if result.IsError() {
			return failResult(DeviceCreation, "create image view", result)
		}
		d.swapchainImgViews = append(d.swapchainImgViews, view)
		d.chain.Push("image view", func() { d.device.DestroyImageView(view, nil) })
	}

	semaphoreCreateInfo := vks.SemaphoreCreateInfo{}.
		WithDefaultSType().
		AsCPtr()
	defer semaphoreCreateInfo.Free()
	for range d.swapchainImgs {
		var sem vks.Semaphore
		if result := d.device.CreateSemaphore(semaphoreCreateInfo, nil, &sem); result.IsError() {
			return failResult(ResourceAllocation, "create semaphore", result)
		}
		d.renderFinished = append(d.renderFinished, sem)
		d.chain.Push("render finished semaphore", func() { d.device.DestroySemaphore(sem, nil) })
	}

	if err := d.createFramebuffers(); err != nil {
		return err
	}

	log.Printf("swapchain %dx%d, %d images, format %v, FIFO present",
		selectedExtent.Width(), selectedExtent.Height(), len(images), d.swapchainImgFmt)
	return nil
}

// createFramebuffers makes one render target per swapchain image.
func (d *Device) createFramebuffers() error {
	for _, imgView := range d.swapchainImgViews {
		attachments := []vks.ImageView{imgView}
		bufferCreateInfo := vks.FramebufferCreateInfo{}.
			WithDefaultSType().
			WithRenderPass(d.renderPass).
			WithPAttachments(attachments).
			WithWidth(d.swapchainExtent.Width()).
			WithHeight(d.swapchainExtent.Height()).
			WithLayers(1).
			AsCPtr()

		var fb vks.Framebuffer
		result := d.device.CreateFramebuffer(bufferCreateInfo, nil, &fb)
		bufferCreateInfo.Free()
		if result.IsError() {
			return failResult(DeviceCreation, "create framebuffer", result)
		}
		d.framebuffers = append(d.framebuffers, fb)
		d.chain.Push(ResourceRenderTarget, func() { d.device.DestroyFramebuffer(fb, nil) })
	}
	return nil
}
