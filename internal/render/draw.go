package render

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/ibd1279/vks"
	"github.com/pkg/errors"

	"github.com/ibd1279/vks-examples/rotating-cube/internal/frame"
	"github.com/ibd1279/vks-examples/rotating-cube/internal/geometry"
)

func (d *Device) createCommandPool() error {
	poolCreateInfo := vks.CommandPoolCreateInfo{}.
		WithDefaultSType().
		WithFlags(vks.CommandPoolCreateFlags(vks.VK_COMMAND_POOL_CREATE_RESET_COMMAND_BUFFER_BIT)).
		WithQueueFamilyIndex(d.graphicQueueIndex).
		AsCPtr()
	defer poolCreateInfo.Free()

	var commandPool vks.CommandPool
	if result := d.device.CreateCommandPool(poolCreateInfo, nil, &commandPool); result.IsError() {
		return failResult(ResourceAllocation, "create command pool", result)
	}
	d.commandPool = d.device.MakeCommandPoolFacade(commandPool)
	d.stack.Push("command pool", func() { d.device.DestroyCommandPool(d.commandPool.H, nil) })
	return nil
}

func (d *Device) allocateCommandBuffer() (vks.CommandBuffer, error) {
	bufferAllocInfo := vks.CommandBufferAllocateInfo{}.
		WithDefaultSType().
		WithCommandPool(d.commandPool.H).
		WithLevel(vks.VK_COMMAND_BUFFER_LEVEL_PRIMARY).
		WithCommandBufferCount(1).
		AsCPtr()
	defer bufferAllocInfo.Free()

	cmdBuffers := make([]vks.CommandBuffer, 1)
	if result := d.device.AllocateCommandBuffers(bufferAllocInfo, cmdBuffers); result.IsError() {
		return cmdBuffers[0], failResult(ResourceAllocation, "allocate command buffer", result)
	}
	return cmdBuffers[0], nil
}

func (d *Device) beginCommands(buffer vks.CommandBufferFacade) vks.Result {
	beginInfo := vks.CommandBufferBeginInfo{}.
		WithDefaultSType().
		WithFlags(vks.CommandBufferUsageFlags(vks.VK_COMMAND_BUFFER_USAGE_ONE_TIME_SUBMIT_BIT)).
		AsCPtr()
	defer beginInfo.Free()
	return buffer.BeginCommandBuffer(beginInfo)
}

// oneTimeCommands records fn into a throwaway command buffer, submits it
// to the graphics queue and waits for it to finish.
func (d *Device) oneTimeCommands(fn func(vks.CommandBufferFacade)) error {
	cmd, err := d.allocateCommandBuffer()
	if err != nil {
		return err
	}
	cmdBuffers := []vks.CommandBuffer{cmd}
	defer d.device.FreeCommandBuffers(d.commandPool.H, 1, cmdBuffers)

	buffer := d.commandPool.MakeCommandBufferFacade(cmd)
	if result := d.beginCommands(buffer); result.IsError() {
		return failResult(ResourceAllocation, "begin upload commands", result)
	}
	fn(buffer)
	if result := buffer.EndCommandBuffer(); result.IsError() {
		return failResult(ResourceAllocation, "end upload commands", result)
	}

	submitInfos := vks.SubmitInfoMakeCSlice(
		vks.SubmitInfo{}.
			WithDefaultSType().
			WithPCommandBuffers(cmdBuffers),
	)
	defer vks.SubmitInfoFreeCSlice(submitInfos)
	if result := d.graphicQueue.QueueSubmit(1, submitInfos, vks.NullFence); result.IsError() {
		return failResult(ResourceAllocation, "submit upload commands", result)
	}
	if result := d.graphicQueue.QueueWaitIdle(); result.IsError() {
		return failResult(ResourceAllocation, "wait for upload", result)
	}
	return nil
}

// createFrameSync allocates the frame's command buffer, the image
// available semaphore and the in flight fence. The fence starts signalled
// so the first WriteTransform does not wait. Render finished semaphores
// are per swapchain image and belong to the chain.
func (d *Device) createFrameSync() error {
	cmd, err := d.allocateCommandBuffer()
	if err != nil {
		return err
	}
	d.commandBuffer = d.commandPool.MakeCommandBufferFacade(cmd)
	d.stack.Push("command buffer", func() {
		d.device.FreeCommandBuffers(d.commandPool.H, 1, []vks.CommandBuffer{cmd})
	})

	semaphoreCreateInfo := vks.SemaphoreCreateInfo{}.
		WithDefaultSType().
		AsCPtr()
	defer semaphoreCreateInfo.Free()
	if result := d.device.CreateSemaphore(semaphoreCreateInfo, nil, &d.imageAvailable); result.IsError() {
		return failResult(ResourceAllocation, "create semaphore", result)
	}
	d.stack.Push("image available semaphore", func() { d.device.DestroySemaphore(d.imageAvailable, nil) })

	fenceCreateInfo := vks.FenceCreateInfo{}.
		WithDefaultSType().
		WithFlags(vks.FenceCreateFlags(vks.VK_FENCE_CREATE_SIGNALED_BIT)).
		AsCPtr()
	defer fenceCreateInfo.Free()
	if result := d.device.CreateFence(fenceCreateInfo, nil, &d.inFlight); result.IsError() {
		return failResult(ResourceAllocation, "create fence", result)
	}
	d.stack.Push("in flight fence", func() { d.device.DestroyFence(d.inFlight, nil) })
	return nil
}

// WriteTransform waits until the GPU has finished the previous frame, then
// overwrites the whole constant buffer with m.
func (d *Device) WriteTransform(m mgl32.Mat4) error {
	if d.uniformPtr == nil {
		return errors.New("constant buffer is not mapped")
	}
	fences := []vks.Fence{d.inFlight}
	if result := d.device.WaitForFences(1, fences, vks.VK_TRUE, waitForever); result.IsError() {
		return errors.Wrap(result.AsErr(), "wait for previous frame")
	}
	*(*mgl32.Mat4)(d.uniformPtr) = m
	return nil
}

// BeginFrame acquires the next swapchain image and starts a render pass
// that clears it to clear. While the window has no area it waits for a
// window event and returns frame.ErrSkipFrame. An out of date swapchain
// is rebuilt before drawing.
func (d *Device) BeginFrame(clear mgl32.Vec4) error {
	if d.recording {
		return errors.New("frame already begun")
	}
	if !hasArea(d.window.GetFramebufferSize()) {
		glfw.WaitEvents()
		return errors.Wrap(frame.ErrSkipFrame, "window has no area")
	}
	if d.chainStale {
		if err := d.recreateSwapchain(); err != nil {
			return err
		}
	}

	result := d.device.AcquireNextImageKHR(
		d.swapchain,
		waitForever,
		d.imageAvailable,
		vks.NullFence,
		&d.imageIndex,
	)
	switch acquireAction(result) {
	case frameRecreate:
		if err := d.recreateSwapchain(); err != nil {
			return err
		}
		return errors.Wrap(frame.ErrSkipFrame, "swapchain out of date")
	case frameFail:
		return errors.Wrap(result.AsErr(), "acquire swapchain image")
	}

	if result := d.commandBuffer.ResetCommandBuffer(0); result.IsError() {
		return errors.Wrap(result.AsErr(), "reset command buffer")
	}
	if result := d.beginCommands(d.commandBuffer); result.IsError() {
		return errors.Wrap(result.AsErr(), "begin command buffer")
	}

	clearValues := []vks.ClearValue{
		vks.MakeClearColorValueFloat32(clear[0], clear[1], clear[2], clear[3]).AsClearValue(),
	}
	renderArea := vks.Rect2D{}.WithExtent(d.swapchainExtent)
	renderPassBeginInfo := vks.RenderPassBeginInfo{}.
		WithDefaultSType().
		WithRenderPass(d.renderPass).
		WithFramebuffer(d.framebuffers[d.imageIndex]).
		WithRenderArea(renderArea).
		WithPClearValues(clearValues).
		AsCPtr()
	defer renderPassBeginInfo.Free()
	d.commandBuffer.CmdBeginRenderPass(renderPassBeginInfo, vks.VK_SUBPASS_CONTENTS_INLINE)

	// The viewport covers the whole image, so a resized window stretches
	// the cube rather than changing the projection.
	viewports := []vks.Viewport{
		vks.Viewport{}.
			WithWidth(float32(d.swapchainExtent.Width())).
			WithHeight(float32(d.swapchainExtent.Height())).
			WithMaxDepth(1.0),
	}
	d.commandBuffer.CmdSetViewport(0, 1, viewports)
	d.commandBuffer.CmdSetScissor(0, 1, []vks.Rect2D{renderArea})

	d.recording = true
	return nil
}

// DrawIndexed binds the pipeline, the cube buffers and the constant buffer
// and records one indexed draw.
func (d *Device) DrawIndexed(indexCount, firstIndex uint32) error {
	if !d.recording {
		return errors.New("draw outside of a frame")
	}
	if uint64(firstIndex)+uint64(indexCount) > geometry.IndexCount {
		return errors.Errorf("draw of %d indices from %d exceeds the %d in the index buffer",
			indexCount, firstIndex, geometry.IndexCount)
	}
	cb := d.commandBuffer
	cb.CmdBindPipeline(vks.VK_PIPELINE_BIND_POINT_GRAPHICS, d.pipeline)
	cb.CmdBindVertexBuffers(0, 1, []vks.Buffer{d.vertexBuffer.buffer}, []vks.DeviceSize{0})
	cb.CmdBindIndexBuffer(d.indexBuffer.buffer, 0, vks.VK_INDEX_TYPE_UINT16)
	cb.CmdBindDescriptorSets(vks.VK_PIPELINE_BIND_POINT_GRAPHICS, d.pipelineLayout,
		0, 1, []vks.DescriptorSet{d.descriptorSet}, 0, nil)
	cb.CmdDrawIndexed(indexCount, 1, firstIndex, 0, 0)
	return nil
}

// Present ends the frame, submits it and queues the image for display. With
// a FIFO swapchain this blocks until a vertical blank frees an image. A
// suboptimal or out of date swapchain is marked for rebuild on the next
// BeginFrame.
func (d *Device) Present() error {
	if !d.recording {
		return errors.New("present outside of a frame")
	}
	d.recording = false

	d.commandBuffer.CmdEndRenderPass()
	if result := d.commandBuffer.EndCommandBuffer(); result.IsError() {
		return errors.Wrap(result.AsErr(), "end command buffer")
	}

	waitSemaphores := []vks.Semaphore{d.imageAvailable}
	signalSemaphores := []vks.Semaphore{d.renderFinished[d.imageIndex]}
	waitStages := []vks.PipelineStageFlags{
		vks.PipelineStageFlags(vks.VK_PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT),
	}
	cmdBuffers := []vks.CommandBuffer{d.commandBuffer.H}
	submitInfos := vks.SubmitInfoMakeCSlice(
		vks.SubmitInfo{}.
			WithDefaultSType().
			WithPWaitSemaphores(waitSemaphores).
			WithPWaitDstStageMask(waitStages).
			WithPCommandBuffers(cmdBuffers).
			WithPSignalSemaphores(signalSemaphores),
	)
	defer vks.SubmitInfoFreeCSlice(submitInfos)

	fences := []vks.Fence{d.inFlight}
	d.device.ResetFences(1, fences)
	if result := d.graphicQueue.QueueSubmit(1, submitInfos, d.inFlight); result.IsError() {
		return errors.Wrap(result.AsErr(), "submit frame")
	}

	swapchains := []vks.SwapchainKHR{d.swapchain}
	imageIndices := []uint32{d.imageIndex}
	presentInfo := vks.PresentInfoKHR{}.
		WithDefaultSType().
		WithPWaitSemaphores(signalSemaphores).
		WithPSwapchains(swapchains).
		WithPImageIndices(imageIndices).
		AsCPtr()
	defer presentInfo.Free()

	result := d.presentQueue.QueuePresentKHR(presentInfo)
	switch presentAction(result) {
	case frameRecreate:
		d.chainStale = true
	case frameFail:
		return errors.Wrap(result.AsErr(), "present")
	}
	return nil
}
