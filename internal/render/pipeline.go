package render

import (
	"github.com/ibd1279/vks"

	"github.com/ibd1279/vks-examples/rotating-cube/internal/geometry"
)

// createDescriptors exposes the constant buffer to the vertex shader at
// set 0, binding 0.
func (d *Device) createDescriptors() error {
	bindings := vks.DescriptorSetLayoutBindingMakeCSlice(
		vks.DescriptorSetLayoutBinding{}.
			WithBinding(0).
			WithDescriptorType(vks.VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER).
			WithDescriptorCount(1).
			WithStageFlags(vks.ShaderStageFlags(vks.VK_SHADER_STAGE_VERTEX_BIT)),
	)
	defer vks.DescriptorSetLayoutBindingFreeCSlice(bindings)
	layoutInfo := vks.DescriptorSetLayoutCreateInfo{}.
		WithDefaultSType().
		WithPBindings(bindings).
		AsCPtr()
	defer layoutInfo.Free()
	if result := d.device.CreateDescriptorSetLayout(layoutInfo, nil, &d.descriptorSetLayout); result.IsError() {
		return failResult(ResourceAllocation, "create descriptor set layout", result)
	}
	d.stack.Push("descriptor set layout", func() {
		d.device.DestroyDescriptorSetLayout(d.descriptorSetLayout, nil)
	})

	// The field is called type in C, which vks renames to Type_.
	poolSizes := vks.DescriptorPoolSizeMakeCSlice(
		vks.DescriptorPoolSize{}.
			WithType_(vks.VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER).
			WithDescriptorCount(1),
	)
	defer vks.DescriptorPoolSizeFreeCSlice(poolSizes)
	poolInfo := vks.DescriptorPoolCreateInfo{}.
		WithDefaultSType().
		WithPPoolSizes(poolSizes).
		WithMaxSets(1).
		AsCPtr()
	defer poolInfo.Free()
	if result := d.device.CreateDescriptorPool(poolInfo, nil, &d.descriptorPool); result.IsError() {
		return failResult(ResourceAllocation, "create descriptor pool", result)
	}
	d.stack.Push("descriptor pool", func() { d.device.DestroyDescriptorPool(d.descriptorPool, nil) })

	setLayouts := []vks.DescriptorSetLayout{d.descriptorSetLayout}
	allocInfo := vks.DescriptorSetAllocateInfo{}.
		WithDefaultSType().
		WithDescriptorPool(d.descriptorPool).
		WithPSetLayouts(setLayouts).
		AsCPtr()
	defer allocInfo.Free()
	sets := make([]vks.DescriptorSet, 1)
	if result := d.device.AllocateDescriptorSets(allocInfo, sets); result.IsError() {
		return failResult(ResourceAllocation, "allocate descriptor set", result)
	}
	d.descriptorSet = sets[0]

	bufferInfos := vks.DescriptorBufferInfoMakeCSlice(
		vks.DescriptorBufferInfo{}.
			WithBuffer(d.uniformBuffer.buffer).
			WithOffset(0).
			WithRange_(vks.DeviceSize(uniformSize)),
	)
	defer vks.DescriptorBufferInfoFreeCSlice(bufferInfos)
	writes := vks.WriteDescriptorSetMakeCSlice(
		vks.WriteDescriptorSet{}.
			WithDefaultSType().
			WithDstSet(d.descriptorSet).
			WithDstBinding(0).
			WithDescriptorType(vks.VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER).
			WithPBufferInfo(bufferInfos),
	)
	defer vks.WriteDescriptorSetFreeCSlice(writes)
	d.device.UpdateDescriptorSets(uint32(len(writes)), writes, 0, nil)
	return nil
}

// createShaderModules builds both stages from the embedded SPIR-V unless
// the config names files to use instead. The modules live as long as the
// device.
func (d *Device) createShaderModules() error {
	newModule := func(stage, path string, code []byte) (vks.ShaderModule, error) {
		words, err := loadShader(stage, path, code)
		if err != nil {
			return vks.NullShaderModule, err
		}
		createInfo := vks.ShaderModuleCreateInfo{}.
			WithDefaultSType().
			WithCodeSize(words.Sizeof()).
			WithPCode(words).
			AsCPtr()
		defer createInfo.Free()
		var module vks.ShaderModule
		if result := d.device.CreateShaderModule(createInfo, nil, &module); result.IsError() {
			return vks.NullShaderModule, failResult(ShaderCompilation, "create "+stage+" shader module", result)
		}
		return module, nil
	}

	var err error
	if d.vertModule, err = newModule("vertex", d.cfg.VertexShaderPath, d.cfg.VertexShader); err != nil {
		return err
	}
	d.stack.Push(ResourceVertexShader, func() { d.device.DestroyShaderModule(d.vertModule, nil) })

	if d.fragModule, err = newModule("fragment", d.cfg.FragmentShaderPath, d.cfg.FragmentShader); err != nil {
		return err
	}
	d.stack.Push(ResourcePixelShader, func() { d.device.DestroyShaderModule(d.fragModule, nil) })
	return nil
}

// createPipeline links the shaders, the single position attribute and the
// constant buffer layout into one graphics pipeline. Viewport and scissor
// are dynamic so the pipeline outlives swapchain rebuilds.
func (d *Device) createPipeline() error {
	setLayouts := []vks.DescriptorSetLayout{d.descriptorSetLayout}
	layoutInfo := vks.PipelineLayoutCreateInfo{}.
		WithDefaultSType().
		WithPSetLayouts(setLayouts).
		AsCPtr()
	defer layoutInfo.Free()
	if result := d.device.CreatePipelineLayout(layoutInfo, nil, &d.pipelineLayout); result.IsError() {
		return failResult(ResourceAllocation, "create pipeline layout", result)
	}
	d.stack.Push(ResourceInputLayout, func() { d.device.DestroyPipelineLayout(d.pipelineLayout, nil) })

	name := vks.NewCString(d.cfg.ShaderEntry)
	defer vks.FreeCString(name)
	stages := vks.PipelineShaderStageCreateInfoMakeCSlice(
		vks.PipelineShaderStageCreateInfo{}.
			WithDefaultSType().
			WithStage(vks.VK_SHADER_STAGE_VERTEX_BIT).
			WithModule(d.vertModule).
			WithPName(name),
		vks.PipelineShaderStageCreateInfo{}.
			WithDefaultSType().
			WithStage(vks.VK_SHADER_STAGE_FRAGMENT_BIT).
			WithModule(d.fragModule).
			WithPName(name),
	)
	defer vks.PipelineShaderStageCreateInfoFreeCSlice(stages)

	vertexBindings := vks.VertexInputBindingDescriptionMakeCSlice(
		vks.VertexInputBindingDescription{}.
			WithBinding(0).
			WithStride(geometry.VertexStride).
			WithInputRate(vks.VK_VERTEX_INPUT_RATE_VERTEX),
	)
	defer vks.VertexInputBindingDescriptionFreeCSlice(vertexBindings)
	vertexAttributes := vks.VertexInputAttributeDescriptionMakeCSlice(
		vks.VertexInputAttributeDescription{}.
			WithLocation(0).
			WithBinding(0).
			WithFormat(vks.VK_FORMAT_R32G32B32_SFLOAT).
			WithOffset(0),
	)
	defer vks.VertexInputAttributeDescriptionFreeCSlice(vertexAttributes)
	vertexInputState := vks.PipelineVertexInputStateCreateInfo{}.
		WithDefaultSType().
		WithPVertexBindingDescriptions(vertexBindings).
		WithPVertexAttributeDescriptions(vertexAttributes).
		AsCPtr()
	defer vertexInputState.Free()

	inputAssemblyState := vks.PipelineInputAssemblyStateCreateInfo{}.
		WithDefaultSType().
		WithTopology(vks.VK_PRIMITIVE_TOPOLOGY_TRIANGLE_LIST).
		WithPrimitiveRestartEnable(vks.VK_FALSE).
		AsCPtr()
	defer inputAssemblyState.Free()

	viewportState := vks.PipelineViewportStateCreateInfo{}.
		WithDefaultSType().
		WithViewportCount(1).
		WithScissorCount(1).
		AsCPtr()
	defer viewportState.Free()

	dynamicStates := []vks.DynamicState{
		vks.VK_DYNAMIC_STATE_VIEWPORT,
		vks.VK_DYNAMIC_STATE_SCISSOR,
	}
	dynamicState := vks.PipelineDynamicStateCreateInfo{}.
		WithDefaultSType().
		WithPDynamicStates(dynamicStates).
		AsCPtr()
	defer dynamicState.Free()

	// The cube's triangles wind counter-clockwise seen from outside once
	// the clip correction has flipped Y.
	rasterizationState := vks.PipelineRasterizationStateCreateInfo{}.
		WithDefaultSType().
		WithDepthClampEnable(vks.VK_FALSE).
		WithRasterizerDiscardEnable(vks.VK_FALSE).
		WithPolygonMode(vks.VK_POLYGON_MODE_FILL).
		WithLineWidth(1.0).
		WithCullMode(vks.CullModeFlags(vks.VK_CULL_MODE_BACK_BIT)).
		WithFrontFace(vks.VK_FRONT_FACE_COUNTER_CLOCKWISE).
		WithDepthBiasEnable(vks.VK_FALSE).
		AsCPtr()
	defer rasterizationState.Free()

	multisampleState := vks.PipelineMultisampleStateCreateInfo{}.
		WithDefaultSType().
		WithSampleShadingEnable(vks.VK_FALSE).
		WithRasterizationSamples(vks.VK_SAMPLE_COUNT_1_BIT).
		AsCPtr()
	defer multisampleState.Free()

	colorBlendAttachmentState := vks.PipelineColorBlendAttachmentStateMakeCSlice(
		vks.PipelineColorBlendAttachmentState{}.
			WithColorWriteMask(vks.ColorComponentFlags(vks.VK_COLOR_COMPONENT_R_BIT|vks.VK_COLOR_COMPONENT_G_BIT|vks.VK_COLOR_COMPONENT_B_BIT|vks.VK_COLOR_COMPONENT_A_BIT)).
			WithBlendEnable(vks.VK_FALSE),
	)
	defer vks.PipelineColorBlendAttachmentStateFreeCSlice(colorBlendAttachmentState)
	colorBlendState := vks.PipelineColorBlendStateCreateInfo{}.
		WithDefaultSType().
		WithLogicOpEnable(vks.VK_FALSE).
		WithLogicOp(vks.VK_LOGIC_OP_COPY).
		WithPAttachments(colorBlendAttachmentState).
		AsCPtr()
	defer colorBlendState.Free()

	pipelineCreateInfos := vks.GraphicsPipelineCreateInfoMakeCSlice(
		vks.GraphicsPipelineCreateInfo{}.
			WithDefaultSType().
			WithPStages(stages).
			WithPVertexInputState(vertexInputState).
			WithPInputAssemblyState(inputAssemblyState).
			WithPViewportState(viewportState).
			WithPRasterizationState(rasterizationState).
			WithPMultisampleState(multisampleState).
			WithPColorBlendState(colorBlendState).
			WithPDynamicState(dynamicState).
			WithLayout(d.pipelineLayout).
			WithRenderPass(d.renderPass),
	)
	defer vks.GraphicsPipelineCreateInfoFreeCSlice(pipelineCreateInfos)

	pipelines := make([]vks.Pipeline, len(pipelineCreateInfos))
	result := d.device.CreateGraphicsPipelines(
		vks.NullPipelineCache,
		uint32(len(pipelineCreateInfos)),
		pipelineCreateInfos,
		nil,
		pipelines)
	if result.IsError() {
		return failResult(ShaderCompilation, "create graphics pipeline", result)
	}
	d.pipeline = pipelines[0]
	d.stack.Push("pipeline", func() { d.device.DestroyPipeline(d.pipeline, nil) })
	return nil
}
