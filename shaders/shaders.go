// Package shaders holds the cube's GLSL sources and the SPIR-V compiled
// from them. The binaries are embedded so the application runs from any
// directory; regenerate them after editing the sources with go generate.
package shaders

import _ "embed"

//go:generate glslc -fshader-stage=vert -o cube.vert.spv cube.vert
//go:generate glslc -fshader-stage=frag -o cube.frag.spv cube.frag

// Vertex transforms each position by the wvp matrix at set 0, binding 0.
//
//go:embed cube.vert.spv
var Vertex []byte

// Fragment writes a constant orange.
//
//go:embed cube.frag.spv
var Fragment []byte

// Entry is the entry point name of both modules.
const Entry = "main"
