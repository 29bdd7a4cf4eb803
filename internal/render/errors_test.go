package render

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("boom")
	err := fail(ShaderCompilation, "create shader module", cause)

	assert.True(t, IsKind(err, ShaderCompilation))
	assert.False(t, IsKind(err, DeviceCreation))
	assert.False(t, IsKind(cause, ShaderCompilation))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "shader compilation failure: create shader module: boom", err.Error())

	wrapped := errors.Wrap(err, "startup")
	assert.True(t, IsKind(wrapped, ShaderCompilation))
}

func TestErrorFormat(t *testing.T) {
	err := failf(ResourceAllocation, "allocate memory", "no memory type")
	assert.Equal(t, "resource allocation failure: allocate memory: no memory type", fmt.Sprintf("%v", err))
	assert.Equal(t, fmt.Sprintf("%q", err.Error()), fmt.Sprintf("%q", err))

	verbose := fmt.Sprintf("%+v", err)
	assert.Contains(t, verbose, "resource allocation failure: allocate memory: no memory type")
	assert.Contains(t, verbose, "errors_test.go", "stack trace expected")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "device creation failure", DeviceCreation.String())
	assert.Equal(t, "shader compilation failure", ShaderCompilation.String())
	assert.Equal(t, "resource allocation failure", ResourceAllocation.String())
	assert.Equal(t, "Kind(0)", Kind(0).String())
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 600, cfg.Height)
	assert.Equal(t, "main", cfg.ShaderEntry)

	bad := cfg
	bad.Height = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.FragmentShader = nil
	bad.FragmentShaderPath = ""
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.VertexShader = nil
	bad.VertexShaderPath = "cube.vert.spv"
	assert.NoError(t, bad.Validate(), "a path stands in for missing code")

	bad = cfg
	bad.ShaderEntry = ""
	assert.Error(t, bad.Validate())
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = -1
	d, err := New(nil, cfg)
	assert.Nil(t, d)
	assert.True(t, IsKind(err, DeviceCreation))
}

func TestLoadSPIRVMissingFile(t *testing.T) {
	_, err := LoadSPIRV(filepath.Join(t.TempDir(), "missing.spv"))
	require.Error(t, err)
	assert.True(t, IsKind(err, ShaderCompilation))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
