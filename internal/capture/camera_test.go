package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCamera(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantFPS int
	}{
		{"defaults", Options{}, DefaultFPS},
		{"device 1 at 30 fps", Options{DeviceID: 1, FPS: 30}, 30},
		{"negative fps falls back", Options{DeviceID: 2, FPS: -1}, DefaultFPS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(tt.opts)
			require.NotNil(t, cam)

			assert.Equal(t, tt.wantFPS, cam.FPS())
			assert.False(t, cam.IsOpen(), "camera should not be running initially")
		})
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(Options{})

	tests := []struct {
		name    string
		fps     int
		wantFPS int
	}{
		{"set to 10", 10, 10},
		{"set to 30", 30, 30},
		{"set to 1", 1, 1},
		{"set to 0 should keep previous", 0, 1},
		{"set to negative should keep previous", -5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam.SetFPS(tt.fps)
			assert.Equal(t, tt.wantFPS, cam.FPS())
		})
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(Options{})

	if err := cam.Open(); err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}
	assert.True(t, cam.IsOpen())

	mat, err := cam.ReadFrame()
	if assert.NoError(t, err) {
		assert.False(t, mat.Empty())
		if mat.Cols() != DefaultWidth || mat.Rows() != DefaultHeight {
			t.Logf("Frame dimensions: %dx%d (camera may not support %dx%d)", mat.Cols(), mat.Rows(), DefaultWidth, DefaultHeight)
		}
		mat.Close()
	}

	assert.NoError(t, cam.Close())
	assert.False(t, cam.IsOpen())
}

func TestCamera_ReadFrame_NotOpened(t *testing.T) {
	cam := NewCamera(Options{})

	_, err := cam.ReadFrame()
	assert.ErrorIs(t, err, ErrCameraNotOpen)
}

func TestCamera_Close_NotOpened(t *testing.T) {
	cam := NewCamera(Options{})
	assert.NoError(t, cam.Close())
}
