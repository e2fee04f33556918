package detector

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLandmark_Finite(t *testing.T) {
	tests := []struct {
		name string
		l    Landmark
		want bool
	}{
		{"ordinary", Visible(0.1, 0.2, 0.3, 0.9), true},
		{"missing", Missing(), false},
		{"infinite x", Landmark{X: math.Inf(1)}, false},
		{"nan z", Landmark{Z: math.NaN()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.l.Finite())
		})
	}
}

func TestPose_JSON(t *testing.T) {
	t.Run("null decodes as missing joint", func(t *testing.T) {
		var p Pose
		err := json.Unmarshal([]byte(`[{"x":0.5,"y":0.25,"z":0,"visibility":0.9},null,{"x":1,"y":1,"z":1}]`), &p)
		require.NoError(t, err)
		require.Len(t, p, 3)

		assert.True(t, p.Has(0))
		assert.False(t, p.Has(1))
		assert.True(t, p.Has(2))
		require.NotNil(t, p[0].Visibility)
		assert.InDelta(t, 0.9, *p[0].Visibility, 1e-9)
		assert.Nil(t, p[2].Visibility)
	})

	t.Run("missing joint encodes as null", func(t *testing.T) {
		p := Pose{Visible(0.5, 0.5, 0, 0.8), Missing()}
		data, err := json.Marshal(p)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"x":0.5,"y":0.5,"z":0,"visibility":0.8},null]`, string(data))
	})

	t.Run("malformed landmark", func(t *testing.T) {
		var p Pose
		err := json.Unmarshal([]byte(`[{"x":"left"}]`), &p)
		assert.Error(t, err)
	})
}

func TestPose_Has(t *testing.T) {
	p := StandingPose()

	assert.True(t, p.Has(Nose))
	assert.True(t, p.Has(RightFootIndex))
	assert.False(t, p.Has(-1))
	assert.False(t, p.Has(NumLandmarks))
	assert.False(t, Pose{}.Has(Nose))
}

func TestPose_CloneAndWithout(t *testing.T) {
	p := StandingPose()

	clone := p.Clone()
	*clone[LeftElbow].Visibility = 0.1
	clone[LeftElbow].X = 0

	assert.InDelta(t, 0.99, *p[LeftElbow].Visibility, 1e-9, "clone must not share visibility")
	assert.InDelta(t, 0.62, p[LeftElbow].X, 1e-9)

	without := p.Without(LeftElbow, 99)
	assert.False(t, without.Has(LeftElbow))
	assert.True(t, p.Has(LeftElbow), "original must be untouched")
	assert.Len(t, without, NumLandmarks)

	assert.Nil(t, Pose(nil).Clone())
}

func TestFixtures_AreComplete(t *testing.T) {
	fixtures := map[string]Pose{
		"standing":     StandingPose(),
		"curl top":     CurlTopPose(),
		"squat bottom": SquatBottomPose(),
		"press top":    PressTopPose(),
		"raise top":    RaiseTopPose(),
	}

	for name, p := range fixtures {
		t.Run(name, func(t *testing.T) {
			require.Len(t, p, NumLandmarks)
			for i := range p {
				assert.True(t, p.Has(i), "joint %d missing", i)
			}
		})
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns configured poses", func(t *testing.T) {
		m := NewMockDetector()
		m.SetPoses([]Pose{StandingPose()})

		poses, err := m.Detect(nil)
		require.NoError(t, err)
		require.Len(t, poses, 1)
		assert.Equal(t, 1, m.Calls())
	})

	t.Run("queued frames come back in order then repeat", func(t *testing.T) {
		m := NewMockDetector()
		m.Enqueue(StandingPose(), CurlTopPose())

		first, _ := m.Detect(nil)
		second, _ := m.Detect(nil)
		third, _ := m.Detect(nil)

		assert.Equal(t, StandingPose()[LeftWrist].Y, first[0][LeftWrist].Y)
		assert.Equal(t, CurlTopPose()[LeftWrist].Y, second[0][LeftWrist].Y)
		assert.Equal(t, second[0][LeftWrist].Y, third[0][LeftWrist].Y)
	})

	t.Run("error is returned", func(t *testing.T) {
		m := NewMockDetector()
		want := errors.New("camera unplugged")
		m.SetError(want)

		poses, err := m.Detect(nil)
		assert.ErrorIs(t, err, want)
		assert.Nil(t, poses)
	})

	t.Run("close is a no-op", func(t *testing.T) {
		assert.NoError(t, NewMockDetector().Close())
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.MaxPoses)
	assert.InDelta(t, 0.5, cfg.MinConfidence, 1e-9)
	assert.InDelta(t, 0.5, cfg.MinTrackingConf, 1e-9)
	assert.Equal(t, 30, cfg.IdleTimeoutSec)
}
