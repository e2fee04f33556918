package tracker

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grindsens/repcoach/internal/detector"
)

// anglePose returns a standing pose with the angle a-b-c set to deg.
func anglePose(a, b, c int, deg float64) detector.Pose {
	rad := deg * math.Pi / 180
	p := detector.StandingPose()
	p[b] = detector.Visible(0.5, 0.5, 0, 0.99)
	p[a] = detector.Visible(0.7, 0.5, 0, 0.99)
	p[c] = detector.Visible(0.5+0.2*math.Cos(rad), 0.5+0.2*math.Sin(rad), 0, 0.99)
	return p
}

func curlAt(deg float64) detector.Pose {
	return anglePose(detector.LeftShoulder, detector.LeftElbow, detector.LeftWrist, deg)
}

func squatAt(deg float64) detector.Pose {
	return anglePose(detector.LeftHip, detector.LeftKnee, detector.LeftAnkle, deg)
}

// handsPose places the nose at y=0.3 and both index fingers at the given heights.
func handsPose(rightY, leftY float64) detector.Pose {
	p := detector.StandingPose()
	p[detector.Nose] = detector.Visible(0.5, 0.3, 0, 0.99)
	p[detector.RightIndex] = detector.Visible(0.4, rightY, 0, 0.99)
	p[detector.LeftIndex] = detector.Visible(0.6, leftY, 0, 0.99)
	return p
}

// run feeds frames through tr starting from stage and returns the final stage
// and the number of completed reps.
func run(tr Tracker, stage Stage, frames ...detector.Pose) (Stage, int) {
	reps := 0
	for _, f := range frames {
		r := tr.Classify(f, stage)
		stage = r.Stage
		if r.RepCompleted {
			reps++
		}
	}
	return stage, reps
}

func TestAngle(t *testing.T) {
	pt := func(x, y float64) detector.Landmark { return detector.Landmark{X: x, Y: y} }

	tests := []struct {
		name    string
		a, b, c detector.Landmark
		want    float64
	}{
		{"right angle", pt(1, 0), pt(0, 0), pt(0, 1), 90},
		{"straight line", pt(-1, 0), pt(0, 0), pt(1, 0), 180},
		{"same ray", pt(1, 0), pt(0, 0), pt(2, 0), 0},
		{"reflected above 180", pt(math.Cos(170*math.Pi/180), math.Sin(170*math.Pi/180)), pt(0, 0), pt(math.Cos(-170*math.Pi/180), math.Sin(-170*math.Pi/180)), 20},
		{"order independent", pt(0, 1), pt(0, 0), pt(1, 0), 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Angle(tt.a, tt.b, tt.c), 1e-9)
		})
	}

	t.Run("coincident points do not panic", func(t *testing.T) {
		got := Angle(pt(0.5, 0.5), pt(0.5, 0.5), pt(0.5, 0.5))
		assert.False(t, math.IsNaN(got))
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 180.0)
	})

	t.Run("range is 0 to 180", func(t *testing.T) {
		for deg := -360.0; deg <= 360; deg += 7.5 {
			got := Angle(pt(1, 0), pt(0, 0), pt(math.Cos(deg*math.Pi/180), math.Sin(deg*math.Pi/180)))
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 180.0+1e-9)
		}
	})
}

func TestValidator(t *testing.T) {
	v := Validator{MinVisibility: DefaultMinVisibility}
	joints := []int{detector.LeftShoulder, detector.LeftElbow, detector.LeftWrist}

	t.Run("all present and confident", func(t *testing.T) {
		assert.True(t, v.Valid(detector.StandingPose(), joints...))
	})

	t.Run("missing joint", func(t *testing.T) {
		assert.False(t, v.Valid(detector.StandingPose().Without(detector.LeftElbow), joints...))
	})

	t.Run("pose too short", func(t *testing.T) {
		assert.False(t, v.Valid(detector.StandingPose()[:12], joints...))
	})

	t.Run("visibility at threshold is rejected", func(t *testing.T) {
		p := detector.StandingPose()
		p[detector.LeftWrist] = detector.Visible(0.6, 0.6, 0, 0.5)
		assert.False(t, v.Valid(p, joints...))
	})

	t.Run("no visibility score is accepted", func(t *testing.T) {
		p := detector.StandingPose()
		p[detector.LeftWrist] = detector.Landmark{X: 0.6, Y: 0.6}
		assert.True(t, v.Valid(p, joints...))
	})

	t.Run("nan visibility is rejected", func(t *testing.T) {
		p := detector.StandingPose()
		p[detector.LeftWrist] = detector.Visible(0.6, 0.6, 0, math.NaN())
		assert.False(t, v.Valid(p, joints...))
	})
}

func TestCurl(t *testing.T) {
	curl := Curl(DefaultThresholds())

	t.Run("extend then curl counts one rep", func(t *testing.T) {
		stage := StageNone
		var results []Result
		for _, deg := range []float64{170, 170, 20} {
			r := curl.Classify(curlAt(deg), stage)
			results = append(results, r)
			stage = r.Stage
		}

		assert.Equal(t, StageDown, results[0].Stage)
		assert.False(t, results[1].RepCompleted)
		assert.Equal(t, StageUp, results[2].Stage)
		assert.True(t, results[2].RepCompleted)

		back := curl.Classify(curlAt(170), stage)
		assert.Equal(t, StageDown, back.Stage)
		assert.False(t, back.RepCompleted)
	})

	t.Run("dead zone frames never double count", func(t *testing.T) {
		stage, reps := run(curl, StageNone,
			curlAt(170), curlAt(150), curlAt(90), curlAt(45), curlAt(30), curlAt(25), curlAt(60), curlAt(30), curlAt(20))
		assert.Equal(t, StageUp, stage)
		assert.Equal(t, 1, reps)
	})

	t.Run("constant input is idempotent", func(t *testing.T) {
		for _, deg := range []float64{20, 100, 170} {
			first := curl.Classify(curlAt(deg), StageDown)
			stage, reps := run(curl, first.Stage, curlAt(deg), curlAt(deg), curlAt(deg))
			assert.Equal(t, first.Stage, stage, "angle %v", deg)
			assert.Equal(t, 0, reps, "angle %v", deg)
		}
	})

	t.Run("curl without extending first does not count", func(t *testing.T) {
		stage, reps := run(curl, StageNone, curlAt(20), curlAt(20), curlAt(100))
		assert.Equal(t, StageNone, stage)
		assert.Equal(t, 0, reps)
	})

	t.Run("fixtures", func(t *testing.T) {
		_, reps := run(curl, StageNone,
			detector.StandingPose(), detector.CurlTopPose(), detector.StandingPose(), detector.CurlTopPose())
		assert.Equal(t, 2, reps)
	})
}

func TestRightCurl(t *testing.T) {
	tr := RightCurl(DefaultThresholds())

	_, reps := run(tr, StageNone, detector.StandingPose(), detector.CurlTopPose())
	assert.Equal(t, 1, reps)

	_, reps = run(tr, StageNone, detector.StandingPose().Without(detector.RightElbow), detector.CurlTopPose())
	assert.Equal(t, 0, reps)
}

func TestSquat(t *testing.T) {
	squat := Squat(DefaultThresholds())

	t.Run("stand then descend counts on the descent", func(t *testing.T) {
		r := squat.Classify(squatAt(170), StageNone)
		assert.Equal(t, StageUp, r.Stage)
		assert.False(t, r.RepCompleted)

		r = squat.Classify(squatAt(90), r.Stage)
		assert.Equal(t, StageDown, r.Stage)
		assert.True(t, r.RepCompleted)
	})

	t.Run("standing only counts nothing", func(t *testing.T) {
		stage, reps := run(squat, StageNone, squatAt(170), squatAt(170))
		assert.Equal(t, StageUp, stage)
		assert.Equal(t, 0, reps)
	})

	t.Run("partial squat stays in dead zone", func(t *testing.T) {
		_, reps := run(squat, StageNone, squatAt(170), squatAt(130), squatAt(110), squatAt(170))
		assert.Equal(t, 0, reps)
	})

	t.Run("fixtures", func(t *testing.T) {
		_, reps := run(squat, StageNone,
			detector.StandingPose(), detector.SquatBottomPose(), detector.StandingPose(), detector.SquatBottomPose())
		assert.Equal(t, 2, reps)
	})
}

func TestShoulderPress(t *testing.T) {
	press := ShoulderPress(DefaultThresholds())

	t.Run("both above then both below counts one rep", func(t *testing.T) {
		r := press.Classify(handsPose(0.1, 0.1), StageNone)
		assert.Equal(t, StageUp, r.Stage)

		r = press.Classify(handsPose(0.5, 0.5), r.Stage)
		assert.Equal(t, StageDown, r.Stage)
		assert.True(t, r.RepCompleted)
	})

	t.Run("one hand crossing alone does not count", func(t *testing.T) {
		stage, reps := run(press, StageNone,
			handsPose(0.1, 0.1), handsPose(0.5, 0.1), handsPose(0.5, 0.1), handsPose(0.1, 0.1))
		assert.Equal(t, StageUp, stage)
		assert.Equal(t, 0, reps)
	})

	t.Run("one hand first then the other", func(t *testing.T) {
		_, reps := run(press, StageNone, handsPose(0.1, 0.1), handsPose(0.5, 0.1), handsPose(0.5, 0.5))
		assert.Equal(t, 1, reps)
	})

	t.Run("hands starting low do not count", func(t *testing.T) {
		stage, reps := run(press, StageNone, handsPose(0.5, 0.5), handsPose(0.6, 0.6))
		assert.Equal(t, StageNone, stage)
		assert.Equal(t, 0, reps)
	})

	t.Run("fixtures", func(t *testing.T) {
		_, reps := run(press, StageNone,
			detector.StandingPose(), detector.PressTopPose(), detector.StandingPose(), detector.PressTopPose(), detector.StandingPose())
		assert.Equal(t, 2, reps)
	})
}

func TestLateralRaise(t *testing.T) {
	raise := LateralRaise(DefaultThresholds())

	stage, reps := run(raise, StageNone,
		detector.StandingPose(), detector.RaiseTopPose(), detector.RaiseTopPose(), detector.StandingPose(), detector.RaiseTopPose())
	assert.Equal(t, StageUp, stage)
	assert.Equal(t, 2, reps)
}

func TestBand_SkipsInvalidFrames(t *testing.T) {
	thresholds := DefaultThresholds()

	trackers := map[string]*Band{
		"curl":  Curl(thresholds),
		"squat": Squat(thresholds),
		"press": ShoulderPress(thresholds),
		"raise": LateralRaise(thresholds),
	}

	for name, tr := range trackers {
		t.Run(name, func(t *testing.T) {
			for _, joint := range tr.Joints() {
				for _, stage := range []Stage{StageNone, StageDown, StageUp} {
					r := tr.Classify(detector.StandingPose().Without(joint), stage)
					assert.True(t, r.Skipped)
					assert.False(t, r.RepCompleted)
					assert.Equal(t, stage, r.Stage)
				}
			}
		})
	}
}

func TestBand_JointsIsACopy(t *testing.T) {
	b := Curl(DefaultThresholds())
	joints := b.Joints()
	joints[0] = -1
	assert.Equal(t, detector.LeftShoulder, b.Required[0])
}

func TestThresholds_Validate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())

	tests := []struct {
		name   string
		mutate func(*Thresholds)
	}{
		{"curl band inverted", func(th *Thresholds) { th.CurlWork = 170 }},
		{"squat band collapsed", func(th *Thresholds) { th.SquatWork = th.SquatRest }},
		{"visibility out of range", func(th *Thresholds) { th.MinVisibility = 1.5 }},
		{"angle above 180", func(th *Thresholds) { th.CurlRest = 200 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DefaultThresholds()
			tt.mutate(&th)
			assert.Error(t, th.Validate())
		})
	}

	t.Run("custom thresholds move the band", func(t *testing.T) {
		th := DefaultThresholds()
		th.CurlWork = 10
		curl := Curl(th)
		_, reps := run(curl, StageNone, curlAt(170), curlAt(20))
		assert.Equal(t, 0, reps)
		_, reps = run(curl, StageNone, curlAt(170), curlAt(5))
		assert.Equal(t, 1, reps)
	})
}

func TestStage_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]Stage{"a": StageNone, "b": StageDown, "c": StageUp})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":null,"b":"down","c":"up"}`, string(data))

	var got map[string]Stage
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, StageNone, got["a"])
	assert.Equal(t, StageDown, got["b"])
	assert.Equal(t, StageUp, got["c"])

	var s Stage
	assert.Error(t, json.Unmarshal([]byte(`"sideways"`), &s))
}
