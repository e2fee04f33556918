package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// Queued poses are returned one per Detect call; once the queue is
// drained the last configured poses are repeated.
type MockDetector struct {
	mu    sync.Mutex
	queue [][]Pose
	poses []Pose
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPoses sets the poses returned by every subsequent Detect call.
func (m *MockDetector) SetPoses(poses []Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poses = poses
	m.queue = nil
}

// Enqueue appends single-pose frames that are returned in order.
func (m *MockDetector) Enqueue(frames ...Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range frames {
		m.queue = append(m.queue, []Pose{p})
	}
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next queued frame, the configured poses, or the configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		m.poses = next
		return next, nil
	}
	return m.poses, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// StandingPose returns a full-confidence pose of a person standing upright
// with arms hanging straight and hands below the face.
func StandingPose() Pose {
	p := make(Pose, NumLandmarks)
	for i := range p {
		p[i] = Visible(0.5, 0.5, 0, 0.99)
	}

	p[Nose] = Visible(0.50, 0.15, 0, 0.99)
	p[LeftShoulder] = Visible(0.60, 0.30, 0, 0.99)
	p[RightShoulder] = Visible(0.40, 0.30, 0, 0.99)
	p[LeftElbow] = Visible(0.62, 0.45, 0, 0.99)
	p[RightElbow] = Visible(0.38, 0.45, 0, 0.99)
	p[LeftWrist] = Visible(0.64, 0.60, 0, 0.99)
	p[RightWrist] = Visible(0.36, 0.60, 0, 0.99)
	p[LeftIndex] = Visible(0.64, 0.64, 0, 0.99)
	p[RightIndex] = Visible(0.36, 0.64, 0, 0.99)
	p[LeftHip] = Visible(0.56, 0.60, 0, 0.99)
	p[RightHip] = Visible(0.44, 0.60, 0, 0.99)
	p[LeftKnee] = Visible(0.56, 0.78, 0, 0.99)
	p[RightKnee] = Visible(0.44, 0.78, 0, 0.99)
	p[LeftAnkle] = Visible(0.56, 0.96, 0, 0.99)
	p[RightAnkle] = Visible(0.44, 0.96, 0, 0.99)

	return p
}

// CurlTopPose returns a standing pose with both forearms curled up toward the shoulders.
func CurlTopPose() Pose {
	p := StandingPose()
	p[LeftWrist] = Visible(0.61, 0.33, 0, 0.99)
	p[RightWrist] = Visible(0.39, 0.33, 0, 0.99)
	p[LeftIndex] = Visible(0.61, 0.31, 0, 0.99)
	p[RightIndex] = Visible(0.39, 0.31, 0, 0.99)
	return p
}

// SquatBottomPose returns a pose at the bottom of a squat with the knees bent
// to roughly a right angle.
func SquatBottomPose() Pose {
	p := StandingPose()
	p[LeftHip] = Visible(0.40, 0.78, 0, 0.99)
	p[RightHip] = Visible(0.30, 0.78, 0, 0.99)
	p[LeftKnee] = Visible(0.56, 0.78, 0, 0.99)
	p[RightKnee] = Visible(0.44, 0.78, 0, 0.99)
	return p
}

// PressTopPose returns a pose with both hands locked out overhead.
func PressTopPose() Pose {
	p := StandingPose()
	p[LeftElbow] = Visible(0.66, 0.20, 0, 0.99)
	p[RightElbow] = Visible(0.34, 0.20, 0, 0.99)
	p[LeftWrist] = Visible(0.64, 0.06, 0, 0.99)
	p[RightWrist] = Visible(0.36, 0.06, 0, 0.99)
	p[LeftIndex] = Visible(0.64, 0.03, 0, 0.99)
	p[RightIndex] = Visible(0.36, 0.03, 0, 0.99)
	return p
}

// RaiseTopPose returns a pose with both arms raised out to the sides above shoulder height.
func RaiseTopPose() Pose {
	p := StandingPose()
	p[LeftWrist] = Visible(0.90, 0.26, 0, 0.99)
	p[RightWrist] = Visible(0.10, 0.26, 0, 0.99)
	p[LeftIndex] = Visible(0.94, 0.25, 0, 0.99)
	p[RightIndex] = Visible(0.06, 0.25, 0, 0.99)
	return p
}
