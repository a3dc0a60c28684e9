package ports

import "time"

// LogoRef identifies the loaded 3D logo object.
type LogoRef interface {
	Name() string
}

// SceneBridge is the contract the core uses to drive the 3D layer.
// It is implemented by the rendering component; every method must be callable
// before the scene is ready, in which case it returns a nil Handle.
type SceneBridge interface {
	IsReady() bool
	LogoHandle() (LogoRef, bool)

	AnimateLogoOpen(onDone func()) Handle
	AnimateLogoClose(onDone func()) Handle
	AnimateLogoPageLeave() Handle
	AnimateLogoPageEnter() Handle

	// SetDistortion tweens the post-processing distortion amount.
	SetDistortion(amount float64, d time.Duration) Handle
	ResetToInitialPose()
}
