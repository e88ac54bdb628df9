// Package fingerprint synthesizes and validates multi-layer device
// fingerprints for synthetic browser profiles.
//
// Anti-bot systems correlate canvas/WebGL/audio rendering artifacts with
// the advertised hardware class (core count, memory, screen) and the TLS
// ClientHello shape. A profile whose hardware class changes while its
// name stays the same is a reliable automation indicator. The generator
// therefore keeps the hardware-class fields stable per profile name while
// letting the high-entropy digest fields carry realistic per-session
// noise.
package fingerprint

// Fingerprint is the set of device characteristics presented by a profile.
// It is a value object: fixed at session creation and never regenerated.
type Fingerprint struct {
	CanvasHash          string `json:"canvas_hash"`
	WebGLHash           string `json:"webgl_hash"`
	AudioHash           string `json:"audio_hash"`
	HardwareConcurrency int    `json:"hardware_concurrency"`
	DeviceMemory        int    `json:"device_memory"`
	TLSFingerprint      string `json:"tls_fingerprint"`
	BatteryLevel        int    `json:"battery_level"`
	ViewportWidth       int    `json:"viewport_width"`
	ViewportHeight      int    `json:"viewport_height"`
}

// Equal reports whether every field of other matches f exactly.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f == other
}
