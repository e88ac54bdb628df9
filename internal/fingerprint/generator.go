package fingerprint

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrEmptyProfileName is returned when Generate is called without a name.
var ErrEmptyProfileName = errors.New("empty profile name")

// viewportPreset is a plausible desktop screen resolution.
type viewportPreset struct {
	width  int
	height int
}

var viewportPresets = []viewportPreset{
	{1920, 1080},
	{2560, 1440},
	{1366, 768},
	{1536, 864},
	{1680, 1050},
	{1440, 900},
}

var concurrencyPresets = []int{2, 4, 6, 8, 12, 16}

var memoryPresets = []int{4, 8, 16, 32}

// tlsPresets are JA3-style ClientHello descriptors for recent browser
// builds: TLS version, cipher suites, extensions, curves, point formats.
var tlsPresets = []string{
	"771,4865-4866-4867-49195-49199-49196-49200-52393-52392,0-23-65281-10-11-35-16-5-13-18-51-45-43-27-17513,29-23-24,0",
	"771,4865-4866-4867-49195-49199-49196-49200-52393-52392-49171-49172,0-23-65281-10-11-35-16-5-13-18-51-45-43-27,29-23-24-25,0",
	"771,4865-4867-4866-49195-49199-52393-52392-49196-49200,0-23-65281-10-11-35-16-5-34-51-43-13-45-28,29-23-24-25-256-257,0",
	"771,4865-4866-4867-49196-49200-49195-49199-52393-52392,0-10-11-13-16-18-23-27-35-43-45-51-65281,29-23-24,0",
}

// Generator synthesizes fingerprints. The zero value is ready to use.
type Generator struct{}

// NewGenerator returns a Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate builds a fully populated fingerprint for the named profile.
//
// Hardware-class fields (core count, memory, viewport, TLS shape) are
// derived from a digest of the profile name, so the same name always maps
// to the same device class. The canvas/WebGL/audio digests mix in fresh
// random noise per call, simulating the render-level jitter real browsers
// exhibit between sessions.
func (g *Generator) Generate(profileName string) (Fingerprint, error) {
	if profileName == "" {
		return Fingerprint{}, ErrEmptyProfileName
	}

	seed := sha256.Sum256([]byte(profileName))
	pick := func(off int, n int) int {
		return int(binary.BigEndian.Uint32(seed[off:off+4]) % uint32(n))
	}

	vp := viewportPresets[pick(0, len(viewportPresets))]

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return Fingerprint{}, fmt.Errorf("read entropy: %w", err)
	}

	return Fingerprint{
		CanvasHash:          digest("canvas", profileName, nonce),
		WebGLHash:           digest("webgl", profileName, nonce),
		AudioHash:           digest("audio", profileName, nonce),
		HardwareConcurrency: concurrencyPresets[pick(4, len(concurrencyPresets))],
		DeviceMemory:        memoryPresets[pick(8, len(memoryPresets))],
		TLSFingerprint:      tlsPresets[pick(12, len(tlsPresets))],
		BatteryLevel:        20 + int(nonce[0])%81,
		ViewportWidth:       vp.width,
		ViewportHeight:      vp.height,
	}, nil
}

// digest produces a 64-hex-character hash bound to the layer, the profile
// name, and the per-call nonce.
func digest(layer, profileName string, nonce []byte) string {
	h := sha256.New()
	h.Write([]byte(layer))
	h.Write([]byte(profileName))
	h.Write(nonce)
	return hex.EncodeToString(h.Sum(nil))
}
