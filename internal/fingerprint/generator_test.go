package fingerprint

import (
	"errors"
	"testing"
)

func TestGenerateFieldsInRange(t *testing.T) {
	g := NewGenerator()

	fp, err := g.Generate("profile-a")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(fp.CanvasHash) != 64 {
		t.Fatalf("expected 64-hex canvas hash, got %d chars", len(fp.CanvasHash))
	}
	if len(fp.WebGLHash) != 64 {
		t.Fatalf("expected 64-hex webgl hash, got %d chars", len(fp.WebGLHash))
	}
	if fp.AudioHash == "" {
		t.Fatal("expected non-empty audio hash")
	}
	if fp.HardwareConcurrency < 1 || fp.HardwareConcurrency > 32 {
		t.Fatalf("hardware concurrency out of range: %d", fp.HardwareConcurrency)
	}
	if fp.DeviceMemory <= 0 {
		t.Fatalf("expected positive device memory, got %d", fp.DeviceMemory)
	}
	if fp.TLSFingerprint == "" {
		t.Fatal("expected non-empty TLS fingerprint")
	}
	if fp.BatteryLevel < 0 || fp.BatteryLevel > 100 {
		t.Fatalf("battery level out of range: %d", fp.BatteryLevel)
	}
	if fp.ViewportWidth <= 0 || fp.ViewportHeight <= 0 {
		t.Fatalf("expected positive viewport, got %dx%d", fp.ViewportWidth, fp.ViewportHeight)
	}
}

func TestGenerateEmptyName(t *testing.T) {
	_, err := NewGenerator().Generate("")
	if !errors.Is(err, ErrEmptyProfileName) {
		t.Fatalf("expected ErrEmptyProfileName, got %v", err)
	}
}

func TestGenerateStableHardwareClass(t *testing.T) {
	g := NewGenerator()

	first, err := g.Generate("profile-a")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i := 0; i < 10; i++ {
		fp, err := g.Generate("profile-a")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if fp.HardwareConcurrency != first.HardwareConcurrency {
			t.Fatalf("hardware concurrency drifted for same name: %d vs %d", fp.HardwareConcurrency, first.HardwareConcurrency)
		}
		if fp.DeviceMemory != first.DeviceMemory {
			t.Fatalf("device memory drifted for same name: %d vs %d", fp.DeviceMemory, first.DeviceMemory)
		}
		if fp.ViewportWidth != first.ViewportWidth || fp.ViewportHeight != first.ViewportHeight {
			t.Fatal("viewport drifted for same name")
		}
		if fp.TLSFingerprint != first.TLSFingerprint {
			t.Fatal("TLS fingerprint drifted for same name")
		}
	}
}

func TestGenerateDigestNoisePerCall(t *testing.T) {
	g := NewGenerator()

	a, _ := g.Generate("profile-a")
	b, _ := g.Generate("profile-a")
	if a.CanvasHash == b.CanvasHash {
		t.Fatal("expected per-call canvas noise for repeated generations")
	}
}

func TestGenerateDistinctAcrossNames(t *testing.T) {
	g := NewGenerator()

	a, _ := g.Generate("profile-a")
	b, _ := g.Generate("profile-b")

	if a.CanvasHash == b.CanvasHash && a.WebGLHash == b.WebGLHash &&
		a.AudioHash == b.AudioHash && a.TLSFingerprint == b.TLSFingerprint {
		t.Fatal("expected distinct names to differ in at least one digest field")
	}
}

func TestGenerateManyUnique(t *testing.T) {
	g := NewGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		fp, err := g.Generate("profile-a")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if seen[fp.CanvasHash] {
			t.Fatalf("canvas hash collision at iteration %d", i)
		}
		seen[fp.CanvasHash] = true
	}
}

func TestValidateExactMatch(t *testing.T) {
	fp, err := NewGenerator().Generate("profile-a")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !Validate(fp, fp) {
		t.Fatal("identical fingerprints must validate")
	}
}

func TestValidateSingleFieldMismatch(t *testing.T) {
	fp, err := NewGenerator().Generate("profile-a")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	cases := map[string]func(Fingerprint) Fingerprint{
		"canvas_hash": func(f Fingerprint) Fingerprint {
			f.CanvasHash = "0000000000000000000000000000000000000000000000000000000000000000"
			return f
		},
		"webgl_hash": func(f Fingerprint) Fingerprint {
			f.WebGLHash = f.CanvasHash
			return f
		},
		"audio_hash": func(f Fingerprint) Fingerprint {
			f.AudioHash = "tampered"
			return f
		},
		"hardware_concurrency": func(f Fingerprint) Fingerprint {
			f.HardwareConcurrency++
			return f
		},
		"device_memory": func(f Fingerprint) Fingerprint {
			f.DeviceMemory *= 2
			return f
		},
		"tls_fingerprint": func(f Fingerprint) Fingerprint {
			f.TLSFingerprint = "771,4865,0,29,0"
			return f
		},
		"battery_level": func(f Fingerprint) Fingerprint {
			f.BatteryLevel = (f.BatteryLevel + 1) % 101
			return f
		},
		"viewport_width": func(f Fingerprint) Fingerprint {
			f.ViewportWidth++
			return f
		},
		"viewport_height": func(f Fingerprint) Fingerprint {
			f.ViewportHeight++
			return f
		},
	}

	for field, mutate := range cases {
		if Validate(fp, mutate(fp)) {
			t.Errorf("mutated %s must not validate", field)
		}
	}
}

func BenchmarkGenerate(b *testing.B) {
	g := NewGenerator()
	for i := 0; i < b.N; i++ {
		if _, err := g.Generate("profile-a"); err != nil {
			b.Fatal(err)
		}
	}
}
