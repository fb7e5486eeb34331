//go:build linux

package sensor

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseRaw(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"512\n", 512, false},
		{" 88 ", 88, false},
		{"", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range tests {
		got, err := parseRaw(tc.in)
		if tc.wantErr != (err != nil) {
			t.Fatalf("parseRaw(%q), wanted error %v, got %v", tc.in, tc.wantErr, err)
		}
		if !tc.wantErr && got != tc.want {
			t.Errorf("parseRaw(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestIIOSample(t *testing.T) {
	dir := t.TempDir()
	dev := filepath.Join(dir, "iio:device0")
	if err := os.MkdirAll(dev, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dev, "in_voltage0_raw"), []byte("768\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dev, "in_voltage1_raw"), []byte("2000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	oldBase := iioBase
	iioBase = dir
	defer func() { iioBase = oldBase }()

	s, err := OpenIIO(0)
	if err != nil {
		t.Fatalf("OpenIIO() error: %v", err)
	}
	defer s.Close()

	if got := s.Sample(0); got != 768 {
		t.Errorf("Sample(0) = %d, want 768", got)
	}
	// Values above full scale are clamped.
	if got := s.Sample(1); got != MaxSample {
		t.Errorf("Sample(1) = %d, want %d", got, MaxSample)
	}
	// Missing channel reads as 0.
	if got := s.Sample(7); got != 0 {
		t.Errorf("Sample(7) = %d, want 0", got)
	}
}

func TestOpenIIOMissingDevice(t *testing.T) {
	oldBase := iioBase
	iioBase = t.TempDir()
	defer func() { iioBase = oldBase }()

	if _, err := OpenIIO(3); err == nil {
		t.Fatal("expected error for missing iio device, got nil")
	}
}
