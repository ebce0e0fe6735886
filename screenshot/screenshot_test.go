package screenshot

import "testing"

func TestRegionValid(t *testing.T) {
	cases := []struct {
		region Region
		want   bool
	}{
		{Region{X: 0, Y: 0, Width: 100, Height: 50}, true},
		{Region{X: -10, Y: -10, Width: 1, Height: 1}, true},
		{Region{Width: 0, Height: 50}, false},
		{Region{Width: 100, Height: 0}, false},
		{Region{Width: -5, Height: 5}, false},
	}
	for _, c := range cases {
		if got := c.region.Valid(); got != c.want {
			t.Errorf("Valid(%+v) = %v, want %v", c.region, got, c.want)
		}
	}
}

func TestCaptureRegionRejectsDegenerateRect(t *testing.T) {
	for _, region := range []Region{
		{X: 0, Y: 0, Width: 0, Height: 0},
		{X: 10, Y: 10, Width: 0, Height: 100},
		{X: 10, Y: 10, Width: 100, Height: 0},
	} {
		if _, err := CaptureRegion(region); err == nil {
			t.Errorf("CaptureRegion(%+v): want error for degenerate rect", region)
		}
	}
}

func TestCaptureRegion(t *testing.T) {
	// Needs a display; log instead of fail so the suite runs headless.
	if _, err := CaptureRegion(Region{X: 0, Y: 0, Width: 100, Height: 100}); err != nil {
		t.Logf("capture unavailable (headless?): %v", err)
	}
}

func TestVirtualBounds(t *testing.T) {
	if _, err := VirtualBounds(); err != nil {
		t.Logf("display bounds unavailable (headless?): %v", err)
	}
}
