package clipboard

import "testing"

func TestInitAndWrite(t *testing.T) {
	if err := Init(); err != nil {
		t.Skipf("clipboard unavailable in this environment: %v", err)
	}
	Write("Deed of Trust")
}
