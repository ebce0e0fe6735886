package vision

import "bytes"

// Known raster signatures: PNG, JPEG, BMP, GIF87a/GIF89a.
var imageSignatures = [][]byte{
	[]byte("\x89PNG"),
	{0xff, 0xd8, 0xff},
	[]byte("BM"),
	[]byte("GIF87a"),
	[]byte("GIF89a"),
}

// ValidImage reports whether data starts with a known raster signature.
// Empty buffers fail.
func ValidImage(data []byte) bool {
	for _, sig := range imageSignatures {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}
	return false
}
