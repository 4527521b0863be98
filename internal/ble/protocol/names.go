package protocol

import "strings"

// cameraPrefixes are the advertised-name prefixes of supported camera families.
var cameraPrefixes = []string{"X3 ", "X4 ", "X5 ", "RS ", "ONE "}

// IsCameraName reports whether an advertised name belongs to a supported
// camera family.
func IsCameraName(name string) bool {
	for _, p := range cameraPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// ValidCameraName reports whether name has a separator followed by at least
// six characters, enough to derive a wake payload, e.g. "X5 ABC123".
func ValidCameraName(name string) bool {
	sep := strings.IndexByte(name, ' ')
	if sep <= 0 {
		return false
	}
	return len(name)-sep-1 >= WakePayloadLen
}
