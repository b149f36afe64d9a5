package content

// probeWindow is the number of leading bytes inspected to decide whether
// content is binary, per spec §4.5.
const probeWindow = 512

// suspiciousRatioThreshold is the fraction of suspicious bytes in the probe
// window above which content is treated as binary.
const suspiciousRatioThreshold = 0.20

// isSuspiciousByte reports whether b falls in the control-byte range the
// probe treats as evidence of binary content: bytes below 9, bytes strictly
// between 13 and 32, or the DEL byte.
func isSuspiciousByte(b byte) bool {
	if b < 9 {
		return true
	}
	if b > 13 && b < 32 {
		return true
	}
	return b == 127
}

// looksBinary runs the 512-byte probe from spec §4.5: content is binary if
// its leading window contains a null byte, or more than 20% of the window's
// bytes are suspicious.
func looksBinary(data []byte) bool {
	window := data
	if len(window) > probeWindow {
		window = window[:probeWindow]
	}
	if len(window) == 0 {
		return false
	}

	suspicious := 0
	for _, b := range window {
		if b == 0 {
			return true
		}
		if isSuspiciousByte(b) {
			suspicious++
		}
	}
	return float64(suspicious)/float64(len(window)) > suspiciousRatioThreshold
}
