package internal

// GRIB2 signed integers are sign-and-magnitude: a negative value is
// indicated by setting the high-order bit of the leftmost octet.

// SignMagnitude32 decodes a 4-octet signed value.
func SignMagnitude32(v uint32) int64 {
	absValue := int64(v & 0x7fffffff)
	if v&(1<<31) != 0 {
		return -absValue
	}
	return absValue
}

// SignMagnitude8 decodes a 1-octet signed value such as a scale factor.
func SignMagnitude8(v uint8) int32 {
	absValue := int32(v & 0x7f)
	if v&(1<<7) != 0 {
		return -absValue
	}
	return absValue
}
