package features

// packBits packs bits into dst, LSB first: bit k is stored in byte k/8 at bit k%8.
// dst is zeroed first, so unused trailing bits of the last byte are always 0.
func packBits(dst []byte, bits []bool) {
	for j := range dst {
		dst[j] = 0
	}
	for j := 0; j*8 < len(bits); j++ {
		for iBit := 0; iBit < 8 && j*8+iBit < len(bits); iBit++ {
			if bits[j*8+iBit] {
				dst[j] |= 1 << iBit
			}
		}
	}
}

// PackBits converts the 486 comparisons of a difference descriptor to its 61 byte layout.
// Bits 486 and 487 are always 0.
func PackBits(bits *[MLDBBits]bool) BinaryDescriptor {
	var out BinaryDescriptor
	packBits(out[:], bits[:])
	return out
}

// UnpackBits is the inverse of PackBits.
func UnpackBits(d BinaryDescriptor) [MLDBBits]bool {
	var out [MLDBBits]bool
	for k := range out {
		out[k] = d.Bit(k)
	}
	return out
}

// Bit returns logical bit k of the descriptor, reading byte k/8 at bit k%8.
func (d BinaryDescriptor) Bit(k int) bool {
	return (d[k/8]>>(k%8))&1 == 1
}
