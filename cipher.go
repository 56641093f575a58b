package gm

// generateDecodeTable rebuilds the 256-entry substitution table the
// archive's byte cipher was encoded with, from the crypt block's seed
// (§4.A). The forward permutation is built by running a fixed swap
// generator 10000 times seeded by (a, b) derived from seed, then the
// decode table actually used is its inverse.
func generateDecodeTable(seed uint32) [256]byte {
	a := 6 + seed%250
	b := seed / 250

	var perm [256]byte
	for i := range perm {
		perm[i] = byte(i)
	}
	for i := uint32(1); i <= 10000; i++ {
		j := (i*a + b) % 254 + 1
		perm[j], perm[j+1] = perm[j+1], perm[j]
	}

	var decode [256]byte
	for i, v := range perm {
		decode[v] = byte(i)
	}
	return decode
}

// applyCipher decodes data[start:] in place: plain[p] = table[cipher[p]] -
// (p mod 256) (§4.A), where p is the byte's absolute position in the whole
// file, not its offset within the decoded region — the position-dependent
// offset is keyed to the file layout, so decoding a region that doesn't
// begin at the file's start must still use the true file offset for every
// byte, or every position's subtraction lands 256 slots off whenever the
// region's start isn't a multiple of 256.
func applyCipher(data []byte, start int, table [256]byte) {
	for p := start; p < len(data); p++ {
		data[p] = table[data[p]] - byte(p%256)
	}
}
