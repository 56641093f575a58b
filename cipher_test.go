package gm

import "testing"

// TestGenerateDecodeTableIdentityAtZero checks §4.A/§8 scenario 1: position
// 0 is never touched by the swap generator (j ranges 1..255), so it reads
// back as the identity entry regardless of seed.
func TestGenerateDecodeTableIdentityAtZero(t *testing.T) {
	for _, seed := range []uint32{0, 1, 42, 12345, 0xffffffff} {
		table := generateDecodeTable(seed)
		if table[0] != 0 {
			t.Errorf("seed=%d: table[0] = %d, want 0", seed, table[0])
		}
	}
}

// TestGenerateDecodeTableIsPermutation checks the decode table is a
// bijection over the 256 byte values, for several seeds.
func TestGenerateDecodeTableIsPermutation(t *testing.T) {
	for _, seed := range []uint32{0, 1, 42, 999, 0xdeadbeef} {
		table := generateDecodeTable(seed)
		var seen [256]bool
		for _, v := range table {
			if seen[v] {
				t.Fatalf("seed=%d: value %d repeated in decode table", seed, v)
			}
			seen[v] = true
		}
	}
}

// TestCipherRoundTrip checks §8's decode round-trip law: encoding a
// plaintext payload with the forward permutation and decoding it with the
// generated decode table restores the original bytes exactly, when both
// sides agree on the region's absolute starting file offset.
func TestCipherRoundTrip(t *testing.T) {
	seed := uint32(42)
	decode := generateDecodeTable(seed)

	var encode [256]byte
	for i, v := range decode {
		encode[v] = byte(i)
	}

	const start = 0
	plain := make([]byte, 512)
	for i := range plain {
		plain[i] = byte(i * 7)
	}

	cipher := make([]byte, len(plain))
	for i, b := range plain {
		p := start + i
		cipher[i] = encode[byte(b+byte(p%256))]
	}

	got := make([]byte, len(cipher))
	copy(got, cipher)
	applyCipher(got, start, decode)

	for i := range plain {
		if got[i] != plain[i] {
			t.Fatalf("round trip mismatch at %d: got %d want %d", i, got[i], plain[i])
		}
	}
}

// TestCipherRoundTripWithNonZeroOffset pins down §4.A's "p is the absolute
// file position" rule: a region that doesn't start at file offset 0 (the
// normal case — the body follows the header and crypt block) must still
// decode correctly when applyCipher is given that region's true starting
// offset, and would NOT round-trip if the offset were ignored.
func TestCipherRoundTripWithNonZeroOffset(t *testing.T) {
	seed := uint32(7)
	decode := generateDecodeTable(seed)
	var encode [256]byte
	for i, v := range decode {
		encode[v] = byte(i)
	}

	const headerLen = 37 // deliberately not a multiple of 256
	plain := make([]byte, 300)
	for i := range plain {
		plain[i] = byte(i*3 + 11)
	}

	file := make([]byte, headerLen+len(plain))
	for i, b := range plain {
		p := headerLen + i
		file[headerLen+i] = encode[byte(b+byte(p%256))]
	}

	applyCipher(file, headerLen, decode)

	for i := range plain {
		if file[headerLen+i] != plain[i] {
			t.Fatalf("round trip with offset mismatch at %d: got %d want %d", i, file[headerLen+i], plain[i])
		}
	}
}
