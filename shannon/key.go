package shannon

import "encoding/binary"

// loadkey absorbs material (a key or a nonce) into the register four
// bytes at a time, little-endian, then mixes in its length, snapshots the
// CRC from the resulting register, diffuses, and folds that snapshot back
// into the register so the operation cannot be inverted.
func (c *Cipher) loadkey(material []byte) {
	var i int
	for i = 0; i+4 <= len(material); i += 4 {
		c.r[keyp] ^= binary.LittleEndian.Uint32(material[i : i+4])
		c.cycle()
	}

	if rem := len(material) - i; rem > 0 {
		var last [4]byte
		copy(last[:], material[i:])
		c.r[keyp] ^= binary.LittleEndian.Uint32(last[:])
		c.cycle()
	}

	c.r[keyp] ^= uint32(len(material))
	c.cycle()

	c.crc = c.r
	c.diffuse()

	for j := 0; j < n; j++ {
		c.r[j] ^= c.crc[j]
	}
}
