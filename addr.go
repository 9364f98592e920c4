package cachesim

// Address is a byte address into the simulated address space. No data lives
// behind it — addresses and coherence state are tracked, never memory
// contents.
type Address uint64

// decode splits addr into (tag, set_index, offset) per the cache's
// geometry: offset is the low OffsetBits bits, set_index is the next
// SetIndexBits bits, tag is everything above that.
func (g Geometry) decode(addr Address) (tag, setIndex uint64, offset uint64) {
	a := uint64(addr)
	offsetMask := g.BlockSizeBytes - 1
	offset = a & offsetMask
	a >>= g.OffsetBits
	setIndexMask := g.SetCount - 1
	setIndex = a & setIndexMask
	a >>= g.SetIndexBits
	tag = a
	return tag, setIndex, offset
}

// encode is the inverse of decode, used only by tests to exercise the
// decode/encode round trip.
func (g Geometry) encode(tag, setIndex, offset uint64) Address {
	a := tag
	a <<= g.SetIndexBits
	a |= setIndex
	a <<= g.OffsetBits
	a |= offset
	return Address(a)
}
