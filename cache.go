package cachesim

// MESIState is a cache block's coherence state. It is the only state
// variant this simulator ships (MESI is the reference protocol), but the
// type is kept distinct from CoreState/BusState so a Dragon-style
// SC/SM/E/M set could be substituted without touching CacheSet.
type MESIState int

const (
	Invalid MESIState = iota
	Shared
	Exclusive
	Modified
)

// String returns a human-readable name for this state.
func (s MESIState) String() string {
	switch s {
	case Invalid:
		return "INVALID"
	case Shared:
		return "SHARED"
	case Exclusive:
		return "EXCLUSIVE"
	case Modified:
		return "MODIFIED"
	default:
		return "UNKNOWN"
	}
}

// valid reports whether a block in this state is usable without a bus
// transaction (MODIFIED, EXCLUSIVE, or SHARED).
func (s MESIState) valid() bool {
	return s != Invalid
}

// CacheBlock is a single resident block: its tag and its coherence state.
// No data payload — only addresses and coherence state are tracked.
type CacheBlock struct {
	Tag   uint64
	State MESIState
}

// CacheSet holds at most `associativity` blocks, keyed by tag, plus the
// LRU ordering of resident tags.
type CacheSet struct {
	associativity int
	blocks        map[uint64]*CacheBlock
	lru           *lruTracker
}

func newCacheSet(associativity int) *CacheSet {
	return &CacheSet{
		associativity: associativity,
		blocks:        make(map[uint64]*CacheBlock, associativity),
		lru:           newLRUTracker(associativity),
	}
}

func (s *CacheSet) isPresent(tag uint64) bool {
	_, ok := s.blocks[tag]
	return ok
}

func (s *CacheSet) isValid(tag uint64) bool {
	b, ok := s.blocks[tag]
	return ok && b.State.valid()
}

func (s *CacheSet) stateOf(tag uint64) MESIState {
	b, ok := s.blocks[tag]
	if !ok {
		return Invalid
	}
	return b.State
}

// setState requires the block to already be present; callers that violate
// this have a programming error, not a recoverable condition.
func (s *CacheSet) setState(tag uint64, state MESIState) {
	b, ok := s.blocks[tag]
	if !ok {
		panic("cachesim: set_state on absent block")
	}
	b.State = state
}

func (s *CacheSet) isFull() bool {
	return len(s.blocks) >= s.associativity
}

// evictTarget chooses a victim via LRU, removes it, and returns the
// evicted block (including its state, so the caller can charge a dirty
// writeback penalty). Must only be called when the set is full.
func (s *CacheSet) evictTarget() CacheBlock {
	tag := s.lru.evict()
	b, ok := s.blocks[tag]
	if !ok {
		panic("cachesim: lru tracked a tag with no resident block")
	}
	delete(s.blocks, tag)
	return *b
}

// install inserts a new block with INVALID state; the protocol sets the
// real state afterwards via setState.
func (s *CacheSet) install(tag uint64) {
	s.blocks[tag] = &CacheBlock{Tag: tag, State: Invalid}
}

// invalidate forces state = INVALID if the tag is present; no-op
// otherwise. The block stays resident (and in the LRU order), occupying
// its slot until LRU evicts it.
func (s *CacheSet) invalidate(tag uint64) {
	if b, ok := s.blocks[tag]; ok {
		b.State = Invalid
	}
}

func (s *CacheSet) touch(tag uint64) {
	s.lru.touch(tag)
}

// Cache is one core's private L1: set_count CacheSets addressed by the
// geometry's decode function.
type Cache struct {
	geometry Geometry
	sets     []*CacheSet
}

func newCache(g Geometry) *Cache {
	sets := make([]*CacheSet, g.SetCount)
	for i := range sets {
		sets[i] = newCacheSet(int(g.Associativity))
	}
	return &Cache{geometry: g, sets: sets}
}

func (c *Cache) setFor(addr Address) (*CacheSet, uint64) {
	tag, setIndex, _ := c.geometry.decode(addr)
	return c.sets[setIndex], tag
}

func (c *Cache) IsPresent(addr Address) bool {
	set, tag := c.setFor(addr)
	return set.isPresent(tag)
}

func (c *Cache) IsValid(addr Address) bool {
	set, tag := c.setFor(addr)
	return set.isValid(tag)
}

func (c *Cache) StateOf(addr Address) MESIState {
	set, tag := c.setFor(addr)
	return set.stateOf(tag)
}

func (c *Cache) SetState(addr Address, state MESIState) {
	set, tag := c.setFor(addr)
	set.setState(tag, state)
}

func (c *Cache) IsSetFull(addr Address) bool {
	set, _ := c.setFor(addr)
	return set.isFull()
}

func (c *Cache) EvictTarget(addr Address) CacheBlock {
	set, _ := c.setFor(addr)
	return set.evictTarget()
}

func (c *Cache) Install(addr Address) {
	set, tag := c.setFor(addr)
	set.install(tag)
}

func (c *Cache) Invalidate(addr Address) {
	set, tag := c.setFor(addr)
	set.invalidate(tag)
}

func (c *Cache) Touch(addr Address) {
	set, tag := c.setFor(addr)
	set.touch(tag)
}
