package extraction

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"

	"roidecode/domain/core"
	"roidecode/domain/volume"
)

// Cache memoizes standardized ROI signals keyed by mask and sample set
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]float64
	hits    int
	misses  int
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string][]float64)}
}

// Get returns a copy of the cached column or nil
func (c *Cache) Get(m volume.Mask, samples core.Hash) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	col, ok := c.entries[cacheKey(m, samples)]
	if !ok {
		c.misses++
		return nil
	}
	c.hits++
	out := make([]float64, len(col))
	copy(out, col)
	return out
}

// Put stores a copy of a column
func (c *Cache) Put(m volume.Mask, samples core.Hash, column []float64) {
	stored := make([]float64, len(column))
	copy(stored, column)
	c.mu.Lock()
	c.entries[cacheKey(m, samples)] = stored
	c.mu.Unlock()
}

// Stats returns hit and miss counts
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Len returns the number of cached columns
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cacheKey(m volume.Mask, samples core.Hash) string {
	h := sha256.New()
	h.Write([]byte(m.Name))
	h.Write([]byte{0})
	for _, idx := range m.Indices() {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(idx))
		h.Write(buf[:])
	}
	h.Write([]byte(samples))
	return hex.EncodeToString(h.Sum(nil))
}

func sampleFingerprint(samples []volume.Sample) core.Hash {
	h := sha256.New()
	var buf [8]byte
	for _, s := range samples {
		h.Write([]byte(s.Subject))
		binary.LittleEndian.PutUint64(buf[:], uint64(s.Label))
		h.Write(buf[:])
		for _, v := range s.Image.Data {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	return core.Hash(hex.EncodeToString(h.Sum(nil)))
}
