package attendance

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/schooltrack/attendapi/internal/db/models"
)

// DefaultCardCacheSize bounds the card cache. A school's whole student body
// fits comfortably; the bound only matters when readers scan garbage.
const DefaultCardCacheSize = 2048

// CardCache maps RFID card ids to student records so the scan hot path skips
// a database round trip per badge. Entries are stored by value; mutations to
// students must go through Invalidate (or Purge) to stay coherent.
type CardCache struct {
	cache *lru.Cache[string, models.Student]
}

// NewCardCache creates a bounded card cache. Size <= 0 uses the default.
func NewCardCache(size int) (*CardCache, error) {
	if size <= 0 {
		size = DefaultCardCacheSize
	}
	cache, err := lru.New[string, models.Student](size)
	if err != nil {
		return nil, err
	}
	return &CardCache{cache: cache}, nil
}

// Get returns the cached student for the card, if present.
func (c *CardCache) Get(cardID string) (models.Student, bool) {
	return c.cache.Get(cardID)
}

// Put caches the student under its card id.
func (c *CardCache) Put(student models.Student) {
	c.cache.Add(student.CardID, student)
}

// Invalidate drops the entry for one card.
func (c *CardCache) Invalidate(cardID string) {
	c.cache.Remove(cardID)
}

// Purge drops every entry. Used after bulk imports.
func (c *CardCache) Purge() {
	c.cache.Purge()
}
