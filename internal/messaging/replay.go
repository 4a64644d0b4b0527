package messaging

import (
	"container/list"
	"sync"

	"github.com/google/uuid"
)

// ReplayCache remembers recent successful responses by request id, so a
// client that retries a request after a lost reply gets the original
// answer. Least recently used entries are evicted at capacity.
type ReplayCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[uuid.UUID]*list.Element
	lruList  *list.List

	evictions int64
	onEvict   func()
}

type replayEntry struct {
	requestID uuid.UUID
	resp      DataResponse
}

func NewReplayCache(capacity int) *ReplayCache {
	return &ReplayCache{
		capacity: capacity,
		entries:  make(map[uuid.UUID]*list.Element, capacity),
		lruList:  list.New(),
	}
}

// Get returns the stored response and promotes it.
func (c *ReplayCache) Get(requestID uuid.UUID) (DataResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[requestID]
	if !ok {
		return DataResponse{}, false
	}
	c.lruList.MoveToFront(elem)
	return elem.Value.(*replayEntry).resp, true
}

// Add stores resp under requestID, replacing any earlier response.
func (c *ReplayCache) Add(requestID uuid.UUID, resp DataResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[requestID]; ok {
		elem.Value.(*replayEntry).resp = resp
		c.lruList.MoveToFront(elem)
		return
	}

	c.entries[requestID] = c.lruList.PushFront(&replayEntry{requestID: requestID, resp: resp})
	if c.lruList.Len() > c.capacity {
		c.evictOldest()
	}
}

func (c *ReplayCache) evictOldest() {
	elem := c.lruList.Back()
	if elem == nil {
		return
	}
	c.lruList.Remove(elem)
	delete(c.entries, elem.Value.(*replayEntry).requestID)
	c.evictions++
	if c.onEvict != nil {
		c.onEvict()
	}
}

func (c *ReplayCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}

func (c *ReplayCache) Evictions() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictions
}
