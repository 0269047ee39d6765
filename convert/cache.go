package convert

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mdobak/go-xerrors"
)

// Cache holds finished conversions by fingerprint key. Implementations must
// be safe for concurrent use.
type Cache interface {
	Get(key string) (Result, bool)
	Add(key string, r Result)
	Len() int
}

// LRUCache keeps the most recently used conversions and evicts the least
// recently used one once size is reached.
type LRUCache struct {
	lru *lru.Cache[string, Result]
}

func NewLRUCache(size int) (*LRUCache, error) {
	c, err := lru.New[string, Result](size)
	if err != nil {
		return nil, xerrors.New(fmt.Sprintf("creating conversion cache of size %d", size), err)
	}
	return &LRUCache{lru: c}, nil
}

func (c *LRUCache) Get(key string) (Result, bool) {
	return c.lru.Get(key)
}

func (c *LRUCache) Add(key string, r Result) {
	c.lru.Add(key, r)
}

func (c *LRUCache) Len() int {
	return c.lru.Len()
}
