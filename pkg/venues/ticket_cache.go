package venues

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// ticketCache remembers the latest recommendation set per phone so the
// booking flow can reuse the ticket without another inquiry. Entries expire
// with the session-scale TTL; a stale ticket is useless anyway.
type ticketCache struct {
	cache *cache.Cache
}

func newTicketCache(ttl time.Duration) *ticketCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ticketCache{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (t *ticketCache) put(phone string, rec *Recommendation) {
	t.cache.Set(phone, rec, cache.DefaultExpiration)
}

func (t *ticketCache) get(phone string) (*Recommendation, bool) {
	if x, found := t.cache.Get(phone); found {
		return x.(*Recommendation), true
	}
	return nil, false
}
