package memory

import (
	"math/rand"
	"sync"
	"time"
)

// TTLJitter hands out cache lifetimes of ttl plus up to 10%, so entries
// filled together do not expire together. Safe for concurrent use.
type TTLJitter struct {
	ttl time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewTTLJitter(ttl time.Duration) *TTLJitter {
	return &TTLJitter{ttl: ttl, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Next returns 0 when ttl is not positive.
func (j *TTLJitter) Next() time.Duration {
	if j.ttl <= 0 {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.ttl + time.Duration(j.rnd.Int63n(int64(j.ttl)/10+1))
}
