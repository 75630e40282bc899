// Package reference generates booking references. The generator is injected
// into the ledger so tests can substitute a deterministic sequence.
package reference

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generator produces candidate booking references. Uniqueness is the ledger's
// concern: it re-draws on collision.
type Generator interface {
	Next() string
}

const suffixSpan = 90000 // 10000..99999, fixed width of five digits

// Random draws references of the form <prefix> + five random digits.
type Random struct {
	prefix string
	mu     sync.Mutex
	rng    *rand.Rand
}

func NewRandom(prefix string) *Random {
	return &Random{
		prefix: prefix,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *Random) Next() string {
	g.mu.Lock()
	n := g.rng.Intn(suffixSpan)
	g.mu.Unlock()
	return fmt.Sprintf("%s%d", g.prefix, 10000+n)
}

// Sequential hands out consecutive suffixes starting at start. Used by tests
// and anywhere reproducible references are needed.
type Sequential struct {
	prefix string
	mu     sync.Mutex
	next   int
}

func NewSequential(prefix string, start int) *Sequential {
	return &Sequential{prefix: prefix, next: start}
}

func (g *Sequential) Next() string {
	g.mu.Lock()
	n := g.next
	g.next++
	g.mu.Unlock()
	return fmt.Sprintf("%s%d", g.prefix, n)
}

// FromUUID derives a reference from a fresh UUID. The ledger falls back to it
// when the injected generator keeps colliding.
func FromUUID(prefix string) string {
	u := uuid.New()
	n := binary.BigEndian.Uint32(u[:4]) % suffixSpan
	return fmt.Sprintf("%s%d", prefix, 10000+n)
}
