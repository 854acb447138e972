package id_generator

import (
	cryptorand "crypto/rand"
	"math"
	"math/big"
	"math/rand"
	"sync"
	"time"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/trace_models"
)

// IdGenerator produces random trace and span identifiers. The underlying
// source is math/rand seeded from crypto/rand, guarded by a mutex because
// rand.Rand is not safe for concurrent use.
type IdGenerator struct {
	lock sync.Mutex
	rand *rand.Rand
}

func New() *IdGenerator {
	var seed int64
	seedN, err := cryptorand.Int(cryptorand.Reader, big.NewInt(math.MaxInt64))
	if err == nil {
		seed = seedN.Int64()
	} else {
		seed = time.Now().UnixNano()
	}
	return &IdGenerator{
		rand: rand.New(rand.NewSource(seed)),
	}
}

func (g *IdGenerator) genUint64() uint64 {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.rand.Uint64()
}

func (g *IdGenerator) NewTraceID() trace_models.TraceID {
	for {
		id := trace_models.TraceID{High: g.genUint64(), Low: g.genUint64()}
		if id.IsValid() {
			return id
		}
	}
}

func (g *IdGenerator) NewSpanID() trace_models.SpanID {
	for {
		if id := trace_models.SpanID(g.genUint64()); id != 0 {
			return id
		}
	}
}
