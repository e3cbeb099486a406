package registry

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDPrefix prefixes every generated certificate id
const IDPrefix = "CERT-"

// Generator names accepted by NewIDProvider
const (
	GeneratorSequence = "sequence"
	GeneratorULID     = "ulid"
)

// IDProvider generates certificate ids
type IDProvider interface {
	ID() (string, error)
}

// NewIDProvider returns the provider registered under name
func NewIDProvider(name string) (IDProvider, error) {
	switch name {
	case GeneratorSequence, "":
		return NewSequenceProvider(time.Now), nil
	case GeneratorULID:
		return NewULIDProvider(), nil
	default:
		return nil, fmt.Errorf("unknown id generator: %s", name)
	}
}

type sequenceProvider struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewSequenceProvider returns ids of the form CERT-<n>, where n is the clock
// reading in Unix nanoseconds. n is strictly increasing: when the clock has
// not advanced past the previous id, the previous value plus one is used.
func NewSequenceProvider(now func() time.Time) IDProvider {
	if now == nil {
		now = time.Now
	}
	return &sequenceProvider{now: now}
}

func (p *sequenceProvider) ID() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.now().UnixNano()
	if n <= p.last {
		n = p.last + 1
	}
	p.last = n

	return IDPrefix + strconv.FormatInt(n, 10), nil
}

type ulidProvider struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewULIDProvider returns ids of the form CERT-<ULID> using monotonic entropy,
// so ids generated within the same millisecond still sort in issuance order.
func NewULIDProvider() IDProvider {
	return &ulidProvider{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (p *ulidProvider) ID() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now()), p.entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate ulid: %w", err)
	}

	return IDPrefix + id.String(), nil
}
