package identifiers

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/angelmondragon/releasedesk/pkg/config"
)

const (
	DefaultCountryCode    = "US"
	DefaultRegistrantCode = "XXX"

	isrcSequenceSpace = 100000
	upcSpace          = 1_000_000_000_000
)

// Source yields uniformly distributed integers in [0, n).
type Source interface {
	Int64N(n int64) int64
}

type globalSource struct{}

func (globalSource) Int64N(n int64) int64 { return rand.Int64N(n) }

// lockedSource serializes a caller supplied source; *rand.Rand is not safe
// for concurrent use.
type lockedSource struct {
	mu  sync.Mutex
	src Source
}

func (l *lockedSource) Int64N(n int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Int64N(n)
}

// Generator produces ISRC and UPC candidates. It never fails; uniqueness
// against the store is the caller's concern.
type Generator struct {
	country    string
	registrant string
	now        func() time.Time
	src        Source
}

// Option customizes a Generator.
type Option func(*Generator)

// WithClock overrides the clock used for the ISRC year.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithSource overrides the random source.
func WithSource(src Source) Option {
	return func(g *Generator) {
		if src != nil {
			g.src = &lockedSource{src: src}
		}
	}
}

// NewGenerator builds a Generator from the identifier config, falling back to
// the default country and registrant codes when unset.
func NewGenerator(cfg config.IdentifiersConfig, opts ...Option) *Generator {
	g := &Generator{
		country:    cfg.CountryCode,
		registrant: cfg.RegistrantCode,
		now:        time.Now,
		src:        globalSource{},
	}
	if g.country == "" {
		g.country = DefaultCountryCode
	}
	if g.registrant == "" {
		g.registrant = DefaultRegistrantCode
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ISRC returns CC + RRR + YY + NNNNN, e.g. USXXX2612345.
func (g *Generator) ISRC() string {
	year := g.now().Year() % 100
	seq := g.src.Int64N(isrcSequenceSpace)
	return fmt.Sprintf("%s%s%02d%05d", g.country, g.registrant, year, seq)
}

// UPC returns a zero padded 12 digit numeric string.
func (g *Generator) UPC() string {
	return fmt.Sprintf("%012d", g.src.Int64N(upcSpace))
}
