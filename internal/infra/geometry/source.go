// Package geometry loads the NUTS2 vector geometry used to draw the Belgian
// map, filtered to the shapes the quiz can ask about.
package geometry

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"provincie-quiz-service/internal/domain"
)

// DefaultURL is the public Eurostat Nuts2json document the quiz reads.
const DefaultURL = "https://raw.githubusercontent.com/eurostat/Nuts2json/master/pub/v2/2021/4326/20M/nutsrg_2.json"

// countryPrefix keeps only Belgian shapes.
const countryPrefix = "BE"

type document struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string          `json:"type"`
	Properties properties      `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type properties struct {
	ID   string `json:"id"`
	Name string `json:"na"`
}

// Source fetches and caches the filtered geometry. The document changes on
// the order of years, so a generous TTL with jitter is plenty; singleflight
// keeps concurrent joins from stampeding the origin.
type Source struct {
	url    string
	client *http.Client
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	cached    json.RawMessage
	expiresAt time.Time
}

func NewSource(url string, timeout, ttl time.Duration) *Source {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Source{
		url:    url,
		client: &http.Client{Timeout: timeout},
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Geometry returns the filtered document, serving from cache when fresh. A
// fetch failure is returned to the caller as a persistent condition; there is
// no retry loop here, a later call simply attempts the fetch again.
func (s *Source) Geometry(ctx context.Context) (json.RawMessage, error) {
	now := s.clock()

	s.mu.RLock()
	if s.cached != nil && s.expiresAt.After(now) {
		doc := s.cached
		s.mu.RUnlock()
		return doc, nil
	}
	s.mu.RUnlock()

	result, err, _ := s.sf.Do("geometry", func() (interface{}, error) {
		now := s.clock()
		s.mu.RLock()
		if s.cached != nil && s.expiresAt.After(now) {
			doc := s.cached
			s.mu.RUnlock()
			return doc, nil
		}
		s.mu.RUnlock()

		doc, err := s.fetch(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.cached = doc
		s.expiresAt = now.Add(s.ttlWithJitter())
		s.mu.Unlock()
		return doc, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeometryUnavailable, err)
	}
	return result.(json.RawMessage), nil
}

func (s *Source) fetch(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var doc document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}

	filtered := document{Type: doc.Type}
	for _, f := range doc.Features {
		if strings.HasPrefix(f.Properties.ID, countryPrefix) {
			filtered.Features = append(filtered.Features, f)
		}
	}
	out, err := json.Marshal(filtered)
	if err != nil {
		return nil, fmt.Errorf("encode geometry: %w", err)
	}
	return out, nil
}

func (s *Source) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
