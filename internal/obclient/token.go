package obclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/OneForces/banking-mvp/internal/metrics"
)

const (
	// tokenSkew keeps a token from being handed out this close to expiry,
	// so it cannot lapse mid-flight.
	tokenSkew = 30 * time.Second

	// defaultTokenTTL applies when the bank omits expires_in. The sandboxes
	// document day-long tokens.
	defaultTokenTTL = 86400

	// ttlHaircut is shaved off the reported lifetime before caching.
	ttlHaircut = 60
)

type tokenEntry struct {
	token     string
	expiresAt time.Time
}

// TokenProvider obtains and caches bearer tokens per (base URL, client id)
// pair. Reads are the fast path and take a shared lock only; a refresh for a
// given key is serialized through singleflight so N concurrent callers cost
// one upstream call, and refreshing one bank's token never blocks another's.
type TokenProvider struct {
	http    *http.Client
	metrics *metrics.Metrics

	// Now is the provider's clock; tests swap it to drive expiry.
	Now func() time.Time

	mu    sync.RWMutex
	cache map[string]tokenEntry
	group singleflight.Group
}

func NewTokenProvider(httpClient *http.Client, m *metrics.Metrics) *TokenProvider {
	return &TokenProvider{
		http:    httpClient,
		metrics: m,
		Now:     time.Now,
		cache:   make(map[string]tokenEntry),
	}
}

// Token returns a bearer token for the target, from cache when one is still
// comfortably within its lifetime, refreshing synchronously otherwise. A
// failed refresh returns a *TokenError and never a stale token.
func (p *TokenProvider) Token(ctx context.Context, target Target, clientID, clientSecret string) (string, error) {
	key := target.BaseURL + "|" + clientID

	if token, ok := p.cached(key); ok {
		return token, nil
	}

	v, err, _ := p.group.Do(key, func() (any, error) {
		// A flight that completed between our cache miss and joining the
		// group already stored a fresh token.
		if token, ok := p.cached(key); ok {
			return token, nil
		}
		return p.refresh(ctx, target, key, clientID, clientSecret)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (p *TokenProvider) cached(key string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.cache[key]
	if !ok {
		return "", false
	}
	if p.Now().Before(entry.expiresAt.Add(-tokenSkew)) {
		return entry.token, true
	}
	return "", false
}

func (p *TokenProvider) refresh(ctx context.Context, target Target, key, clientID, clientSecret string) (string, error) {
	endpoint := fmt.Sprintf("%s/auth/bank-token?client_id=%s&client_secret=%s",
		target.BaseURL, url.QueryEscape(clientID), url.QueryEscape(clientSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", &TokenError{BaseURL: target.BaseURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		p.metrics.TokenRefresh(string(target.Code), false)
		return "", &TokenError{BaseURL: target.BaseURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.metrics.TokenRefresh(string(target.Code), false)
		return "", &TokenError{BaseURL: target.BaseURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.metrics.TokenRefresh(string(target.Code), false)
		return "", &TokenError{
			BaseURL:    target.BaseURL,
			StatusCode: resp.StatusCode,
			Body:       sanitizeBody(body),
		}
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		p.metrics.TokenRefresh(string(target.Code), false)
		return "", &TokenError{BaseURL: target.BaseURL, Body: sanitizeBody(body), Err: err}
	}

	token := firstString(payload, "access_token")
	if token == "" {
		p.metrics.TokenRefresh(string(target.Code), false)
		return "", &TokenError{
			BaseURL: target.BaseURL,
			Body:    sanitizeBody(body),
			Err:     fmt.Errorf("no access_token in token response"),
		}
	}

	ttl := expiresInSeconds(payload)
	expiresAt := p.Now().Add(time.Duration(max(ttl-ttlHaircut, ttlHaircut)) * time.Second)

	p.mu.Lock()
	p.cache[key] = tokenEntry{token: token, expiresAt: expiresAt}
	p.mu.Unlock()

	p.metrics.TokenRefresh(string(target.Code), true)
	return token, nil
}

// expiresInSeconds reads expires_in as either a JSON number or a numeric
// string; anything unparseable falls back to the documented default.
func expiresInSeconds(payload map[string]any) int64 {
	switch v := payload["expires_in"].(type) {
	case float64:
		if v > 0 {
			return int64(v)
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultTokenTTL
}
