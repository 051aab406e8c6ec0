// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// persistentJar wraps a net/http/cookiejar.Jar with a single-writer disk
// flush, scoped per institutional session as required by §4.2/§5. Other
// readers get a consistent snapshot per request because cookiejar.Jar
// itself is safe for concurrent use; the mutex here only serializes Flush
// against concurrent Remember calls that extend the list of known hosts.
type persistentJar struct {
	mu        sync.RWMutex
	jar       *cookiejar.Jar
	path      string
	knownURLs []*url.URL
}

type storedCookie struct {
	URL     string         `json:"url"`
	Cookies []*http.Cookie `json:"cookies"`
}

func newPersistentJar(path string) (*persistentJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	pj := &persistentJar{jar: jar, path: path}
	if path == "" {
		return pj, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return pj, nil
		}
		return nil, err
	}

	var entries []storedCookie
	if err := json.Unmarshal(data, &entries); err != nil {
		return pj, nil // tolerate a corrupt cache file rather than failing startup
	}
	for _, e := range entries {
		u, err := url.Parse(e.URL)
		if err != nil {
			continue
		}
		jar.SetCookies(u, e.Cookies)
	}
	return pj, nil
}

// CookieJar returns the http.CookieJar to attach to an *http.Client.
func (p *persistentJar) CookieJar() http.CookieJar { return p.jar }

// Flush persists the jar's current cookies for its known hosts to disk.
// Entry-point hosts are not tracked by cookiejar.Jar directly, so callers
// that need durable institutional sessions should call Remember after
// each authenticated response; Flush here is a best-effort no-op when no
// hosts have been remembered, which is fine for sources with no auth.
func (p *persistentJar) Flush() error {
	if p.path == "" {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.knownURLs) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}

	var entries []storedCookie
	for _, u := range p.knownURLs {
		entries = append(entries, storedCookie{URL: u.String(), Cookies: p.jar.Cookies(u)})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p.path)
}

// Remember records u as a host whose cookies should be persisted on the
// next Flush. Call it after any response that set cookies via a source
// requiring institutional auth.
func (p *persistentJar) Remember(u *url.URL) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.knownURLs = append(p.knownURLs, u)
}
