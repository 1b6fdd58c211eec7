package hal

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// CacheKey addresses a cached artifact. It is derived from the normalized
// URL, the UTC calendar day and the requested mode, so replays within the
// same day resolve to the same entry and staleness is bounded to one day.
type CacheKey string

// NewCacheKey fingerprints a request. url should already be normalized.
func NewCacheKey(url string, day time.Time, mode Mode) CacheKey {
	raw := url + "|" + day.UTC().Format(time.DateOnly) + "|" + string(mode)
	return CacheKey(fmt.Sprintf("%016x", xxhash.Sum64String(raw)))
}

// NormalizeURL canonicalizes rawURL for fingerprinting: scheme and host are
// lowercased, default ports and fragments dropped, and an empty path becomes "/".
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", Errorf(EINVALID, "invalid url: %v", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", Errorf(EINVALID, "url must be absolute: %q", rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
		u.Host = host + ":" + port
	} else if strings.Contains(host, ":") {
		u.Host = "[" + host + "]"
	} else {
		u.Host = host
	}

	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

// Artifact is a cached extraction together with the raw material it was
// derived from. Artifacts are replace-only: a key is rewritten whole, never
// patched.
type Artifact struct {
	Key      CacheKey
	Mode     Mode
	FinalURL string
	HTML     string
	Result   Result

	// Screenshots holds image data to persist on Put. Stores report the
	// written file paths in Result.Screenshots.
	Screenshots []Screenshot
}

// CacheStore persists artifacts by key.
type CacheStore interface {
	// Get returns the artifact stored under key.
	// Returns ENOTFOUND on a miss and ECACHEIO when the entry cannot be read.
	Get(ctx context.Context, key CacheKey) (*Artifact, error)

	// Put stores the artifact under key, replacing any previous entry.
	// On success Result.Screenshots holds the stored screenshot paths.
	// Returns ECACHEIO when the entry cannot be written.
	Put(ctx context.Context, key CacheKey, artifact *Artifact) error
}
