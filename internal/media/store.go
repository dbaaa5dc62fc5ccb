// Package media stores book cover images on an object store and maps their
// public URLs back to object keys.
package media

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrObjectNotFound is returned by stores that can tell a key is absent.
var ErrObjectNotFound = errors.New("media object not found")

// Store uploads and deletes images.
type Store interface {
	// Upload stores img and returns its public URL.
	Upload(ctx context.Context, img Image) (string, error)
	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
	// KeyFromURL reports whether rawURL points into this store and, if so,
	// the object key it refers to.
	KeyFromURL(rawURL string) (string, bool)
}

// locator builds public URLs and object keys for a store.
type locator struct {
	publicURL string
	folder    string
}

func (l locator) newKey(img Image) string {
	name := uuid.New().String() + img.Extension
	if l.folder == "" {
		return name
	}
	return l.folder + "/" + name
}

func (l locator) urlFor(key string) string {
	return l.publicURL + "/" + key
}

// keyFromURL strips the public base from rawURL. Query strings and
// fragments are ignored; the remaining path must be non-empty.
func (l locator) keyFromURL(rawURL string) (string, bool) {
	if l.publicURL == "" || !strings.HasPrefix(rawURL, l.publicURL+"/") {
		return "", false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	base, err := url.Parse(l.publicURL)
	if err != nil || u.Host != base.Host {
		return "", false
	}
	key := strings.TrimPrefix(u.Path, strings.TrimRight(base.Path, "/"))
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" || key == "." {
		return "", false
	}
	return key, true
}
