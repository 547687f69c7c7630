package cache

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Key computes a deterministic SHA-256 cache key from the request
// shape. Two logically identical requests collide; two different ones
// never do. The body participates only for non-GET methods, matching
// the backend contract where a GET is fully described by its path and
// query. The key is hex-encoded.
func Key(method, path, query string, body []byte) string {
	method = canonicalMethod(method)

	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0}) // separator
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(query))
	h.Write([]byte{0})
	if method != "GET" && len(body) > 0 {
		h.Write(body)
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}

// Family extracts the resource family from a request path: its first
// path segment. "/products/42" and "/products?page=1" both map to
// "products", which is the invalidation granularity for mutations.
func Family(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexAny(path, "/?"); i >= 0 {
		path = path[:i]
	}
	return path
}

// canonicalMethod upper-cases the method and maps "" to GET, the
// pipeline's default.
func canonicalMethod(method string) string {
	if method == "" {
		return "GET"
	}
	return strings.ToUpper(method)
}
