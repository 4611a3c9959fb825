package cache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stephen-lakes/optimalvid/internal/domain/repository"
)

const (
	// VideoResource is the key prefix of every cached video list.
	VideoResource = "videos"

	// allMarker stands in for an absent filter.
	allMarker = "all"

	keySeparator = ":"
)

// Key identifies one cached query result.
type Key string

func (k Key) String() string {
	return string(k)
}

// ComputeKey derives the cache key for a query on resource.
// Each filter is a single value; "" means the filter is absent and encodes as "all".
//
// Present values are percent-escaped ('%', ':' and control bytes), and a literal
// "all" value encodes as "%61ll", so distinct queries never share a key.
func ComputeKey(resource string, page, limit int, filters ...string) Key {
	parts := make([]string, 0, len(filters)+3)
	parts = append(parts, resource)
	for _, f := range filters {
		parts = append(parts, escapeField(f))
	}
	parts = append(parts, strconv.Itoa(page), strconv.Itoa(limit))
	return Key(strings.Join(parts, keySeparator))
}

// VideoListKey returns videos:<genre|all>:<tag|all>:<page>:<limit> for a normalized filter.
func VideoListKey(f repository.VideoFilter) Key {
	return ComputeKey(VideoResource, f.Page, f.Limit, f.Genre, f.Tag)
}

func escapeField(v string) string {
	if v == "" {
		return allMarker
	}

	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '%' || c == ':' || c < 0x20 || c == 0x7f {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteByte(c)
	}

	s := b.String()
	if s == allMarker {
		return "%61ll"
	}
	return s
}
