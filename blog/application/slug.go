package application

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	slugStripPattern    = regexp.MustCompile(`[^\w\s]`)
	slugCollapsePattern = regexp.MustCompile(`\s+`)
)

// GenerateSlug derives a URL-safe identifier from a title: lowercased,
// punctuation stripped, whitespace runs collapsed to hyphens, with the last
// six digits of the current millisecond clock appended to reduce collision
// probability. The unique constraint on the posts table is the real
// backstop; callers retry with a fresh slug on conflict.
func GenerateSlug(title string) string {
	return generateSlugAt(title, time.Now())
}

func generateSlugAt(title string, now time.Time) string {
	s := strings.ToLower(title)
	s = slugStripPattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = slugCollapsePattern.ReplaceAllString(s, "-")

	ms := strconv.FormatInt(now.UnixMilli(), 10)
	suffix := ms
	if len(ms) > 6 {
		suffix = ms[len(ms)-6:]
	}

	if s == "" {
		return suffix
	}
	return s + "-" + suffix
}
