package record

import (
	"sort"
	"strings"
)

// dedupe removes exact duplicates, keeping first occurrence order.
func dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// TagKey is the comparison key for a tag: lowercased, without a leading '#'.
func TagKey(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}

// CollectTags returns the collection-level tag set. "#Budget", "budget" and
// "#budget" collapse into one entry spelled as first seen; the result is
// sorted by key.
func CollectTags(calls []CallRecord) []string {
	first := make(map[string]string)
	for _, c := range calls {
		for _, t := range c.Tags {
			k := TagKey(t)
			if k == "" {
				continue
			}
			if _, ok := first[k]; !ok {
				first[k] = strings.TrimSpace(t)
			}
		}
	}
	keys := make([]string, 0, len(first))
	for k := range first {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = first[k]
	}
	return out
}

// TagCount pairs a tag with the number of calls carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// CountTags counts calls per tag key, most frequent first, ties by key.
func CountTags(calls []CallRecord) []TagCount {
	counts := make(map[string]int)
	first := make(map[string]string)
	for _, c := range calls {
		perCall := make(map[string]bool)
		for _, t := range c.Tags {
			k := TagKey(t)
			if k == "" || perCall[k] {
				continue
			}
			perCall[k] = true
			counts[k]++
			if _, ok := first[k]; !ok {
				first[k] = strings.TrimSpace(t)
			}
		}
	}
	out := make([]TagCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, TagCount{Tag: first[k], Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return TagKey(out[i].Tag) < TagKey(out[j].Tag)
	})
	return out
}
