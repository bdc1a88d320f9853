package weaviate

import (
	"sort"
	"strings"
)

// otherModuleGroup collects module names that carry no family prefix.
const otherModuleGroup = "other"

// ModuleNames returns the sorted module names from a /v1/meta modules map.
func ModuleNames(modules map[string]interface{}) []string {
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GroupModules buckets module names by family: the part before the first
// hyphen ("text2vec-openai" becomes "text2vec"). Names without a hyphen
// land in the "other" bucket. Each bucket's contents are sorted.
func GroupModules(names []string) map[string][]string {
	groups := make(map[string][]string)

	for _, name := range names {
		group := otherModuleGroup
		if i := strings.Index(name, "-"); i > 0 {
			group = name[:i]
		}
		groups[group] = append(groups[group], name)
	}

	for _, members := range groups {
		sort.Strings(members)
	}
	return groups
}

// GroupNames returns the bucket names of a GroupModules result in sorted
// order, for stable iteration.
func GroupNames(groups map[string][]string) []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
