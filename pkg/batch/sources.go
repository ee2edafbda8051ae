package batch

import (
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/jingkaihe/distill/pkg/types/distill"
)

// ErrNoSources is returned when the input resolves to no sources
var ErrNoSources = &distill.Error{
	Kind:    distill.KindNotFound,
	Message: "no input sources found",
	Hint:    "check the file path or glob pattern passed to --input",
}

// ExpandSources resolves a comma separated list of paths, URLs and glob
// patterns. Patterns support ** and expand in lexical order; a pattern that
// matches nothing contributes nothing. Duplicates are dropped. An empty
// result is ErrNoSources.
func ExpandSources(input string) ([]string, error) {
	var sources []string
	seen := make(map[string]struct{})
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		sources = append(sources, s)
	}

	for _, entry := range strings.Split(input, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if isURL(entry) || !hasMeta(entry) {
			add(entry)
			continue
		}

		matches, err := doublestar.FilepathGlob(entry, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrapf(err, "invalid glob pattern %q", entry)
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}

	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	return sources, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func hasMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}
