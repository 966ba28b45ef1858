package model_selection

import (
	"sort"
)

// Params is one hyperparameter configuration, keyed by parameter name.
type Params map[string]interface{}

// Grid maps each tunable parameter name to its candidate values. The cross
// product of all value lists is the search space.
type Grid map[string][]interface{}

// Enumerate expands the grid into the full list of configurations in a
// deterministic order: parameter names sorted, values in declaration order,
// last parameter varying fastest. An empty grid yields a single empty
// configuration, so the search degenerates to one untuned fit. The
// deterministic ordering is what makes the trainer's first-seen tie-break
// reproducible.
func (g Grid) Enumerate() []Params {
	if len(g) == 0 {
		return []Params{{}}
	}

	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)

	total := 1
	for _, name := range names {
		total *= len(g[name])
	}
	if total == 0 {
		return []Params{{}}
	}

	out := make([]Params, 0, total)
	counters := make([]int, len(names))
	for {
		p := make(Params, len(names))
		for i, name := range names {
			p[name] = g[name][counters[i]]
		}
		out = append(out, p)

		// Odometer increment, last name fastest.
		i := len(names) - 1
		for i >= 0 {
			counters[i]++
			if counters[i] < len(g[names[i]]) {
				break
			}
			counters[i] = 0
			i--
		}
		if i < 0 {
			break
		}
	}
	return out
}
