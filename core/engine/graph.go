package engine

import (
	"fmt"
	"sort"

	"github.com/enervision/transition/core/model"
)

// taxonomy is the classified technology set of one market. The forecast
// dependency order is explicit: the market total and every challenger
// and chimera are forecast before the incumbent, which is a residual of
// all of them.
type taxonomy struct {
	market     model.Technology
	incumbent  model.Technology
	disruptors []model.Technology
	chimeras   []model.Technology
	byName     map[string]model.Technology
}

// buildTaxonomy classifies taxonomy entries and rejects malformed sets:
// the market needs exactly one market entity and exactly one incumbent,
// and names must be unique.
func buildTaxonomy(techs []model.Technology) (taxonomy, error) {
	tax := taxonomy{byName: make(map[string]model.Technology, len(techs))}
	var markets, incumbents int
	for _, tech := range techs {
		if err := tech.Validate(); err != nil {
			return taxonomy{}, err
		}
		if _, ok := tax.byName[tech.Name]; ok {
			return taxonomy{}, fmt.Errorf("duplicate technology %s", tech.Name)
		}
		tax.byName[tech.Name] = tech
		switch tech.Role {
		case model.RoleMarket:
			tax.market = tech
			markets++
		case model.RoleIncumbent:
			tax.incumbent = tech
			incumbents++
		case model.RoleDisruptor:
			tax.disruptors = append(tax.disruptors, tech)
		case model.RoleChimera:
			tax.chimeras = append(tax.chimeras, tech)
		}
	}
	if markets != 1 {
		return taxonomy{}, fmt.Errorf("taxonomy needs exactly one market entity, found %d", markets)
	}
	if incumbents != 1 {
		return taxonomy{}, fmt.Errorf("taxonomy needs exactly one incumbent, found %d", incumbents)
	}
	sort.Slice(tax.disruptors, func(i, j int) bool { return tax.disruptors[i].Name < tax.disruptors[j].Name })
	sort.Slice(tax.chimeras, func(i, j int) bool { return tax.chimeras[i].Name < tax.chimeras[j].Name })
	return tax, nil
}

// order returns the technologies in forecast dependency order, computed
// once per run by topologically sorting the explicit dependency graph.
func (t taxonomy) order() ([]model.Technology, error) {
	deps := make(map[string][]string, len(t.byName))
	deps[t.market.Name] = nil
	for _, d := range t.disruptors {
		deps[d.Name] = []string{t.market.Name}
	}
	for _, c := range t.chimeras {
		deps[c.Name] = []string{t.market.Name}
	}
	incumbentDeps := []string{t.market.Name}
	for _, d := range t.disruptors {
		incumbentDeps = append(incumbentDeps, d.Name)
	}
	for _, c := range t.chimeras {
		incumbentDeps = append(incumbentDeps, c.Name)
	}
	deps[t.incumbent.Name] = incumbentDeps

	names, err := topoSort(deps)
	if err != nil {
		return nil, err
	}
	out := make([]model.Technology, 0, len(names))
	for _, name := range names {
		out = append(out, t.byName[name])
	}
	return out, nil
}

// topoSort is a deterministic Kahn's algorithm: ready nodes are visited
// in lexical order. A remaining cycle is a malformed taxonomy.
func topoSort(deps map[string][]string) ([]string, error) {
	indegree := make(map[string]int, len(deps))
	dependents := make(map[string][]string, len(deps))
	for node, ds := range deps {
		if _, ok := indegree[node]; !ok {
			indegree[node] = 0
		}
		for _, d := range ds {
			if _, ok := deps[d]; !ok {
				return nil, fmt.Errorf("dependency %s of %s is not in the graph", d, node)
			}
			indegree[node]++
			dependents[d] = append(dependents[d], node)
		}
	}

	var ready []string
	for node, n := range indegree {
		if n == 0 {
			ready = append(ready, node)
		}
	}
	sort.Strings(ready)

	var out []string
	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		out = append(out, node)
		added := false
		for _, dep := range dependents[node] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
				added = true
			}
		}
		if added {
			sort.Strings(ready)
		}
	}
	if len(out) != len(deps) {
		return nil, fmt.Errorf("technology graph has a cycle")
	}
	return out, nil
}
