package engine

import (
	"testing"

	"github.com/enervision/transition/core/model"
)

func roadTaxonomy() []model.Technology {
	return []model.Technology{
		{Name: "road_transport", Role: model.RoleMarket},
		{Name: "ice", Role: model.RoleIncumbent, LifetimeYears: 15},
		{Name: "bev", Role: model.RoleDisruptor, LifetimeYears: 15},
		{Name: "hybrid", Role: model.RoleChimera, LifetimeYears: 15},
	}
}

func TestBuildTaxonomy(t *testing.T) {
	tax, err := buildTaxonomy(roadTaxonomy())
	if err != nil {
		t.Fatalf("buildTaxonomy: %v", err)
	}
	if tax.market.Name != "road_transport" {
		t.Fatalf("market = %s", tax.market.Name)
	}
	if tax.incumbent.Name != "ice" {
		t.Fatalf("incumbent = %s", tax.incumbent.Name)
	}
	if len(tax.disruptors) != 1 || tax.disruptors[0].Name != "bev" {
		t.Fatalf("disruptors = %+v", tax.disruptors)
	}
	if len(tax.chimeras) != 1 || tax.chimeras[0].Name != "hybrid" {
		t.Fatalf("chimeras = %+v", tax.chimeras)
	}
}

func TestBuildTaxonomy_RejectsDuplicates(t *testing.T) {
	techs := append(roadTaxonomy(), model.Technology{Name: "bev", Role: model.RoleDisruptor})
	if _, err := buildTaxonomy(techs); err == nil {
		t.Fatal("expected error for duplicate name")
	}
}

func TestBuildTaxonomy_RejectsMissingRoles(t *testing.T) {
	if _, err := buildTaxonomy([]model.Technology{
		{Name: "ice", Role: model.RoleIncumbent},
	}); err == nil {
		t.Fatal("expected error with no market entity")
	}
	if _, err := buildTaxonomy([]model.Technology{
		{Name: "road_transport", Role: model.RoleMarket},
		{Name: "bev", Role: model.RoleDisruptor},
	}); err == nil {
		t.Fatal("expected error with no incumbent")
	}
	if _, err := buildTaxonomy([]model.Technology{
		{Name: "road_transport", Role: model.RoleMarket},
		{Name: "ice", Role: model.RoleIncumbent},
		{Name: "diesel", Role: model.RoleIncumbent},
	}); err == nil {
		t.Fatal("expected error with two incumbents")
	}
}

func TestOrder_IncumbentLast(t *testing.T) {
	tax, err := buildTaxonomy(roadTaxonomy())
	if err != nil {
		t.Fatalf("buildTaxonomy: %v", err)
	}
	ordered, err := tax.order()
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if len(ordered) != 4 {
		t.Fatalf("expected 4 technologies, got %d", len(ordered))
	}
	if ordered[0].Name != "road_transport" {
		t.Fatalf("market should be first, got %s", ordered[0].Name)
	}
	if ordered[len(ordered)-1].Name != "ice" {
		t.Fatalf("incumbent should be last, got %s", ordered[len(ordered)-1].Name)
	}
}

func TestOrder_Deterministic(t *testing.T) {
	tax, err := buildTaxonomy(roadTaxonomy())
	if err != nil {
		t.Fatalf("buildTaxonomy: %v", err)
	}
	first, err := tax.order()
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := tax.order()
		if err != nil {
			t.Fatalf("order: %v", err)
		}
		for j := range first {
			if again[j].Name != first[j].Name {
				t.Fatalf("order changed between runs: %s vs %s at %d", again[j].Name, first[j].Name, j)
			}
		}
	}
}

func TestTopoSort_RejectsCycle(t *testing.T) {
	deps := map[string][]string{
		"a": {"b"},
		"b": {"a"},
	}
	if _, err := topoSort(deps); err == nil {
		t.Fatal("expected error for cyclic graph")
	}
}

func TestTopoSort_RejectsUnknownDependency(t *testing.T) {
	deps := map[string][]string{
		"a": {"ghost"},
	}
	if _, err := topoSort(deps); err == nil {
		t.Fatal("expected error for dependency outside the graph")
	}
}
