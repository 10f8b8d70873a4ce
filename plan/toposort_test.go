package plan

import "testing"

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func TestTopologicalOrdersRespectPrereqs(t *testing.T) {
	nodes := []string{"a", "b", "c"}
	prereqs := map[string]map[string]struct{}{
		"b": {"a": {}},
		"c": {"b": {}},
	}
	order, err := Topological(nodes, prereqs)
	if err != nil {
		t.Fatalf("Topological: %v", err)
	}
	if indexOf(order, "a") > indexOf(order, "b") || indexOf(order, "b") > indexOf(order, "c") {
		t.Errorf("order violates prerequisites: %v", order)
	}
}

func TestTopologicalDetectsCycle(t *testing.T) {
	nodes := []string{"a", "b"}
	prereqs := map[string]map[string]struct{}{
		"a": {"b": {}},
		"b": {"a": {}},
	}
	_, err := Topological(nodes, prereqs)
	if err == nil {
		t.Fatal("expected cycle error")
	}
	var cycleErr *CycleError
	if ce, ok := err.(*CycleError); ok {
		cycleErr = ce
	}
	if cycleErr == nil {
		t.Fatalf("expected *CycleError, got %T", err)
	}
}

func TestTopologicalNoPrereqsIsInputOrder(t *testing.T) {
	nodes := []string{"x", "y", "z"}
	order, err := Topological(nodes, nil)
	if err != nil {
		t.Fatalf("Topological: %v", err)
	}
	for i, n := range nodes {
		if order[i] != n {
			t.Errorf("expected stable order, got %v", order)
		}
	}
}

func TestTopologicalCompleteForDAG(t *testing.T) {
	nodes := []string{"a", "b", "c", "d"}
	prereqs := map[string]map[string]struct{}{
		"b": {"a": {}},
		"c": {"a": {}},
		"d": {"b": {}, "c": {}},
	}
	order, err := Topological(nodes, prereqs)
	if err != nil {
		t.Fatalf("Topological: %v", err)
	}
	if len(order) != len(nodes) {
		t.Errorf("expected complete order, got %v", order)
	}
}
