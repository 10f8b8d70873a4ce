// Package plan implements the topological ordering machinery used for
// both namespace ordering and within-namespace command ordering (§4.4):
// Kahn's algorithm on a node -> set-of-prerequisites graph.
package plan

import "fmt"

// CycleError is returned when the node count emitted by Topological is
// less than the input node count, meaning a cycle exists among the
// remaining nodes.
type CycleError struct {
	Remaining []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("plan: cycle detected among nodes %v", e.Remaining)
}

// Topological orders nodes such that every node appears after all of
// its prerequisites, using Kahn's algorithm: seed a queue with
// zero-in-degree nodes, repeatedly pop and decrement. If the emitted
// count is less than len(nodes), the remainder forms a cycle and a
// *CycleError is returned.
//
// prereqs maps a node to the set of nodes it depends on (must run
// before it). Nodes not present as a prereqs key are assumed to have no
// prerequisites. The input order of nodes is used to break ties
// deterministically (ascending queue order), so the same graph always
// produces the same plan.
func Topological(nodes []string, prereqs map[string]map[string]struct{}) ([]string, error) {
	indegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))
	nodeSet := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		nodeSet[n] = struct{}{}
		indegree[n] = 0
	}
	for _, n := range nodes {
		prereqSet := prereqs[n]
		for p := range prereqSet {
			if _, ok := nodeSet[p]; !ok {
				continue
			}
			indegree[n]++
			dependents[p] = append(dependents[p], n)
		}
	}

	var queue []string
	for _, n := range nodes {
		if indegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	var out []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		out = append(out, n)
		for _, dep := range dependents[n] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(out) < len(nodes) {
		emitted := make(map[string]struct{}, len(out))
		for _, n := range out {
			emitted[n] = struct{}{}
		}
		var remaining []string
		for _, n := range nodes {
			if _, ok := emitted[n]; !ok {
				remaining = append(remaining, n)
			}
		}
		return nil, &CycleError{Remaining: remaining}
	}

	return out, nil
}
