package routing

import "github.com/arjun/caproute/backend/internal/domain"

// EnumeratePaths returns every simple directed path from source to destination
// with at most maxHops corridors, in the deterministic order induced by the
// network's sorted neighbor lists. An empty result means no route exists
// within the hop budget; that is not an error.
//
// The traversal is a depth-first walk tracking the nodes on the current path,
// pruned as soon as the hop budget is spent. Tractability is guaranteed by the
// service-level hop ceiling, not here.
func EnumeratePaths(n *Network, source, destination string, maxHops int) []domain.Path {
	source = domain.NormalizeCode(source)
	destination = domain.NormalizeCode(destination)
	if maxHops < 1 || source == destination {
		return nil
	}
	if !n.HasJurisdiction(source) || !n.HasJurisdiction(destination) {
		return nil
	}

	var (
		found   []domain.Path
		visited = map[string]bool{source: true}
		current = domain.Path{source}
	)

	var walk func(node string)
	walk = func(node string) {
		for _, corridor := range n.Neighbors(node) {
			next := corridor.To
			if next == destination {
				path := make(domain.Path, len(current)+1)
				copy(path, current)
				path[len(current)] = next
				found = append(found, path)
				continue
			}
			if visited[next] || len(current) > maxHops-1 {
				continue
			}
			visited[next] = true
			current = append(current, next)
			walk(next)
			current = current[:len(current)-1]
			delete(visited, next)
		}
	}

	walk(source)
	return found
}
