package graph

/*
	This package exposes utilities for working with graph structures.

	The call graph and control-flow graphs of the analyzed program both need
	strongly connected components and reachability. Callers only provide
	a function describing the edge relation (and a key-value map factory for
	the node type).
*/

type Mapper[K any] interface {
	Get(key K) (any, bool)
	Set(key K, value any)
}

type mapFactory[K any] func() Mapper[K]
type edgesOf[T any] func(node T) []T

type Graph[T any] struct {
	mapFactory  mapFactory[T]
	edgesOf     edgesOf[T]
	cachedEdges Mapper[T]
}

// Edges returns the successors of a node. The result of the edge function is
// cached per node.
func (G Graph[T]) Edges(node T) []T {
	if cached, found := G.cachedEdges.Get(node); found {
		return cached.([]T)
	}

	es := G.edgesOf(node)
	G.cachedEdges.Set(node, es)
	return es
}

func Of[T any](mapFactory mapFactory[T], edgesOf edgesOf[T]) Graph[T] {
	return Graph[T]{
		mapFactory,
		edgesOf,
		mapFactory(),
	}
}

// Mapper implementation using Go's builtin maps
type mapMapper[K comparable] map[K]any

func (m mapMapper[K]) Get(key K) (any, bool) {
	value, ok := m[key]
	return value, ok
}

func (m mapMapper[K]) Set(key K, value any) {
	m[key] = value
}

func OfHashable[K comparable](edgesOf edgesOf[K]) Graph[K] {
	return Of(func() Mapper[K] { return mapMapper[K]{} }, edgesOf)
}

// Reverse returns the graph with the edges of G inverted, restricted to the
// nodes in the given universe.
func Reverse[K comparable](G Graph[K], universe []K) Graph[K] {
	preds := map[K][]K{}
	for _, n := range universe {
		for _, succ := range G.Edges(n) {
			preds[succ] = append(preds[succ], n)
		}
	}
	return OfHashable(func(n K) []K { return preds[n] })
}
