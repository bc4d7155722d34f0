package powerset

import "github.com/cs-au-dk/golisa/analysis/lattice"

// canonical brings a collection of elements to canonical form: an antichain
// of non-bottom, pairwise disjoint elements.
func (s Set[E]) canonical(elems []E) (Set[E], error) {
	reduced, err := s.omega(elems)
	if err != nil {
		return s, err
	}
	disjoint, err := s.removeOverlap(reduced)
	if err != nil {
		return s, err
	}
	return s.with(disjoint), nil
}

// omega removes bottom elements, duplicates and every element that is
// strictly dominated by another element.
func (s Set[E]) omega(elems []E) ([]E, error) {
	res := make([]E, 0, len(elems))
	for i, e := range elems {
		if e.IsBot() || contains(res, e) {
			continue
		}

		dominated := false
		for j, o := range elems {
			if i == j {
				continue
			}
			strict, err := lattice.StrictlyLeq(e, o)
			if err != nil {
				return nil, err
			}
			if strict {
				dominated = true
				break
			}
		}
		if !dominated {
			res = append(res, e)
		}
	}
	return res, nil
}

// removeOverlap adds the merge of every pair of overlapping elements until
// the collection stops growing, and reduces the result with omega. The step
// is repeated until no two elements overlap.
func (s Set[E]) removeOverlap(elems []E) ([]E, error) {
	for {
		current := elems
		for {
			var next []E
			for _, e1 := range current {
				overlapping := false
				for _, e2 := range current {
					m, err := e1.Meet(e2)
					if err != nil {
						return nil, err
					}
					if m.IsBot() {
						continue
					}
					merged, err := s.merge(e1, e2)
					if err != nil {
						return nil, err
					}
					if !contains(next, merged) {
						next = append(next, merged)
					}
					overlapping = true
				}
				if !overlapping && !contains(next, e1) {
					next = append(next, e1)
				}
			}

			done := len(next) == len(current)
			current = next
			if done {
				break
			}
		}

		reduced, err := s.omega(current)
		if err != nil {
			return nil, err
		}
		overlap, err := overlaps(reduced)
		if err != nil || !overlap {
			return reduced, err
		}
		elems = reduced
	}
}

func (s Set[E]) merge(e1, e2 E) (E, error) {
	if s.strategy != nil && s.strategy.Merge != nil {
		return s.strategy.Merge(e1, e2)
	}
	return e1.Join(e2)
}

// overlaps checks whether two distinct elements have a non-bottom meet.
func overlaps[E lattice.Lattice[E]](elems []E) (bool, error) {
	for i, e1 := range elems {
		for _, e2 := range elems[i+1:] {
			m, err := e1.Meet(e2)
			if err != nil {
				return false, err
			}
			if !m.IsBot() {
				return true, nil
			}
		}
	}
	return false, nil
}
