package absint

import (
	"github.com/cs-au-dk/golisa/analysis/cfg"
	"github.com/cs-au-dk/golisa/utils/pq"

	"github.com/pkg/errors"
)

// Fixpoint computes the pre- and post-states of every node of the CFG,
// starting from the entry state. Nodes are processed in reverse postorder
// with a priority worklist. Incoming states are widened at widening points
// once the widening threshold of joins is exceeded. Calls are resolved with
// the resolver.
func Fixpoint[A State[A]](g *cfg.CFG, entry AnalysisState[A], resolver CallResolver[A], conf Config) (*AnalyzedCFG[A], error) {
	res := newAnalyzed(g, entry, conf)
	if g.Entry() == nil {
		return res, nil
	}

	f := &fixpoint[A]{
		g:        g,
		entry:    entry,
		resolver: resolver,
		conf:     conf,
		pres:     make(map[*cfg.Node]AnalysisState[A]),
		posts:    make(map[*cfg.Node]AnalysisState[A]),
		joins:    make(map[*cfg.Node]int),
	}

	if err := f.ascend(); err != nil {
		return res, err
	}
	if err := f.descend(); err != nil {
		return res, err
	}

	for _, n := range g.ReturnNodes() {
		post, ok := f.posts[n]
		if !ok {
			continue
		}
		var err error
		if res.exit, err = res.exit.Join(post); err != nil {
			return res, err
		}
	}

	for n, pre := range f.pres {
		if !conf.Optimize {
			res.pre = res.pre.Set(n, pre)
		}
		if conf.keepsPost(g, n) {
			res.post = res.post.Set(n, f.posts[n])
		}
	}
	return res, nil
}

type fixpoint[A State[A]] struct {
	g        *cfg.CFG
	entry    AnalysisState[A]
	resolver CallResolver[A]
	conf     Config

	pres  map[*cfg.Node]AnalysisState[A]
	posts map[*cfg.Node]AnalysisState[A]
	// Number of joins performed at every widening point.
	joins map[*cfg.Node]int
}

// incoming joins the states flowing into a node along its edges. The entry
// node also receives the entry state.
func (f *fixpoint[A]) incoming(n *cfg.Node) (AnalysisState[A], error) {
	st := f.entry.Bot()
	if n == f.g.Entry() {
		st = f.entry
	}

	for _, e := range n.Incoming() {
		post, ok := f.posts[e.From]
		if !ok {
			continue
		}
		flow, err := Traverse(e, post)
		if err != nil {
			return st, err
		}
		if st, err = st.Join(flow); err != nil {
			return st, err
		}
	}

	return st.with(st.State, nil), nil
}

func (f *fixpoint[A]) merge(n *cfg.Node, old, next AnalysisState[A]) (AnalysisState[A], error) {
	thr := f.conf.WideningThreshold
	if thr < 0 || f.joins[n] < thr {
		f.joins[n]++
		return old.Join(next)
	}
	return old.Widen(next)
}

func (f *fixpoint[A]) transfer(n *cfg.Node, pre AnalysisState[A]) error {
	post, err := Semantics(n, pre, f.resolver)
	if err != nil {
		return errors.WithMessagef(err, "while analyzing %s", n.ID())
	}
	f.pres[n], f.posts[n] = pre, post
	return nil
}

func (f *fixpoint[A]) ascend() error {
	order := f.g.ReversePostorder()
	prio := make(map[*cfg.Node]int, len(order))
	for i, n := range order {
		prio[n] = i
	}

	ws := pq.Empty(func(a, b *cfg.Node) bool { return prio[a] < prio[b] })
	ws.Add(f.g.Entry())

	for !ws.IsEmpty() {
		n := ws.GetNext()
		pre, err := f.incoming(n)
		if err != nil {
			return err
		}

		if old, seen := f.pres[n]; seen {
			if f.g.IsWideningPoint(n) {
				if pre, err = f.merge(n, old, pre); err != nil {
					return err
				}
			}
			if leq, err := pre.Leq(old); err != nil {
				return err
			} else if leq {
				continue
			}
		}

		if err := f.transfer(n, pre); err != nil {
			return err
		}
		for _, succ := range n.Successors() {
			ws.Add(succ)
		}
	}
	return nil
}

// descend refines the ascending fixpoint with glb, for at most
// GLBThreshold rounds over the nodes.
func (f *fixpoint[A]) descend() error {
	order := f.g.ReversePostorder()
	for i := 0; i < f.conf.GLBThreshold; i++ {
		changed := false
		for _, n := range order {
			old, seen := f.pres[n]
			if !seen {
				continue
			}

			pre, err := f.incoming(n)
			if err != nil {
				return err
			}
			if pre, err = old.Meet(pre); err != nil {
				return err
			}
			if pre.Equal(old) {
				continue
			}

			changed = true
			if err := f.transfer(n, pre); err != nil {
				return err
			}
		}
		if !changed {
			return nil
		}
	}
	return nil
}
