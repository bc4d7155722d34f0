package absint

import "github.com/cs-au-dk/golisa/analysis/cfg"

// Config tunes the fixpoint computation.
type Config struct {
	// WideningThreshold is the number of joins performed at a widening point
	// before widening is applied. Negative values disable widening, which
	// guarantees termination only on lattices of finite height.
	WideningThreshold int
	// GLBThreshold bounds the number of descending iterations performed with
	// glb after the ascending fixpoint. Zero disables the descending phase.
	GLBThreshold int
	// Optimize only keeps the post-states of widening points and hotspots in
	// the results. The other states are recomputed when unwinding.
	Optimize bool
	// Hotspots selects the nodes whose post-states are kept by Optimize.
	Hotspots func(*cfg.Node) bool
}

// DefaultConfig widens after 5 joins and does not descend.
func DefaultConfig() Config {
	return Config{WideningThreshold: 5}
}

func (c Config) keepsPost(g *cfg.CFG, n *cfg.Node) bool {
	return !c.Optimize || g.IsWideningPoint(n) || c.Hotspots != nil && c.Hotspots(n)
}
