package interproc

import (
	"strings"

	"github.com/cs-au-dk/golisa/analysis/cfg"
	"github.com/cs-au-dk/golisa/utils"
)

// Token distinguishes the calling contexts of a CFG. Results are cached per
// CFG and token.
type Token interface {
	utils.HashableEq[Token]
	String() string

	// Push returns the token of a callee entered through the call.
	Push(call *cfg.Node) Token
}

// Insensitive merges every calling context.
type Insensitive struct{}

func (Insensitive) Push(*cfg.Node) Token { return Insensitive{} }

func (Insensitive) Hash() uint32 { return 0 }

func (Insensitive) Equal(o Token) bool {
	_, ok := o.(Insensitive)
	return ok
}

func (Insensitive) String() string { return "*" }

// callString is a bounded sequence of call sites, most recent last. A
// negative bound keeps the whole call string.
type callString struct {
	bound int
	calls []*cfg.Node
}

func (c callString) push(call *cfg.Node) callString {
	calls := make([]*cfg.Node, 0, len(c.calls)+1)
	calls = append(calls, c.calls...)
	calls = append(calls, call)
	if c.bound >= 0 && len(calls) > c.bound {
		calls = calls[len(calls)-c.bound:]
	}
	return callString{c.bound, calls}
}

func (c callString) hash() uint32 {
	hs := make([]uint32, 0, len(c.calls)+1)
	hs = append(hs, uint32(c.bound))
	for _, call := range c.calls {
		hs = append(hs, utils.HashString(call.ID()))
	}
	return utils.HashCombine(hs...)
}

func (c callString) equal(o callString) bool {
	if c.bound != o.bound || len(c.calls) != len(o.calls) {
		return false
	}
	for i, call := range c.calls {
		if o.calls[i] != call {
			return false
		}
	}
	return true
}

func (c callString) String() string {
	strs := make([]string, 0, len(c.calls))
	for _, call := range c.calls {
		strs = append(strs, call.ID())
	}
	return "[" + strings.Join(strs, ", ") + "]"
}

// LastCall distinguishes contexts by the most recent call site.
type LastCall struct{ cs callString }

func NewLastCall() LastCall { return LastCall{callString{bound: 1}} }

func (t LastCall) Push(call *cfg.Node) Token { return LastCall{t.cs.push(call)} }

func (t LastCall) Hash() uint32 { return t.cs.hash() }

func (t LastCall) Equal(o Token) bool {
	ot, ok := o.(LastCall)
	return ok && t.cs.equal(ot.cs)
}

func (t LastCall) String() string { return t.cs.String() }

// KDepth distinguishes contexts by the last k call sites.
type KDepth struct{ cs callString }

func NewKDepth(k int) KDepth {
	if k < 0 {
		k = 0
	}
	return KDepth{callString{bound: k}}
}

func (t KDepth) Push(call *cfg.Node) Token { return KDepth{t.cs.push(call)} }

func (t KDepth) Hash() uint32 { return t.cs.hash() }

func (t KDepth) Equal(o Token) bool {
	ot, ok := o.(KDepth)
	return ok && t.cs.equal(ot.cs)
}

func (t KDepth) String() string { return t.cs.String() }

// FullStack distinguishes contexts by the whole call string. Recursive
// chains are cut by recursion detection, so the call strings stay finite.
type FullStack struct{ cs callString }

func NewFullStack() FullStack { return FullStack{callString{bound: -1}} }

func (t FullStack) Push(call *cfg.Node) Token { return FullStack{t.cs.push(call)} }

func (t FullStack) Hash() uint32 { return t.cs.hash() }

func (t FullStack) Equal(o Token) bool {
	ot, ok := o.(FullStack)
	return ok && t.cs.equal(ot.cs)
}

func (t FullStack) String() string { return t.cs.String() }
