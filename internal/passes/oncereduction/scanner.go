// Package oncereduction implements OnceReduction: it finds functions guarded
// by a monotonic boolean "once" global (the `if (get g) return; set g = 1`
// idiom) and eliminates the redundant guard writes and calls that dominator
// reasoning proves can never fire twice.
package oncereduction

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/SoundStacks/binaryen/ir"
)

// globalState tracks one candidate once-global across the whole module scan.
// rejectedByWrite and extraReads are both written by concurrently running
// per-function scanners; both are monotone (a write only ever sets
// rejectedByWrite true, extraReads only ever grows), so unsynchronized
// concurrent updates are safe.
type globalState struct {
	candidate       bool
	rejectedByWrite atomic.Bool
	extraReads      atomic.Int64
}

// ScanResult is the merged output of the once-guard scanner: which function
// claims which guard global, and which globals survived rejection.
type ScanResult struct {
	// guardedBy maps function name to the global name its body's guard
	// pattern matched, before the global-rejection downgrade.
	guardedBy map[string]string
	globals   map[string]*globalState
}

// GuardedByName returns the global g such that the function named name is
// GuardedBy(g), and true, or ("", false) if it is not guarded (either it
// never matched the pattern, or its claimed guard global was rejected
// elsewhere in the module).
func (r *ScanResult) GuardedByName(name string) (string, bool) {
	g, ok := r.guardedBy[name]
	if !ok {
		return "", false
	}
	if r.isRejected(g) {
		return "", false
	}
	return g, true
}

// IsOnce reports whether g is a once-global that survived rejection.
func (r *ScanResult) IsOnce(g string) bool {
	st, ok := r.globals[g]
	return ok && st.candidate && !r.isRejected(g)
}

func (r *ScanResult) isRejected(g string) bool {
	st, ok := r.globals[g]
	if !ok {
		return true
	}
	return st.rejectedByWrite.Load() || st.extraReads.Load() > 0
}

// isPositiveIntegerConstant reports whether expr is the shape a once-global
// set must have to avoid rejecting its global.
func isPositiveIntegerConstant(expr ir.Expression) bool {
	return ir.IsConstantExpression(expr) && ir.ConstantLiteral(expr).IsPositiveInteger()
}

// matchGuardPattern checks whether fn's body is exactly:
//
//	block {
//	  if (global.get g) { return }   ; no else
//	  global.set g = const           ; reachable value
//	  ...
//	}
//
// and, if so, returns g's name and the *ir.GlobalGet node that performed the
// pattern's exempted read.
func matchGuardPattern(fn *ir.Function) (guard string, exempt *ir.GlobalGet, ok bool) {
	if !fn.IsNiladic() {
		return "", nil, false
	}
	block, isBlock := fn.Body.(*ir.Block)
	if !isBlock || len(block.List) < 2 {
		return "", nil, false
	}
	ifStmt, isIf := block.List[0].(*ir.If)
	if !isIf || ifStmt.Else != nil {
		return "", nil, false
	}
	get, isGet := ifStmt.Cond.(*ir.GlobalGet)
	if !isGet {
		return "", nil, false
	}
	ret, isReturn := ifStmt.Then.(*ir.Return)
	if !isReturn || ret.Value != nil {
		return "", nil, false
	}
	set, isSet := block.List[1].(*ir.GlobalSet)
	if !isSet || set.Name != get.Name {
		return "", nil, false
	}
	if set.Value.Type().IsUnreachable() {
		return "", nil, false
	}
	if !isPositiveIntegerConstant(set.Value) {
		return "", nil, false
	}
	return get.Name, get, true
}

// functionEvidence scans one function body for global reads and writes,
// against the module-wide candidate set, exempting the one guard-pattern
// read this function's own body may contain.
type functionEvidence struct {
	ir.BaseVisitor
	globals map[string]*globalState
	exempt  *ir.GlobalGet
}

func (s *functionEvidence) VisitGlobalGet(n *ir.GlobalGet) {
	if n == s.exempt {
		return
	}
	if st, ok := s.globals[n.Name]; ok {
		st.extraReads.Add(1)
	}
}

func (s *functionEvidence) VisitGlobalSet(n *ir.GlobalSet) {
	st, ok := s.globals[n.Name]
	if !ok {
		return
	}
	if !isPositiveIntegerConstant(n.Value) {
		st.rejectedByWrite.Store(true)
	}
}

// Scan classifies every candidate once-global and every function in m,
// scanning function bodies concurrently (one worker per function) and
// global initializers sequentially.
func Scan(ctx context.Context, m *ir.Module) (*ScanResult, error) {
	globals := make(map[string]*globalState)
	for _, g := range m.Globals {
		if g.Imported || !g.Type.Kind.IsInteger() {
			continue
		}
		if !ir.IsConstantExpression(g.Init) {
			continue
		}
		globals[g.Name] = &globalState{candidate: true}
	}

	guardedBy := make([]string, len(m.Functions))
	g, gctx := errgroup.WithContext(ctx)
	for i, fn := range m.Functions {
		i, fn := i, fn
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			guard, exempt, matched := matchGuardPattern(fn)
			if matched {
				guardedBy[i] = guard
			}
			v := &functionEvidence{globals: globals, exempt: exempt}
			ir.WalkExpression(fn.Body, v)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, global := range m.Globals {
		v := &functionEvidence{globals: globals, exempt: nil}
		ir.WalkExpression(global.Init, v)
	}

	result := &ScanResult{guardedBy: make(map[string]string), globals: globals}
	for i, fn := range m.Functions {
		if guardedBy[i] != "" {
			result.guardedBy[fn.Name] = guardedBy[i]
		}
	}
	return result, nil
}
