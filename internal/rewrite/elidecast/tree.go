package elidecast

import (
	"fmt"

	"go.starlark.net/syntax"

	"experimental/internal/diag"
	"experimental/internal/edit"
	"experimental/internal/host"
	"experimental/internal/rewrite"
)

// RewriteTree elides designated calls.
func (r *Rewriter) RewriteTree(rc *rewrite.Context, tree *rewrite.Tree) ([]edit.Edit, error) {
	w := walker{r: r, rc: rc, tree: tree}
	w.stmts(tree.File.Stmts, newScope(nil))
	if len(w.edits) > 0 {
		rc.Debug("casts elided", "edits", len(w.edits))
	}
	return w.edits, nil
}

type walker struct {
	r     *Rewriter
	rc    *rewrite.Context
	tree  *rewrite.Tree
	edits []edit.Edit
}

func (w *walker) stmts(list []syntax.Stmt, sc *scope) {
	for _, st := range list {
		w.stmt(st, sc)
	}
}

func (w *walker) stmt(st syntax.Stmt, sc *scope) {
	switch st := st.(type) {
	case *syntax.AssignStmt:
		if w.selfCast(st, sc) {
			return
		}
		w.expr(st.RHS, sc)
		w.expr(st.LHS, sc)
		if id, ok := st.LHS.(*syntax.Ident); ok && st.Op == syntax.EQ {
			sc.bind(id.Name, w.importBinding(st.RHS))
			return
		}
		shadowTargets(st.LHS, sc)
	case *syntax.ExprStmt:
		w.expr(st.X, sc)
	case *syntax.ReturnStmt:
		if st.Result != nil {
			w.expr(st.Result, sc)
		}
	case *syntax.IfStmt:
		w.expr(st.Cond, sc)
		w.stmts(st.True, sc)
		w.stmts(st.False, sc)
	case *syntax.WhileStmt:
		w.expr(st.Cond, sc)
		w.stmts(st.Body, sc)
	case *syntax.ForStmt:
		w.expr(st.X, sc)
		shadowTargets(st.Vars, sc)
		w.stmts(st.Body, sc)
	case *syntax.DefStmt:
		sc.shadow(st.Name.Name)
		inner := newScope(sc)
		w.params(st.Params, sc, inner)
		w.stmts(st.Body, inner)
	}
}

// params walks defaults in the enclosing scope and shadows parameter names in inner.
func (w *walker) params(params []syntax.Expr, outer, inner *scope) {
	for _, p := range params {
		switch p := p.(type) {
		case *syntax.Ident:
			inner.shadow(p.Name)
		case *syntax.BinaryExpr:
			w.expr(p.Y, outer)
			shadowTargets(p.X, inner)
		case *syntax.UnaryExpr:
			if p.X != nil {
				shadowTargets(p.X, inner)
			}
		}
	}
}

func shadowTargets(e syntax.Expr, sc *scope) {
	switch e := e.(type) {
	case *syntax.Ident:
		sc.shadow(e.Name)
	case *syntax.TupleExpr:
		for _, x := range e.List {
			shadowTargets(x, sc)
		}
	case *syntax.ListExpr:
		for _, x := range e.List {
			shadowTargets(x, sc)
		}
	case *syntax.ParenExpr:
		shadowTargets(e.X, sc)
	}
}

// importBinding recognises the lowered forms of import statements.
func (w *walker) importBinding(rhs syntax.Expr) binding {
	call, ok := rhs.(*syntax.CallExpr)
	if !ok || len(call.Args) == 0 {
		return binding{}
	}
	fn, ok := call.Fn.(*syntax.Ident)
	if !ok {
		return binding{}
	}
	args := make([]string, 0, len(call.Args))
	for _, a := range call.Args {
		args = append(args, literalString(a))
	}
	switch {
	case fn.Name == host.Import && args[0] != "":
		return binding{module: topLevel(args[0])}
	case fn.Name == host.ImportModule && args[0] != "":
		return binding{module: args[0]}
	case fn.Name == host.LazyImport && args[0] != "" && len(call.Args) == 2:
		if top, ok := call.Args[1].(*syntax.Ident); ok && top.Name == "True" {
			return binding{module: topLevel(args[0])}
		}
		return binding{module: args[0]}
	case fn.Name == host.ImportFrom && len(args) == 2 && args[0] != "" && args[1] != "":
		q := args[0] + "." + args[1]
		if _, ok := w.r.Designated(q); ok {
			return binding{fn: q}
		}
		return binding{module: q}
	}
	return binding{}
}

func literalString(e syntax.Expr) string {
	lit, ok := e.(*syntax.Literal)
	if !ok || lit.Token != syntax.STRING {
		return ""
	}
	s, _ := lit.Value.(string)
	return s
}

func (w *walker) expr(e syntax.Expr, sc *scope) {
	if e == nil {
		return
	}
	syntax.Walk(e, func(n syntax.Node) bool {
		switch n := n.(type) {
		case *syntax.CallExpr:
			if value, ok := w.elide(n, sc); ok {
				w.expr(value, sc)
				return false
			}
		case *syntax.LambdaExpr:
			inner := newScope(sc)
			w.params(n.Params, sc, inner)
			w.expr(n.Body, inner)
			return false
		}
		return true
	})
}

// match resolves call to a designated function and returns its value argument.
// kept is set when the call is designated but passes keyword or star arguments.
func (w *walker) match(call *syntax.CallExpr, sc *scope) (qualified, local string, value syntax.Expr, kept, ok bool) {
	switch fn := call.Fn.(type) {
	case *syntax.Ident:
		qualified, local = sc.lookup(fn.Name).fn, fn.Name
	case *syntax.DotExpr:
		x, isIdent := fn.X.(*syntax.Ident)
		if !isIdent {
			return "", "", nil, false, false
		}
		if mod := sc.lookup(x.Name).module; mod != "" {
			qualified, local = mod+"."+fn.Name.Name, x.Name+"."+fn.Name.Name
		}
	}
	if qualified == "" {
		return "", "", nil, false, false
	}
	idx, designated := w.r.Designated(qualified)
	if !designated {
		return "", "", nil, false, false
	}
	for _, a := range call.Args {
		switch a := a.(type) {
		case *syntax.BinaryExpr:
			if a.Op == syntax.EQ {
				return qualified, local, nil, true, false
			}
		case *syntax.UnaryExpr:
			if a.Op == syntax.STAR || a.Op == syntax.STARSTAR {
				return qualified, local, nil, true, false
			}
		}
	}
	if idx >= len(call.Args) {
		return "", "", nil, false, false
	}
	return qualified, local, call.Args[idx], false, true
}

func (w *walker) elide(call *syntax.CallExpr, sc *scope) (syntax.Expr, bool) {
	qualified, local, value, kept, ok := w.match(call, sc)
	if kept {
		start, _ := w.tree.Span(call)
		w.rc.Warn(w.r.Name(), diag.RwCastKept, w.tree.Map.ToInput(start),
			fmt.Sprintf("call to %s kept: keyword or star arguments", local))
	}
	if !ok {
		return nil, false
	}
	start, end := w.tree.Span(call)
	vs, ve := w.tree.Span(value)
	open, closing := "", ""
	if !atomic(value) {
		open, closing = "(", ")"
	}
	w.edits = append(w.edits, edit.Replace(start, vs, open), edit.Replace(ve, end, closing))
	w.record(qualified, local, start)
	return value, true
}

// selfCast turns "x = cast(T, x)" into "pass".
func (w *walker) selfCast(st *syntax.AssignStmt, sc *scope) bool {
	if st.Op != syntax.EQ {
		return false
	}
	lhs, ok := st.LHS.(*syntax.Ident)
	if !ok {
		return false
	}
	call, ok := st.RHS.(*syntax.CallExpr)
	if !ok {
		return false
	}
	qualified, local, value, _, ok := w.match(call, sc)
	if !ok {
		return false
	}
	if v, ok := value.(*syntax.Ident); !ok || v.Name != lhs.Name {
		return false
	}
	start, end := w.tree.Span(st)
	w.edits = append(w.edits, edit.Replace(start, end, "pass"))
	w.record(qualified, local, start)
	return true
}

func (w *walker) record(qualified, local string, off uint32) {
	w.rc.RecordCast(rewrite.CastUse{
		Qualified: qualified,
		Local:     local,
		Pos:       w.rc.Locate(w.tree.Map.ToInput(off)),
	})
}

func atomic(e syntax.Expr) bool {
	switch e.(type) {
	case *syntax.Ident, *syntax.Literal, *syntax.CallExpr, *syntax.DotExpr, *syntax.IndexExpr,
		*syntax.SliceExpr, *syntax.ParenExpr, *syntax.ListExpr, *syntax.DictExpr, *syntax.Comprehension:
		return true
	}
	return false
}
