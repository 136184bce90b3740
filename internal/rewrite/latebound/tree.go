package latebound

import (
	"fmt"
	"slices"
	"strings"

	"go.starlark.net/syntax"

	"experimental/internal/edit"
	"experimental/internal/host"
	"experimental/internal/rewrite"
)

// mark is a parameter whose default is a __late_bound__(EXPR) call.
type mark struct {
	name string
	call *syntax.CallExpr
}

func marks(params []syntax.Expr) []mark {
	var out []mark
	for _, p := range params {
		bin, ok := p.(*syntax.BinaryExpr)
		if !ok || bin.Op != syntax.EQ {
			continue
		}
		name, ok := bin.X.(*syntax.Ident)
		if !ok {
			continue
		}
		call, ok := bin.Y.(*syntax.CallExpr)
		if !ok || len(call.Args) != 1 {
			continue
		}
		if fn, ok := call.Fn.(*syntax.Ident); ok && fn.Name == host.LateBound {
			out = append(out, mark{name: name.Name, call: call})
		}
	}
	return out
}

// RewriteTree moves every marked default into the function body.
func (r *Rewriter) RewriteTree(rc *rewrite.Context, tree *rewrite.Tree) ([]edit.Edit, error) {
	var edits, suffixes []edit.Edit
	syntax.Walk(tree.File, func(n syntax.Node) bool {
		switch n := n.(type) {
		case *syntax.DefStmt:
			edits = append(edits, r.def(tree, n)...)
		case *syntax.LambdaExpr:
			pre, suf := r.lambda(tree, n)
			edits = append(edits, pre...)
			if suf != nil {
				suffixes = append(suffixes, *suf)
			}
		}
		return true
	})
	// обход идёт сверху вниз, а хвост вложенной лямбды должен стоять раньше внешнего
	slices.Reverse(suffixes)
	edits = append(edits, suffixes...)
	if len(edits) > 0 {
		rc.Debug("late-bound defaults moved into bodies", "edits", len(edits))
	}
	return edits, nil
}

// expr returns the text of the marker argument.
func expr(tree *rewrite.Tree, m mark) string {
	return tree.Slice(tree.Offset(m.call.Lparen)+1, tree.Offset(m.call.Rparen))
}

func omit(tree *rewrite.Tree, m mark) edit.Edit {
	s, e := tree.Span(m.call)
	return edit.Replace(s, e, host.Omitted)
}

func fill(tree *rewrite.Tree, m mark) string {
	return fmt.Sprintf("(%s) if %s == %s else %s", expr(tree, m), m.name, host.Omitted, m.name)
}

func (r *Rewriter) def(tree *rewrite.Tree, def *syntax.DefStmt) []edit.Edit {
	ms := marks(def.Params)
	if len(ms) == 0 {
		return nil
	}
	edits := make([]edit.Edit, 0, len(ms)+1)
	assigns := make([]string, 0, len(ms))
	for _, m := range ms {
		edits = append(edits, omit(tree, m))
		assigns = append(assigns, m.name+" = "+fill(tree, m))
	}
	code := strings.Join(assigns, "; ")

	body := def.Body
	first := 0
	if isDocstring(body[0]) {
		first = 1
	}
	if first == len(body) {
		_, end := tree.Span(body[0])
		return append(edits, edit.Insert(end, "; "+code))
	}

	st := body[first]
	start, _ := tree.Span(st)
	if isSimple(st) {
		return append(edits, edit.Insert(start, code+"; "))
	}
	if first == 1 {
		_, end := tree.Span(body[0])
		return append(edits, edit.Insert(end, "; "+code))
	}
	return append(edits, edit.Insert(start, code+"\n"+indentOf(tree, start)))
}

// lambda wraps the body once per late-bound parameter, leftmost outermost:
//
//	lambda a, b=>[a]: f(b)  ->  lambda a, b=__omitted__: (lambda b: f(b))(([a]) if b == __omitted__ else b)
func (r *Rewriter) lambda(tree *rewrite.Tree, lam *syntax.LambdaExpr) ([]edit.Edit, *edit.Edit) {
	ms := marks(lam.Params)
	if len(ms) == 0 {
		return nil, nil
	}
	edits := make([]edit.Edit, 0, len(ms)+1)
	var pre, suf strings.Builder
	for _, m := range ms {
		edits = append(edits, omit(tree, m))
		pre.WriteString("(lambda " + m.name + ": ")
	}
	for _, m := range slices.Backward(ms) {
		suf.WriteString(")(" + fill(tree, m) + ")")
	}
	start, end := tree.Span(lam.Body)
	edits = append(edits, edit.Insert(start, pre.String()))
	tail := edit.Insert(end, suf.String())
	return edits, &tail
}

func isDocstring(st syntax.Stmt) bool {
	es, ok := st.(*syntax.ExprStmt)
	if !ok {
		return false
	}
	lit, ok := es.X.(*syntax.Literal)
	return ok && lit.Token == syntax.STRING
}

func isSimple(st syntax.Stmt) bool {
	switch st.(type) {
	case *syntax.DefStmt, *syntax.IfStmt, *syntax.ForStmt, *syntax.WhileStmt:
		return false
	}
	return true
}

func indentOf(tree *rewrite.Tree, off uint32) string {
	lineStart := tree.Text.LineStart(tree.Text.LineCol(off).Line)
	return tree.Slice(lineStart, off)
}
