package host

import (
	"strconv"

	"experimental/internal/edit"
	"experimental/internal/imports"
	"experimental/internal/token"
)

// Unit identifies the module being compiled, for relative import resolution.
type Unit struct {
	Module    string
	IsPackage bool
}

// Lower replaces every import statement in toks with helper calls:
//
//	import a.b          ->  a = __import__("a.b")
//	import a.b as c     ->  c = __import_module__("a.b")
//	from m import x as y ->  y = __import_from__("m", "x")
//
// Each replacement spans exactly the lines of the statement it replaces.
// Errors are *imports.Error positioned in src.
func Lower(src []byte, toks []token.Token, u Unit) ([]edit.Edit, error) {
	stmts, err := imports.Parse(toks)
	if err != nil {
		return nil, err
	}
	if len(stmts) == 0 {
		return nil, nil
	}
	pkg := imports.Package(u.Module, u.IsPackage)
	edits := make([]edit.Edit, 0, len(stmts))
	for _, st := range stmts {
		text, err := LowerStmt(src, st, pkg)
		if err != nil {
			return nil, err
		}
		edits = append(edits, edit.Replace(st.Span.Start, st.Span.End, text))
	}
	return edits, nil
}

// LowerStmt renders the helper calls for one statement. pkg is the importing package.
func LowerStmt(src []byte, st imports.Stmt, pkg string) (string, error) {
	if st.Star {
		return "", &imports.Error{Off: st.Span.Start, Msg: "wildcard imports are not supported"}
	}
	module := ""
	if st.Kind == imports.From {
		abs, err := st.Absolute(pkg)
		if err != nil {
			return "", err
		}
		module = strconv.Quote(abs)
	}

	calls := make([]imports.Call, 0, len(st.Names))
	for _, a := range st.Names {
		c := imports.Call{Target: st.Bound(a), Line: imports.Lines(src, st.Span.Start, a.Span.Start)}
		switch {
		case st.Kind == imports.From:
			c.Helper, c.Args = ImportFrom, []string{module, strconv.Quote(a.Name)}
		case a.As != "":
			c.Helper, c.Args = ImportModule, []string{strconv.Quote(a.Name)}
		default:
			c.Helper, c.Args = Import, []string{strconv.Quote(a.Name)}
		}
		calls = append(calls, c)
	}
	return imports.Render(calls, imports.Lines(src, st.Span.Start, st.Span.End)), nil
}
