package latebound

import (
	"experimental/internal/diag"
	"experimental/internal/edit"
	"experimental/internal/host"
	"experimental/internal/rewrite"
	"experimental/internal/token"
)

type frameKind uint8

const (
	frameDef frameKind = iota
	frameLambda
)

// frame is an open parameter list; depth is the bracket depth its parameters sit at.
type frame struct {
	kind  frameKind
	depth int
}

// RewriteTokens marks every "p=>EXPR" default.
func (r *Rewriter) RewriteTokens(rc *rewrite.Context, src *rewrite.Source) ([]edit.Edit, error) {
	toks, err := src.Tokens()
	if err != nil {
		return nil, err
	}

	var (
		edits  []edit.Edit
		frames []frame
		depth  int
		// последний токен текущего late-bound выражения; вложенные '=>' до него запрещены
		inDefault = -1
	)
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.Kind {
		case token.LParen, token.LBracket, token.LBrace:
			depth++
			if t.Kind == token.LParen && i >= 2 && toks[i-1].Kind == token.Ident && toks[i-2].Kind == token.KwDef {
				frames = append(frames, frame{kind: frameDef, depth: depth})
			}
		case token.RParen, token.RBracket, token.RBrace:
			for len(frames) > 0 && frames[len(frames)-1].depth >= depth {
				frames = frames[:len(frames)-1]
			}
			depth = max(depth-1, 0)
		case token.Newline:
			frames = frames[:0]
			depth = 0
		case token.KwLambda:
			frames = append(frames, frame{kind: frameLambda, depth: depth})
		case token.Colon:
			if n := len(frames); n > 0 && frames[n-1].kind == frameLambda && frames[n-1].depth == depth {
				frames = frames[:n-1]
			}
		case token.FatArrow:
			end, err := r.marker(toks, i, frames, depth, inDefault)
			if err != nil {
				return nil, err
			}
			edits = append(edits,
				edit.Replace(t.Span.Start, t.Span.End, "="+host.LateBound+"("),
				edit.Insert(toks[end].Span.End, ")"),
			)
			inDefault = end
		}
	}
	if len(edits) > 0 {
		rc.Debug("late-bound defaults marked", "count", len(edits)/2)
	}
	return edits, nil
}

// marker validates the '=>' at toks[i] and returns the index of the last token of its default.
func (r *Rewriter) marker(toks []token.Token, i int, frames []frame, depth, inDefault int) (int, error) {
	arrow := toks[i]
	fail := func(code diag.Code, format string, args ...any) (int, error) {
		return 0, diag.NewRewriteError(r.Name(), code, arrow.Span.Start, format, args...)
	}

	if i <= inDefault {
		return fail(diag.RwNestedMarker, "'=>' inside a late-bound default")
	}
	if len(frames) == 0 || frames[len(frames)-1].depth != depth {
		return fail(diag.RwMarkerOutsideParams, "'=>' is only allowed after a parameter name in 'def' or 'lambda'")
	}
	if i == 0 || toks[i-1].Kind != token.Ident {
		return fail(diag.RwMarkerOutsideParams, "'=>' must follow a parameter name")
	}
	if i >= 2 && (toks[i-2].Kind == token.Star || toks[i-2].Kind == token.StarStar) {
		return fail(diag.RwMarkerOnVariadic, "variadic parameter %q cannot have a late-bound default", toks[i-1].Text)
	}

	kind := frames[len(frames)-1].kind
	nested, lambdas := 0, 0
	j := i + 1
scan:
	for ; j < len(toks); j++ {
		switch t := toks[j]; {
		case t.Kind == token.Newline || t.Kind == token.EOF:
			if j == i+1 {
				break scan
			}
			return fail(diag.RwMarkerOutsideParams, "unterminated late-bound default for %q", toks[i-1].Text)
		case t.Opens():
			nested++
		case t.Closes():
			if nested == 0 {
				break scan
			}
			nested--
		case nested > 0:
		case t.Kind == token.Comma:
			break scan
		case t.Kind == token.KwLambda:
			lambdas++
		case t.Kind == token.Colon:
			if lambdas > 0 {
				lambdas--
				continue
			}
			if kind == frameLambda {
				break scan
			}
		}
	}
	if j == i+1 {
		return fail(diag.RwEmptyDefault, "late-bound default for %q has no expression", toks[i-1].Text)
	}
	return j - 1, nil
}
