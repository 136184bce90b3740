package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input. Its Leading holds trailing trivia.
	EOF
	// Newline ends a logical line. Empty Text when the file lacks a final newline.
	Newline

	// Ident represents an identifier token.
	Ident
	// NumberLit is an integer, float or imaginary literal.
	NumberLit
	// StringLit is a string or bytes literal, including its prefix and quotes.
	StringLit

	keywordBeg
	KwFalse    // False
	KwNone     // None
	KwTrue     // True
	KwAnd      // and
	KwAs       // as
	KwAssert   // assert
	KwAsync    // async
	KwAwait    // await
	KwBreak    // break
	KwClass    // class
	KwContinue // continue
	KwDef      // def
	KwDel      // del
	KwElif     // elif
	KwElse     // else
	KwExcept   // except
	KwFinally  // finally
	KwFor      // for
	KwFrom     // from
	KwGlobal   // global
	KwIf       // if
	KwImport   // import
	KwIn       // in
	KwIs       // is
	KwLambda   // lambda
	KwNonlocal // nonlocal
	KwNot      // not
	KwOr       // or
	KwPass     // pass
	KwRaise    // raise
	KwReturn   // return
	KwTry      // try
	KwWhile    // while
	KwWith     // with
	KwYield    // yield
	keywordEnd

	operatorBeg
	Plus         // +
	Minus        // -
	Star         // *
	StarStar     // **
	Slash        // /
	SlashSlash   // //
	Percent      // %
	At           // @
	Shl          // <<
	Shr          // >>
	Amp          // &
	Pipe         // |
	Caret        // ^
	Tilde        // ~
	Walrus       // :=
	Lt           // <
	Gt           // >
	LtEq         // <=
	GtEq         // >=
	EqEq         // ==
	NotEq        // !=
	Assign       // =
	AugAssign    // += -= *= /= //= %= @= &= |= ^= >>= <<= **=
	Arrow        // ->
	LParen       // (
	RParen       // )
	LBracket     // [
	RBracket     // ]
	LBrace       // {
	RBrace       // }
	Comma        // ,
	Colon        // :
	Semicolon    // ;
	Dot          // .
	Ellipsis     // ...
	FatArrow     // => (late-bound default marker)
	Bang         // ! (inline import marker)
	operatorEnd
)

var kindNames = [...]string{
	Invalid:    "Invalid",
	EOF:        "EOF",
	Newline:    "Newline",
	Ident:      "Ident",
	NumberLit:  "NumberLit",
	StringLit:  "StringLit",
	KwFalse:    "False",
	KwNone:     "None",
	KwTrue:     "True",
	KwAnd:      "and",
	KwAs:       "as",
	KwAssert:   "assert",
	KwAsync:    "async",
	KwAwait:    "await",
	KwBreak:    "break",
	KwClass:    "class",
	KwContinue: "continue",
	KwDef:      "def",
	KwDel:      "del",
	KwElif:     "elif",
	KwElse:     "else",
	KwExcept:   "except",
	KwFinally:  "finally",
	KwFor:      "for",
	KwFrom:     "from",
	KwGlobal:   "global",
	KwIf:       "if",
	KwImport:   "import",
	KwIn:       "in",
	KwIs:       "is",
	KwLambda:   "lambda",
	KwNonlocal: "nonlocal",
	KwNot:      "not",
	KwOr:       "or",
	KwPass:     "pass",
	KwRaise:    "raise",
	KwReturn:   "return",
	KwTry:      "try",
	KwWhile:    "while",
	KwWith:     "with",
	KwYield:    "yield",
	Plus:       "+",
	Minus:      "-",
	Star:       "*",
	StarStar:   "**",
	Slash:      "/",
	SlashSlash: "//",
	Percent:    "%",
	At:         "@",
	Shl:        "<<",
	Shr:        ">>",
	Amp:        "&",
	Pipe:       "|",
	Caret:      "^",
	Tilde:      "~",
	Walrus:     ":=",
	Lt:         "<",
	Gt:         ">",
	LtEq:       "<=",
	GtEq:       ">=",
	EqEq:       "==",
	NotEq:      "!=",
	Assign:     "=",
	AugAssign:  "op=",
	Arrow:      "->",
	LParen:     "(",
	RParen:     ")",
	LBracket:   "[",
	RBracket:   "]",
	LBrace:     "{",
	RBrace:     "}",
	Comma:      ",",
	Colon:      ":",
	Semicolon:  ";",
	Dot:        ".",
	Ellipsis:   "...",
	FatArrow:   "=>",
	Bang:       "!",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(?)"
}
