// Package token defines lexical token kinds and trivia for the extended host language.
// Invariants:
//   - Token.Text is the exact source text of the token.
//   - Token.Span matches Text exactly (Start..End).
//   - Spaces, comments, backslash continuations and newlines inside brackets are
//     Leading trivia of the next token; concatenating Leading and Text of every
//     token reproduces the input byte for byte.
//   - Newline is emitted only for logical line ends (bracket depth 0).
//   - The extension markers '=>' (FatArrow) and a standalone '!' (Bang) are ordinary
//     operator kinds here; whether they are legal is decided by the rewriters.
package token
