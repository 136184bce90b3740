package driver

import (
	"experimental/internal/diag"
	"experimental/internal/lexer"
	"experimental/internal/source"
	"experimental/internal/token"
)

type TokenizeResult struct {
	FileSet *source.FileSet
	File    *source.File
	Tokens  []token.Token
	Bag     *diag.Bag
}

// Tokenize scans one file. Lexical errors go to Bag; the tokens up to EOF are
// returned either way.
func Tokenize(path string, maxDiagnostics int) (*TokenizeResult, error) {
	fs := source.NewFileSet()
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	file := fs.Get(fileID)

	bag := diag.NewBag(maxDiagnostics)
	tokens, err := lexer.Tokenize(file)
	bag.AddError(err)

	return &TokenizeResult{
		FileSet: fs,
		File:    file,
		Tokens:  tokens,
		Bag:     bag,
	}, nil
}
