package token

import "golang.org/x/text/unicode/norm"

var keywords = map[string]Kind{}

func init() {
	for k := keywordBeg + 1; k < keywordEnd; k++ {
		keywords[kindNames[k]] = k
	}
}

// LookupKeyword возвращает тип и bool если это ключевое слово.
// Ключевые слова регистрозависимые.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}

// NormalizeIdent returns the NFKC form of an identifier; the host compares names after this folding.
func NormalizeIdent(ident string) string {
	for i := 0; i < len(ident); i++ {
		if ident[i] >= 0x80 {
			return norm.NFKC.String(ident)
		}
	}
	return ident
}
