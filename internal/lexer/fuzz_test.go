package lexer_test

import (
	"testing"

	"experimental/internal/lexer"
	"experimental/internal/source"
	"experimental/internal/testkit"
)

const maxFuzzInput = 1 << 16 // 64 KiB

var fuzzSeeds = []string{
	"",
	"x = 1\n",
	"def f(a, b=>[a]):\n    return b\n",
	"y = collections!.Counter(x)\n",
	"s = f\"{x!r:>10}\" + '''tri\nple'''\n",
	"if a:\n\tb = (1,\n  2)\n# comment\n",
	"z = 0x1f + 1_000 + .5e-3j\n",
	"w = \"unterminated\n",
	"a = b \\\n  + c\n",
}

func FuzzTokenize(f *testing.F) {
	for _, s := range fuzzSeeds {
		f.Add([]byte(s))
	}
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		file := source.NewFile("fuzz.py", append([]byte(nil), input...), source.FileVirtual)
		toks, err := lexer.Tokenize(file)
		if err != nil {
			return
		}
		if err := testkit.CheckTokenInvariants(file, toks); err != nil {
			t.Fatal(err)
		}
	})
}
