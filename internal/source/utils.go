package source

import (
	"path/filepath"
	"slices"
	"unicode/utf8"

	"fortio.org/safecast"
)

// Normalize strips a UTF-8 BOM and folds CRLF line endings, reporting what changed.
func Normalize(content []byte) ([]byte, FileFlags) {
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return content, flags
}

// normalizeCRLF заменяет все \r\n на \n, не трогая одиночные \r.
// Возвращает новый слайс и флаг: были ли замены (true, если хотя бы одна).
func normalizeCRLF(content []byte) ([]byte, bool) {
	// Быстрый путь: если нет \r, возвращаем как есть.
	if !slices.Contains(content, '\r') {
		return content, false
	}

	out := make([]byte, 0, len(content))
	changed := false

	i := 0
	for i < len(content) {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			out = append(out, '\n')
			i += 2
			changed = true
		} else {
			out = append(out, content[i])
			i++
		}
	}
	return out, changed
}

func removeBOM(content []byte) ([]byte, bool) {
	if len(content) < 3 {
		return content, false
	}

	if content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:], true
	}

	return content, false
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, len(content)/32+1)
	for i, b := range content {
		if b == '\n' {
			off, err := safecast.Conv[uint32](i)
			if err != nil {
				panic(err)
			}
			out = append(out, off)
		}
	}
	return out
}

// toLineCol returns a byte column; File.LineCol converts it to runes.
func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// Если LineIdx пустой, то весь файл - одна строка
	if len(lineIdx) == 0 {
		return LineCol{Line: 1, Col: off + 1}
	}

	// бинпоиск: находим наибольший lineIdx[i] < off
	lo, hi := 0, len(lineIdx)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		if lineIdx[mid] < off {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	line := lo // количество переводов строки до off

	var startOff uint32
	if line > 0 {
		startOff = lineIdx[line-1] + 1
	}
	ln, err := safecast.Conv[uint32](line + 1)
	if err != nil {
		panic(err)
	}
	return LineCol{Line: ln, Col: off - startOff + 1}
}

func runeCount(b []byte) uint32 {
	n, err := safecast.Conv[uint32](utf8.RuneCount(b))
	if err != nil {
		panic(err)
	}
	return n
}

func runeLen(b []byte) uint32 {
	_, size := utf8.DecodeRune(b)
	if size == 0 {
		return 0
	}
	n, _ := safecast.Conv[uint32](size)
	return n
}

func normalizePath(p string) string {
	if p == "" || p[0] == '<' {
		return p
	}
	// единый вид в кроссплатформенных дифах
	return filepath.ToSlash(filepath.Clean(p))
}
