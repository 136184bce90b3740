package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Лексические
	LexInfo               Code = 1000
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexControlChar        Code = 1003
	LexBadNumber          Code = 1004
	LexUnbalancedBracket  Code = 1005

	// Детектор фич
	DetInfo           Code = 1500
	DetUnknownFeature Code = 1501
	DetMalformedOptIn Code = 1502

	// Переписывание
	RwInfo                Code = 2000
	RwMarkerOutsideParams Code = 2001
	RwEmptyDefault        Code = 2002
	RwMarkerOnVariadic    Code = 2003
	RwAmbiguousBang       Code = 2004
	RwBangWithoutName     Code = 2005
	RwRelativeInline      Code = 2006
	RwBadDottedName       Code = 2007
	RwEditConflict        Code = 2008
	RwReparse             Code = 2009
	RwNestedMarker        Code = 2010
	RwCastKept            Code = 2011

	// Компилятор хоста
	HostInfo    Code = 3000
	HostSyntax  Code = 3001
	HostResolve Code = 3002
	HostImport  Code = 3003

	// Загрузка модулей
	LoadInfo     Code = 4000
	LoadNotFound Code = 4001
	LoadCycle    Code = 4002
	LoadExec     Code = 4003
	LoadIO       Code = 4004

	// Конфигурация
	CfgInfo    Code = 5000
	CfgInvalid Code = 5001
)

var codeDescription = map[Code]string{
	UnknownCode:           "Unknown error",
	LexInfo:               "Lexical information",
	LexUnknownChar:        "Unexpected character",
	LexUnterminatedString: "Unterminated string literal",
	LexControlChar:        "Unrecognized control character",
	LexBadNumber:          "Malformed number literal",
	LexUnbalancedBracket:  "Unbalanced bracket",

	DetInfo:           "Feature detection information",
	DetUnknownFeature: "Unknown experimental feature",
	DetMalformedOptIn: "Malformed opt-in import",

	RwInfo:                "Rewrite information",
	RwMarkerOutsideParams: "Late-bound default marker outside a parameter list",
	RwEmptyDefault:        "Late-bound default without an expression",
	RwMarkerOnVariadic:    "Late-bound default on a variadic parameter",
	RwAmbiguousBang:       "Ambiguous inline import marker",
	RwBangWithoutName:     "Inline import marker without a dotted name",
	RwRelativeInline:      "Relative inline import",
	RwBadDottedName:       "Invalid dotted name in inline import",
	RwEditConflict:        "Overlapping rewrite edits",
	RwReparse:             "Rewritten source does not parse",
	RwNestedMarker:        "Late-bound default inside another late-bound default",
	RwCastKept:            "Designated cast kept because of keyword or star arguments",

	HostInfo:    "Host compiler information",
	HostSyntax:  "Host syntax error",
	HostResolve: "Host name resolution error",
	HostImport:  "Malformed import statement",

	LoadInfo:     "Module loader information",
	LoadNotFound: "Module not found",
	LoadCycle:    "Import cycle",
	LoadExec:     "Module execution failed",
	LoadIO:       "Module source could not be read",

	CfgInfo:    "Configuration information",
	CfgInvalid: "Invalid configuration",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 1500:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 1500 && ic < 2000:
		return fmt.Sprintf("DET%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("RW%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("HOST%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("LOAD%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("CFG%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
