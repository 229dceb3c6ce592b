package expr

// tokenKind enumerates the lexical classes of the expression language used
// inside {{ ... }} (spec §4.1).
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokAnd
	tokOr
	tokNot
	tokTrue
	tokFalse
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokSlashSlash
	tokPercent
	tokCaret
	tokLParen
	tokRParen
	tokComma
	tokDot
	tokEq
	tokNeq
	tokLt
	tokLe
	tokGt
	tokGe
)

type token struct {
	kind tokenKind
	text string
}

var keywords = map[string]tokenKind{
	"and":   tokAnd,
	"or":    tokOr,
	"not":   tokNot,
	"True":  tokTrue,
	"False": tokFalse,
}
