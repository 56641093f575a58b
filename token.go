package gm

// TokenKind enumerates the lexical categories of §4.B's grammar.
type TokenKind uint8

const (
	TokEOF TokenKind = iota
	TokIdent
	TokInt
	TokFloat
	TokString
	TokPunct // operators and separators, disambiguated by Token.Text
	TokKeyword
)

// Token is one lexeme with its source position (§4.B: every node that
// needs error attribution carries a position derived from its tokens).
type Token struct {
	Kind TokenKind
	Text string
	IVal int32
	FVal float64
	Pos  Pos
}

var keywords = map[string]bool{
	"if": true, "else": true, "repeat": true, "while": true, "for": true,
	"with": true, "return": true, "exit": true, "var": true,
	"div": true, "mod": true, "global": true,
}
