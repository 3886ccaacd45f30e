/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package tokenizer splits command text into a flat list of tokens.

A Tokenizer is configured through a Builder. Depending on the configuration
it recognizes quoted strings, delimited blocks, unicode escapes, line comments
and a vocabulary of (multi character) symbols. Symbols are matched longest
first so {{ is recognized as one token distinct from {.

The tokenizer never fails. Characters which are not recognized by any of the
configured rules become single character literal tokens. It is up to the
grammar to reject them.
*/
package tokenizer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

/*
TokenType is the type of a token
*/
type TokenType int

/*
Available token types
*/
const (
	TypeToken   TokenType = iota // Plain text value (word, symbol, whitespace or quoted string)
	TypeBlock                    // Delimited block
	TypeUnicode                  // Unicode escape sequence
)

/*
String returns a string representation of a token type.
*/
func (t TokenType) String() string {
	switch t {
	case TypeBlock:
		return "Block"
	case TypeUnicode:
		return "Unicode"
	}
	return "Token"
}

/*
Token represents a token which is produced by the tokenizer.
*/
type Token struct {
	Type   TokenType // Token type
	Value  string    // Decoded value (quotes and block delimiters removed)
	Raw    string    // Original text
	Syntax bool      // Flag if the token is a registered symbol
	Quoted bool      // Flag if the token was a quoted string
	Open   string    // Opening delimiter of a block
	Close  string    // Closing delimiter of a block
	Index  int       // Starting position (in bytes)
	Line   int       // Line in the input this token appears
	Pos    int       // Position in the input line this token appears
}

/*
PosString returns the position of this token in the original input as a string.
*/
func (t Token) PosString() string {
	return fmt.Sprintf("Line %v, Pos %v", t.Line, t.Pos)
}

/*
IsWhitespace checks if this token is an unquoted whitespace token.
*/
func (t Token) IsWhitespace() bool {
	return t.Type == TypeToken && !t.Quoted && t.Value != "" &&
		strings.TrimSpace(t.Value) == ""
}

/*
String returns a string representation of a token.
*/
func (t Token) String() string {
	switch {
	case t.Type == TypeBlock:
		return fmt.Sprintf("%v%q%v", t.Open, t.Value, t.Close)
	case t.Type == TypeUnicode:
		return fmt.Sprintf("U(%q)", t.Value)
	case t.Syntax:
		return t.Value
	}
	return fmt.Sprintf("%q", t.Value)
}

/*
SkipWhitespace is a filter which removes unquoted whitespace tokens.
*/
func SkipWhitespace(t Token) bool {
	return !t.IsWhitespace()
}

/*
SkipEmpty is a filter which removes unquoted empty tokens.
*/
func SkipEmpty(t Token) bool {
	return t.Quoted || t.Type == TypeBlock || t.Value != ""
}

/*
block is a delimited block definition
*/
type block struct {
	open  string
	close string
}

/*
Tokenizer splits text into tokens. A Tokenizer is immutable and can be used
concurrently.
*/
type Tokenizer struct {
	singleQuotes bool
	doubleQuotes bool
	collapse     bool
	unicode      bool
	comments     bool
	blocks       []block
	symbols      []string
	wordChars    string
	filters      []func(Token) bool
}

/*
Builder configures a new Tokenizer.
*/
type Builder struct {
	t Tokenizer
}

/*
NewBuilder creates a new tokenizer builder. By default words consist of letters,
digits and underscores.
*/
func NewBuilder() *Builder {
	return &Builder{Tokenizer{wordChars: "_"}}
}

/*
UseSingleQuotes enables strings in single quotes.
*/
func (b *Builder) UseSingleQuotes() *Builder {
	b.t.singleQuotes = true
	return b
}

/*
UseDoubleQuotes enables strings in double quotes.
*/
func (b *Builder) UseDoubleQuotes() *Builder {
	b.t.doubleQuotes = true
	return b
}

/*
CollapseWhitespace collapses runs of unquoted whitespace into a single space token.
*/
func (b *Builder) CollapseWhitespace() *Builder {
	b.t.collapse = true
	return b
}

/*
UseUnicodeEscapes enables the recognition of \uXXXX and U+XXXX escapes.
*/
func (b *Builder) UseUnicodeEscapes() *Builder {
	b.t.unicode = true
	return b
}

/*
UseLineComments enables the removal of // line comments.
*/
func (b *Builder) UseLineComments() *Builder {
	b.t.comments = true
	return b
}

/*
AddBlock adds a delimited block. Blocks with different opening and closing
delimiters may be nested.
*/
func (b *Builder) AddBlock(open, close string) *Builder {
	if open != "" && close != "" {
		b.t.blocks = append(b.t.blocks, block{open, close})
	}
	return b
}

/*
AddSymbols registers symbols.
*/
func (b *Builder) AddSymbols(symbols ...string) *Builder {
	for _, s := range symbols {
		if s != "" {
			b.t.symbols = append(b.t.symbols, s)
		}
	}
	return b
}

/*
AddWordChars registers additional (non letter or digit) characters which may
appear inside words.
*/
func (b *Builder) AddWordChars(chars string) *Builder {
	b.t.wordChars += chars
	return b
}

/*
Filter adds a predicate which is applied to all produced tokens. Tokens for which
the predicate returns false are removed.
*/
func (b *Builder) Filter(f func(Token) bool) *Builder {
	b.t.filters = append(b.t.filters, f)
	return b
}

/*
Build creates the Tokenizer.
*/
func (b *Builder) Build() *Tokenizer {
	t := b.t

	t.blocks = append([]block(nil), b.t.blocks...)
	t.symbols = append([]string(nil), b.t.symbols...)
	t.filters = append([]func(Token) bool(nil), b.t.filters...)

	// Longest symbols and block openers must be tried first

	sort.SliceStable(t.symbols, func(i, j int) bool {
		return len(t.symbols[i]) > len(t.symbols[j])
	})
	sort.SliceStable(t.blocks, func(i, j int) bool {
		return len(t.blocks[i].open) > len(t.blocks[j].open)
	})

	return &t
}

/*
scanner holds the state of a single Parse call.
*/
type scanner struct {
	*Tokenizer
	input     string
	pos       int
	line      int
	lineStart int
	tokens    []Token
}

/*
Parse splits a given text into tokens.
*/
func (t *Tokenizer) Parse(text string) []Token {
	s := &scanner{Tokenizer: t, input: text, line: 1}

	for s.pos < len(s.input) {
		s.next()
	}

	ret := make([]Token, 0, len(s.tokens))

	for _, tok := range s.tokens {
		keep := true

		for _, f := range t.filters {
			if !f(tok) {
				keep = false
				break
			}
		}

		if keep {
			ret = append(ret, tok)
		}
	}

	return ret
}

/*
emit adds a token which spans from the current position to a given end position.
*/
func (s *scanner) emit(typ TokenType, value string, end int, tok Token) {
	tok.Type = typ
	tok.Value = value
	tok.Raw = s.input[s.pos:end]
	tok.Index = s.pos
	tok.Line = s.line
	tok.Pos = s.pos - s.lineStart + 1

	s.tokens = append(s.tokens, tok)
	s.advance(end)
}

/*
advance moves the position forward and keeps track of line numbers.
*/
func (s *scanner) advance(end int) {
	for i := s.pos; i < end; i++ {
		if s.input[i] == '\n' {
			s.line++
			s.lineStart = i + 1
		}
	}
	s.pos = end
}

/*
next reads the next token.
*/
func (s *scanner) next() {
	rest := s.input[s.pos:]
	r, size := utf8.DecodeRuneInString(rest)

	// Line comments contribute no token

	if s.comments && strings.HasPrefix(rest, "//") {
		end := strings.IndexByte(rest, '\n')
		if end == -1 {
			end = len(rest)
		}
		s.advance(s.pos + end)
		return
	}

	if unicode.IsSpace(r) {
		end := s.pos + size
		for end < len(s.input) {
			r2, size2 := utf8.DecodeRuneInString(s.input[end:])
			if !unicode.IsSpace(r2) {
				break
			}
			end += size2
		}

		val := s.input[s.pos:end]
		if s.collapse {
			val = " "
		}

		s.emit(TypeToken, val, end, Token{})
		return
	}

	if s.isQuote(r) {
		s.quoted(r)
		return
	}

	if val, l := s.unicodeEscape(rest); l > 0 {
		s.emit(TypeUnicode, val, s.pos+l, Token{})
		return
	}

	// The longer match wins if a symbol and a block opener overlap (<- vs <)

	sym := s.symbol(rest)

	if b, ok := s.blockStart(rest); ok && len(b.open) >= len(sym) {
		s.block(b)
		return
	}

	if sym != "" {
		s.emit(TypeToken, sym, s.pos+len(sym), Token{Syntax: true})
		return
	}

	if !s.isWordRune(r) {
		s.emit(TypeToken, string(r), s.pos+size, Token{})
		return
	}

	end := s.pos + size
	for end < len(s.input) {
		r2, size2 := utf8.DecodeRuneInString(s.input[end:])
		rest2 := s.input[end:]

		if !s.isWordRune(r2) || s.isQuote(r2) ||
			(s.comments && strings.HasPrefix(rest2, "//")) || s.symbol(rest2) != "" {
			break
		}
		if _, ok := s.blockStart(rest2); ok {
			break
		}
		if _, l := s.unicodeEscape(rest2); l > 0 {
			break
		}

		end += size2
	}

	s.emit(TypeToken, s.input[s.pos:end], end, Token{})
}

/*
isWordRune checks if a rune can be part of a word.
*/
func (s *scanner) isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(s.wordChars, r)
}

/*
isQuote checks if a rune starts a quoted string.
*/
func (s *scanner) isQuote(r rune) bool {
	return (r == '"' && s.doubleQuotes) || (r == '\'' && s.singleQuotes)
}

/*
symbol returns the longest registered symbol at the start of a given text.
*/
func (s *scanner) symbol(text string) string {
	for _, sym := range s.symbols {
		if strings.HasPrefix(text, sym) {
			return sym
		}
	}
	return ""
}

/*
blockStart returns the block which starts at the beginning of a given text.
*/
func (s *scanner) blockStart(text string) (block, bool) {
	for _, b := range s.blocks {
		if strings.HasPrefix(text, b.open) {
			return b, true
		}
	}
	return block{}, false
}

/*
unicodeEscape decodes a unicode escape at the start of a given text. Returns
the decoded value and the length of the escape (0 if there is none).
*/
func (s *scanner) unicodeEscape(text string) (string, int) {
	if !s.unicode {
		return "", 0
	}

	var digits string
	var min, max int

	if strings.HasPrefix(text, `\u`) {
		digits, min, max = text[2:], 4, 4
	} else if strings.HasPrefix(text, "U+") {
		digits, min, max = text[2:], 4, 6
	} else {
		return "", 0
	}

	l := 0
	for l < len(digits) && l < max && isHex(digits[l]) {
		l++
	}

	if l < min {
		return "", 0
	}

	code, err := strconv.ParseUint(digits[:l], 16, 32)
	if err != nil || code > unicode.MaxRune {
		return "", 0
	}

	return string(rune(code)), l + 2
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

/*
quoted reads a quoted string. An unterminated string extends to the end of
the input.
*/
func (s *scanner) quoted(quote rune) {
	var buf strings.Builder

	end := s.pos + 1

	for end < len(s.input) {
		c := s.input[end]

		if c == byte(quote) {
			end++
			s.emit(TypeToken, buf.String(), end, Token{Quoted: true})
			return
		}

		if c == '\\' && end+1 < len(s.input) {
			if val, l := s.unicodeEscape(s.input[end:]); l > 0 {
				buf.WriteString(val)
				end += l
				continue
			}

			switch next := s.input[end+1]; next {
			case 'n':
				buf.WriteByte('\n')
			case 't':
				buf.WriteByte('\t')
			default:
				buf.WriteByte(next)
			}

			end += 2
			continue
		}

		buf.WriteByte(c)
		end++
	}

	s.emit(TypeToken, buf.String(), end, Token{Quoted: true})
}

/*
block reads a delimited block. Blocks with distinct delimiters may be nested.
*/
func (s *scanner) block(b block) {
	start := s.pos + len(b.open)
	end := start
	depth := 1

	for end < len(s.input) {
		rest := s.input[end:]

		if strings.HasPrefix(rest, b.close) {
			depth--
			if depth == 0 {
				s.emit(TypeBlock, s.input[start:end], end+len(b.close),
					Token{Open: b.open, Close: b.close})
				return
			}
			end += len(b.close)
			continue
		}

		if b.open != b.close && strings.HasPrefix(rest, b.open) {
			depth++
			end += len(b.open)
			continue
		}

		end++
	}

	s.emit(TypeBlock, s.input[start:], len(s.input), Token{Open: b.open})
}
