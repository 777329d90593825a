// Package keyvalues parses the subset of Valve's KeyValues text format used
// by sound manifests and soundscript files: quoted or bare tokens, `{`/`}`
// nested blocks, and `//` line comments. Escapes and conditionals are not
// supported; soundscripts do not use them.
package keyvalues

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Pair is a single key with either a literal value or a block of children.
type Pair struct {
	Key      string
	Value    string
	Children []Pair
	HasValue bool
}

// Parse reads a KeyValues document and returns its top-level pairs.
func Parse(r io.Reader) ([]Pair, error) {
	p := &parser{scan: bufio.NewReader(r), line: 1}
	pairs, err := p.parseBlock(true)
	if err != nil {
		return nil, fmt.Errorf("keyvalues: line %d: %w", p.line, err)
	}
	return pairs, nil
}

// TopKeys returns the keys of the given pairs in order.
func TopKeys(pairs []Pair) []string {
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key
	}
	return keys
}

type parser struct {
	scan *bufio.Reader
	line int
}

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenOpen
	tokenClose
	tokenString
)

type token struct {
	kind tokenKind
	text string
}

// parseBlock consumes pairs until a closing brace, or until EOF when top is
// set. A closing brace at the top level is an error.
func (p *parser) parseBlock(top bool) ([]Pair, error) {
	var pairs []Pair
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenEOF:
			if !top {
				return nil, errors.New("unexpected end of input inside block")
			}
			return pairs, nil
		case tokenClose:
			if top {
				return nil, errors.New("unexpected '}'")
			}
			return pairs, nil
		case tokenOpen:
			return nil, errors.New("unexpected '{' without a key")
		}

		pair := Pair{Key: tok.text}
		val, err := p.next()
		if err != nil {
			return nil, err
		}
		switch val.kind {
		case tokenOpen:
			children, err := p.parseBlock(false)
			if err != nil {
				return nil, err
			}
			pair.Children = children
		case tokenString:
			pair.Value = val.text
			pair.HasValue = true
		default:
			return nil, fmt.Errorf("key %q has no value", pair.Key)
		}
		pairs = append(pairs, pair)
	}
}

// next returns the next token, skipping whitespace and // comments.
func (p *parser) next() (token, error) {
	for {
		c, _, err := p.scan.ReadRune()
		if errors.Is(err, io.EOF) {
			return token{kind: tokenEOF}, nil
		}
		if err != nil {
			return token{}, err
		}

		switch {
		case c == '\n':
			p.line++
		case c == ' ' || c == '\t' || c == '\r':
			// skip
		case c == '/':
			if err := p.skipComment(); err != nil {
				return token{}, err
			}
		case c == '{':
			return token{kind: tokenOpen}, nil
		case c == '}':
			return token{kind: tokenClose}, nil
		case c == '"':
			text, err := p.quoted()
			if err != nil {
				return token{}, err
			}
			return token{kind: tokenString, text: text}, nil
		default:
			text, err := p.bare(c)
			if err != nil {
				return token{}, err
			}
			return token{kind: tokenString, text: text}, nil
		}
	}
}

func (p *parser) skipComment() error {
	c, _, err := p.scan.ReadRune()
	if errors.Is(err, io.EOF) {
		return errors.New("unexpected '/' at end of input")
	}
	if err != nil {
		return err
	}
	if c != '/' {
		return fmt.Errorf("unexpected character %q after '/'", c)
	}
	for {
		c, _, err := p.scan.ReadRune()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if c == '\n' {
			p.line++
			return nil
		}
	}
}

// quoted consumes a double-quoted token. The opening quote has already been
// read. Newlines inside quotes are invalid in soundscripts.
func (p *parser) quoted() (string, error) {
	var sb strings.Builder
	for {
		c, _, err := p.scan.ReadRune()
		if errors.Is(err, io.EOF) {
			return "", errors.New("unterminated quoted token")
		}
		if err != nil {
			return "", err
		}
		switch c {
		case '"':
			return sb.String(), nil
		case '\n':
			return "", errors.New("newline inside quoted token")
		default:
			sb.WriteRune(c)
		}
	}
}

// bare consumes an unquoted token starting with first.
func (p *parser) bare(first rune) (string, error) {
	var sb strings.Builder
	sb.WriteRune(first)
	for {
		c, _, err := p.scan.ReadRune()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
		switch c {
		case ' ', '\t', '\r', '\n', '{', '}', '"':
			if err := p.scan.UnreadRune(); err != nil {
				return "", err
			}
			return sb.String(), nil
		default:
			sb.WriteRune(c)
		}
	}
}
