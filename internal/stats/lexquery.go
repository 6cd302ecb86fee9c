package stats

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// A lexical query is a boolean expression over words, in the style of
// PostgreSQL tsquery:
//
//	expr   = or
//	or     = and { "|" and }
//	and    = follow { "&" follow }
//	follow = unary { ("<->" | "<N>") unary }
//	unary  = "!" unary | "(" expr ")" | term [ ":*" ]
//
// It compiles to a SQL predicate over a message id column whose leaves are
// bound FTS5 MATCH lookups.

type lexNode interface {
	// sql returns a predicate on idCol.
	sql(idCol string) (string, []any)
}

type lexTerm struct {
	word   string
	prefix bool
}

type lexNot struct{ x lexNode }

type lexBinary struct {
	op   string // AND / OR
	l, r lexNode
}

// lexFollow is a phrase (distance 1) or proximity match between two terms.
type lexFollow struct {
	terms    []lexTerm
	distance int
}

func (t lexTerm) match() string {
	q := `"` + strings.ReplaceAll(t.word, `"`, `""`) + `"`
	if t.prefix {
		q += " *"
	}
	return q
}

func matchSQL(idCol, match string) (string, []any) {
	return idCol + " IN (SELECT rowid FROM messages_fts WHERE messages_fts MATCH ?)", []any{match}
}

func (t lexTerm) sql(idCol string) (string, []any) { return matchSQL(idCol, t.match()) }

func (n lexNot) sql(idCol string) (string, []any) {
	s, args := n.x.sql(idCol)
	return "NOT (" + s + ")", args
}

func (b lexBinary) sql(idCol string) (string, []any) {
	ls, la := b.l.sql(idCol)
	rs, ra := b.r.sql(idCol)
	return "(" + ls + " " + b.op + " " + rs + ")", append(la, ra...)
}

func (f lexFollow) sql(idCol string) (string, []any) {
	parts := make([]string, len(f.terms))
	plain := true
	for i, t := range f.terms {
		parts[i] = t.match()
		plain = plain && !t.prefix
	}
	if f.distance == 1 && plain {
		words := make([]string, len(f.terms))
		for i, t := range f.terms {
			words[i] = strings.ReplaceAll(t.word, `"`, `""`)
		}
		return matchSQL(idCol, `"`+strings.Join(words, " ")+`"`)
	}
	return matchSQL(idCol, fmt.Sprintf("NEAR(%s, %d)", strings.Join(parts, " "), max(f.distance-1, 0)))
}

type lexToken struct {
	kind string // word, op, lparen, rparen
	text string
}

func lexTokens(q string) ([]lexToken, error) {
	var toks []lexToken
	rs := []rune(q)
	for i := 0; i < len(rs); {
		c := rs[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '&' || c == '|' || c == '!':
			toks = append(toks, lexToken{"op", string(c)})
			i++
		case c == '(':
			toks = append(toks, lexToken{"lparen", "("})
			i++
		case c == ')':
			toks = append(toks, lexToken{"rparen", ")"})
			i++
		case c == '<':
			end := i + 1
			for end < len(rs) && rs[end] != '>' {
				end++
			}
			if end == len(rs) {
				return nil, usagef("lquery: unterminated operator at %q", string(rs[i:]))
			}
			inner := string(rs[i+1 : end])
			if inner != "-" {
				if n, err := strconv.Atoi(inner); err != nil || n < 0 {
					return nil, usagef("lquery: invalid distance operator <%s>", inner)
				}
			}
			toks = append(toks, lexToken{"op", "<" + inner + ">"})
			i = end + 1
		case c == '\'' || c == '"':
			end := i + 1
			for end < len(rs) && rs[end] != c {
				end++
			}
			if end == len(rs) {
				return nil, usagef("lquery: unterminated quote")
			}
			toks = append(toks, lexToken{"word", string(rs[i+1 : end])})
			i = end + 1
		default:
			start := i
			for i < len(rs) && (unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i]) || rs[i] == '_' || rs[i] == '-' || rs[i] == '\'') {
				if rs[i] == '-' && i+1 < len(rs) && rs[i+1] == '>' {
					break
				}
				i++
			}
			if i == start {
				return nil, usagef("lquery: unexpected character %q", string(c))
			}
			toks = append(toks, lexToken{"word", string(rs[start:i])})
		}
		if n := len(toks); n > 0 && toks[n-1].kind == "word" && i+1 < len(rs) && rs[i] == ':' && rs[i+1] == '*' {
			toks[n-1].kind = "prefix"
			i += 2
		}
	}
	return toks, nil
}

type lexParser struct {
	toks []lexToken
	pos  int
}

// ParseLexQuery validates q and compiles it into a predicate on idCol.
func ParseLexQuery(q, idCol string) (string, []any, error) {
	toks, err := lexTokens(q)
	if err != nil {
		return "", nil, err
	}
	if len(toks) == 0 {
		return "", nil, usagef("lquery: empty query")
	}
	p := &lexParser{toks: toks}
	node, err := p.or()
	if err != nil {
		return "", nil, err
	}
	if p.pos != len(p.toks) {
		return "", nil, usagef("lquery: unexpected %q", p.toks[p.pos].text)
	}
	s, args := node.sql(idCol)
	return s, args, nil
}

func (p *lexParser) peek() (lexToken, bool) {
	if p.pos >= len(p.toks) {
		return lexToken{}, false
	}
	return p.toks[p.pos], true
}

func (p *lexParser) or() (lexNode, error) {
	l, err := p.and()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != "op" || t.text != "|" {
			return l, nil
		}
		p.pos++
		r, err := p.and()
		if err != nil {
			return nil, err
		}
		l = lexBinary{op: "OR", l: l, r: r}
	}
}

func (p *lexParser) and() (lexNode, error) {
	l, err := p.follow()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != "op" || t.text != "&" {
			return l, nil
		}
		p.pos++
		r, err := p.follow()
		if err != nil {
			return nil, err
		}
		l = lexBinary{op: "AND", l: l, r: r}
	}
}

func (p *lexParser) follow() (lexNode, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != "op" || !strings.HasPrefix(t.text, "<") {
			return l, nil
		}
		p.pos++
		r, err := p.unary()
		if err != nil {
			return nil, err
		}
		distance := 1
		if t.text != "<->" {
			distance, _ = strconv.Atoi(strings.Trim(t.text, "<>"))
		}
		lt, lok := asTerms(l)
		rt, rok := asTerms(r)
		if !lok || !rok {
			return nil, usagef("lquery: %s only joins words", t.text)
		}
		if lf, isFollow := l.(lexFollow); isFollow && lf.distance != distance {
			return nil, usagef("lquery: cannot mix distances in one phrase")
		}
		l = lexFollow{terms: append(lt, rt...), distance: distance}
	}
}

func asTerms(n lexNode) ([]lexTerm, bool) {
	switch v := n.(type) {
	case lexTerm:
		return []lexTerm{v}, true
	case lexFollow:
		return append([]lexTerm(nil), v.terms...), true
	default:
		return nil, false
	}
}

func (p *lexParser) unary() (lexNode, error) {
	t, ok := p.peek()
	if !ok {
		return nil, usagef("lquery: unexpected end of query")
	}
	p.pos++
	switch {
	case t.kind == "op" && t.text == "!":
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return lexNot{x: x}, nil
	case t.kind == "lparen":
		x, err := p.or()
		if err != nil {
			return nil, err
		}
		if c, ok := p.peek(); !ok || c.kind != "rparen" {
			return nil, usagef("lquery: missing )")
		}
		p.pos++
		return x, nil
	case t.kind == "word" || t.kind == "prefix":
		if t.text == "" {
			return nil, usagef("lquery: empty word")
		}
		if n, ok := p.peek(); ok && (n.kind == "word" || n.kind == "prefix" || n.kind == "lparen") {
			return nil, usagef("lquery: missing operator between %q and %q", t.text, n.text)
		}
		return lexTerm{word: t.text, prefix: t.kind == "prefix"}, nil
	default:
		return nil, usagef("lquery: unexpected %q", t.text)
	}
}
