package util

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/benbjohnson/immutable"
	"github.com/hashicorp/go-set/v3"
)

// Keywords is an immutable set of identifiers a target language reserves
type Keywords = immutable.Set[string]

// NewKeywords builds a Keywords set from words
func NewKeywords(words ...string) Keywords {
	return immutable.NewSet[string](nil, words...)
}

// IdentSet allocates unique identifiers in some scope.
// Names handed out are never returned twice, and never collide with the
// forbidden Keywords the set was created with.
type IdentSet struct {
	forbidden Keywords
	taken     *set.Set[string]
}

func NewIdentSet(forbidden Keywords) *IdentSet {
	return &IdentSet{
		forbidden: forbidden,
		taken:     set.New[string](16),
	}
}

// Fork returns a new IdentSet with the same forbidden words and a copy of the names taken so far
func (s *IdentSet) Fork() *IdentSet {
	return &IdentSet{
		forbidden: s.forbidden,
		taken:     s.taken.Copy(),
	}
}

// IsGood reports whether ident is a valid identifier that is neither reserved nor taken
func (s *IdentSet) IsGood(ident string) bool {
	if ident == "" || !isIdent(ident) {
		return false
	}
	return !s.forbidden.Has(ident) && !s.taken.Contains(ident)
}

// Insert marks ident as taken, returning false if it already was
func (s *IdentSet) Insert(ident string) bool {
	return s.taken.Insert(ident)
}

func (s *IdentSet) Contains(ident string) bool {
	return s.taken.Contains(ident)
}

// New returns a fresh identifier derived from orig.
// When count is non-zero it is appended to the base name, and it is
// incremented until the result is free. suffix is appended verbatim.
func (s *IdentSet) New(orig string, count int, suffix string) string {
	if i := strings.LastIndexByte(orig, '.'); i >= 0 {
		orig = orig[i+1:]
	}
	for {
		ident := SanitizeIdent(orig, count) + suffix
		if s.IsGood(ident) {
			s.taken.Insert(ident)
			return ident
		}
		count++
	}
}

// SanitizeIdent maps a schema name into an identifier made of letters, digits and underscores
func SanitizeIdent(orig string, count int) string {
	sb := strings.Builder{}
	for _, r := range orig {
		switch {
		case r == '!' && sb.Len() == 0:
			// special constructor marker
		case unicode.IsLetter(r) || r == '_':
			sb.WriteRune(r)
		case unicode.IsDigit(r):
			if sb.Len() == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		sb.WriteByte('_')
	}
	if count > 0 {
		return fmt.Sprintf("%s%d", sb.String(), count)
	}
	return sb.String()
}

func isIdent(s string) bool {
	for i, r := range s {
		if !(unicode.IsLetter(r) || r == '_' || (i > 0 && unicode.IsDigit(r))) {
			return false
		}
	}
	return true
}
