package ast

import (
	"strconv"
	"strings"
)

// Show modes, combinable
const (
	// ShowInvertNegation prints ~ on positive params instead of negative ones
	ShowInvertNegation = 1
	// ShowFlat drops braces around implicit fields and all parentheses
	ShowFlat = 2
	// ShowAnonymous prints a constructor as [ fields ]
	ShowAnonymous = 4
	// ShowNoTag omits the constructor tag
	ShowNoTag = 8
)

// ShowExpr renders id as TL-B source. cs resolves field names of params and may be nil.
func (a *Arena) ShowExpr(id NodeId, cs *Constructor) string {
	sb := &strings.Builder{}
	a.showExpr(sb, id, cs, 0, 0)
	return sb.String()
}

func (a *Arena) showExpr(sb *strings.Builder, id NodeId, cs *Constructor, prio, mode int) {
	if mode&ShowFlat != 0 {
		prio = 0
	}
	open := func(p int) {
		if prio > p {
			sb.WriteByte('(')
		}
	}
	closeP := func(p int) {
		if prio > p {
			sb.WriteByte(')')
		}
	}
	e := a.exprs[id]
	args := e.Info().Args
	switch e := e.(type) {
	case *TypeSort:
		sb.WriteString("Type")
	case *Param:
		if e.Negated != (mode&ShowInvertNegation != 0) {
			sb.WriteByte('~')
		}
		if cs != nil && e.Field >= 0 && e.Field < len(cs.Fields) && cs.Fields[e.Field].Name != 0 {
			sb.WriteString(a.SymName(cs.Fields[e.Field].Name))
		} else {
			sb.WriteByte('_')
			sb.WriteString(strconv.Itoa(e.Field + 1))
		}
	case *Apply:
		t := a.Types[e.Type]
		if len(args) == 0 && t.Name == 0 && len(t.Constructors) == 1 {
			if inner := a.Constructors[t.Constructors[0]]; inner.Name == 0 && inner.Tag&(All63) == 0 {
				a.showConstructor(sb, inner, mode|ShowAnonymous)
				return
			}
		}
		if len(args) > 0 {
			open(90)
		}
		sb.WriteString(a.TypeName(t))
		for _, arg := range args {
			sb.WriteByte(' ')
			a.showExpr(sb, arg, cs, 91, mode)
		}
		if len(args) > 0 {
			closeP(90)
		}
	case *Add:
		open(20)
		a.showExpr(sb, args[0], cs, 20, mode)
		sb.WriteString(" + ")
		a.showExpr(sb, args[1], cs, 21, mode)
		closeP(20)
	case *GetBit:
		open(97)
		a.showExpr(sb, args[0], cs, 98, mode)
		sb.WriteString(".")
		a.showExpr(sb, args[1], cs, 98, mode)
		closeP(97)
	case *IntConst:
		sb.WriteString(strconv.Itoa(e.Value))
	case *MulConst:
		open(30)
		sb.WriteString(strconv.Itoa(e.Factor))
		sb.WriteString(" * ")
		a.showExpr(sb, args[0], cs, 31, mode)
		closeP(30)
	case *Tuple:
		open(30)
		a.showExpr(sb, args[0], cs, 30, mode)
		sb.WriteString(" * ")
		a.showExpr(sb, args[1], cs, 31, mode)
		closeP(30)
	case *CondType:
		open(95)
		a.showExpr(sb, args[0], cs, 96, mode)
		sb.WriteString("?")
		a.showExpr(sb, args[1], cs, 96, mode)
		closeP(95)
	case *Ref:
		sb.WriteByte('^')
		a.showExpr(sb, args[0], cs, 100, mode)
	default:
		sb.WriteString("(unknown-type)")
	}
}

// All63 masks every bit of a tag below the top one
const All63 uint64 = 1<<63 - 1

// ShowConstructor renders c as a TL-B declaration, using the Show mode flags
func (a *Arena) ShowConstructor(c *Constructor, mode int) string {
	sb := &strings.Builder{}
	a.showConstructor(sb, c, mode)
	return sb.String()
}

func (a *Arena) showConstructor(sb *strings.Builder, c *Constructor, mode int) {
	if mode&ShowAnonymous != 0 {
		sb.WriteByte('[')
	} else {
		sb.WriteString(a.ConsName(c))
	}
	if mode&ShowNoTag == 0 {
		sb.WriteString(ShowTag(c.Tag))
	}
	for i := range c.Fields {
		field := &c.Fields[i]
		sb.WriteByte(' ')
		if !field.IsExplicit() {
			if mode&ShowFlat == 0 {
				sb.WriteByte('{')
			}
			if field.Name != 0 {
				sb.WriteString(a.SymName(field.Name))
				sb.WriteByte(':')
			}
			a.showExpr(sb, field.Type, c, 0, mode&^ShowInvertNegation)
			if mode&ShowFlat == 0 {
				sb.WriteByte('}')
			}
		} else {
			if field.Name != 0 {
				sb.WriteString(a.SymName(field.Name))
				sb.WriteByte(':')
			}
			a.showExpr(sb, field.Type, c, 95, mode&^ShowInvertNegation)
		}
	}
	if mode&ShowAnonymous != 0 {
		sb.WriteString(" ]")
		return
	}
	sb.WriteString(" = ")
	if c.TypeDefined != NoType {
		sb.WriteString(a.TypeName(a.Types[c.TypeDefined]))
	} else {
		sb.WriteString(a.SymName(c.TypeName))
	}
	for i := 0; i < c.Arity; i++ {
		sb.WriteByte(' ')
		if c.ParamNegated[i] {
			sb.WriteByte('~')
		}
		a.showExpr(sb, c.Params[i], c, 100, mode|ShowInvertNegation)
	}
	if mode&ShowFlat == 0 {
		sb.WriteByte(';')
	}
}

// ShowTag renders a tag as $bits when short, or #hex otherwise.
// A trailing _ marks a tag that is not a whole number of digits.
func ShowTag(tag uint64) string {
	if tag == 0 {
		return ""
	}
	sb := strings.Builder{}
	if tag&(1<<59-1) == 0 {
		sb.WriteByte('$')
		c := 0
		for tag&All63 != 0 {
			sb.WriteByte('0' + byte(tag>>63))
			tag <<= 1
			c++
		}
		if c == 0 {
			sb.WriteByte('_')
		}
		return sb.String()
	}
	const hexDigits = "0123456789abcdef"
	sb.WriteByte('#')
	for tag&All63 != 0 {
		sb.WriteByte(hexDigits[tag>>60])
		tag <<= 4
	}
	if tag == 0 {
		sb.WriteByte('_')
	}
	return sb.String()
}
