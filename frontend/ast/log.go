package ast

import (
	"log/slog"
)

// Slog wraps an expression as a slog.LogValuer to not render expression strings
// unless they definitely need to be logged
func (a *Arena) Slog(id NodeId, cs *Constructor) slog.LogValuer {
	return exprLogValuer{arena: a, id: id, cs: cs}
}

// SlogCons wraps a constructor as a slog.LogValuer, rendering it as its declaration
func (a *Arena) SlogCons(cs *Constructor) slog.LogValuer {
	return consLogValuer{arena: a, cs: cs}
}

type exprLogValuer struct {
	arena *Arena
	id    NodeId
	cs    *Constructor
}

func (l exprLogValuer) LogValue() slog.Value {
	return slog.StringValue(l.arena.ShowExpr(l.id, l.cs))
}

type consLogValuer struct {
	arena *Arena
	cs    *Constructor
}

func (l consLogValuer) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("decl", l.arena.ShowConstructor(l.cs, 0)),
		slog.String("qualified", l.arena.QualifiedName(l.cs)),
	)
}
