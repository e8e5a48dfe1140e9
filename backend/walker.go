package backend

import (
	"github.com/cottand/tlbc/frontend/tlberr"
	"github.com/cottand/tlbc/frontend/types"
	"github.com/cottand/tlbc/internal/log"
)

// Plan computes everything language independent about the types of env.
// reserved lists the identifiers generated code may not declare.
func Plan(env *types.Env, opts Options, reserved Reserved) (f *FilePlan, err error) {
	defer recoverFatal(&err)
	return newPlanner(env, opts, reserved).plan(), nil
}

// Generate plans the types of env and renders them with e.
// Types that cannot be generated make it fail with a *tlberr.Fatal.
func Generate(env *types.Env, e Emitter, opts Options) ([]byte, error) {
	f, err := Plan(env, opts, e.ReservedWords())
	if err != nil {
		return nil, err
	}
	log.DefaultLogger.Debug("generating", "section", log.SectionCodegen, "emitter", e.Name(), "types", len(f.Types),
		"consts", len(f.Consts))
	return Emit(f, e)
}

// Emit walks f, calling e for the parts selected by f.Options
func Emit(f *FilePlan, e Emitter) (out []byte, err error) {
	defer recoverFatal(&err)
	parts := f.Options.Parts
	e.Begin(f)
	for _, tp := range f.Types {
		if parts.Has(PartHeader) {
			e.TypeDecl(tp)
			e.TagEnum(tp)
			e.TagTables(tp)
			for _, r := range tp.Records() {
				e.Record(tp, r)
			}
		}
		if parts.Has(PartSource) {
			e.GetTag(tp, tp.TagTree)
			e.Skip(tp, false, tp.SkipBodies[0])
			e.Skip(tp, true, tp.SkipBodies[1])
			for i, cp := range tp.Cons {
				e.Unpack(tp, cp.Record, tp.UnpackBodies[i])
				e.Pack(tp, cp.Record, tp.PackBodies[i])
			}
			if tp.IsSimpleEnum {
				e.EnumHelpers(tp)
			}
		}
	}
	if parts.Has(PartHeader) {
		e.Constants(f.Consts)
	}
	return e.End()
}

func recoverFatal(err *error) {
	r := recover()
	if r == nil {
		return
	}
	b, ok := r.(bailout)
	if !ok {
		panic(r)
	}
	*err = tlberr.NewFatal("%s", b.msg)
}
