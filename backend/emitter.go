package backend

// Emitter turns a FilePlan into source code of one target language.
// The walker calls Begin once, then the per-type methods in the order
// declared below for every type, Constants, and finally End.
type Emitter interface {
	Name() string
	// FileSuffix is the extension of output files, such as ".go"
	FileSuffix() string
	// ReservedWords lists the identifiers generated code may not declare
	ReservedWords() Reserved

	Begin(f *FilePlan)
	TypeDecl(t *TypePlan)
	TagEnum(t *TypePlan)
	TagTables(t *TypePlan)
	Record(t *TypePlan, r *RecordPlan)
	GetTag(t *TypePlan, tree *TagNode)
	// Skip is called twice per type. Bodies are nil when InlineSkip or
	// InlineValidateSkip make skipping a fixed advance.
	Skip(t *TypePlan, validate bool, bodies []*Body)
	Unpack(t *TypePlan, r *RecordPlan, body *Body)
	Pack(t *TypePlan, r *RecordPlan, body *Body)
	// EnumHelpers is only called for simple enums
	EnumHelpers(t *TypePlan)
	Constants(c []*ConstPlan)
	End() ([]byte, error)
}

// Reserved are the identifiers an Emitter keeps for itself.
// Keywords are off limits for every name taken from the schema. Locals are the
// variables generated methods declare, and only collide with names that end up
// bare in a method body: outputs and temporaries.
type Reserved struct {
	Keywords []string
	Locals   []string
}
