package pipeline

// Phase names a stage of a generation run.
type Phase string

const (
	PhaseExtract  Phase = "extracting frames"
	PhaseCanvas   Phase = "generating canvas"
	PhaseRender   Phase = "generating ascii art"
	PhaseAssemble Phase = "assembling output"
)

// Progress is one progress update. Current counts completed units of the
// phase's Total; render updates arrive once per finished frame, in
// completion order.
type Progress struct {
	Phase   Phase
	Current int
	Total   int
}
