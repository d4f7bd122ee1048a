package fixall

import "time"

// Stage describes one step of a fix-all run.
type Stage string

const (
	StageEnumerate Stage = "enumerate"
	StageCollect   Stage = "collect"
	StageExtract   Stage = "extract"
	StageMerge     Stage = "merge"
)

// Stages lists the stages in execution order.
var Stages = []Stage{StageEnumerate, StageCollect, StageExtract, StageMerge}

// ItemState captures progress of one work item within a stage.
type ItemState string

const (
	StateQueued  ItemState = "queued"
	StateWorking ItemState = "working"
	StateDone    ItemState = "done"
	StateError   ItemState = "error"
)

// Event reports progress for a document or project (Item) or, when Item is
// empty, for the stage as a whole.
type Event struct {
	Item    string
	Stage   Stage
	State   ItemState
	Count   int // диагностики, действия или правки, в зависимости от стадии
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent is called from worker
// goroutines and must be safe for concurrent use.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

type nopSink struct{}

func (nopSink) OnEvent(Event) {}

func emitStage(sink ProgressSink, stage Stage, state ItemState, count int, err error, elapsed time.Duration) {
	sink.OnEvent(Event{Stage: stage, State: state, Count: count, Err: err, Elapsed: elapsed})
}

func emitItem(sink ProgressSink, item string, stage Stage, state ItemState, count int) {
	sink.OnEvent(Event{Item: item, Stage: stage, State: state, Count: count})
}
