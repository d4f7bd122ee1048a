package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint     // мгновенное событие (конфликт, сбой кэша)
	KindHeartbeat // периодический сигнал живости
)

var kindNames = [...]string{"unknown", "begin", "end", "point", "heartbeat"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[0]
}

// Scope is the granularity of an event inside a fix-all run.
// Lower values are coarser.
type Scope uint8

const (
	// ScopeOperation covers a CLI command or one Engine.Run.
	ScopeOperation Scope = iota + 1
	// ScopeStage covers enumerate, collect, extract or merge.
	ScopeStage
	// ScopeDocument covers the work on one document or project.
	ScopeDocument
	// ScopeChange covers one applied action.
	ScopeChange
)

var scopeNames = [...]string{"unknown", "operation", "stage", "document", "change"}

func (s Scope) String() string {
	if int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return scopeNames[0]
}

// Event is one trace record. Operation, Stage and Item are copied from the
// context the event was emitted in, so interleaved parallel work can be
// told apart.
type Event struct {
	Time      time.Time
	Seq       uint64
	Kind      Kind
	Scope     Scope
	SpanID    uint64
	ParentID  uint64
	Operation string // uuid of the fix-all run
	Stage     string
	Item      string // document path or <project>
	Name      string
	Detail    string
	Extra     map[string]string
}

// ShortOperation returns the first eight characters of the operation id.
func (e *Event) ShortOperation() string {
	if len(e.Operation) > 8 {
		return e.Operation[:8]
	}
	return e.Operation
}
