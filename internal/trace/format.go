package trace

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Format represents the output format for trace events.
type Format uint8

const (
	FormatAuto   Format = iota // by file extension, text otherwise
	FormatText                 // human-readable text
	FormatNDJSON               // newline-delimited JSON
	FormatChrome               // chrome://tracing / Perfetto JSON
)

// ParseFormat converts a flag value to Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson":
		return FormatNDJSON, nil
	case "chrome":
		return FormatChrome, nil
	default:
		return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson|chrome)", s)
	}
}

// FormatEvent formats an event according to the specified format.
func FormatEvent(ev *Event, format Format) []byte {
	switch format {
	case FormatNDJSON:
		return formatNDJSON(ev)
	case FormatChrome:
		return formatChrome(ev)
	default:
		return formatText(ev)
	}
}

func formatNDJSON(ev *Event) []byte {
	type jsonEvent struct {
		Time      string            `json:"time"`
		Seq       uint64            `json:"seq"`
		Kind      string            `json:"kind"`
		Scope     string            `json:"scope"`
		SpanID    uint64            `json:"span_id,omitempty"`
		ParentID  uint64            `json:"parent_id,omitempty"`
		Operation string            `json:"operation,omitempty"`
		Stage     string            `json:"stage,omitempty"`
		Item      string            `json:"item,omitempty"`
		Name      string            `json:"name"`
		Detail    string            `json:"detail,omitempty"`
		Extra     map[string]string `json:"extra,omitempty"`
	}

	data, _ := json.Marshal(jsonEvent{
		Time:      ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:       ev.Seq,
		Kind:      ev.Kind.String(),
		Scope:     ev.Scope.String(),
		SpanID:    ev.SpanID,
		ParentID:  ev.ParentID,
		Operation: ev.Operation,
		Stage:     ev.Stage,
		Item:      ev.Item,
		Name:      ev.Name,
		Detail:    ev.Detail,
		Extra:     ev.Extra,
	})
	return append(data, '\n')
}

// formatChrome emits one element of the traceEvents array (without separators).
// Spans become async events keyed by span id: parallel document workers
// overlap freely, so begin/end pairs cannot be matched by thread.
func formatChrome(ev *Event) []byte {
	type chromeEvent struct {
		Name string            `json:"name"`
		Cat  string            `json:"cat"`
		Ph   string            `json:"ph"`
		Ts   int64             `json:"ts"`
		Pid  int               `json:"pid"`
		Tid  int               `json:"tid"`
		ID   string            `json:"id,omitempty"`
		S    string            `json:"s,omitempty"`
		Args map[string]string `json:"args,omitempty"`
	}

	ce := chromeEvent{
		Name: ev.Name,
		Cat:  ev.Scope.String(),
		Ts:   ev.Time.UnixMicro(),
		Pid:  1,
		Tid:  1,
	}
	switch ev.Kind {
	case KindSpanBegin:
		ce.Ph, ce.ID = "b", fmt.Sprintf("0x%x", ev.SpanID)
	case KindSpanEnd:
		ce.Ph, ce.ID = "e", fmt.Sprintf("0x%x", ev.SpanID)
	default:
		ce.Ph = "i"
		ce.S = "g"
	}

	args := make(map[string]string, len(ev.Extra)+4)
	for k, v := range ev.Extra {
		args[k] = v
	}
	for k, v := range map[string]string{
		"detail":    ev.Detail,
		"operation": ev.Operation,
		"stage":     ev.Stage,
		"item":      ev.Item,
	} {
		if v != "" {
			args[k] = v
		}
	}
	if len(args) > 0 {
		ce.Args = args
	}
	data, _ := json.Marshal(ce)
	return data
}

// formatText formats an event as human-readable text.
// Format: hh:mm:ss.micro [op stage] indent →/← name item (detail) {k=v}
func formatText(ev *Event) []byte {
	var sb strings.Builder

	sb.WriteString(ev.Time.Format("15:04:05.000000"))
	sb.WriteByte(' ')
	if ev.Operation != "" || ev.Stage != "" {
		sb.WriteByte('[')
		sb.WriteString(ev.ShortOperation())
		if ev.Operation != "" && ev.Stage != "" {
			sb.WriteByte(' ')
		}
		sb.WriteString(ev.Stage)
		sb.WriteString("] ")
	}
	if ev.Scope > ScopeOperation {
		sb.WriteString(strings.Repeat("  ", int(ev.Scope-ScopeOperation)))
	}

	switch ev.Kind {
	case KindSpanBegin:
		sb.WriteString("→ ")
	case KindSpanEnd:
		sb.WriteString("← ")
	case KindPoint:
		sb.WriteString("• ")
	case KindHeartbeat:
		sb.WriteString("♡ ")
	}

	sb.WriteString(ev.Name)
	if ev.Item != "" && ev.Scope >= ScopeDocument {
		sb.WriteByte(' ')
		sb.WriteString(ev.Item)
	}

	if ev.Detail != "" {
		sb.WriteString(" (")
		sb.WriteString(ev.Detail)
		sb.WriteString(")")
	}

	if len(ev.Extra) > 0 {
		keys := make([]string, 0, len(ev.Extra))
		for k := range ev.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(ev.Extra[k])
		}
		sb.WriteString("}")
	}

	sb.WriteString("\n")
	return []byte(sb.String())
}
