// Package fixcache caches document diagnostics by text hash so repeated
// fix-all runs over an unchanged workspace skip the rules.
package fixcache

import (
	"context"
	"sync/atomic"

	"fixall/internal/diag"
	"fixall/internal/fixall"
	"fixall/internal/source"
	"fixall/internal/trace"
)

// Stats counts cache lookups.
type Stats struct {
	MemoryHits int64 `json:"memory_hits" yaml:"memory_hits"`
	DiskHits   int64 `json:"disk_hits" yaml:"disk_hits"`
	Misses     int64 `json:"misses" yaml:"misses"`
}

// Provider decorates a DiagnosticsProvider with the memory and disk caches.
// Project diagnostics depend on several documents and are never cached.
type Provider struct {
	next        fixall.DiagnosticsProvider
	fingerprint string
	mem         *MemoryCache
	disk        *DiskCache

	memHits  atomic.Int64
	diskHits atomic.Int64
	misses   atomic.Int64
}

var _ fixall.DiagnosticsProvider = (*Provider)(nil)

// NewProvider wraps next. disk may be nil to cache in memory only.
func NewProvider(next fixall.DiagnosticsProvider, fingerprint string, disk *DiskCache) *Provider {
	return &Provider{
		next:        next,
		fingerprint: fingerprint,
		mem:         NewMemoryCache(64),
		disk:        disk,
	}
}

// Stats returns a snapshot of the lookup counters.
func (p *Provider) Stats() Stats {
	return Stats{
		MemoryHits: p.memHits.Load(),
		DiskHits:   p.diskHits.Load(),
		Misses:     p.misses.Load(),
	}
}

func (p *Provider) DocumentDiagnostics(ctx context.Context, doc *source.Document) ([]*diag.Diagnostic, error) {
	key := Key(doc.Hash, p.fingerprint)
	if recs, ok := p.mem.Get(key); ok {
		p.memHits.Add(1)
		return fromRecords(doc, recs), nil
	}

	var payload Payload
	ok, err := p.disk.Get(key, &payload)
	if err != nil {
		// битая запись: считаем промахом и перезапишем
		trace.Point(ctx, trace.ScopeDocument, "cache:corrupt", doc.Path+": "+err.Error())
	}
	if ok {
		p.diskHits.Add(1)
		p.mem.Put(key, payload.Records)
		return fromRecords(doc, payload.Records), nil
	}

	p.misses.Add(1)
	diags, err := p.next.DocumentDiagnostics(ctx, doc)
	if err != nil {
		return nil, err
	}
	recs := toRecords(diags)
	p.mem.Put(key, recs)
	if err := p.disk.Put(key, &Payload{Records: recs}); err != nil {
		trace.Point(ctx, trace.ScopeDocument, "cache:write-failed", doc.Path+": "+err.Error())
	}
	return diags, nil
}

func (p *Provider) ProjectDiagnostics(ctx context.Context, sol *source.Solution, project *source.Project) ([]*diag.Diagnostic, error) {
	return p.next.ProjectDiagnostics(ctx, sol, project)
}

func (p *Provider) IsGenerated(doc *source.Document) bool {
	return p.next.IsGenerated(doc)
}

func toRecords(diags []*diag.Diagnostic) []Record {
	recs := make([]Record, 0, len(diags))
	for _, d := range diags {
		if d == nil || d.IsProjectLevel() {
			continue
		}
		rec := Record{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Start:    d.Primary.Start,
			End:      d.Primary.End,
		}
		for _, n := range d.Notes {
			if n.Span.Doc != d.Primary.Doc {
				continue
			}
			rec.Notes = append(rec.Notes, NoteRecord{Start: n.Span.Start, End: n.Span.End, Msg: n.Msg})
		}
		if len(d.Properties) > 0 {
			rec.Properties = make(map[string]string, len(d.Properties))
			for k, v := range d.Properties {
				rec.Properties[k] = v
			}
		}
		recs = append(recs, rec)
	}
	return recs
}

// fromRecords rebuilds diagnostics bound to doc. Every call returns fresh values.
func fromRecords(doc *source.Document, recs []Record) []*diag.Diagnostic {
	out := make([]*diag.Diagnostic, 0, len(recs))
	for _, rec := range recs {
		d := diag.New(diag.Severity(rec.Severity), diag.Code(rec.Code), doc.Project,
			source.Span{Doc: doc.ID, Start: rec.Start, End: rec.End}, rec.Message)
		for _, n := range rec.Notes {
			d.WithNote(source.Span{Doc: doc.ID, Start: n.Start, End: n.End}, n.Msg)
		}
		for k, v := range rec.Properties {
			d.WithProperty(k, v)
		}
		out = append(out, d)
	}
	return out
}
