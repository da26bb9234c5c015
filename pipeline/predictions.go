package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/khaledhikmat/nsfw-go/model"
)

const emptyPredictions = `{"predictions": []}`

// ResultIterator has a pull contract: each Next call produces at most one
// result. It reports false when exhausted.
type ResultIterator interface {
	Next(ctx context.Context) (model.Result, bool)
}

// Predictions resolves entries lazily and strictly in input order. Entry i is
// fully resolved before entry i+1 is started.
type Predictions struct {
	resolver *Resolver
	entries  []model.ImageEntry
	pos      int
}

func NewPredictions(resolver *Resolver, entries []model.ImageEntry) *Predictions {
	return &Predictions{
		resolver: resolver,
		entries:  entries,
	}
}

// Next stops early once the context is done, so a client that went away
// does not keep the classifier busy.
func (p *Predictions) Next(ctx context.Context) (model.Result, bool) {
	if p.pos >= len(p.entries) || ctx.Err() != nil {
		return nil, false
	}

	entry := p.entries[p.pos]
	p.pos++
	return p.resolver.Resolve(ctx, entry), true
}

// WritePredictions streams {"predictions": [...]} while results are produced.
// It holds one result back so that the last element is written without a
// separator. The writer is flushed after every element when it supports it.
func WritePredictions(ctx context.Context, w io.Writer, it ResultIterator) error {
	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}

	prev, ok := it.Next(ctx)
	if !ok {
		_, err := io.WriteString(w, emptyPredictions)
		return err
	}

	if _, err := io.WriteString(w, "{\"predictions\": [\n"); err != nil {
		return err
	}
	flush()

	for {
		cur, ok := it.Next(ctx)
		if !ok {
			break
		}

		if err := writeResult(w, prev, ",\n"); err != nil {
			return err
		}
		flush()
		prev = cur
	}

	if err := writeResult(w, prev, "\n]}"); err != nil {
		return err
	}
	flush()

	return ctx.Err()
}

func writeResult(w io.Writer, result model.Result, suffix string) error {
	data, err := EncodeJSON(result)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, suffix...))
	return err
}

// EncodeJSON marshals without HTML escaping, so urls keep their & and <.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
