package stream

import (
	"errors"
	"io"
)

// Source is the minimal pull interface the stream helpers need. Next returns
// io.EOF once the source is exhausted.
type Source interface {
	Next() (any, error)
}

// PreloadedSource returns a preloaded element (typically one that was peeked to
// decide how to build) and then continues with the remaining elements of the
// inner source. It lets a consumer look ahead without rewinding.
type PreloadedSource struct {
	inner     Source
	preloaded any
	served    bool
}

// NewPreloadedSource constructs a source that yields first before anything
// from inner.
func NewPreloadedSource(inner Source, first any) *PreloadedSource {
	return &PreloadedSource{inner: inner, preloaded: first}
}

func (p *PreloadedSource) Next() (any, error) {
	if !p.served {
		p.served = true
		v := p.preloaded
		p.preloaded = nil
		return v, nil
	}
	return p.inner.Next()
}

// Close closes the inner source when it is an io.Closer.
func (p *PreloadedSource) Close() error { return Close(p.inner) }

// Peek reads one element from src. When src is exhausted ok is false and rest
// is src itself; otherwise rest yields the peeked element first.
func Peek(src Source) (rest Source, first any, ok bool, err error) {
	v, err := src.Next()
	if errors.Is(err, io.EOF) {
		return src, nil, false, nil
	}
	if err != nil {
		return src, nil, false, err
	}
	return NewPreloadedSource(src, v), v, true, nil
}

// Close releases src when it holds resources.
func Close(src Source) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Each calls fn for every remaining element of src, stopping at io.EOF, at
// the first error, or when fn returns false. The index counts elements
// delivered to fn.
func Each(src Source, fn func(i int, v any) (bool, error)) error {
	for i := 0; ; i++ {
		v, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		more, err := fn(i, v)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}
