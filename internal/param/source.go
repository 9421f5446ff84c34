// Package param resolves possibly dynamic generation parameters into
// per-frame values ahead of parallel rendering.
package param

import (
	"github.com/llehouerou/charcoal/internal/errmsg"
)

// Source is a parameter input: either a fixed value or a function of the
// 1-based frame index.
type Source[T any] struct {
	value   T
	fn      func(frame int) T
	span    func(frame, total int) T
	dynamic bool
}

// Static wraps a fixed value.
func Static[T any](v T) Source[T] {
	return Source[T]{value: v}
}

// Dynamic wraps a per-frame function.
func Dynamic[T any](fn func(frame int) T) Source[T] {
	return Source[T]{fn: fn, dynamic: true}
}

// DynamicSpan wraps a function of both the frame index and the total frame
// count, for values that interpolate across the whole sequence.
func DynamicSpan[T any](fn func(frame, total int) T) Source[T] {
	return Source[T]{span: fn, dynamic: true}
}

// IsDynamic reports whether the source varies by frame.
func (s Source[T]) IsDynamic() bool { return s.dynamic }

// Materialize evaluates the source for every frame in [1, frameCount] and
// returns a resolver backed by plain data. Render workers receive values,
// never live functions, so dynamic sources are evaluated eagerly here.
// A dynamic source with no frame count is a configuration error.
func (s Source[T]) Materialize(frameCount int) (*Value[T], error) {
	if !s.dynamic {
		return &Value[T]{static: s.value}, nil
	}
	if frameCount < 1 {
		return nil, errmsg.Configuration("no frame count given to pre-calculate dynamic parameters")
	}
	frames := make([]T, frameCount)
	for i := range frames {
		if s.span != nil {
			frames[i] = s.span(i+1, frameCount)
		} else {
			frames[i] = s.fn(i + 1)
		}
	}
	return &Value[T]{frames: frames, dynamic: true}, nil
}

// Value is a materialized parameter. Immutable once built: every worker
// observes the same value for a given frame index.
type Value[T any] struct {
	static    T
	frames    []T
	dynamic   bool
	transform func(T) T
}

// Transformed returns a copy of v that applies f to every resolved value.
func (v *Value[T]) Transformed(f func(T) T) *Value[T] {
	out := *v
	out.transform = f
	return &out
}

// IsDynamic reports whether the value varies by frame.
func (v *Value[T]) IsDynamic() bool { return v.dynamic }

// FrameCount returns the number of materialized frames, 0 for static values.
func (v *Value[T]) FrameCount() int { return len(v.frames) }

// Resolve returns the value for a 1-based frame index. Frame 0 means "no
// frame": legal for static values, a configuration error for dynamic ones.
func (v *Value[T]) Resolve(frame int) (T, error) {
	var out T
	switch {
	case !v.dynamic:
		out = v.static
	case frame < 1:
		return out, errmsg.Configuration("frame not specified for dynamic parameter")
	case frame > len(v.frames):
		return out, errmsg.Configuration("frame %d out of range, parameter has %d frames", frame, len(v.frames))
	default:
		out = v.frames[frame-1]
	}
	if v.transform != nil {
		out = v.transform(out)
	}
	return out, nil
}
