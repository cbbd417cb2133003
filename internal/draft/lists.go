package draft

import "github.com/google/uuid"

func defaultID() string { return uuid.NewString() }

// The list helpers never modify their input; each returns a new slice.

func appendCopy[T any](s []T, v T) []T {
	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}

func removeAt[T any](s []T, i int) ([]T, bool) {
	if i < 0 || i >= len(s) {
		return s, false
	}
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...), true
}

func move[T any](s []T, from, to int) ([]T, bool) {
	if from < 0 || from >= len(s) || to < 0 || to >= len(s) {
		return s, false
	}
	out := make([]T, len(s))
	copy(out, s)
	v := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = v
	return out, true
}

func removeFunc[T any](s []T, drop func(T) bool) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if !drop(v) {
			out = append(out, v)
		}
	}
	return out
}
