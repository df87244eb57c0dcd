package utils

import "golang.org/x/exp/constraints"

// Min returns the smaller value between two numbers.
func Min[T constraints.Ordered](x, y T) T {
	if x < y {
		return x
	}
	return y
}

// Max returns the bigger value between two numbers.
func Max[T constraints.Ordered](x, y T) T {
	if x > y {
		return x
	}
	return y
}

// Abs returns the absolut value of x.
func Abs[T constraints.Signed | constraints.Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// Clamp restricts x to the [lo, hi] interval.
func Clamp[T constraints.Ordered](x, lo, hi T) T {
	return Max(lo, Min(x, hi))
}

// Contains reports whether v is present in s.
func Contains[T comparable](s []T, v T) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}
