package session

// PushBounded returns a new slice with item in front of list, truncated to
// limit entries. list itself is left untouched.
func PushBounded[T any](list []T, item T, limit int) []T {
	n := len(list) + 1
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]T, n)
	out[0] = item
	copy(out[1:], list)
	return out
}

// Prepend returns a new slice with item in front of list.
func Prepend[T any](list []T, item T) []T {
	return PushBounded(list, item, 0)
}

// ReplaceAt returns a copy of list with index i set to item.
func ReplaceAt[T any](list []T, i int, item T) []T {
	out := Clone(list)
	out[i] = item
	return out
}

// RemoveWhere returns a copy of list without the elements matching drop.
func RemoveWhere[T any](list []T, drop func(T) bool) []T {
	out := make([]T, 0, len(list))
	for _, v := range list {
		if !drop(v) {
			out = append(out, v)
		}
	}
	return out
}

// Clone returns a shallow copy of in, preserving nil.
func Clone[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
