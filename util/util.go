package util

import (
	"fmt"
	"os"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

func RecreateOutputDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("could not clear %s: %w", dir, err)
	}
	return os.MkdirAll(dir, 0o755)
}

func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

func SortedKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

// SortedKeysFunc orders map keys with a caller supplied less function.
func SortedKeysFunc[A comparable, B any](m map[A]B, less func(a, b A) bool) []A {
	keys := maps.Keys(m)
	slices.SortFunc(keys, less)
	return keys
}

func Min[A constraints.Integer](num1 A, num2 A) A {
	if num1 > num2 {
		return num2
	}
	return num1
}

func Max[A constraints.Integer](num1 A, num2 A) A {
	if num1 < num2 {
		return num2
	}
	return num1
}

func GCD[A constraints.Integer](a, b A) A {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

func LCM[A constraints.Integer](a, b A) A {
	if a == 0 || b == 0 {
		return 0
	}
	return a / GCD(a, b) * b
}
