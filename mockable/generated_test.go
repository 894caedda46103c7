package mockable_test

import (
	"strings"

	__mockable__ "github.com/PatchLens/go-mock-inject/mockable"
)

// Functions as mockinject rewrites them.

var addBodyRuns int

func add(a int, __mock_unignored_argument_1__ int) int {
	var __mock_result_0__ int
	if __mockable__.Call(add, []interface{}{&a, &__mock_unignored_argument_1__}, []interface{}{&__mock_result_0__}) == __mockable__.Return {
		return __mock_result_0__
	}
	addBodyRuns++
	return a + a
}

func join(sep string, parts ...string) string {
	var __mock_result_0__ string
	if __mockable__.Call(join, []interface{}{&sep, &parts}, []interface{}{&__mock_result_0__}) == __mockable__.Return {
		return __mock_result_0__
	}
	return strings.Join(parts, sep)
}

func split(s string) (head, tail string, ok bool) {
	var __mock_result_0__ string
	var __mock_result_1__ string
	var __mock_result_2__ bool
	if __mockable__.Call(split, []interface{}{&s}, []interface{}{&__mock_result_0__, &__mock_result_1__, &__mock_result_2__}) == __mockable__.Return {
		return __mock_result_0__, __mock_result_1__, __mock_result_2__
	}
	head, tail, ok = strings.Cut(s, "/")
	return
}

var ticks int

func tick() {
	if __mockable__.Call(tick, nil, nil) == __mockable__.Return {
		return
	}
	ticks++
}

type calc struct{ factor int }

func (calc) double(x int) int {
	var __mock_result_0__ int
	if __mockable__.Call(calc.double, []interface{}{&x}, []interface{}{&__mock_result_0__}) == __mockable__.Return {
		return __mock_result_0__
	}
	return x * 2
}

func (*calc) name() string {
	var __mock_result_0__ string
	if __mockable__.Call((*calc).name, nil, []interface{}{&__mock_result_0__}) == __mockable__.Return {
		return __mock_result_0__
	}
	return "calc"
}

func gid[T any](x T) T {
	var __mock_result_0__ T
	if __mockable__.Call(gid[T], []interface{}{&x}, []interface{}{&__mock_result_0__}) == __mockable__.Return {
		return __mock_result_0__
	}
	return x
}

type box[T any] struct{ v T }

func (box[T]) get(x T) T {
	var __mock_result_0__ T
	if __mockable__.Call(box[T].get, []interface{}{&x}, []interface{}{&__mock_result_0__}) == __mockable__.Return {
		return __mock_result_0__
	}
	return x
}

func (*box[T]) kind() string {
	var __mock_result_0__ string
	if __mockable__.Call((*box[T]).kind, nil, []interface{}{&__mock_result_0__}) == __mockable__.Return {
		return __mock_result_0__
	}
	return "box"
}
