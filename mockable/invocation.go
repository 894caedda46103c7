package mockable

import (
	"fmt"
	"reflect"
)

// Invocation is a single intercepted call, handed to the Mocker installed for the function.
type Invocation struct {
	fn      interface{}
	key     mockKey
	args    []interface{}
	results []interface{}
}

// Name returns the runtime name of the intercepted function.
func (inv *Invocation) Name() string {
	if inv.key.name != "" {
		return inv.key.name
	}
	return funcName(inv.key.pc)
}

// Func returns the function the call was made to.
func (inv *Invocation) Func() interface{} {
	return inv.fn
}

// NumArgs returns the number of parameters of the intercepted function, excluding an unused receiver.
func (inv *Invocation) NumArgs() int {
	return len(inv.args)
}

// NumResults returns the number of results of the intercepted function.
func (inv *Invocation) NumResults() int {
	return len(inv.results)
}

// Arg returns the current value of parameter i.
func (inv *Invocation) Arg(i int) interface{} {
	return reflect.ValueOf(inv.args[i]).Elem().Interface()
}

// SetArg replaces the value of parameter i as seen by the original body.
func (inv *Invocation) SetArg(i int, v interface{}) {
	assign(inv.args[i], v, "argument", i, inv)
}

// Continue lets the original body run. Without arguments the parameters are kept as they are,
// otherwise exactly one value per parameter must be given, each assignable to the parameter type.
func (inv *Invocation) Continue(args ...interface{}) Outcome {
	if len(args) == 0 {
		return Continue
	} else if len(args) != len(inv.args) {
		panic(fmt.Sprintf("mockable: %s continued with %d arguments, want %d", inv.Name(), len(args), len(inv.args)))
	}
	for i, v := range args {
		assign(inv.args[i], v, "argument", i, inv)
	}
	return Continue
}

// Return skips the original body. Exactly one value per result must be given, each assignable to
// the result type; nil stands for the zero value.
func (inv *Invocation) Return(results ...interface{}) Outcome {
	if len(results) != len(inv.results) {
		panic(fmt.Sprintf("mockable: %s returned %d results, want %d", inv.Name(), len(results), len(inv.results)))
	}
	for i, v := range results {
		assign(inv.results[i], v, "result", i, inv)
	}
	return Return
}

func assign(ptr interface{}, v interface{}, what string, i int, inv *Invocation) {
	dst := reflect.ValueOf(ptr).Elem()
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return
	}
	src := reflect.ValueOf(v)
	if !src.Type().AssignableTo(dst.Type()) {
		panic(fmt.Sprintf("mockable: %s %s %d has type %s, want %s", inv.Name(), what, i, src.Type(), dst.Type()))
	}
	dst.Set(src)
}
