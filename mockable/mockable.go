// Package mockable is the call interception registry consulted by functions rewritten with mockinject.
//
// Every rewritten function starts with a call to Call, passing the function itself as its key along
// with pointers to its parameters and to zero-valued result slots. Tests install a Mocker for a function
// with Mock or Patch; the Mocker either lets the original body run (Continue), possibly after replacing
// arguments, or supplies the results directly (Return).
//
// Mocks are process wide. Tests installing mocks for the same function must not run in parallel.
package mockable

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
)

// Outcome is the decision a Mocker makes for one call.
type Outcome uint8

const (
	// Continue runs the original function body with the current, possibly replaced, arguments.
	Continue Outcome = iota
	// Return skips the original function body and returns the supplied results.
	Return
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "Continue"
	case Return:
		return "Return"
	default:
		return fmt.Sprintf("Outcome(%d)", o)
	}
}

// Mocker decides the outcome of an intercepted call.
type Mocker func(inv *Invocation) Outcome

// mockKey identifies a mocked function. Plain functions are keyed by their code pointer. A generic
// instantiation is keyed by its name, type arguments elided, and its function type, since the function
// value a test passes and the one the generic body evaluates point to different code.
type mockKey struct {
	pc   uintptr
	name string
	typ  reflect.Type
}

var (
	registryLock sync.RWMutex
	registry     = make(map[mockKey]Mocker)
	mockCount    atomic.Int32 // fast path for the common case of nothing mocked
	genericCount atomic.Int32
)

// Call is invoked by the prologue of every rewritten function. args and results hold pointers to the
// function's parameters and result slots, in declaration order.
func Call(fn interface{}, args, results []interface{}) Outcome {
	if mockCount.Load() == 0 {
		return Continue
	}
	key := mockKey{pc: funcPointer(fn)}
	mocker, ok := lookup(key)
	if !ok && genericCount.Load() > 0 {
		if name := callerName(); isGenericName(name) {
			key = mockKey{name: name, typ: reflect.TypeOf(fn)}
			mocker, ok = lookup(key)
		}
	}
	if !ok {
		return Continue
	}

	inv := &Invocation{fn: fn, key: key, args: args, results: results}
	switch outcome := mocker(inv); outcome {
	case Continue, Return:
		return outcome
	default:
		panic(fmt.Sprintf("mockable: mock of %s returned invalid %v", inv.Name(), outcome))
	}
}

func lookup(key mockKey) (Mocker, bool) {
	registryLock.RLock()
	defer registryLock.RUnlock()
	mocker, ok := registry[key]
	return mocker, ok
}

// callerName returns the name of the function that called Call, with type arguments elided.
func callerName() string {
	var pcs [1]uintptr
	if runtime.Callers(3, pcs[:]) == 0 { // skip Callers, callerName and Call
		return ""
	}
	frame, _ := runtime.CallersFrames(pcs[:]).Next()
	return elideTypeArgs(frame.Function)
}

// Mock installs mocker for fn, replacing any existing mock. The returned function removes it.
// fn must be the same expression the rewritten function is keyed by: the function itself, a method
// expression such as (*T).New, or an instantiation such as Map[int, string]. A mock of an
// instantiation intercepts every instantiation with the same function type.
func Mock(fn interface{}, mocker Mocker) (restore func()) {
	if mocker == nil {
		panic("mockable: nil mocker")
	}
	key := keyOf(fn)
	registryLock.Lock()
	defer registryLock.Unlock()
	if _, exists := registry[key]; !exists {
		mockCount.Add(1)
		if key.name != "" {
			genericCount.Add(1)
		}
	}
	registry[key] = mocker

	var once sync.Once
	return func() {
		once.Do(func() { unmock(key) })
	}
}

// Patch installs replacement in place of fn: every call to fn returns whatever replacement returns.
// When fn is a method expression the receiver is passed to replacement as its zero value, since only
// functions that do not use their receiver are rewritten.
func Patch[F any](fn F, replacement F) (restore func()) {
	rv := reflect.ValueOf(replacement)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		panic(fmt.Sprintf("mockable: replacement %T is not a function", replacement))
	}
	rt := rv.Type()
	return Mock(fn, func(inv *Invocation) Outcome {
		in := make([]reflect.Value, 0, rt.NumIn())
		if rt.NumIn() == len(inv.args)+1 {
			in = append(in, reflect.Zero(rt.In(0)))
		}
		for _, p := range inv.args {
			in = append(in, reflect.ValueOf(p).Elem())
		}
		var out []reflect.Value
		if rt.IsVariadic() {
			out = rv.CallSlice(in)
		} else {
			out = rv.Call(in)
		}
		results := make([]interface{}, len(out))
		for i, v := range out {
			results[i] = v.Interface()
		}
		return inv.Return(results...)
	})
}

// Reset removes every installed mock.
func Reset() {
	registryLock.Lock()
	defer registryLock.Unlock()
	clear(registry)
	mockCount.Store(0)
	genericCount.Store(0)
}

func unmock(key mockKey) {
	registryLock.Lock()
	defer registryLock.Unlock()
	if _, ok := registry[key]; ok {
		delete(registry, key)
		mockCount.Add(-1)
		if key.name != "" {
			genericCount.Add(-1)
		}
	}
}

func keyOf(fn interface{}) mockKey {
	pc := funcPointer(fn)
	if name := elideTypeArgs(funcName(pc)); isGenericName(name) {
		return mockKey{name: name, typ: reflect.TypeOf(fn)}
	}
	return mockKey{pc: pc}
}

func funcPointer(fn interface{}) uintptr {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic(fmt.Sprintf("mockable: %T is not a function", fn))
	} else if v.IsNil() {
		panic("mockable: nil function")
	}
	return v.Pointer()
}

func funcName(pc uintptr) string {
	if f := runtime.FuncForPC(pc); f != nil {
		return f.Name()
	}
	return fmt.Sprintf("func@%#x", pc)
}

// isGenericName reports whether a runtime function name belongs to a generic instantiation. Only type
// arguments put brackets into function names.
func isGenericName(name string) bool {
	return strings.Contains(name, "[")
}

// elideTypeArgs replaces the type arguments in a runtime function name with "...", so the shape
// instantiation running a generic body ("pkg.Map[go.shape.int].Get") and the instantiation a test
// names ("pkg.Map[int].Get") print alike.
func elideTypeArgs(name string) string {
	if !isGenericName(name) {
		return name
	}
	var sb strings.Builder
	sb.Grow(len(name))
	var depth int
	for _, r := range name {
		switch {
		case r == '[':
			if depth == 0 {
				sb.WriteString("[...")
			}
			depth++
		case r == ']':
			depth--
			if depth == 0 {
				sb.WriteByte(']')
			}
		case depth == 0:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
