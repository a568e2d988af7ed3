// Package export collects the handlers an actor declares for dispatch.
//
// An actor's "implementation block" is a struct whose exported func-typed
// fields are its handlers. Struct fields preserve declaration order, which is
// the fallback numbering source for sequential dispatch, and their tags carry
// the per-handler binding annotation.
package export

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/filecoin-project/go-actor-dispatch/pkg/attribute"
)

// TagKey is the struct tag key carrying a handler's dispatch annotation,
// e.g. `actor:"binding=2"`.
const TagKey = "actor"

// Handler is one exported handler, in declaration order.
type Handler struct {
	Name string
	// Binding is the per-handler annotation value, present only when
	// HasBinding is set. Its interpretation depends on the dispatch mode.
	Binding    string
	HasBinding bool
	// Fn is the handler's func value.
	Fn reflect.Value
}

// Collect walks the fields of the implementation struct in declaration order
// and returns the exported, function-shaped members. Unexported fields and
// non-func fields are not candidate handlers and are skipped.
func Collect(impl interface{}) ([]Handler, error) {
	if impl == nil {
		return nil, errors.New("export: no implementation block supplied")
	}
	t := reflect.TypeOf(impl)
	if t.Kind() == reflect.Ptr {
		return nil, errors.Errorf("export: cannot attach to %s, handlers must be declared on the struct implementation itself", t)
	}
	if t.Kind() != reflect.Struct {
		return nil, errors.Errorf("export: cannot attach to %s, only struct implementation blocks are supported", t.Kind())
	}
	v := reflect.ValueOf(impl)

	var handlers []Handler
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue // unexported
		}
		if f.Type.Kind() != reflect.Func {
			continue
		}
		fv := v.Field(i)
		if fv.IsNil() {
			return nil, errors.Errorf("export: handler %s has no implementation", f.Name)
		}

		h := Handler{Name: f.Name, Fn: fv}
		if tag, ok := f.Tag.Lookup(TagKey); ok {
			b, err := attribute.ParseBinding(tag)
			if err != nil {
				return nil, errors.Wrapf(err, "export: handler %s", f.Name)
			}
			h.Binding = b
			h.HasBinding = true
		}
		handlers = append(handlers, h)
	}
	return handlers, nil
}
