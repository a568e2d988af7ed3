package dispatch

import (
	"fmt"

	"github.com/filecoin-project/go-state-types/abi"
)

// ConstructorMethod is the method number reserved by convention for actor
// construction. It never appears in a dispatch table; the router implements
// the implicit constructor for it.
const ConstructorMethod = abi.MethodNum(1)

type keyKind uint8

const (
	kindMethodNum keyKind = iota + 1
	kindSelector
)

// Key identifies a handler in the dispatch table: either a numeric method
// number or an opaque selector string. Keys are comparable; the zero Key
// matches nothing.
type Key struct {
	kind keyKind
	num  abi.MethodNum
	sel  string
}

// MethodKey returns the numeric key for a method number.
func MethodKey(num abi.MethodNum) Key {
	return Key{kind: kindMethodNum, num: num}
}

// SelectorKey returns the string key for an abi selector.
func SelectorKey(sel string) Key {
	return Key{kind: kindSelector, sel: sel}
}

// IsConstructor reports whether the key names the reserved constructor
// method.
func (k Key) IsConstructor() bool {
	return k.kind == kindMethodNum && k.num == ConstructorMethod
}

func (k Key) String() string {
	switch k.kind {
	case kindMethodNum:
		return fmt.Sprintf("method %d", k.num)
	case kindSelector:
		return fmt.Sprintf("selector %q", k.sel)
	default:
		return "invalid key"
	}
}
