// Package attribute resolves the declarative configuration attached to an
// actor and to its handlers: a flat string of comma-separated `key = value`
// pairs. Resolution is strict; anything malformed or unrecognized fails the
// build rather than defaulting silently.
package attribute

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Mode selects the key space the actor's handlers are dispatched in.
type Mode int

const (
	// MethodNum keys handlers by numeric method number.
	MethodNum Mode = iota
	// AbiSelector keys handlers by an opaque selector string.
	AbiSelector
)

func (m Mode) String() string {
	switch m {
	case MethodNum:
		return "method_num"
	case AbiSelector:
		return "abi_selector"
	default:
		return "unknown"
	}
}

// ActorConfig is the resolved actor-level attribute set.
// Immutable after resolution.
type ActorConfig struct {
	// StateType names the actor's persistent state type.
	StateType string
	// Mode is the dispatch key space.
	Mode Mode
	// Invoke controls emission of the externally callable entrypoint.
	Invoke bool
}

// ParseActorConfig resolves an actor-level attribute string.
//
// Recognized keys: state (required), dispatch ("method_num" | "abi_selector",
// default method_num) and invoke (boolean literal, default true). Values may
// be double-quoted.
func ParseActorConfig(raw string) (ActorConfig, error) {
	cfg := ActorConfig{Mode: MethodNum, Invoke: true}

	pairs, err := parsePairs(raw)
	if err != nil {
		return ActorConfig{}, err
	}

	for _, kv := range pairs {
		switch kv.key {
		case "state":
			if kv.value == "" {
				return ActorConfig{}, errors.New("attribute: state type name is empty")
			}
			cfg.StateType = kv.value
		case "dispatch":
			switch kv.value {
			case "method_num":
				cfg.Mode = MethodNum
			case "abi_selector":
				cfg.Mode = AbiSelector
			default:
				return ActorConfig{}, errors.Errorf("attribute: unrecognized dispatch value %q", kv.value)
			}
		case "invoke":
			b, err := strconv.ParseBool(kv.value)
			if err != nil {
				return ActorConfig{}, errors.Errorf("attribute: invoke must be a boolean literal, got %q", kv.value)
			}
			cfg.Invoke = b
		default:
			return ActorConfig{}, errors.Errorf("attribute: unrecognized key %q", kv.key)
		}
	}

	if cfg.StateType == "" {
		return ActorConfig{}, errors.New("attribute: missing required state key")
	}
	return cfg, nil
}

// ParseBinding resolves a per-handler annotation: the same micro-grammar
// restricted to the single binding key. The value is returned verbatim; the
// table builder interprets it against the actor's dispatch mode.
func ParseBinding(raw string) (string, error) {
	pairs, err := parsePairs(raw)
	if err != nil {
		return "", err
	}
	if len(pairs) != 1 || pairs[0].key != "binding" {
		return "", errors.Errorf("attribute: %q does not declare a binding", raw)
	}
	if pairs[0].value == "" {
		return "", errors.New("attribute: binding value is empty")
	}
	return pairs[0].value, nil
}

type pair struct {
	key   string
	value string
}

func parsePairs(raw string) ([]pair, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var out []pair
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		i := strings.Index(tok, "=")
		if i < 0 {
			return nil, errors.Errorf("attribute: %q is not a key = value pair", tok)
		}
		k := strings.TrimSpace(tok[:i])
		if k == "" {
			return nil, errors.Errorf("attribute: missing key in %q", tok)
		}
		v := strings.TrimSpace(tok[i+1:])
		v = strings.Trim(v, `"`)
		out = append(out, pair{key: k, value: v})
	}
	return out, nil
}
