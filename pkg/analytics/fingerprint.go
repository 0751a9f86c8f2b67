package analytics

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrInvalidArity is returned when fingerprinting anything but exactly one value
	ErrInvalidArity = errors.New("fingerprint takes exactly one value")
	// ErrUnsupportedType is returned for values with no canonical form
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrInvalidArgument is returned when Trends is given configuration
	ErrInvalidArgument = errors.New("invalid argument")
)

// Kind enumerates the shapes a canonicalizable value can take
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSeq
	KindMap
)

// Node is a configuration value reduced to a closed set of kinds
type Node struct {
	Kind  Kind
	Text  string // scalar payload for bool, int and string
	Float float64
	Items []Node
	Pairs []Pair
}

// Pair is one mapping entry
type Pair struct {
	Key   Node
	Value Node
}

var emptyStruct = reflect.TypeOf(struct{}{})

// NewNode converts an arbitrary Go value into a Node
func NewNode(v interface{}) (Node, error) {
	switch t := v.(type) {
	case nil:
		return Node{Kind: KindNull}, nil
	case Node:
		return t, nil
	case string:
		return Node{Kind: KindString, Text: t}, nil
	case bool:
		if t {
			return Node{Kind: KindBool, Text: "True"}, nil
		}
		return Node{Kind: KindBool, Text: "False"}, nil
	case json.Number:
		return numberNode(t)
	case float64:
		return Node{Kind: KindFloat, Float: t}, nil
	case float32:
		return Node{Kind: KindFloat, Float: float64(t)}, nil
	case int:
		return intNode(int64(t)), nil
	case int64:
		return intNode(t), nil
	case int32:
		return intNode(int64(t)), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return Node{Kind: KindString, Text: rv.String()}, nil
	case reflect.Bool:
		return NewNode(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intNode(rv.Int()), nil
	case reflect.Float32, reflect.Float64:
		return Node{Kind: KindFloat, Float: rv.Float()}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Node{Kind: KindInt, Text: strconv.FormatUint(rv.Uint(), 10)}, nil
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Node{Kind: KindNull}, nil
		}
		return NewNode(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Node{Kind: KindSeq}, nil
		}
		items := make([]Node, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := NewNode(rv.Index(i).Interface())
			if err != nil {
				return Node{}, err
			}
			items = append(items, item)
		}
		return Node{Kind: KindSeq, Items: items}, nil
	case reflect.Map:
		if rv.Type().Elem() == emptyStruct {
			return Node{}, fmt.Errorf("%w: set %s", ErrUnsupportedType, rv.Type())
		}
		pairs := make([]Pair, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, err := NewNode(iter.Key().Interface())
			if err != nil {
				return Node{}, err
			}
			value, err := NewNode(iter.Value().Interface())
			if err != nil {
				return Node{}, err
			}
			pairs = append(pairs, Pair{Key: key, Value: value})
		}
		return Node{Kind: KindMap, Pairs: pairs}, nil
	}

	return Node{}, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
}

func intNode(i int64) Node {
	return Node{Kind: KindInt, Text: strconv.FormatInt(i, 10)}
}

func numberNode(n json.Number) (Node, error) {
	s := n.String()
	if isInteger(s) {
		return Node{Kind: KindInt, Text: strings.TrimPrefix(s, "+")}, nil
	}
	f, err := n.Float64()
	if err != nil {
		return Node{}, fmt.Errorf("%w: malformed number %q", ErrUnsupportedType, s)
	}
	return Node{Kind: KindFloat, Float: f}, nil
}

func isInteger(s string) bool {
	s = strings.TrimLeft(s, "+-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// String renders the canonical text of the node
func (n Node) String() string {
	switch n.Kind {
	case KindNull:
		return "None"
	case KindString:
		return strings.TrimSpace(n.Text)
	case KindBool, KindInt:
		return n.Text
	case KindFloat:
		return formatFloat(n.Float)
	case KindSeq:
		parts := make([]string, 0, len(n.Items))
		for _, item := range n.Items {
			parts = append(parts, item.String())
		}
		sort.Strings(parts)
		return strings.Join(parts, ",")
	case KindMap:
		parts := make([]string, 0, len(n.Pairs))
		for _, p := range n.Pairs {
			parts = append(parts, p.Key.String()+":"+p.Value.String())
		}
		sort.Strings(parts)
		return strings.Join(parts, "|")
	}
	return ""
}

// formatFloat prints the shortest round-trip form, keeping ".0" on integral values
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Canonical returns the order-independent text form of a single value
func Canonical(values ...interface{}) (string, error) {
	if len(values) != 1 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidArity, len(values))
	}
	node, err := NewNode(values[0])
	if err != nil {
		return "", err
	}
	return node.String(), nil
}

// Fingerprint returns the hex MD5 digest of the canonical text of a value
func Fingerprint(values ...interface{}) (string, error) {
	text, err := Canonical(values...)
	if err != nil {
		return "", err
	}
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:]), nil
}
