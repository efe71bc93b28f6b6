package mapper

import (
	"fmt"
	"strconv"
	"strings"
)

// OpKind classifies the operations of a function body.
type OpKind int

// Only loads and stores are visited by the translator.
const (
	OtherOp OpKind = iota
	LoadOp
	StoreOp
)

// String returns the keyword of the kind as used in the text form.
func (k OpKind) String() string {
	switch k {
	case LoadOp:
		return "load"
	case StoreOp:
		return "store"
	default:
		return "other"
	}
}

// Index is one subscript of an access. Static indices are compile time
// constants; all other indices keep their source expression.
type Index struct {
	Static bool
	Value  int64
	Expr   string
}

// Const creates a static index.
func Const(v int64) Index {
	return Index{Static: true, Value: v, Expr: strconv.FormatInt(v, 10)}
}

// Dynamic creates an index computed at run time.
func Dynamic(expr string) Index {
	return Index{Expr: expr}
}

// Op is one operation in a function body. For loads and stores, Matrix and
// Indices describe the accessed element. Once translated, an access is
// Mapped, carries its linear Address and has no indices left.
type Op struct {
	Kind    OpKind
	Matrix  string
	Indices []Index
	Mapped  bool
	Address uint32
	Text    string
}

// IsAccess reports whether the op reads or writes memory.
func (o Op) IsAccess() bool {
	return o.Kind == LoadOp || o.Kind == StoreOp
}

// String renders the op in the text form accepted by ParseOp.
func (o Op) String() string {
	if !o.IsAccess() {
		if o.Text == "" {
			return OtherOp.String()
		}

		return o.Text
	}

	var sb strings.Builder
	sb.WriteString(o.Kind.String())
	sb.WriteByte(' ')
	sb.WriteString(o.Matrix)

	if o.Mapped {
		fmt.Fprintf(&sb, "@%d", o.Address)
		return sb.String()
	}

	for _, idx := range o.Indices {
		sb.WriteByte('[')
		sb.WriteString(idx.Expr)
		sb.WriteByte(']')
	}

	return sb.String()
}

// Function is an ordered list of operations. Declarations have no body and
// are never translated.
type Function struct {
	Name        string
	Declaration bool
	Body        []Op
}

// Module is the program representation handed over by the front end.
type Module struct {
	Functions []Function
}

// ParseOp builds an op from its text form:
//
//	load A[1][k]
//	store C[i][j]
//	load C@7
//	<anything else>
//
// Lines that do not start with load or store become OtherOp.
func ParseOp(text string) (Op, error) {
	text = strings.TrimSpace(text)

	keyword, rest, _ := strings.Cut(text, " ")

	var kind OpKind
	switch strings.ToLower(keyword) {
	case "load":
		kind = LoadOp
	case "store":
		kind = StoreOp
	default:
		return Op{Kind: OtherOp, Text: text}, nil
	}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return Op{}, fmt.Errorf("%s without an operand: %q", kind, text)
	}

	if name, addr, ok := strings.Cut(rest, "@"); ok {
		a, err := strconv.ParseUint(strings.TrimSpace(addr), 10, 32)
		if err != nil {
			return Op{}, fmt.Errorf("bad mapped address in %q: %w", text, err)
		}

		return Op{
			Kind:    kind,
			Matrix:  strings.TrimSpace(name),
			Mapped:  true,
			Address: uint32(a),
			Text:    text,
		}, nil
	}

	name, indices, err := parseSubscripts(rest)
	if err != nil {
		return Op{}, fmt.Errorf("bad access %q: %w", text, err)
	}

	return Op{
		Kind:    kind,
		Matrix:  name,
		Indices: indices,
		Text:    text,
	}, nil
}

// MustParseOp is like ParseOp but panics on error.
func MustParseOp(text string) Op {
	op, err := ParseOp(text)
	if err != nil {
		panic(err)
	}

	return op
}

func parseSubscripts(s string) (string, []Index, error) {
	open := strings.IndexByte(s, '[')
	if open < 0 {
		return strings.TrimSpace(s), nil, nil
	}

	name := strings.TrimSpace(s[:open])
	if name == "" {
		return "", nil, fmt.Errorf("missing matrix name")
	}

	var indices []Index
	depth := 0
	start := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case ']':
			depth--
			if depth < 0 {
				return "", nil, fmt.Errorf("unbalanced ']' at %d", i)
			}

			if depth == 0 {
				indices = append(indices, parseIndex(s[start:i]))
			}
		case ' ', '\t':
		default:
			if depth == 0 {
				return "", nil, fmt.Errorf("unexpected %q at %d", s[i], i)
			}
		}
	}

	if depth != 0 {
		return "", nil, fmt.Errorf("unbalanced '['")
	}

	return name, indices, nil
}

func parseIndex(expr string) Index {
	expr = strings.TrimSpace(expr)

	v, err := strconv.ParseInt(expr, 10, 64)
	if err != nil {
		return Dynamic(expr)
	}

	return Const(v)
}
