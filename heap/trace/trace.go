// Package trace reads malloc-lab style allocation traces and replays them
// against an allocator, checking every returned block for alignment, bounds,
// overlap and payload integrity.
//
// A trace starts with four integers (suggested heap size, number of block ids,
// number of operations, weight) followed by one operation per line:
//
//	a <id> <size>   allocate size bytes for id
//	r <id> <size>   resize id to size bytes
//	f <id>          free id
//
// Blank lines and lines starting with '#' are ignored.
package trace

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrSyntax marks every parse failure.
var ErrSyntax = errors.New("trace: syntax error")

// Kind is the operation code of a trace line.
type Kind byte

const (
	Alloc   Kind = 'a'
	Free    Kind = 'f'
	Realloc Kind = 'r'
)

func (k Kind) String() string {
	switch k {
	case Alloc:
		return "alloc"
	case Free:
		return "free"
	case Realloc:
		return "realloc"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Op is one trace operation.
type Op struct {
	Kind Kind
	ID   int
	Size int // zero for Free
	Line int // 1-based source line
}

// Trace is a parsed trace file.
type Trace struct {
	Name          string
	SuggestedHeap int
	NumIDs        int
	Weight        int
	Ops           []Op
}

// ParseFile parses the trace at path. The trace is named after the file.
func ParseFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "trace: open")
	}
	defer f.Close()

	tr, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	tr.Name = path
	return tr, nil
}

// Parse reads a trace from r. The op count in the header must match the
// number of operation lines, and every id must be below the id count.
func Parse(r io.Reader) (*Trace, error) {
	sc := bufio.NewScanner(r)
	tr := &Trace{}

	var header []int
	numOps := -1
	line := 0

	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)

		if len(header) < 4 {
			for _, f := range fields {
				if len(header) == 4 {
					return nil, syntaxErr(line, "unexpected %q after header", f)
				}
				n, err := strconv.Atoi(f)
				if err != nil || n < 0 {
					return nil, syntaxErr(line, "header value %q is not a non-negative integer", f)
				}
				header = append(header, n)
			}
			if len(header) == 4 {
				tr.SuggestedHeap, tr.NumIDs, numOps, tr.Weight = header[0], header[1], header[2], header[3]
				tr.Ops = make([]Op, 0, numOps)
			}
			continue
		}

		op, err := parseOp(fields, line, tr.NumIDs)
		if err != nil {
			return nil, err
		}
		tr.Ops = append(tr.Ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "trace: read")
	}

	if len(header) < 4 {
		return nil, syntaxErr(line, "incomplete header: %d of 4 values", len(header))
	}
	if len(tr.Ops) != numOps {
		return nil, syntaxErr(line, "header declares %d ops, found %d", numOps, len(tr.Ops))
	}
	return tr, nil
}

func parseOp(fields []string, line, numIDs int) (Op, error) {
	if len(fields[0]) != 1 {
		return Op{}, syntaxErr(line, "unknown op %q", fields[0])
	}
	op := Op{Kind: Kind(fields[0][0]), Line: line}

	want := 3
	switch op.Kind {
	case Alloc, Realloc:
	case Free:
		want = 2
	default:
		return Op{}, syntaxErr(line, "unknown op %q", fields[0])
	}
	if len(fields) != want {
		return Op{}, syntaxErr(line, "%s takes %d fields, got %d", op.Kind, want, len(fields))
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil || id < 0 || id >= numIDs {
		return Op{}, syntaxErr(line, "id %q out of range [0,%d)", fields[1], numIDs)
	}
	op.ID = id

	if want == 3 {
		size, err := strconv.Atoi(fields[2])
		if err != nil || size < 0 {
			return Op{}, syntaxErr(line, "size %q is not a non-negative integer", fields[2])
		}
		op.Size = size
	}
	return op, nil
}

func syntaxErr(line int, format string, args ...any) error {
	return errors.Mark(errors.Newf("trace: line %d: "+format, append([]any{line}, args...)...), ErrSyntax)
}
