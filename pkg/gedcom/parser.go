package gedcom

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/astra/pkg/errors"
)

// bom is the UTF-8 byte order mark some exporters write before "0 HEAD".
const bom = "\ufeff"

// headerPrefix is the literal every GEDCOM file must start with.
const headerPrefix = "0 HEAD"

// maxLineSize bounds a single line; long NOTE values can exceed bufio's default.
const maxLineSize = 4 << 20

var lineRe = regexp.MustCompile(`^(0|[1-9][0-9]*) (@[^@]+@ )?([A-Za-z0-9_]+)(?: (.*))?$`)

// Options configures parsing.
type Options struct {
	// Strict rejects lines that do not match the grammar instead of folding
	// them into the previous value.
	Strict bool
}

// Prepare validates and normalizes raw upload bytes before parsing.
//
// Invalid UTF-8 sequences are dropped, the first line (ignoring a byte order
// mark) must start with "0 HEAD", and a trailing newline is ensured. A missing
// header is reported as an [errors.ErrCodeInvalidHeader] validation error so
// that obviously wrong uploads never reach the parser.
func Prepare(data []byte) ([]byte, error) {
	s := strings.ToValidUTF8(string(data), "")

	first := s
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		first = s[:i]
	}
	first = strings.TrimLeft(first, bom)
	if !strings.HasPrefix(first, headerPrefix) {
		return nil, errors.New(errors.ErrCodeInvalidHeader, "The uploaded file does not appear to be a valid GEDCOM file.")
	}

	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return []byte(s), nil
}

// ParseFile reads and parses a GEDCOM file from disk. The header is validated
// with [Prepare] first.
func ParseFile(path string, opts Options) (*Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	data, err := Prepare(raw)
	if err != nil {
		return nil, err
	}
	return ParseBytes(data, opts)
}

// ParseBytes parses an in-memory GEDCOM document.
func ParseBytes(data []byte, opts Options) (*Record, error) {
	return Parse(bytes.NewReader(data), opts)
}

// Parse reads a GEDCOM document and rebuilds its element tree.
//
// Grammar problems are returned as [errors.ErrCodeFormatViolation] errors
// naming the offending line.
func Parse(r io.Reader, opts Options) (*Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	sc.Split(scanLines)

	p := &parser{opts: opts}
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := sc.Text()
		if lineNo == 1 {
			text = strings.TrimPrefix(text, bom)
		}
		if err := p.line(lineNo, text); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormatViolation, err, "line %d", lineNo+1)
	}
	return newRecord(p.roots), nil
}

// scanLines is a bufio.SplitFunc for the GEDCOM line terminators: CR, LF,
// CR LF and LF CR.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	i := bytes.IndexAny(data, "\r\n")
	if i < 0 {
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
	if i+1 == len(data) && !atEOF {
		// The terminator may be the first half of a pair.
		return 0, nil, nil
	}
	advance = i + 1
	if i+1 < len(data) {
		if pair := data[i+1]; (pair == '\r' || pair == '\n') && pair != data[i] {
			advance = i + 2
		}
	}
	return advance, data[:i], nil
}

// parser holds the state of one Parse call.
type parser struct {
	opts  Options
	roots []*Node
	stack []*Node // stack[i] is the most recent node at level i
	last  *Node
}

func (p *parser) line(num int, text string) error {
	trimmed := strings.TrimLeft(text, " \t")
	if trimmed == "" {
		return nil
	}

	m := lineRe.FindStringSubmatch(trimmed)
	if m == nil {
		if p.opts.Strict || p.last == nil {
			return errors.New(errors.ErrCodeFormatViolation,
				"line %d of document violates GEDCOM format 5.5: %q", num, text)
		}
		// Raw line break inside a text field: continue the previous value.
		p.last.Value += "\n" + trimmed
		return nil
	}

	level, err := strconv.Atoi(m[1])
	if err != nil {
		return errors.Wrap(errors.ErrCodeFormatViolation, err, "line %d: invalid level", num)
	}
	if level > len(p.stack) {
		return errors.New(errors.ErrCodeFormatViolation,
			"line %d of document violates GEDCOM format 5.5: lines must be no more than one level higher than previous line", num)
	}

	n := &Node{
		Level:   level,
		Pointer: strings.TrimSpace(m[2]),
		Tag:     m[3],
		Value:   m[4],
		Line:    num,
	}

	if level == 0 {
		p.roots = append(p.roots, n)
		p.stack = append(p.stack[:0], n)
		p.last = n
		return nil
	}

	parent := p.stack[level-1]
	switch n.Tag {
	case TagConc:
		parent.Value += n.Value
		p.stack = p.stack[:level]
		p.last = parent
		return nil
	case TagCont:
		parent.Value += "\n" + n.Value
		p.stack = p.stack[:level]
		p.last = parent
		return nil
	}

	n.Parent = parent
	parent.Children = append(parent.Children, n)
	p.stack = append(p.stack[:level], n)
	p.last = n
	return nil
}
