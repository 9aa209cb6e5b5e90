package foamfile

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

// DecodeUniform decodes the value of a "name uniform <v>;" line. A
// parenthesised group is read as a tuple, anything else as the scalar
// following the uniform keyword.
func DecodeUniform(line []byte) (Value, error) {
	if i := bytes.IndexByte(line, '('); i >= 0 {
		j := bytes.IndexByte(line[i:], ')')
		if j < 0 {
			return Value{}, &SyntaxError{Line: -1, Msg: "unclosed tuple in " + string(bytes.TrimSpace(line))}
		}
		comps, err := parseFloats(bytes.Fields(line[i+1 : i+j]))
		if err != nil {
			return Value{}, err
		}
		return NewValue(comps)
	}
	rest := line
	if k := bytes.Index(line, []byte("uniform")); k >= 0 {
		rest = line[k+len("uniform"):]
	}
	if k := bytes.IndexByte(rest, ';'); k >= 0 {
		rest = rest[:k]
	}
	fields := bytes.Fields(rest)
	if len(fields) == 0 {
		return Value{}, &SyntaxError{Line: -1, Msg: "no value in " + string(bytes.TrimSpace(line))}
	}
	v, err := parseFloat(fields[len(fields)-1])
	if err != nil {
		return Value{}, err
	}
	return NewScalar(v), nil
}

// DecodeASCIIRows decodes one value per line. Rows of more than one
// component are written in parentheses, "(x y z)".
func DecodeASCIIRows(lines [][]byte, width int) ([]float64, error) {
	out := make([]float64, 0, len(lines)*width)
	for _, line := range lines {
		line = bytes.TrimSpace(line)
		if width == 1 {
			v, err := parseFloat(line)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
			continue
		}
		line = bytes.TrimSuffix(bytes.TrimPrefix(line, []byte("(")), []byte(")"))
		fields := bytes.Fields(line)
		if len(fields) != width {
			return nil, &SyntaxError{Line: -1,
				Msg: "row " + strconv.Quote(string(line)) + " does not have " + strconv.Itoa(width) + " components"}
		}
		comps, err := parseFloats(fields)
		if err != nil {
			return nil, err
		}
		out = append(out, comps...)
	}
	return out, nil
}

// BinaryBlockSize is the number of bytes a binary list occupies, framing
// byte included
func BinaryBlockSize(count, width, size int) int {
	return 1 + count*width*size
}

// BinaryBlockFits reports whether n bytes hold a binary list of count
// elements, without overflowing on absurd counts
func BinaryBlockFits(n, count, width, size int) bool {
	return n >= 1 && count >= 0 && width > 0 && size > 0 && count <= (n-1)/(width*size)
}

// blockSize checks a payload against a declared count and returns the
// bytes needed
func blockSize(payload []byte, count, width, size int) (int, error) {
	if !BinaryBlockFits(len(payload), count, width, size) {
		want := math.MaxInt
		if count >= 0 && width > 0 && size > 0 && count <= (math.MaxInt-1)/(width*size) {
			want = BinaryBlockSize(count, width, size)
		}
		return 0, &TruncatedError{Want: want, Got: len(payload)}
	}
	return BinaryBlockSize(count, width, size), nil
}

// DecodeBinaryBlock decodes a packed run of count*width floating point
// numbers. The payload starts with one framing byte.
func DecodeBinaryBlock(payload []byte, count, width int, lay Layout) ([]float64, error) {
	size := lay.ScalarSize
	need, err := blockSize(payload, count, width, size)
	if err != nil {
		return nil, err
	}
	out := make([]float64, count*width)
	buf := payload[1:need]
	for i := range out {
		switch size {
		case 4:
			out[i] = float64(math.Float32frombits(lay.Order.Uint32(buf[i*4:])))
		default:
			out[i] = math.Float64frombits(lay.Order.Uint64(buf[i*8:]))
		}
	}
	return out, nil
}

// DecodeBinaryLabels decodes a packed run of count integer labels. The
// payload starts with one framing byte.
func DecodeBinaryLabels(payload []byte, count int, lay Layout) ([]int, error) {
	size := lay.LabelSize
	need, err := blockSize(payload, count, 1, size)
	if err != nil {
		return nil, err
	}
	out := make([]int, count)
	buf := payload[1:need]
	for i := range out {
		switch size {
		case 8:
			out[i] = int(int64(lay.Order.Uint64(buf[i*8:])))
		default:
			out[i] = int(int32(lay.Order.Uint32(buf[i*4:])))
		}
	}
	return out, nil
}

// InlineList is a short list written on a single line, "N(a b c)",
// "N((x y z) (x y z))", "N(3(0 1 2) 4(2 3 4 5))" or the uniform form "N{v}"
type InlineList struct {
	Count int
	Items [][]string // tokens of each element, bare elements have one token
}

// ParseInlineList finds and decodes an inline list on line. ok is false
// when the line holds none.
func ParseInlineList(line []byte) (list InlineList, ok bool, err error) {
	for i := 0; i < len(line); i++ {
		if line[i] != '(' && line[i] != '{' {
			continue
		}
		j := i
		for j > 0 && line[j-1] >= '0' && line[j-1] <= '9' {
			j--
		}
		if j == i || (j > 0 && line[j-1] != ' ' && line[j-1] != '\t') {
			continue
		}
		n, _ := strconv.Atoi(string(line[j:i]))
		end := matching(line, i)
		if end < 0 {
			return list, true, &SyntaxError{Line: -1, Msg: "unclosed list in " + string(bytes.TrimSpace(line))}
		}
		items := splitItems(line[i+1 : end])
		if line[i] == '{' {
			if len(items) != 1 {
				return list, true, &SyntaxError{Line: -1, Msg: "uniform list needs one value"}
			}
			uniform := items[0]
			items = make([][]string, n)
			for k := range items {
				items[k] = uniform
			}
		} else if len(items) != n {
			return list, true, &SyntaxError{Line: -1,
				Msg: "list declares " + strconv.Itoa(n) + " elements, holds " + strconv.Itoa(len(items))}
		}
		return InlineList{Count: n, Items: items}, true, nil
	}
	return list, false, nil
}

// Floats flattens the items, requiring width tokens each
func (l InlineList) Floats(width int) ([]float64, error) {
	out := make([]float64, 0, len(l.Items)*width)
	for _, item := range l.Items {
		if len(item) != width {
			return nil, &SyntaxError{Line: -1, Msg: "element (" + strings.Join(item, " ") + ") has wrong width"}
		}
		for _, tok := range item {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, &SyntaxError{Line: -1, Msg: err.Error()}
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// Labels returns each item as a list of integers
func (l InlineList) Labels() ([][]int, error) {
	out := make([][]int, len(l.Items))
	for i, item := range l.Items {
		out[i] = make([]int, len(item))
		for k, tok := range item {
			v, err := strconv.Atoi(tok)
			if err != nil {
				return nil, &SyntaxError{Line: -1, Msg: err.Error()}
			}
			out[i][k] = v
		}
	}
	return out, nil
}

// matching returns the index of the delimiter closing the one at s[i]
func matching(s []byte, i int) int {
	open, close := s[i], byte(')')
	if open == '{' {
		close = '}'
	}
	depth := 0
	for k := i; k < len(s); k++ {
		switch s[k] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return -1
}

func splitItems(body []byte) [][]string {
	var items [][]string
	k := 0
	for k < len(body) {
		switch c := body[k]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			k++
		case c == '(':
			end := matching(body, k)
			if end < 0 {
				end = len(body) - 1
			}
			items = append(items, tokens(body[k+1:end]))
			k = end + 1
		default:
			start := k
			for k < len(body) && !isDelim(body[k]) {
				k++
			}
			if k < len(body) && body[k] == '(' {
				// size prefix of a nested list
				end := matching(body, k)
				if end < 0 {
					end = len(body) - 1
				}
				items = append(items, tokens(body[k+1:end]))
				k = end + 1
				continue
			}
			items = append(items, []string{string(body[start:k])})
			if k < len(body) && body[k] == ')' {
				k++
			}
		}
	}
	return items
}

func isDelim(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '(' || c == ')'
}

func tokens(b []byte) []string {
	fields := bytes.Fields(b)
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

func parseFloat(b []byte) (float64, error) {
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, &SyntaxError{Line: -1, Msg: err.Error()}
	}
	return v, nil
}

func parseFloats(fields [][]byte) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := parseFloat(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func joinFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, " ")
}
