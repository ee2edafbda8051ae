package parser

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pkg/errors"
)

var disablePDFConfigDir sync.Once

// extractPDFPages reads a PDF and returns the text of each page in order
func extractPDFPages(path string) ([]string, error) {
	disablePDFConfigDir.Do(api.DisableConfigDir)

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open pdf")
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, errors.Wrap(err, "failed to read pdf")
	}

	pages := make([]string, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to extract content of page %d", pageNr)
		}
		if r == nil {
			pages = append(pages, "")
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read content of page %d", pageNr)
		}
		pages = append(pages, textFromContentStream(data))
	}

	return pages, nil
}

// textFromContentStream recovers the shown text of a decoded page content
// stream. Text positioning operators that move to a new line become line breaks.
func textFromContentStream(data []byte) string {
	var (
		out      strings.Builder
		pending  strings.Builder
		operands []float64
		inArray  bool
	)

	newline := func() {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
			out.WriteByte('\n')
		}
	}
	show := func() {
		out.WriteString(pending.String())
		pending.Reset()
	}

	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case isPDFWhitespace(c):
			i++
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case c == '(':
			s, next := readLiteralString(data, i)
			pending.WriteString(s)
			i = next
		case c == '<' && i+1 < len(data) && data[i+1] == '<':
			i += 2
		case c == '>' && i+1 < len(data) && data[i+1] == '>':
			i += 2
		case c == '<':
			s, next := readHexString(data, i)
			pending.WriteString(s)
			i = next
		case c == '[':
			inArray = true
			i++
		case c == ']':
			inArray = false
			i++
		default:
			start := i
			for i < len(data) && !isPDFWhitespace(data[i]) && !isPDFDelimiter(data[i]) {
				i++
			}
			if i == start {
				i++
				continue
			}
			tok := string(data[start:i])
			if f, err := strconv.ParseFloat(tok, 64); err == nil {
				if inArray && f <= -200 {
					pending.WriteByte(' ')
				}
				operands = append(operands, f)
				continue
			}
			switch tok {
			case "Tj", "TJ":
				show()
			case "'", "\"":
				newline()
				show()
			case "T*", "ET":
				newline()
			case "Td", "TD":
				if len(operands) >= 2 && operands[len(operands)-1] != 0 {
					newline()
				} else if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
					out.WriteByte(' ')
				}
			default:
				pending.Reset()
			}
			operands = operands[:0]
		}
	}

	lines := strings.Split(out.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

func isPDFWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

func isPDFDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// readLiteralString decodes a (...) string starting at data[start]
func readLiteralString(data []byte, start int) (string, int) {
	var sb bytes.Buffer
	depth := 0
	i := start
	for i < len(data) {
		c := data[i]
		switch {
		case c == '\\' && i+1 < len(data):
			i++
			switch e := data[i]; e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b', 'f':
			case '\n':
			case '(', ')', '\\':
				sb.WriteByte(e)
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for k := 0; k < 2 && i+1 < len(data) && data[i+1] >= '0' && data[i+1] <= '7'; k++ {
						i++
						val = val*8 + int(data[i]-'0')
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(e)
				}
			}
		case c == '(':
			if depth > 0 {
				sb.WriteByte(c)
			}
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
		i++
	}
	return sb.String(), i
}

// readHexString decodes a <...> string, keeping it only when it is printable ASCII
func readHexString(data []byte, start int) (string, int) {
	end := bytes.IndexByte(data[start:], '>')
	if end < 0 {
		return "", len(data)
	}
	hex := bytes.Map(func(r rune) rune {
		if isPDFWhitespace(byte(r)) {
			return -1
		}
		return r
	}, data[start+1:start+end])
	if len(hex)%2 == 1 {
		hex = append(hex, '0')
	}

	var sb strings.Builder
	for i := 0; i+1 < len(hex); i += 2 {
		b, err := strconv.ParseUint(string(hex[i:i+2]), 16, 8)
		if err != nil || b < 0x20 || b > 0x7e {
			return "", start + end + 1
		}
		sb.WriteByte(byte(b))
	}
	return sb.String(), start + end + 1
}
