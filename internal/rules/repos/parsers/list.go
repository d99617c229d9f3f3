package parsers

import (
	"bufio"
	"errors"
	"io"

	logpkg "github.com/haukened/ai-rules/internal/rules/common/log"
	"github.com/haukened/ai-rules/internal/rules/domain"
)

// MaxLineBytes bounds a single list line. Longer lines are skipped whole.
const MaxLineBytes = 64 * 1024

// ParseList reads a newline-delimited rule list and returns every line that
// classifies under the given format, in input order. Unclassifiable and
// overlong lines are skipped; duplicates are kept and collapse when added to
// a rule set. The only error is a read failure of the underlying reader.
func ParseList(r io.Reader, format Format, source string, logger logpkg.Logger) ([]domain.Entry, error) {
	br := bufio.NewReaderSize(r, MaxLineBytes)
	out := make([]domain.Entry, 0, 256)
	logger.Debug(map[string]any{"source": source, "format": format.String()}, "parse_list_start")

	lineNum, skipped, overlong := 0, 0, 0
	for {
		line, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			lineNum++
			overlong++
			err = discardLine(br)
			if err == nil {
				continue
			}
		} else if len(line) > 0 {
			lineNum++
			if e, ok := ClassifyAs(string(line), format); ok {
				out = append(out, e)
			} else {
				skipped++
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Debug(map[string]any{"source": source, "line": lineNum, "error": err.Error()}, "parse_list_read_error")
			return nil, err
		}
	}

	logger.Debug(map[string]any{
		"source":   source,
		"lines":    lineNum,
		"entries":  len(out),
		"skipped":  skipped,
		"overlong": overlong,
	}, "parse_list_done")
	return out, nil
}

// discardLine consumes the rest of the current line, newline included.
func discardLine(br *bufio.Reader) error {
	for {
		_, err := br.ReadSlice('\n')
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}
