package util

import (
	"bufio"
	"bytes"
	"io"
)

// NewLineOrReturnScanner returns a scanner that splits on newlines or carriage
// returns, so progress output written with "\r" is still streamed line by line.
func NewLineOrReturnScanner(reader io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(reader)
	scanner.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.IndexAny(data, "\n\r"); i >= 0 {
			return i + 1, dropTrailingCR(data[0:i]), nil
		}
		if atEOF {
			return len(data), dropTrailingCR(data), nil
		}
		return 0, nil, nil
	})
	return scanner
}

func dropTrailingCR(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\r' {
		return data[0 : len(data)-1]
	}
	return data
}

// MultiWriteCloser creates a WriteCloser that duplicates its writes and
// closes to all the provided writers.
func MultiWriteCloser(wc ...io.WriteCloser) io.WriteCloser {
	return mwc(wc)
}

type mwc []io.WriteCloser

func (m mwc) Write(p []byte) (n int, err error) {
	for _, w := range m {
		if n, err = w.Write(p); err != nil {
			return
		}
	}
	return
}

func (m mwc) Close() error {
	for _, w := range m {
		if err := w.Close(); err != nil {
			return err
		}
	}
	return nil
}
