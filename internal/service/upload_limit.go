package service

import (
	"errors"
	"io"
)

var errFileTooLarge = errors.New("file exceeds size limit")

// cappedReader fails with errFileTooLarge once more than limit bytes have been read.
type cappedReader struct {
	r     io.Reader
	limit int64
	read  int64
}

func newCappedReader(r io.Reader, limit int64) *cappedReader {
	return &cappedReader{r: r, limit: limit}
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	if c.read > c.limit {
		return n, errFileTooLarge
	}
	return n, err
}
