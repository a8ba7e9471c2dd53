package remotetest

import (
	"errors"
	"strconv"

	"github.com/scoreflow/hyouka/internal/apperr"
)

var (
	errNotFoundLocal        = apperr.ErrNotFound
	errPrimaryIndexRejected = errors.New("composite index rejected by server")
)

// encodeToken/decodeToken implement the fake's opaque nextToken as a plain
// offset, matching the "opaque to callers" contract of spec §4.2 without
// needing real cursor semantics.
func encodeToken(offset int) string {
	return strconv.Itoa(offset)
}

func decodeToken(tok string) (int, error) {
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, errors.New("invalid page token")
	}
	return n, nil
}
