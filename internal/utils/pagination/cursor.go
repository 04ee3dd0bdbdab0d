package pagination

import (
	"encoding/base64"
	"strconv"

	svcErr "github.com/oggyb/bubbles/internal/errors"
)

// Cursors are opaque to clients but the encoding is part of the wire
// contract shared with the mobile apps: base64 of the message id's decimal
// string. Nothing else may be stuffed into them.

// Encode converts a message id into an opaque cursor.
func Encode(messageID uint64) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.FormatUint(messageID, 10)))
}

// Decode parses a cursor back into a message id.
// Any token that does not round-trip through Encode is rejected.
func Decode(cursor string) (uint64, error) {
	b, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, svcErr.ErrInvalidCursor
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0, svcErr.ErrInvalidCursor
	}
	return id, nil
}
