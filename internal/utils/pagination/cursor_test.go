package pagination_test

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	svcErr "github.com/oggyb/bubbles/internal/errors"
	"github.com/oggyb/bubbles/internal/utils/pagination"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, id := range []uint64{0, 1, 7, 13, 99, 100000, 18446744073709551615} {
		got, err := pagination.Decode(pagination.Encode(id))
		assert.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestEncodeIsBase64OfDecimal(t *testing.T) {
	// clients depend on the exact encoding, not just on round-tripping
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("14")), pagination.Encode(14))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, tok := range []string{"", "!!!", "bm90LWEtbnVtYmVy" /* "not-a-number" */, "LTE=" /* "-1" */} {
		_, err := pagination.Decode(tok)
		assert.True(t, errors.Is(err, svcErr.ErrInvalidCursor), "token %q", tok)
	}
}
