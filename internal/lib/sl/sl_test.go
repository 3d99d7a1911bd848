package sl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecretMasksValue(t *testing.T) {
	a := Secret("token", "abcdefghijklmnop")
	assert.Equal(t, "token", a.Key)
	assert.Equal(t, "abc...nop", a.Value.String())

	short := Secret("key", "abc")
	assert.Equal(t, "********", short.Value.String())
}

func TestErr(t *testing.T) {
	assert.Equal(t, "boom", Err(errors.New("boom")).Value.String())
	assert.Equal(t, "", Err(nil).Value.String())
}
