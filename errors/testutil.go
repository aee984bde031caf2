package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// AssertCode checks that err carries code.
func AssertCode(t *testing.T, err error, code int) {
	var e Error
	if As(err, &e) {
		assert.Equal(t, code, e.Code(), "code should be equal")
		return
	}

	if code != DefaultCode {
		assert.Fail(t, fmt.Sprintf("error is not Error and expected code != %d (default)", DefaultCode))
	}
}
