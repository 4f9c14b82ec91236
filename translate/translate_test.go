package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	SetLocales()
	assert.Equal("no such instruction", From("no such instruction"))
	assert.Equal("line 3 'nop' failed", From("line %d '%v' %v", 3, "nop", "failed"))

	SetLocales("en-US", "fr-FR")
	assert.Equal("label main missing", From("label %v missing", "main"))
}
