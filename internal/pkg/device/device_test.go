package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	desktop := "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0"
	info := Parse(desktop)
	assert.Equal(t, "Firefox", info.Browser)
	assert.Equal(t, Desktop, info.Type)
	assert.Contains(t, Describe(desktop), "Firefox")

	ipad := "Mozilla/5.0 (iPad; CPU OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1"
	assert.Equal(t, Tablet, Parse(ipad).Type)

	assert.Equal(t, "Unknown Device", Describe(""))
}
