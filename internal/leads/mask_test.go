package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "sar****example.com", MaskEmail("sarah@example.com"))
	assert.Equal(t, "jo****x.io", MaskEmail("jo@x.io"))
	assert.Equal(t, "", MaskEmail(""))
	assert.Equal(t, "****", MaskEmail("not-an-email"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "****4567", MaskPhone("+15551234567"))
	assert.Equal(t, "****", MaskPhone("123"))
	assert.Equal(t, "", MaskPhone(""))
}

func TestLeadMaskedDoesNotMutateOriginal(t *testing.T) {
	lead := &Lead{ID: "visitor_1", Email: "sarah@example.com", Phone: "+15551234567"}
	masked := lead.Masked()

	assert.Equal(t, "sar****example.com", masked.Email)
	assert.Equal(t, "****4567", masked.Phone)
	assert.Equal(t, "sarah@example.com", lead.Email)
	assert.Equal(t, "+15551234567", lead.Phone)
}
