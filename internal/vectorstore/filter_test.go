package vectorstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterValidate(t *testing.T) {
	tests := []struct {
		name    string
		filter  *Filter
		wantErr bool
	}{
		{name: "nil filter", filter: nil},
		{name: "zero filter", filter: &Filter{}},
		{name: "source work only", filter: &Filter{SourceWork: "Shahih Bukhari"}},
		{name: "document ids only", filter: &Filter{DocumentIDs: []string{"doc-1", "doc-2"}}},
		{
			name:    "blank source work",
			filter:  &Filter{SourceWork: "   "},
			wantErr: true,
		},
		{
			name:    "blank document id",
			filter:  &Filter{DocumentIDs: []string{"doc-1", ""}},
			wantErr: true,
		},
		{
			name:    "too many document ids",
			filter:  &Filter{DocumentIDs: make([]string, maxFilterDocumentIDs+1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedFilter)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFilterMatching(t *testing.T) {
	f := &Filter{SourceWork: "bukhari", DocumentIDs: []string{"doc-1"}}

	assert.True(t, f.matchesWork("Shahih Bukhari"))
	assert.False(t, f.matchesWork("Shahih Muslim"))
	assert.True(t, f.matchesDocument("doc-1"))
	assert.False(t, f.matchesDocument("doc-2"))

	var nilFilter *Filter
	assert.True(t, nilFilter.IsZero())
	assert.True(t, nilFilter.matchesWork("anything"))
	assert.True(t, nilFilter.matchesDocument("anything"))
}

func TestFilterValidateBlankIDMessage(t *testing.T) {
	err := (&Filter{DocumentIDs: []string{" "}}).Validate()
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "document ID"))
}
