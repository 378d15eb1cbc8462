package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MoriTags/internal/errors"
)

type sample struct {
	Name string `json:"name" validate:"notblank,max=8"`
	Tags string `json:"tags" validate:"required"`
}

func TestValidate(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		in        sample
		wantField string
	}{
		{name: "合法", in: sample{Name: "demo", Tags: "a, b"}},
		{name: "名称只有空白", in: sample{Name: "   ", Tags: "a"}, wantField: "name"},
		{name: "标签为空", in: sample{Name: "demo"}, wantField: "tags"},
		{name: "名称过长", in: sample{Name: "much too long", Tags: "a"}, wantField: "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in, "Name and tags are required")
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrValidation))

			var domainErr *errors.Error
			require.True(t, errors.As(err, &domainErr))
			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}
