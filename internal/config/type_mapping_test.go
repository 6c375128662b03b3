package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diagIDs(diags []Diagnostic) []string {
	ids := make([]string, 0, len(diags))
	for _, d := range diags {
		ids = append(ids, d.ID)
	}
	return ids
}

func TestParseTypeMapping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     []TypeBinding
		wantDiag []string
	}{
		{
			name:  "yaml mapping keeps order",
			input: "post_slug: post\ncategory_slug: category\n",
			want: []TypeBinding{
				{Param: "post_slug", EntityType: "post"},
				{Param: "category_slug", EntityType: "category"},
			},
		},
		{
			name:  "json object",
			input: `{"product_slug": "product"}`,
			want:  []TypeBinding{{Param: "product_slug", EntityType: "product"}},
		},
		{
			name:     "sequence is not a mapping",
			input:    "- post_slug\n- post\n",
			want:     []TypeBinding{},
			wantDiag: []string{"slugswap.E001"},
		},
		{
			name:     "scalar is not a mapping",
			input:    "post",
			want:     []TypeBinding{},
			wantDiag: []string{"slugswap.E001"},
		},
		{
			name:     "empty document",
			input:    "",
			want:     []TypeBinding{},
			wantDiag: []string{"slugswap.E001"},
		},
		{
			name:     "unparseable document",
			input:    "post_slug: [unclosed",
			want:     []TypeBinding{},
			wantDiag: []string{"slugswap.E001"},
		},
		{
			name:     "integer key",
			input:    "1: post\ncategory_slug: category\n",
			want:     []TypeBinding{{Param: "category_slug", EntityType: "category"}},
			wantDiag: []string{"slugswap.E002"},
		},
		{
			name:     "non-string values",
			input:    "post_slug: 3\ncategory_slug: [a, b]\ntag_slug:\nbook_slug: book\n",
			want:     []TypeBinding{{Param: "book_slug", EntityType: "book"}},
			wantDiag: []string{"slugswap.E003", "slugswap.E003", "slugswap.E003"},
		},
		{
			name:     "both key and value invalid",
			input:    "true: 5\n",
			want:     []TypeBinding{},
			wantDiag: []string{"slugswap.E002", "slugswap.E003"},
		},
		{
			name:  "quoted numbers are strings",
			input: "\"1\": \"2\"\n",
			want:  []TypeBinding{{Param: "1", EntityType: "2"}},
		},
		{
			name:     "duplicate key last wins",
			input:    "post_slug: post\npost_slug: article\n",
			want:     []TypeBinding{{Param: "post_slug", EntityType: "article"}},
			wantDiag: []string{"slugswap.W002"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, diags := ParseTypeMapping([]byte(tt.input), TypeMappingSetting)
			require.NotNil(t, m)
			assert.Equal(t, tt.want, m.Bindings())
			if tt.wantDiag == nil {
				assert.Empty(t, diags)
			} else {
				assert.Equal(t, tt.wantDiag, diagIDs(diags))
			}
		})
	}
}

func TestTypeMapping_Lookup(t *testing.T) {
	m := DefaultTypeMapping()

	entityType, ok := m.Lookup("post_slug")
	assert.True(t, ok)
	assert.Equal(t, "post", entityType)

	_, ok = m.Lookup("tag_slug")
	assert.False(t, ok)

	var nilMapping *TypeMapping
	_, ok = nilMapping.Lookup("post_slug")
	assert.False(t, ok)
	assert.Equal(t, 0, nilMapping.Len())
}

func TestTypeMapping_BindingsIsACopy(t *testing.T) {
	m := DefaultTypeMapping()
	b := m.Bindings()
	b[0].EntityType = "changed"

	entityType, _ := m.Lookup(b[0].Param)
	assert.NotEqual(t, "changed", entityType)
}

func TestLoadTypeMapping(t *testing.T) {
	t.Run("default when nothing configured", func(t *testing.T) {
		m, diags := LoadTypeMapping(SlugConfig{})
		assert.Empty(t, diags)
		assert.Equal(t, DefaultTypeMapping().Bindings(), m.Bindings())
	})

	t.Run("inline value wins over file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mapping.yaml")
		require.NoError(t, os.WriteFile(path, []byte("file_slug: file\n"), 0o600))

		m, diags := LoadTypeMapping(SlugConfig{TypeMapping: `{"inline_slug": "inline"}`, TypeMappingFile: path})
		assert.Empty(t, diags)
		assert.Equal(t, []TypeBinding{{Param: "inline_slug", EntityType: "inline"}}, m.Bindings())
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mapping.yaml")
		require.NoError(t, os.WriteFile(path, []byte("post_slug: post\n"), 0o600))

		m, diags := LoadTypeMapping(SlugConfig{TypeMappingFile: path})
		assert.Empty(t, diags)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("unreadable file", func(t *testing.T) {
		m, diags := LoadTypeMapping(SlugConfig{TypeMappingFile: filepath.Join(t.TempDir(), "nope.yaml")})
		assert.Equal(t, 0, m.Len())
		assert.Equal(t, []string{"slugswap.E001"}, diagIDs(diags))
		assert.True(t, HasErrors(diags))
	})
}

func TestCheckTypeMapping(t *testing.T) {
	m := NewTypeMapping(
		TypeBinding{Param: "post_slug", EntityType: "post"},
		TypeBinding{Param: "product_slug", EntityType: "product"},
	)

	diags := CheckTypeMapping(m, []string{"post", "category"})
	require.Len(t, diags, 1)
	assert.Equal(t, "slugswap.W001", diags[0].ID)
	assert.Equal(t, LevelWarning, diags[0].Level)
	assert.False(t, HasErrors(diags))
	assert.Contains(t, diags[0].String(), "product_slug")
}
