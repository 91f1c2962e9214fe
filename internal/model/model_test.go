package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func knownType(t FieldType) bool {
	switch t {
	case FieldTypeString, FieldTypeNumber, FieldTypeBoolean, FieldTypeDate, FieldTypeEnum,
		FieldTypeArray, FieldTypeObject, FieldTypeImage, FieldTypeFile, FieldTypeDocument:
		return true
	}
	return false
}

func TestValidateFieldList_Ok(t *testing.T) {
	fields := []FieldSchema{
		{Name: "title", Type: FieldTypeString, Required: true},
		{Name: "status", Type: FieldTypeEnum, Required: true, Options: []string{"draft", "done"}},
	}
	assert.NoError(t, ValidateFieldList(fields, knownType))
}

func TestValidateFieldList_Errors(t *testing.T) {
	var ve *ValidationError

	err := ValidateFieldList(nil, knownType)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"fields"}, ve.Fields())

	fields := []FieldSchema{
		{Name: "title", Type: FieldTypeString},
		{Name: "title", Type: FieldTypeString},
		{Name: "bad name", Type: FieldTypeString},
		{Name: "createdAt", Type: FieldTypeDate},
		{Name: "kind", Type: "weird"},
		{Name: "status", Type: FieldTypeEnum, Required: true},
		{Name: "flag", Type: FieldTypeBoolean, Options: []string{"x"}},
		{Name: "", Type: FieldTypeString},
	}
	err = ValidateFieldList(fields, knownType)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{
		"fields[1].name",
		"fields[2].name",
		"fields[3].name",
		"fields[4].type",
		"fields[5].options",
		"fields[6].options",
		"fields[7].name",
	}, ve.Fields())
}

func TestNormalizeFields_DropsOptionsOutsideEnum(t *testing.T) {
	in := []FieldSchema{
		{Name: " title ", Type: FieldTypeString, Options: []string{"a"}},
		{Name: "status", Type: FieldTypeEnum, Options: []string{" a", "", "b "}},
	}
	out := NormalizeFields(in)
	assert.Equal(t, "title", out[0].Name)
	assert.Equal(t, []string{}, out[0].Options)
	assert.Equal(t, []string{"a", "b"}, out[1].Options)
	// исходный срез не меняется
	assert.Equal(t, []string{"a"}, in[0].Options)
}

func TestParseOptions(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ParseOptions("a, b ,,c,"))
	assert.Empty(t, ParseOptions(" , "))
}

func TestCollection_DocumentRoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := &Collection{
		ID:          "c1",
		Name:        "Books",
		Description: "reading list",
		Fields:      []FieldSchema{{Name: "title", Type: FieldTypeString, Required: true, Options: []string{}}},
		CreatedAt:   created,
	}
	doc, err := c.Document()
	require.NoError(t, err)
	assert.Equal(t, CollectionsContainer, doc.Container)

	back, err := CollectionFromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, c, back)

	f, ok := back.Field("title")
	assert.True(t, ok)
	assert.True(t, f.Required)
	_, ok = back.Field("missing")
	assert.False(t, ok)
}

func TestItem_MarshalJSONFlattens(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	it := Item{ID: "i1", Values: map[string]any{"title": "Dune", "read": false}, CreatedAt: created}

	b, err := json.Marshal(it)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "Dune", m["title"])
	assert.Equal(t, false, m["read"])
	assert.Equal(t, "i1", m["id"])
	assert.Equal(t, "2024-05-01T10:00:00Z", m["createdAt"])
	_, has := m["updatedAt"]
	assert.False(t, has)
}

func TestDocument_Fields(t *testing.T) {
	var d Document
	m, err := d.Fields()
	require.NoError(t, err)
	assert.Empty(t, m)

	require.NoError(t, d.SetFields(map[string]any{"n": 3}))
	m, err = d.Fields()
	require.NoError(t, err)
	assert.Equal(t, float64(3), m["n"])
}
