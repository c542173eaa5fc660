package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type embeddedRow struct {
	Name  string `db:"name"`
	Email string `db:"email"`
}

type testRow struct {
	ID string `db:"id"`
	embeddedRow
	Hidden   string `db:"-"`
	Untagged string
	Count    int `db:"count"`
}

func TestStructTagValuesFlattensEmbedded(t *testing.T) {
	cols := StructTagValues(testRow{})
	assert.Equal(t, []string{"id", "name", "email", "count"}, cols)
}

func TestStructToMapFlattensEmbedded(t *testing.T) {
	row := &testRow{ID: "a", embeddedRow: embeddedRow{Name: "n", Email: "e"}, Count: 3}
	m := StructToMap(row)
	assert.Equal(t, map[string]any{"id": "a", "name": "n", "email": "e", "count": 3}, m)
}

func TestErrorWrapOrNil(t *testing.T) {
	assert.NoError(t, ErrorWrapOrNil(nil, "x"))
	assert.EqualError(t, ErrorWrapOrNil(assert.AnError, "load"), "load: "+assert.AnError.Error())
}

func TestNanoID(t *testing.T) {
	assert.Len(t, NanoID(), NanoidSize)
	assert.Len(t, NanoIDSize(8), 8)
}
