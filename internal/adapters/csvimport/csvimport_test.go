package csvimport_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review_insights/internal/adapters/csvimport"
	"review_insights/internal/domain"
)

func TestRead_OptionalColumnsAndRatings(t *testing.T) {
	in := "author,rating,text\nAnn,5,Great food\nBob,n/a,Slow service\n"
	c, err := csvimport.Read(strings.NewReader(in))
	require.NoError(t, err)

	require.Len(t, c.Reviews, 2)
	assert.True(t, c.Fields.Has(domain.FieldText|domain.FieldAuthor|domain.FieldRating))
	assert.False(t, c.Fields.Has(domain.FieldDate))
	assert.Equal(t, "Ann", c.Reviews[0].Author)
	require.NotNil(t, c.Reviews[0].Rating)
	assert.Equal(t, 5.0, *c.Reviews[0].Rating)
	assert.Nil(t, c.Reviews[1].Rating)
}

func TestRead_NonFiniteRatingsAreMissing(t *testing.T) {
	for _, cell := range []string{"NaN", "nan", "inf", "-Infinity", "+Inf"} {
		t.Run(cell, func(t *testing.T) {
			c, err := csvimport.Read(strings.NewReader("text,rating\ngood,5\nok," + cell + "\n"))
			require.NoError(t, err)
			require.Len(t, c.Reviews, 2)
			require.NotNil(t, c.Reviews[0].Rating)
			assert.Nil(t, c.Reviews[1].Rating)
		})
	}
}

func TestRead_SkipsMalformedRows(t *testing.T) {
	in := "text,date\n" +
		"ok one,2024-01-01\n" +
		"too,many,fields\n" +
		"bad \"quote,2024-01-02\n" +
		"ok two,2024-01-03\n"
	c, err := csvimport.Read(strings.NewReader(in))
	require.NoError(t, err)

	require.Len(t, c.Reviews, 2)
	assert.Equal(t, "ok one", c.Reviews[0].Text)
	assert.Equal(t, "ok two", c.Reviews[1].Text)
}

func TestRead_RequiresTextColumn(t *testing.T) {
	_, err := csvimport.Read(strings.NewReader("author,rating\nAnn,5\n"))
	var se *domain.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "text", se.Field)
	assert.Equal(t, "input must have a 'text' column", err.Error())
}

func TestRead_EmptyInput(t *testing.T) {
	_, err := csvimport.Read(strings.NewReader(""))
	var se *domain.SchemaError
	assert.True(t, errors.As(err, &se))
}

func TestRead_HeaderOnly(t *testing.T) {
	c, err := csvimport.Read(strings.NewReader("Text\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.Fields.Has(domain.FieldText))
}
