package places

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePoint(t *testing.T) {
	lat, lon, err := ParsePoint("POINT (44.003277 56.331576)")
	require.NoError(t, err)
	assert.Equal(t, 56.331576, lat)
	assert.Equal(t, 44.003277, lon)

	lat, lon, err = ParsePoint("  POINT(-9.1393 38.7223) ")
	require.NoError(t, err)
	assert.Equal(t, 38.7223, lat)
	assert.Equal(t, -9.1393, lon)

	for _, bad := range []string{"", "POINT ()", "44.0 56.3", "POINT (a b)", "POINT (1.2.3 4)"} {
		_, _, err := ParsePoint(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseCSV(t *testing.T) {
	t.Run("reads places", func(t *testing.T) {
		input := "id;title;description;coordinate;category\n" +
			"0;Kremlin;\"Fortress; walls and towers\";POINT (44.003277 56.331576);history\n" +
			"1; Chkalov Stairs ;Stairs to the Volga;POINT (44.0079 56.3298);view\n"

		places, err := ParseCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, places, 2)

		assert.Equal(t, 0, places[0].ID)
		assert.Equal(t, "Fortress; walls and towers", places[0].Description)
		assert.Equal(t, 56.331576, places[0].Latitude)
		assert.Equal(t, "Chkalov Stairs", places[1].Title)
	})

	t.Run("columns are found by name", func(t *testing.T) {
		places, err := ParseCSV(strings.NewReader("coordinate;description;title;id\nPOINT (1 2);d;t;7\n"))
		require.NoError(t, err)
		require.Len(t, places, 1)
		assert.Equal(t, 7, places[0].ID)
		assert.Equal(t, 2.0, places[0].Latitude)
		assert.Equal(t, 1.0, places[0].Longitude)
	})

	errorCases := map[string]string{
		"empty input":    "",
		"missing column": "id;title;description\n1;a;b\n",
		"bad id":         "id;title;description;coordinate\nx;a;b;POINT (1 2)\n",
		"bad point":      "id;title;description;coordinate\n1;a;b;56.3 44.0\n",
		"short row":      "id;title;description;coordinate\n1;a\n",
	}
	for name, input := range errorCases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}
