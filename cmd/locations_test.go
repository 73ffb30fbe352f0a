package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSeedFileParsing(t *testing.T) {
	data := `
locations:
  - agency_id: ag-1
    name: Blue Bottle Cafe
    street: 12 Market St
    city: Hamburg
    country: DE
    phone: "+49 40 1234567"
    website: https://bluebottle.example
    latitude: 53.55
    longitude: 9.99
  - agency_id: ag-2
    name: Corner Bakery
`
	var seed seedFile
	require.NoError(t, yaml.Unmarshal([]byte(data), &seed))
	require.Len(t, seed.Locations, 2)

	loc := seed.Locations[0].toModel()
	assert.Equal(t, "ag-1", loc.AgencyID)
	assert.Equal(t, "Blue Bottle Cafe", loc.Name)
	assert.Equal(t, "Hamburg", loc.City)
	assert.Equal(t, 53.55, loc.Latitude)
	assert.Empty(t, loc.MissingFields())

	// Partial entries parse but fail publish-time validation.
	partial := seed.Locations[1].toModel()
	assert.NotEmpty(t, partial.MissingFields())
}
