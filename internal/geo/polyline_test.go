package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePolyline = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

var sampleLatLngs = [][2]float64{
	{38.5, -120.2},
	{40.7, -120.95},
	{43.252, -126.453},
}

func TestDecodeKnownPolyline(t *testing.T) {
	got, err := Decode(samplePolyline)
	require.NoError(t, err)
	require.Len(t, got, len(sampleLatLngs))
	for i := range sampleLatLngs {
		assert.InDelta(t, sampleLatLngs[i][0], got[i][0], 1e-5)
		assert.InDelta(t, sampleLatLngs[i][1], got[i][1], 1e-5)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	route := [][2]float64{
		{51.50722, -0.12750},
		{51.50800, -0.12600},
		{51.51012, -0.12033},
		{-33.86882, 151.20929},
		{0, 0},
	}

	got, err := Decode(Encode(route))
	require.NoError(t, err)
	require.Len(t, got, len(route))
	for i := range route {
		assert.InDelta(t, route[i][0], got[i][0], 1e-5)
		assert.InDelta(t, route[i][1], got[i][1], 1e-5)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, s := range []string{"_p~iF~ps|", "\x01\x02", "not a polyline!"} {
		_, err := Decode(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestLineStringFlipsToLngLat(t *testing.T) {
	ls, err := LineString(samplePolyline)
	require.NoError(t, err)
	require.Len(t, ls, 3)

	assert.InDelta(t, -120.2, ls[0].Lon(), 1e-5)
	assert.InDelta(t, 38.5, ls[0].Lat(), 1e-5)
	assert.IsType(t, orb.Point{}, ls[2])
}
