package cty

import "math"

// LatLonFromGrid converts a 4 or 6-character Maidenhead locator to the
// coordinates of the cell center. Field letters must be A-R, sub-square
// letters A-X, digits 0-9; anything else (including other lengths) yields
// no result.
func LatLonFromGrid(grid string) (lat, lon float64, ok bool) {
	if len(grid) != 4 && len(grid) != 6 {
		return 0, 0, false
	}
	up := [6]byte{}
	for i := 0; i < len(grid); i++ {
		c := grid[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		up[i] = c
	}
	if up[0] < 'A' || up[0] > 'R' || up[1] < 'A' || up[1] > 'R' {
		return 0, 0, false
	}
	if up[2] < '0' || up[2] > '9' || up[3] < '0' || up[3] > '9' {
		return 0, 0, false
	}

	// Reference corner from field (20 deg/10 deg) and square (2 deg/1 deg).
	lon = float64(up[0]-'A')*20 - 180
	lat = float64(up[1]-'A')*10 - 90
	lon += float64(up[2]-'0') * 2
	lat += float64(up[3] - '0')

	if len(grid) == 4 {
		// Center of the 2x1 degree square.
		return lat + 0.5, lon + 1, true
	}

	if up[4] < 'A' || up[4] > 'X' || up[5] < 'A' || up[5] > 'X' {
		return 0, 0, false
	}
	// Sub-square steps of 2/24 and 1/24 degrees, offset to the center.
	lon += float64(up[4]-'A') * (2.0 / 24)
	lat += float64(up[5]-'A') * (1.0 / 24)
	return lat + 0.5/24, lon + 1.0/24, true
}

// Grid4FromLatLon returns the 4-character Maidenhead grid for a lat/lon pair.
// It returns false when coordinates are out of range or non-finite.
func Grid4FromLatLon(lat, lon float64) (string, bool) {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return "", false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return "", false
	}
	if lat == 90 {
		lat = 89.999999
	}
	if lon == 180 {
		lon = 179.999999
	}
	adjLon := lon + 180
	adjLat := lat + 90
	fieldLon := int(adjLon / 20)
	fieldLat := int(adjLat / 10)
	if fieldLon < 0 || fieldLon >= 18 || fieldLat < 0 || fieldLat >= 18 {
		return "", false
	}
	squareLon := int((adjLon - float64(fieldLon)*20) / 2)
	squareLat := int((adjLat - float64(fieldLat)*10) / 1)
	if squareLon < 0 || squareLon >= 10 || squareLat < 0 || squareLat >= 10 {
		return "", false
	}
	return string([]byte{
		byte('A' + fieldLon),
		byte('A' + fieldLat),
		byte('0' + squareLon),
		byte('0' + squareLat),
	}), true
}

// Grid6FromLatLon returns the 6-character locator, appending the sub-square
// letters to the 4-character grid.
func Grid6FromLatLon(lat, lon float64) (string, bool) {
	grid4, ok := Grid4FromLatLon(lat, lon)
	if !ok {
		return "", false
	}
	if lat == 90 {
		lat = 89.999999
	}
	if lon == 180 {
		lon = 179.999999
	}
	adjLon := lon + 180
	adjLat := lat + 90
	subLon := int(math.Mod(adjLon, 2) / (2.0 / 24))
	subLat := int(math.Mod(adjLat, 1) / (1.0 / 24))
	if subLon > 23 {
		subLon = 23
	}
	if subLat > 23 {
		subLat = 23
	}
	return grid4 + string([]byte{byte('A' + subLon), byte('A' + subLat)}), true
}
