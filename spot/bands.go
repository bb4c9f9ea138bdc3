package spot

// BandUnknown is the label applied to frequencies outside every known band
// and to modes that could not be inferred.
const BandUnknown = "unknown"

// BandInfo describes an amateur radio band by name and frequency range in kHz.
type BandInfo struct {
	Name string  // canonical band name (e.g., "20m", "70cm")
	Min  float64 // minimum frequency in kHz
	Max  float64 // maximum frequency in kHz
}

var bandTable = []BandInfo{
	{Name: "160m", Min: 1800, Max: 2000},
	{Name: "80m", Min: 3500, Max: 4000},
	{Name: "60m", Min: 5330, Max: 5405},
	{Name: "40m", Min: 7000, Max: 7300},
	{Name: "30m", Min: 10100, Max: 10150},
	{Name: "20m", Min: 14000, Max: 14350},
	{Name: "17m", Min: 18068, Max: 18168},
	{Name: "15m", Min: 21000, Max: 21450},
	{Name: "12m", Min: 24890, Max: 24990},
	{Name: "10m", Min: 28000, Max: 29700},
	{Name: "6m", Min: 50000, Max: 54000},
	{Name: "2m", Min: 144000, Max: 148000},
	{Name: "1.25m", Min: 222000, Max: 225000},
	{Name: "70cm", Min: 420000, Max: 450000},
}

// FreqToBand converts a frequency in kHz to a band label. Frequencies outside
// every tracked allocation map to BandUnknown.
func FreqToBand(freq float64) string {
	for _, band := range bandTable {
		if freq >= band.Min && freq <= band.Max {
			return band.Name
		}
	}
	return BandUnknown
}

// SupportedBandNames returns the canonical names of all tracked bands.
func SupportedBandNames() []string {
	names := make([]string, len(bandTable))
	for i, entry := range bandTable {
		names[i] = entry.Name
	}
	return names
}

// FrequencyBounds returns the minimum and maximum frequencies covered by the band table.
func FrequencyBounds() (min, max float64) {
	if len(bandTable) == 0 {
		return 0, 0
	}
	min = bandTable[0].Min
	max = bandTable[len(bandTable)-1].Max
	return
}
