package feed

import (
	"strings"
	"time"

	"spotfeed/spot"
)

// The feed multiplexes three sub-topics over one session, each with its own
// JSON payload shape and no common schema. Shapes are disambiguated by
// probing for their distinguishing key, in priority order:
//
//  1. "skimmer" present: skimmer/RBN report. DX under "call", spotter under
//     "skimmer", frequency in Hz under "hz".
//  2. "tx" present: digital-mode reception report. DX under "tx", spotter
//     under "rx", frequency in kHz under "khz".
//  3. "dx" (as an object) present: cluster spot. DX under "dx", spotter
//     under "spotter", frequency in kHz under "khz".
//  4. Fallback: flat top-level fields probed under ordered alternative key
//     names.
//
// In shapes 1-3 the callsign lives in the nested object's "callsign" field,
// alongside optional "grid" and "country".

var (
	flatCallKeys    = []string{"dx", "dxCall", "callsign", "call"}
	flatSpotterKeys = []string{"spotter", "de", "deCall", "rx"}
	flatFreqKeys    = []string{"khz", "freq", "frequency"}
	flatGridKeys    = []string{"grid", "locator"}
	modeKeys        = []string{"mode", "md"}
	reportKeys      = []string{"snr", "db", "report", "rp"}
	timeKeys        = []string{"time", "timestamp", "ts", "t"}
	commentKeys     = []string{"comment", "info"}
)

// decodeSpot converts one MESSAGE body into a spot, or nil when the payload
// carries no usable callsign/frequency (such records are discarded, not
// errors). A non-nil error means the body was not valid JSON.
func decodeSpot(body []byte) (*spot.Spot, error) {
	var m map[string]any
	if err := sockjsJSON.Unmarshal(body, &m); err != nil {
		return nil, err
	}

	var (
		s      *spot.Spot
		source spot.SourceType
	)
	switch {
	case hasObject(m, "skimmer"):
		source = spot.SourceSkimmer
		s = decodeNested(m, "call", "skimmer", "hz", true)
	case hasObject(m, "tx"):
		source = spot.SourceDigital
		s = decodeNested(m, "tx", "rx", "khz", false)
	case hasObject(m, "dx"):
		source = spot.SourceCluster
		s = decodeNested(m, "dx", "spotter", "khz", false)
	default:
		source = spot.SourceCluster
		s = decodeFlat(m)
	}
	if s == nil {
		return nil, nil
	}
	s.Source = source
	s.Mode = strings.ToUpper(strings.TrimSpace(probeString(m, modeKeys)))

	if report, ok := probeInt(m, reportKeys); ok {
		s.Report = report
		s.HasReport = true
	}
	s.Time = probeTime(m, timeKeys)
	s.Comment = probeString(m, commentKeys)
	return s, nil
}

// decodeNested handles the three object shapes. hz selects the Hz-to-kHz
// conversion used by the skimmer topic.
func decodeNested(m map[string]any, dxKey, spotterKey, freqKey string, hz bool) *spot.Spot {
	dx, _ := m[dxKey].(map[string]any)
	call := stringField(dx, "callsign")
	freq, ok := floatField(m, freqKey)
	if call == "" || !ok || freq <= 0 {
		return nil
	}
	if hz {
		freq /= 1000
	}
	spotter := ""
	if sp, ok := m[spotterKey].(map[string]any); ok {
		spotter = stringField(sp, "callsign")
	}
	s := spot.NewSpot(call, spotter, freq, "")
	s.Grid = stringField(dx, "grid")
	s.Country = stringField(dx, "country")
	return s
}

// decodeFlat is the last-resort shape: all fields at the top level, each
// probed under its alternative names.
func decodeFlat(m map[string]any) *spot.Spot {
	call := probeString(m, flatCallKeys)
	freq, ok := probeFloat(m, flatFreqKeys)
	if call == "" || !ok || freq <= 0 {
		return nil
	}
	s := spot.NewSpot(call, probeString(m, flatSpotterKeys), freq, "")
	s.Grid = probeString(m, flatGridKeys)
	return s
}

func hasObject(m map[string]any, key string) bool {
	_, ok := m[key].(map[string]any)
	return ok
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	v, _ := m[key].(string)
	return strings.TrimSpace(v)
}

func floatField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func probeString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func probeFloat(m map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k].(float64); ok {
			return v, true
		}
	}
	return 0, false
}

func probeInt(m map[string]any, keys []string) (int, bool) {
	for _, k := range keys {
		if v, ok := m[k].(float64); ok {
			return int(v), true
		}
	}
	return 0, false
}

// epochMillisThreshold separates second from millisecond epochs: a numeric
// timestamp above 10^12 is treated as milliseconds.
const epochMillisThreshold = 1e12

// probeTime resolves the spot timestamp: an ISO-8601 string or a numeric
// epoch under any of the alternative keys, defaulting to now when absent or
// unparsable.
func probeTime(m map[string]any, keys []string) time.Time {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			if v <= 0 {
				continue
			}
			if v > epochMillisThreshold {
				return time.UnixMilli(int64(v)).UTC()
			}
			return time.Unix(int64(v), 0).UTC()
		case string:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				return t.UTC()
			}
			if t, err := time.Parse("2006-01-02T15:04:05", v); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Now().UTC()
}
