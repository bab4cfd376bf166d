package eco

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Amount is a non-negative form number. It decodes from a JSON number or
// string; anything unparseable, negative or non-finite becomes 0 and
// anything above MaxAmount becomes MaxAmount.
type Amount float64

// MaxAmount bounds every sanitised form number so that no computed figure
// can overflow to infinity.
const MaxAmount = 1e12

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseAmount reads the leading decimal number of s, the way a browser
// number field is read, and clamps the result to [0, MaxAmount].
func ParseAmount(s string) float64 {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return clamp(v)
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return math.Min(v, MaxAmount)
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*a = 0
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*a = 0
			return nil
		}
		*a = Amount(ParseAmount(s))
	default:
		var v float64
		if err := json.Unmarshal(b, &v); err != nil {
			*a = 0
			return nil
		}
		*a = Amount(clamp(v))
	}
	return nil
}

// FootprintForm is the raw footprint form as submitted.
type FootprintForm struct {
	Transport     Amount `json:"transport"`
	TransportType string `json:"transport_type"`
	Electricity   Amount `json:"electricity"`
	EnergySource  string `json:"energy_source"`
	Diet          string `json:"diet"`
	Shopping      Amount `json:"shopping"`
}

func (f FootprintForm) Sanitize() EmissionInput {
	return EmissionInput{
		TransportKm:            clamp(float64(f.Transport)),
		TransportIsElectric:    f.TransportType == "electric",
		ElectricityKwh:         clamp(float64(f.Electricity)),
		ElectricityIsRenewable: f.EnergySource == "renewable",
		Diet:                   ParseDiet(f.Diet),
		ShoppingSpend:          clamp(float64(f.Shopping)),
	}
}

// SolarForm is the raw solar simulator form as submitted.
type SolarForm struct {
	HomeSize  Amount `json:"home_size"`
	RoofType  string `json:"roof_type"`
	PanelType string `json:"panel_type"`
	Location  string `json:"location"`
}

// Sanitize defaults a missing or zero home size to DefaultHomeSizeM2.
func (f SolarForm) Sanitize() EnergySimInput {
	size := clamp(float64(f.HomeSize))
	if size == 0 {
		size = DefaultHomeSizeM2
	}
	return EnergySimInput{
		HomeSizeM2: size,
		Roof:       ParseRoofType(f.RoofType),
		Panel:      ParsePanelType(f.PanelType),
		Location:   ParseLocation(f.Location),
	}
}
