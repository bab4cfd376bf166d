package eco

import "math"

// Diet is the diet answer of the footprint form.
type Diet string

const (
	DietMeatDaily  Diet = "meatDaily"
	DietMeatWeekly Diet = "meatWeekly"
	DietVegetarian Diet = "vegetarian"
	DietVegan      Diet = "vegan"
	DietOther      Diet = "other"
)

// ParseDiet maps unknown values to DietOther.
func ParseDiet(s string) Diet {
	switch d := Diet(s); d {
	case DietMeatDaily, DietMeatWeekly, DietVegetarian, DietVegan:
		return d
	default:
		return DietOther
	}
}

type RoofType string

const (
	RoofFlat    RoofType = "flat"
	RoofPitched RoofType = "pitched"
	RoofLarge   RoofType = "large"
	RoofOther   RoofType = "other"
)

func ParseRoofType(s string) RoofType {
	switch r := RoofType(s); r {
	case RoofFlat, RoofPitched, RoofLarge:
		return r
	default:
		return RoofOther
	}
}

type PanelType string

const (
	PanelMono  PanelType = "mono"
	PanelPoly  PanelType = "poly"
	PanelThin  PanelType = "thin"
	PanelOther PanelType = "other"
)

func ParsePanelType(s string) PanelType {
	switch p := PanelType(s); p {
	case PanelMono, PanelPoly, PanelThin:
		return p
	default:
		return PanelOther
	}
}

// Location is the sunshine class of the simulated home.
type Location string

const (
	LocationSunny    Location = "sunny"
	LocationModerate Location = "moderate"
	LocationCloudy   Location = "cloudy"
	LocationOther    Location = "other"
)

func ParseLocation(s string) Location {
	switch l := Location(s); l {
	case LocationSunny, LocationModerate, LocationCloudy:
		return l
	default:
		return LocationOther
	}
}

// Category names one part of the footprint breakdown.
type Category string

const (
	CategoryTransport Category = "Transport"
	CategoryEnergy    Category = "Energy"
	CategoryDiet      Category = "Diet"
	CategoryShopping  Category = "Shopping"
)

// EmissionInput is the sanitised footprint form.
type EmissionInput struct {
	TransportKm            float64 `json:"transport_km"`
	TransportIsElectric    bool    `json:"transport_is_electric"`
	ElectricityKwh         float64 `json:"electricity_kwh"`
	ElectricityIsRenewable bool    `json:"electricity_is_renewable"`
	Diet                   Diet    `json:"diet"`
	ShoppingSpend          float64 `json:"shopping_spend"`
}

// Tier is a threshold-selected classification with its display hints.
type Tier struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Icon    string `json:"icon"`
	Color   string `json:"color"`
}

type footprintTier struct {
	threshold float64
	tier      Tier
}

// Ordered ascending; the first threshold strictly above the total wins.
var footprintTiers = []footprintTier{
	{1000, Tier{"excellent", "Excellent! Your footprint is well below average.", "fa-star", "success"}},
	{1500, Tier{"good", "Good job! You're doing better than most.", "fa-thumbs-up", "primary"}},
	{2000, Tier{"average", "Average footprint. Try our tips to improve!", "fa-info-circle", "warning"}},
	{math.Inf(1), Tier{"above-average", "Your footprint is above average. Check our tips!", "fa-exclamation-triangle", "danger"}},
}

var (
	tierFullySolar = Tier{"fully-solar", "You could potentially go completely solar!", "fa-sun", "success"}
	tierReduceGrid = Tier{"reduce-grid", "You could significantly reduce your grid dependence.", "fa-bolt", "primary"}
	tierEveryBit   = Tier{"every-bit-helps", "Every bit helps! This would reduce your carbon footprint.", "fa-leaf", "warning"}
)

// Segment is one breakdown entry, used for ordered chart data.
type Segment struct {
	Category Category `json:"category"`
	Value    float64  `json:"value"`
}

// Footprint is the result of ComputeFootprint. Values are unrounded.
type Footprint struct {
	Total           float64              `json:"total"`
	Breakdown       map[Category]float64 `json:"breakdown"`
	Segments        []Segment            `json:"segments"`
	Tier            Tier                 `json:"tier"`
	HighestImpact   Category             `json:"highest_impact"`
	ProgressPercent float64              `json:"progress_percent"`
	Tips            []string             `json:"tips"`
}

// EnergySimInput is the sanitised solar simulator form.
type EnergySimInput struct {
	HomeSizeM2 float64   `json:"home_size_m2"`
	Roof       RoofType  `json:"roof_type"`
	Panel      PanelType `json:"panel_type"`
	Location   Location  `json:"location"`
}

// EnergyEstimate is the result of ComputeEnergyProduction.
type EnergyEstimate struct {
	PanelAreaM2               float64   `json:"panel_area_m2"`
	Efficiency                float64   `json:"efficiency"`
	ProductionFactor          float64   `json:"production_factor"`
	EnergyProducedKwhPerMonth float64   `json:"energy_produced_kwh_per_month"`
	YearlySavingsUSD          float64   `json:"yearly_savings_usd"`
	Tier                      Tier      `json:"tier"`
	ProgressPercent           float64   `json:"progress_percent"`
	Projection                []float64 `json:"projection"`
}
