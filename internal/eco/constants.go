package eco

// Emission factors, kg CO2 per unit per month.
const (
	TransportFactorPerKm     = 0.12
	ElectricTransportFactor  = 0.5
	GridElectricityFactor    = 0.40
	RenewableElectricFactor  = 0.10
	ShoppingFactorPerDollar  = 5
	FootprintProgressCeiling = 2000
)

// Solar model constants.
const (
	ElectricityPriceUSD  = 0.12
	MonthsPerYear        = 12
	ProjectionYears      = 10
	SolarProgressCeiling = 900
	DefaultHomeSizeM2    = 100
	fullySolarThreshold  = 700
	reduceGridThreshold  = 400
	generalTipsThreshold = 1500
)

var dietEmissions = map[Diet]float64{
	DietMeatDaily:  200,
	DietMeatWeekly: 120,
	DietVegetarian: 80,
	DietVegan:      50,
	DietOther:      150,
}

var roofCoverage = map[RoofType]float64{
	RoofFlat:    0.4,
	RoofPitched: 0.3,
	RoofLarge:   0.5,
	RoofOther:   0.35,
}

var panelEfficiency = map[PanelType]float64{
	PanelMono:  1.2,
	PanelPoly:  1.0,
	PanelThin:  0.8,
	PanelOther: 1.0,
}

var productionFactor = map[Location]float64{
	LocationSunny:    20,
	LocationModerate: 15,
	LocationCloudy:   10,
	LocationOther:    15,
}

var areaTips = map[Category][]string{
	CategoryTransport: {
		"🚗 Carpool or use public transport once a week",
		"🚲 Try biking or walking for short trips",
		"⚡ Consider an electric vehicle for your next car",
	},
	CategoryDiet: {
		"🌱 Try meatless Mondays",
		"🥦 Choose local and seasonal produce",
		"🍽️ Reduce food waste by planning meals",
	},
	CategoryEnergy: {
		"💡 Switch to LED bulbs",
		"🌞 Use natural light when possible",
		"🏠 Improve home insulation",
	},
}

var generalTips = []string{
	"🛒 Buy second-hand when possible",
	"🚰 Reduce water usage with shorter showers",
	"✈️ Consider staycations instead of flights",
}
