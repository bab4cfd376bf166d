package eco

import "math"

// ComputeEnergyProduction estimates monthly solar output and savings.
func ComputeEnergyProduction(in EnergySimInput) EnergyEstimate {
	coverage, ok := roofCoverage[in.Roof]
	if !ok {
		coverage = roofCoverage[RoofOther]
	}
	efficiency, ok := panelEfficiency[in.Panel]
	if !ok {
		efficiency = panelEfficiency[PanelOther]
	}
	factor, ok := productionFactor[in.Location]
	if !ok {
		factor = productionFactor[LocationOther]
	}

	area := clamp(in.HomeSizeM2) * coverage
	produced := area * factor * efficiency
	yearly := produced * ElectricityPriceUSD * MonthsPerYear

	return EnergyEstimate{
		PanelAreaM2:               area,
		Efficiency:                efficiency,
		ProductionFactor:          factor,
		EnergyProducedKwhPerMonth: produced,
		YearlySavingsUSD:          yearly,
		Tier:                      ClassifyEnergy(produced),
		ProgressPercent:           math.Min(100, produced/SolarProgressCeiling*100),
		Projection:                SavingsProjection(yearly, ProjectionYears),
	}
}

// ClassifyEnergy uses exclusive lower bounds: 700 exactly is not fully solar.
func ClassifyEnergy(produced float64) Tier {
	switch {
	case produced > fullySolarThreshold:
		return tierFullySolar
	case produced > reduceGridThreshold:
		return tierReduceGrid
	default:
		return tierEveryBit
	}
}

// SavingsProjection returns cumulative savings for years 1..years.
func SavingsProjection(yearly float64, years int) []float64 {
	out := make([]float64, years)
	for i := range out {
		out[i] = yearly * float64(i+1)
	}
	return out
}
