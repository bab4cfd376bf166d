package eco

import (
	"math"
	"sort"
)

// ComputeFootprint returns the monthly footprint for in. It never fails:
// quantities are clamped to [0, MaxAmount] the same way FootprintForm.Sanitize
// clamps them, so every figure stays finite.
func ComputeFootprint(in EmissionInput) Footprint {
	in.TransportKm = clamp(in.TransportKm)
	in.ElectricityKwh = clamp(in.ElectricityKwh)
	in.ShoppingSpend = clamp(in.ShoppingSpend)

	transport := in.TransportKm * TransportFactorPerKm
	if in.TransportIsElectric {
		transport *= ElectricTransportFactor
	}

	electricity := in.ElectricityKwh * GridElectricityFactor
	if in.ElectricityIsRenewable {
		electricity = in.ElectricityKwh * RenewableElectricFactor
	}

	shopping := in.ShoppingSpend * ShoppingFactorPerDollar

	diet, ok := dietEmissions[in.Diet]
	if !ok {
		diet = dietEmissions[DietOther]
	}

	total := transport + electricity + diet + shopping

	fp := Footprint{
		Total: total,
		Breakdown: map[Category]float64{
			CategoryTransport: transport,
			CategoryEnergy:    electricity,
			CategoryDiet:      diet,
			CategoryShopping:  shopping,
		},
		Segments: []Segment{
			{CategoryTransport, transport},
			{CategoryEnergy, electricity},
			{CategoryDiet, diet},
			{CategoryShopping, shopping},
		},
		Tier:            ClassifyFootprint(total),
		HighestImpact:   highestImpact(transport, diet, electricity),
		ProgressPercent: math.Min(100, total/FootprintProgressCeiling*100),
	}
	sort.SliceStable(fp.Segments, func(i, j int) bool {
		return fp.Segments[i].Value > fp.Segments[j].Value
	})
	fp.Tips = PersonalizedTips(total, fp.HighestImpact)
	return fp
}

// ClassifyFootprint picks the first tier whose threshold is strictly above total,
// so a total sitting exactly on a threshold lands in the next tier.
func ClassifyFootprint(total float64) Tier {
	for _, t := range footprintTiers {
		if total < t.threshold {
			return t.tier
		}
	}
	return footprintTiers[len(footprintTiers)-1].tier
}

// Shopping is not a candidate. Ties keep the earlier category.
func highestImpact(transport, diet, energy float64) Category {
	best, bestValue := CategoryTransport, transport
	if diet > bestValue {
		best, bestValue = CategoryDiet, diet
	}
	if energy > bestValue {
		best = CategoryEnergy
	}
	return best
}

// PersonalizedTips returns the tips for the highest-impact area, followed by
// general tips when the footprint is above 1500.
func PersonalizedTips(total float64, highest Category) []string {
	tips := append([]string(nil), areaTips[highest]...)
	if total > generalTipsThreshold {
		tips = append(tips, generalTips...)
	}
	return tips
}
