// Package challenge tracks the 30-day eco challenges.
package challenge

// Program is one of the fixed 30-day challenge tracks.
type Program string

const (
	MeatFree   Program = "meatFree"
	ZeroWaste  Program = "zeroWaste"
	EnergySave Program = "energySave"
	TreePlant  Program = "treePlant"
)

// Length is the number of days in every program.
const Length = 30

type programInfo struct {
	title       string
	description string
	actions     []string
	tips        []string
}

var programs = map[Program]programInfo{
	MeatFree: {
		title:       "Meat-Free Month",
		description: "Go meat-free for 30 days. Each day you'll get a new plant-based meal suggestion and nutrition tips.",
		actions: []string{
			"Try a tofu scramble for breakfast instead of eggs.",
			"Make a lentil soup for lunch - high in protein and delicious!",
			"Experiment with a veggie burger for dinner tonight.",
		},
		tips: []string{
			"Producing a pound of beef emits 20x more greenhouse gases than a pound of vegetables.",
			"If everyone in the U.S. ate no meat for just one day, it would save 100 billion gallons of water.",
			"A vegetarian diet requires 2.5 times less land than a meat-based diet.",
		},
	},
	ZeroWaste: {
		title:       "Zero Waste Challenge",
		description: "Reduce your waste to nearly zero. Daily tips on recycling, composting, and sustainable alternatives.",
		actions: []string{
			"Bring your own bags to the grocery store today.",
			"Use a reusable water bottle instead of disposable ones.",
			"Pack lunch in reusable containers instead of plastic wrap.",
		},
		tips: []string{
			"The average American produces 4.5 pounds of trash per day.",
			"Recycling one aluminum can saves enough energy to run a TV for 3 hours.",
			"Plastic bags can take up to 1,000 years to decompose in landfills.",
		},
	},
	EnergySave: {
		title:       "Energy Saver",
		description: "Cut your energy consumption. Learn about energy-saving habits and technologies each day.",
		actions: []string{
			"Turn off lights when leaving a room today.",
			"Unplug devices that aren't in use to prevent phantom load.",
			"Lower your thermostat by 1 degree and wear a sweater.",
		},
		tips: []string{
			"LED bulbs use 75% less energy than incandescent lighting.",
			"A laptop uses 80% less electricity than a desktop computer.",
			"Unplugging unused electronics can save up to 10% on your energy bill.",
		},
	},
	TreePlant: {
		title:       "Tree Planter",
		description: "Help reforest the planet. Daily actions include planting, donating, or learning about trees.",
		actions: []string{
			"Plant a tree in your yard or community space.",
			"Donate to a tree-planting organization.",
			"Learn about native tree species in your area.",
		},
		tips: []string{
			"A single tree can absorb as much as 48 pounds of CO2 per year.",
			"Trees properly placed around buildings can reduce air conditioning needs by 30%.",
			"Over a 50-year lifetime, a tree generates $31,250 worth of oxygen.",
		},
	},
}

// Programs lists the programs in display order.
var Programs = []Program{MeatFree, ZeroWaste, EnergySave, TreePlant}

// DefaultDescription is shown when no program is selected.
const DefaultDescription = "Select a challenge to get started!"

// Valid reports whether p is one of the fixed programs.
func (p Program) Valid() bool {
	_, ok := programs[p]
	return ok
}

func (p Program) Title() string {
	return programs[p].title
}

func (p Program) Description() string {
	if info, ok := programs[p]; ok {
		return info.description
	}
	return DefaultDescription
}

// DailyAction is the action and fact for one day of a program.
type DailyAction struct {
	Action string `json:"action"`
	Tip    string `json:"tip"`
}

// ActionFor returns the action and tip for day, cycling each list on its own:
// index = (day-1) mod len(list). Days below 1 are treated as day 1.
func ActionFor(p Program, day int) (DailyAction, error) {
	info, ok := programs[p]
	if !ok {
		return DailyAction{}, ErrUnknownProgram
	}
	if day < 1 {
		day = 1
	}
	return DailyAction{
		Action: info.actions[(day-1)%len(info.actions)],
		Tip:    info.tips[(day-1)%len(info.tips)],
	}, nil
}
