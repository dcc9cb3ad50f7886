package domain

// Category is the health group a user registers under.
type Category string

// Recognized categories. Values are stored and sent over the wire verbatim.
const (
	CategoryLungDisease Category = "Lung Disease/Asthma"
	CategoryOldAge      Category = "Old Age"
	CategoryNormal      Category = "Normal People"
)

// FallbackAdvice is returned for categories outside the recognized set.
const FallbackAdvice = "No specific solution available."

const categoryCount = 3

func (c Category) index() (int, bool) {
	switch c {
	case CategoryLungDisease:
		return 0, true
	case CategoryOldAge:
		return 1, true
	case CategoryNormal:
		return 2, true
	}
	return 0, false
}

// Recognized reports whether c has band-specific advice.
func (c Category) Recognized() bool {
	_, ok := c.index()
	return ok
}

// Categories returns the recognized categories.
func Categories() []Category {
	return []Category{CategoryLungDisease, CategoryOldAge, CategoryNormal}
}

var adviceTable = [bandCount][categoryCount]string{
	BandGood: {
		"Air quality is safe. No special precautions are needed.",
		"Enjoy fresh air, but avoid dust exposure.",
		"No restrictions. Enjoy outdoor activities.",
	},
	BandModerate: {
		"Air quality is acceptable but be cautious with prolonged outdoor activities.",
		"Consider avoiding high-traffic areas.",
		"Outdoor activities are fine, but stay aware of air changes.",
	},
	BandUnhealthyForSensitive: {
		"Limit outdoor activities. Always carry an inhaler if needed.",
		"Reduce prolonged outdoor exposure.",
		"Most people are fine, but sensitive individuals should be cautious.",
	},
	BandUnhealthy: {
		"Wear an N95 mask outdoors. Use an air purifier indoors.",
		"Stay indoors as much as possible and keep windows closed.",
		"Reduce outdoor activities and avoid prolonged exposure.",
	},
	BandVeryUnhealthy: {
		"Avoid going outside. If necessary, wear a mask and take medication as prescribed.",
		"Serious health risks. Stay inside with air purification if possible.",
		"Avoid strenuous outdoor activities. Consider working indoors.",
	},
	BandHazardous: {
		"Severe risk! Stay indoors with an air purifier. Seek medical attention if breathing issues arise.",
		"Health emergency! Avoid going outside completely. Keep emergency contacts ready.",
		"Everyone should remain indoors and reduce physical activity.",
	},
}

// Resolve returns the advice for a band and category. Unrecognized categories
// and out-of-range bands get FallbackAdvice.
func Resolve(band Band, category Category) string {
	ci, ok := category.index()
	if !ok || band < 0 || band >= bandCount {
		return FallbackAdvice
	}
	return adviceTable[band][ci]
}
