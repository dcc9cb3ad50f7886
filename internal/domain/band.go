package domain

// Band is a discrete AQI severity classification.
type Band int

const (
	BandGood Band = iota
	BandModerate
	BandUnhealthyForSensitive
	BandUnhealthy
	BandVeryUnhealthy
	BandHazardous

	bandCount
)

// Inclusive upper bounds for every band except Hazardous.
var bandUpperBounds = [bandCount - 1]int{50, 100, 150, 200, 300}

var bandNames = [bandCount]string{
	"Good",
	"Moderate",
	"Unhealthy for Sensitive Groups",
	"Unhealthy",
	"Very Unhealthy",
	"Hazardous",
}

func (b Band) String() string {
	if b < 0 || b >= bandCount {
		return "Unknown"
	}
	return bandNames[b]
}

// Classify maps a non-negative AQI value to its band.
func Classify(aqi int) Band {
	for i, upper := range bandUpperBounds {
		if aqi <= upper {
			return Band(i)
		}
	}
	return BandHazardous
}
