package domain

import (
	"errors"
	"fmt"
)

// Month index bounds for the AQI table.
const (
	MinMonth = 1
	MaxMonth = 12
)

// ErrInvalidMonth matches any month index outside [MinMonth, MaxMonth].
var ErrInvalidMonth = errors.New("invalid month index")

// OutOfRangeError reports a month index outside the table bounds.
type OutOfRangeError struct {
	Min, Max, Got int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("month index %d out of range [%d, %d]", e.Got, e.Min, e.Max)
}

// Is lets errors.Is(err, ErrInvalidMonth) match an *OutOfRangeError.
func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrInvalidMonth
}

// ValidateMonth returns an *OutOfRangeError if month is not in [MinMonth, MaxMonth].
func ValidateMonth(month int) error {
	if month < MinMonth || month > MaxMonth {
		return &OutOfRangeError{Min: MinMonth, Max: MaxMonth, Got: month}
	}
	return nil
}

// AQIReading pairs a 1-based month index with its AQI value.
type AQIReading struct {
	MonthIndex int `json:"month_index"`
	Value      int `json:"aqi_value"`
}

// AQITable is the read-only monthly AQI lookup table. The zero value is not
// usable; construct with NewAQITable or DefaultAQITable.
type AQITable struct {
	values [MaxMonth]int
}

var defaultAQIValues = [MaxMonth]int{338, 355, 300, 250, 240, 200, 210, 226, 200, 310, 320, 330}

// DefaultAQITable returns the fixed table served by the application.
func DefaultAQITable() *AQITable {
	return &AQITable{values: defaultAQIValues}
}

// NewAQITable builds a table from exactly twelve non-negative values, index 1
// being the first element.
func NewAQITable(values []int) (*AQITable, error) {
	if len(values) != MaxMonth {
		return nil, fmt.Errorf("aqi table needs %d values, got %d", MaxMonth, len(values))
	}
	t := &AQITable{}
	for i, v := range values {
		if v < 0 {
			return nil, fmt.Errorf("aqi value for month %d is negative: %d", i+1, v)
		}
		t.values[i] = v
	}
	return t, nil
}

// Lookup returns the AQI value for month.
func (t *AQITable) Lookup(month int) (int, error) {
	if err := ValidateMonth(month); err != nil {
		return 0, err
	}
	return t.values[month-1], nil
}

// Readings returns all twelve readings in month order.
func (t *AQITable) Readings() []AQIReading {
	out := make([]AQIReading, 0, MaxMonth)
	for i, v := range t.values {
		out = append(out, AQIReading{MonthIndex: i + 1, Value: v})
	}
	return out
}
