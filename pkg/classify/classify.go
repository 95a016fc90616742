// Package classify assigns each signup to the score category it rated
// strictly highest, or to no category at all when the maximum is tied.
package classify

// Category is one of the three self-reported score dimensions.
type Category int

// Categories, in the order they appear in the source dataset.
const (
	None Category = iota
	Data
	Visualization
	Society
)

// All lists the real categories in dataset order (None excluded).
var All = []Category{Data, Visualization, Society}

func (c Category) String() string {
	switch c {
	case Data:
		return "data"
	case Visualization:
		return "visualization"
	case Society:
		return "society"
	default:
		return "none"
	}
}

// Strongest returns the category whose score is the strict maximum of the
// three. Any tie at the maximum (2-way or 3-way) returns None: such records
// contribute to no category. Only relative ordering matters, so negative
// and zero scores behave the same as positive ones.
func Strongest(data, visualization, society float64) Category {
	switch {
	case data > visualization && data > society:
		return Data
	case visualization > data && visualization > society:
		return Visualization
	case society > data && society > visualization:
		return Society
	default:
		return None
	}
}
