package catalog

// Bucket is a measure range in centimeters, Min inclusive and Max exclusive.
// Max 0 leaves the range open.
type Bucket struct {
	ID    string
	Label string
	Min   float64
	Max   float64
}

var LengthBuckets = []Bucket{
	{ID: "ate-12cm", Label: "Até 12 cm", Min: 0, Max: 12},
	{ID: "12-16cm", Label: "12 a 16 cm", Min: 12, Max: 16},
	{ID: "16-20cm", Label: "16 a 20 cm", Min: 16, Max: 20},
	{ID: "acima-20cm", Label: "Acima de 20 cm", Min: 20},
}

var DiameterBuckets = []Bucket{
	{ID: "ate-3cm", Label: "Até 3 cm", Min: 0, Max: 3},
	{ID: "3-4cm", Label: "3 a 4 cm", Min: 3, Max: 4},
	{ID: "4-5cm", Label: "4 a 5 cm", Min: 4, Max: 5},
	{ID: "acima-5cm", Label: "Acima de 5 cm", Min: 5},
}

// bucketFor returns the id of the bucket holding v, or "" for unknown measures.
func bucketFor(buckets []Bucket, v float64) string {
	if v <= 0 {
		return ""
	}
	for _, b := range buckets {
		if v >= b.Min && (b.Max == 0 || v < b.Max) {
			return b.ID
		}
	}
	return ""
}

func bucketLabel(buckets []Bucket, id string) string {
	for _, b := range buckets {
		if b.ID == id {
			return b.Label
		}
	}
	return id
}
