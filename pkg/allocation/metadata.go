package allocation

// Metadata describes an algorithm for selection screens. It is static and never computed from a run.
type Metadata struct {
	Id            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Advantages    string `json:"advantages"`
	Disadvantages string `json:"disadvantages"`
	Recommended   bool   `json:"recommended"`

	timeBands []timeBand
}

type timeBand struct {
	upTo     int // Inclusive upper bound of residents; the last band uses 0 and catches the rest
	estimate string
}

// EstimatedTime returns an advisory runtime estimate for the given number of residents
func (metadata Metadata) EstimatedTime(residents int) string {
	for _, band := range metadata.timeBands {
		if band.upTo == 0 || residents <= band.upTo {
			return band.estimate
		}
	}
	return ""
}

var greedyMetadata = Metadata{
	Id:            GreedyId,
	Name:          "Greedy",
	Description:   "Places residents one by one into the currently best room, hardest to place first",
	Advantages:    "Very fast, suited for quick previews and tight deadlines",
	Disadvantages: "Result depends on processing order and may be far from the global optimum",
	timeBands: []timeBand{
		{1000, "about 2-5 seconds"},
		{5000, "about 10-20 seconds"},
		{0, "about 30-60 seconds"},
	},
}

var kMeansMetadata = Metadata{
	Id:            KMeansId,
	Name:          "Clustering",
	Description:   "Groups residents by lifestyle with k-means, then places similar residents together",
	Advantages:    "Balances every lifestyle trait with a sensible result; recommended",
	Disadvantages: "Moderate speed; cluster quality depends on the data",
	Recommended:   true,
	timeBands: []timeBand{
		{1000, "about 5-15 seconds"},
		{5000, "about 30-60 seconds"},
		{0, "about 1-2 minutes"},
	},
}

var annealingMetadata = Metadata{
	Id:            AnnealingId,
	Name:          "Simulated annealing",
	Description:   "Searches the whole assignment space by swapping beds under a cooling schedule",
	Advantages:    "Escapes local optima and usually yields the best overall score",
	Disadvantages: "Slow; meant for runs where quality matters more than time",
	timeBands: []timeBand{
		{500, "about 30-60 seconds"},
		{2000, "about 2-5 minutes"},
		{0, "about 5-10 minutes"},
	},
}
