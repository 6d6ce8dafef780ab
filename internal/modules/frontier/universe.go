package frontier

// Model universe of ten funds used by the mean-variance solver. Returns and
// covariances are calibrated illustrative figures, not live market data.

// fundNames lists the universe in matrix order
var fundNames = []string{
	"Money Market A",
	"Bond Fund B",
	"Hybrid Fund C",
	"Equity Fund D",
	"Index Fund E",
	"Global Fund F",
	"REIT Fund G",
	"Commodity Fund H",
	"Stable Income I",
	"Growth Select J",
}

// expectedReturns holds fractional annualized returns per fund
var expectedReturns = []float64{
	0.025, // Money Market A
	0.045, // Bond Fund B
	0.085, // Hybrid Fund C
	0.155, // Equity Fund D
	0.125, // Index Fund E
	0.105, // Global Fund F
	0.095, // REIT Fund G
	0.135, // Commodity Fund H
	0.035, // Stable Income I
	0.185, // Growth Select J
}

// covariance is the symmetric annualized covariance matrix across the
// universe. Diagonal entries are the per-fund variances.
var covariance = [][]float64{
	//  A       B       C       D       E       F       G       H       I       J
	{0.0008, 0.0003, 0.0001, 0.0000, 0.0001, 0.0001, 0.0001, 0.0000, 0.0006, 0.0000}, // A
	{0.0003, 0.0015, 0.0005, 0.0001, 0.0003, 0.0002, 0.0002, 0.0001, 0.0008, 0.0001}, // B
	{0.0001, 0.0005, 0.0040, 0.0025, 0.0030, 0.0020, 0.0018, 0.0022, 0.0003, 0.0028}, // C
	{0.0000, 0.0001, 0.0025, 0.0225, 0.0150, 0.0100, 0.0080, 0.0120, 0.0001, 0.0180}, // D
	{0.0001, 0.0003, 0.0030, 0.0150, 0.0144, 0.0085, 0.0075, 0.0095, 0.0002, 0.0120}, // E
	{0.0001, 0.0002, 0.0020, 0.0100, 0.0085, 0.0090, 0.0065, 0.0078, 0.0001, 0.0085}, // F
	{0.0001, 0.0002, 0.0018, 0.0080, 0.0075, 0.0065, 0.0064, 0.0055, 0.0002, 0.0070}, // G
	{0.0000, 0.0001, 0.0022, 0.0120, 0.0095, 0.0078, 0.0055, 0.0169, 0.0001, 0.0105}, // H
	{0.0006, 0.0008, 0.0003, 0.0001, 0.0002, 0.0001, 0.0002, 0.0001, 0.0012, 0.0001}, // I
	{0.0000, 0.0001, 0.0028, 0.0180, 0.0120, 0.0085, 0.0070, 0.0105, 0.0001, 0.0256}, // J
}

// FundNames returns a copy of the universe's fund names in weight order
func FundNames() []string {
	names := make([]string, len(fundNames))
	copy(names, fundNames)
	return names
}
