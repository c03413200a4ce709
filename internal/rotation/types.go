package rotation

// Entry is one year of a stand prescription.
type Entry struct {
	T       int     `json:"t"`
	Measure string  `json:"measure"`
	Cost    float64 `json:"cost"`
	Revenue float64 `json:"revenue"`
}

// Params holds the scalar settings of a rotation.
type Params struct {
	RotationLength    int     `json:"rotation_length"`
	InterestRate      float64 `json:"interest_rate"` // percent, e.g. 3.0 = 3%
	FlatYearlyCost    float64 `json:"flat_yearly_cost"`
	FlatYearlyRevenue float64 `json:"flat_yearly_revenue"`
}

// Row is an Entry extended with the derived financial columns.
type Row struct {
	Entry
	Result     float64 `json:"result"`
	NPVCost    float64 `json:"npv_cost"`
	NPVRevenue float64 `json:"npv_revenue"`
	FPVCost    float64 `json:"fpv_cost"`
	FPVRevenue float64 `json:"fpv_revenue"`
	NPV        float64 `json:"npv"`
	FPV        float64 `json:"fpv"`
}

// Valuation is the full output of Compute.
type Valuation struct {
	Rows         []Row   `json:"rows"`
	TerminalYear int     `json:"terminal_year"`
	NPV          float64 `json:"npv_cumulative"`
	FPV          float64 `json:"fpv_cumulative"`
	LEV          float64 `json:"land_expectation_value"`
}
