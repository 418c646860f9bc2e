package pricing

// Trade is a service category a pro can work in.
type Trade string

const (
	Plumbing   Trade = "Plumbing"
	Electrical Trade = "Electrical"
	HVAC       Trade = "HVAC"
	Handyman   Trade = "Handyman"
)

// Trades is the fixed trade set.
var Trades = []Trade{Plumbing, Electrical, HVAC, Handyman}

// ValidTrade reports whether t is one of Trades.
func ValidTrade(t Trade) bool {
	for _, x := range Trades {
		if x == t {
			return true
		}
	}
	return false
}

// Service is an immutable catalog entry.
type Service struct {
	ID             string `json:"id"`
	Trade          Trade  `json:"trade"`
	Name           string `json:"name"`
	Summary        string `json:"summary"`
	TypicalMinLow  int    `json:"typical_min_low"`
	TypicalMinHigh int    `json:"typical_min_high"`
	MinVisitFee    Cents  `json:"min_visit_fee"`
	PartsAllowance Cents  `json:"parts_allowance"`
}

var catalog = []Service{
	{
		ID:             "svc_pl_leak",
		Trade:          Plumbing,
		Name:           "Leak repair",
		Summary:        "Fix pipe/valve/fixture leaks.",
		TypicalMinLow:  30,
		TypicalMinHigh: 90,
		MinVisitFee:    Dollars(149),
		PartsAllowance: Dollars(50),
	},
	{
		ID:             "svc_pl_clog",
		Trade:          Plumbing,
		Name:           "Drain clog clearing",
		Summary:        "Clear kitchen/bath drains.",
		TypicalMinLow:  30,
		TypicalMinHigh: 120,
		MinVisitFee:    Dollars(129),
		PartsAllowance: Dollars(20),
	},
	{
		ID:             "svc_el_outlet",
		Trade:          Electrical,
		Name:           "Outlet / switch repair",
		Summary:        "Fix dead outlet, GFCI, switches.",
		TypicalMinLow:  30,
		TypicalMinHigh: 120,
		MinVisitFee:    Dollars(159),
		PartsAllowance: Dollars(30),
	},
	{
		ID:             "svc_hv_nocool",
		Trade:          HVAC,
		Name:           "AC not cooling diagnostic",
		Summary:        "Diagnostics for cooling issues.",
		TypicalMinLow:  60,
		TypicalMinHigh: 180,
		MinVisitFee:    Dollars(169),
		PartsAllowance: Dollars(70),
	},
	{
		ID:             "svc_hm_mount",
		Trade:          Handyman,
		Name:           "Mounting (TV/shelf/mirror)",
		Summary:        "Secure mounting + leveling.",
		TypicalMinLow:  60,
		TypicalMinHigh: 180,
		MinVisitFee:    Dollars(120),
		PartsAllowance: Dollars(20),
	},
}

// partsLibrary seeds the invoice parts of a new job by service id.
var partsLibrary = map[string][]LineItem{
	"svc_pl_leak": {
		{Name: `Shutoff valve (1/2")`, Qty: 1, Unit: Dollars(18)},
		{Name: `PEX coupling (1/2")`, Qty: 2, Unit: Dollars(3)},
		{Name: "PTFE tape", Qty: 1, Unit: Dollars(2)},
		{Name: `Supply line (12–20")`, Qty: 1, Unit: Dollars(9)},
	},
	"svc_pl_clog": {
		{Name: "Drain trap kit (PVC)", Qty: 1, Unit: Dollars(12)},
		{Name: "Rubber gasket set", Qty: 1, Unit: Dollars(5)},
		{Name: "Enzyme drain cleaner (optional)", Qty: 1, Unit: Dollars(10)},
	},
	"svc_el_outlet": {
		{Name: "Duplex outlet 15A", Qty: 1, Unit: Dollars(3)},
		{Name: "GFCI outlet 15A", Qty: 1, Unit: Dollars(16)},
		{Name: "Faceplate", Qty: 1, Unit: Dollars(2)},
		{Name: "Wire nuts (pack)", Qty: 1, Unit: Dollars(4)},
	},
	"svc_hv_nocool": {
		{Name: "Capacitor (common range)", Qty: 1, Unit: Dollars(28)},
		{Name: "Contactor", Qty: 1, Unit: Dollars(18)},
		{Name: "Air filter", Qty: 1, Unit: Dollars(12)},
	},
	"svc_hm_mount": {
		{Name: "Toggle bolts/anchors", Qty: 1, Unit: Dollars(10)},
		{Name: "Lag screws (set)", Qty: 1, Unit: Dollars(8)},
		{Name: "Wall patch kit (optional)", Qty: 1, Unit: Dollars(12)},
	},
}

// Catalog returns a copy of the seeded services.
func Catalog() []Service {
	out := make([]Service, len(catalog))
	copy(out, catalog)
	return out
}

// ServiceByID looks up a catalog entry.
func ServiceByID(id string) (Service, bool) {
	for _, s := range catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// DefaultParts returns a fresh copy of the parts seeded for a service.
func DefaultParts(serviceID string) []LineItem {
	src := partsLibrary[serviceID]
	out := make([]LineItem, len(src))
	copy(out, src)
	return out
}
