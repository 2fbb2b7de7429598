package traffic

// QueryKind selects which backend query and which rendering a charted data
// set uses.
type QueryKind int

const (
	QueryToday QueryKind = iota
	QuerySingleDay
	QueryPeriod
	QuerySelectedDays
)

func (k QueryKind) String() string {
	switch k {
	case QueryToday:
		return "today"
	case QuerySingleDay:
		return "single"
	case QueryPeriod:
		return "period"
	case QuerySelectedDays:
		return "days"
	}
	return "unknown"
}

// Query describes what is currently charted: the store, the kind of time
// selection and its parameters. It is ephemeral; nothing persists it.
type Query struct {
	Kind      QueryKind
	Store     string
	Date      string   // single day / today
	StartDate string   // period
	EndDate   string   // period
	Days      []string // selected days
	StartTime string   // optional time window, defaults to 00:00
	EndTime   string   // optional time window, defaults to 23:59
}
