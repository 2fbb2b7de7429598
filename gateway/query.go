package gateway

import (
	"context"

	"github.com/storecount/go-footfall-client/traffic"
)

// FetchForQuery resolves a chart query to the raw per-day entry map, the
// shape the CSV export works from.
func (c *Client) FetchForQuery(ctx context.Context, q traffic.Query) (traffic.DayData, error) {
	switch q.Kind {
	case traffic.QueryToday:
		return c.FetchByDayRaw(ctx, q.Store, c.today())
	case traffic.QuerySingleDay:
		return c.FetchByDayRaw(ctx, q.Store, q.Date)
	case traffic.QueryPeriod:
		return c.FetchByPeriodRaw(ctx, q.Store, q.StartDate, q.EndDate)
	case traffic.QuerySelectedDays:
		return c.FetchByDaysTime(ctx, q.Store, q.Days, q.StartTime, q.EndTime)
	}
	return nil, Errorf(KindError, "unsupported query kind %q", q.Kind)
}
