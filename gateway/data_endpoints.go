package gateway

import (
	"context"
	"net/http"

	"github.com/storecount/go-footfall-client/stores"
	"github.com/storecount/go-footfall-client/traffic"
)

const (
	defaultStartTime = "00:00"
	defaultEndTime   = "23:59"
)

// FetchStores lists the stores linked to the logged-in user. An empty list
// is a valid result, not an error.
func (c *Client) FetchStores(ctx context.Context) ([]stores.Store, error) {
	email, err := c.identity()
	if err != nil {
		return nil, err
	}

	text, err := c.do(ctx, http.MethodPost, "/stores/by_user", map[string]string{"email": email}, true)
	if err != nil {
		return nil, err
	}

	payload, err := decode[struct {
		Stores []stores.Store `json:"stores"`
	}](text)
	if err != nil {
		return nil, err
	}
	if payload.Stores == nil {
		return []stores.Store{}, nil
	}
	return payload.Stores, nil
}

// FetchToday picks the first store with cameras from candidates and fetches
// its data for today. It returns the raw day map and the name of the store
// it picked.
func (c *Client) FetchToday(ctx context.Context, candidates []stores.Store) (traffic.DayData, string, error) {
	if len(candidates) == 0 {
		return nil, "", Errorf(KindWarning, "You don't have a store")
	}
	store, ok := stores.FirstActive(candidates)
	if !ok {
		return nil, "", Errorf(KindWarning, "None of your stores have cameras")
	}
	data, err := c.fetchDay(ctx, map[string]any{
		"store": store.Name,
		"day":   c.today(),
	})
	return data, store.Name, err
}

// FetchTodayFor fetches today's data for one specific store.
func (c *Client) FetchTodayFor(ctx context.Context, store stores.Store) (traffic.DayData, error) {
	if !store.Active() {
		return nil, Errorf(KindWarning, "Your store has no cameras")
	}
	return c.fetchDay(ctx, map[string]any{
		"store": store.Name,
		"day":   c.today(),
	})
}

// FetchByDay returns per-day enter totals for a single day.
func (c *Client) FetchByDay(ctx context.Context, store, day string) ([]traffic.DailyTotal, error) {
	raw, err := c.FetchByDayRaw(ctx, store, day)
	if err != nil {
		return nil, err
	}
	return traffic.DailyTotals(raw), nil
}

// FetchByDayRaw returns the unreduced entry map for a single day.
func (c *Client) FetchByDayRaw(ctx context.Context, store, day string) (traffic.DayData, error) {
	if store == "" || day == "" {
		return nil, Errorf(KindWarning, "'store' and 'day' are required")
	}
	return c.fetchDay(ctx, map[string]any{"store": store, "day": day})
}

// FetchByDays returns per-day enter totals for an explicit day list.
func (c *Client) FetchByDays(ctx context.Context, store string, days []string) ([]traffic.DailyTotal, error) {
	raw, err := c.FetchByDaysRaw(ctx, store, days)
	if err != nil {
		return nil, err
	}
	return traffic.DailyTotals(raw), nil
}

// FetchByDaysRaw returns the unreduced entry map for an explicit day list.
func (c *Client) FetchByDaysRaw(ctx context.Context, store string, days []string) (traffic.DayData, error) {
	if store == "" || len(days) == 0 {
		return nil, Errorf(KindWarning, "'store' and non-empty 'days' list required")
	}
	return c.fetchDay(ctx, map[string]any{"store": store, "days": days})
}

// FetchByTime returns the entry map for one day restricted to a time window.
// Empty startTime/endTime default to the whole day.
func (c *Client) FetchByTime(ctx context.Context, store, date, startTime, endTime string) (traffic.DayData, error) {
	if store == "" || date == "" {
		return nil, Errorf(KindWarning, "'store' and 'date' are required")
	}
	startTime, endTime = timeWindow(startTime, endTime)

	text, err := c.do(ctx, http.MethodPost, "/store_data/time", map[string]any{
		"store":     store,
		"date":      date,
		"startTime": startTime,
		"endTime":   endTime,
	}, true)
	if err != nil {
		return nil, err
	}
	return decode[traffic.DayData](text)
}

// FetchByPeriod returns per-day enter totals over a date range, sorted
// ascending by date.
func (c *Client) FetchByPeriod(ctx context.Context, store, start, end string) ([]traffic.DailyTotal, error) {
	raw, err := c.FetchByPeriodRaw(ctx, store, start, end)
	if err != nil {
		return nil, err
	}
	return traffic.DailyTotals(raw), nil
}

// FetchByPeriodRaw returns the unreduced entry map over a date range.
func (c *Client) FetchByPeriodRaw(ctx context.Context, store, start, end string) (traffic.DayData, error) {
	if store == "" || start == "" {
		return nil, Errorf(KindWarning, "'store' and 'start' are required")
	}

	text, err := c.do(ctx, http.MethodPost, "/store_data/period", map[string]any{
		"store": store,
		"start": start,
		"end":   end,
	}, true)
	if err != nil {
		return nil, err
	}
	return decode[traffic.DayData](text)
}

// FetchByDaysTime returns the entry map for an explicit day list restricted
// to a time window.
func (c *Client) FetchByDaysTime(ctx context.Context, store string, days []string, startTime, endTime string) (traffic.DayData, error) {
	if store == "" || len(days) == 0 {
		return nil, Errorf(KindWarning, "'store' and non-empty 'days' list required")
	}
	startTime, endTime = timeWindow(startTime, endTime)

	text, err := c.do(ctx, http.MethodPost, "/store_data/days_time", map[string]any{
		"store":     store,
		"days":      days,
		"startTime": startTime,
		"endTime":   endTime,
	}, true)
	if err != nil {
		return nil, err
	}
	return decode[traffic.DayData](text)
}

func (c *Client) fetchDay(ctx context.Context, payload map[string]any) (traffic.DayData, error) {
	text, err := c.do(ctx, http.MethodPost, "/store_data/day", payload, true)
	if err != nil {
		return nil, err
	}
	return decode[traffic.DayData](text)
}

func (c *Client) today() string {
	return c.nowTime().UTC().Format("2006-01-02")
}

func timeWindow(startTime, endTime string) (string, string) {
	if startTime == "" {
		startTime = defaultStartTime
	}
	if endTime == "" {
		endTime = defaultEndTime
	}
	return startTime, endTime
}
