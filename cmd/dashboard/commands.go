package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/storecount/go-footfall-client/export"
	"github.com/storecount/go-footfall-client/gateway"
	"github.com/storecount/go-footfall-client/internal/config"
	"github.com/storecount/go-footfall-client/internal/utils"
	"github.com/storecount/go-footfall-client/login"
	"github.com/storecount/go-footfall-client/session"
	"github.com/storecount/go-footfall-client/stores"
	"github.com/storecount/go-footfall-client/traffic"
)

type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	sessions *session.Store
	gw       *gateway.Client
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.cmdLogin(ctx)
	case "status":
		return a.cmdStatus()
	case "stores":
		return a.cmdStores(ctx)
	case "today":
		return a.cmdToday(ctx, args)
	case "day":
		return a.cmdDay(ctx, args)
	case "period":
		return a.cmdPeriod(ctx, args)
	case "days":
		return a.cmdDays(ctx, args)
	case "export":
		return a.cmdExport(ctx, args)
	case "account":
		return a.cmdAccount(ctx, args)
	case "logout":
		if err := a.sessions.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	}
	return errors.Errorf("unknown command %q, try `dashboard help`", command)
}

func (a *app) cmdLogin(ctx context.Context) error {
	displayAppname(a.cfg.AppName)

	flow, err := login.NewFlow(a.gw)
	if err != nil {
		return err
	}
	reader := bufio.NewReader(os.Stdin)

	for flow.State() == login.StateAnonymous {
		email, err := prompt(reader, "Email: ")
		if err != nil {
			return err
		}
		password, err := prompt(reader, "Password: ")
		if err != nil {
			return err
		}
		if err := flow.SubmitCredentials(ctx, email, password); err != nil {
			a.notify(err)
			continue
		}
		fmt.Println("Pincode sent to your email. Please check.")
	}

	for flow.State() == login.StatePincodeRequested {
		pincode, err := prompt(reader, "Enter 6-digit pincode: ")
		if err != nil {
			return err
		}
		if err := flow.SubmitPincode(ctx, pincode); err != nil {
			a.notify(errors.New("Invalid or expired pincode."))
			continue
		}
	}

	fmt.Printf("Logged in as %s.\n", flow.Email())
	return nil
}

func (a *app) cmdStatus() error {
	status, err := a.sessions.Status()
	if err != nil {
		return err
	}
	if !status.LoggedIn {
		fmt.Println("Not logged in.")
		return nil
	}
	fmt.Printf("Logged in as %s\n", status.Email)
	if !status.Expiry.IsZero() {
		fmt.Printf("Access token expires %s\n", status.Expiry.Format(time.RFC1123))
	}
	if status.Subject != "" {
		fmt.Printf("Subject: %s\n", status.Subject)
	}
	return nil
}

func (a *app) cmdStores(ctx context.Context) error {
	list, err := a.gw.FetchStores(ctx)
	if err != nil {
		return a.classify(err)
	}
	active := stores.ActiveStores(list)
	if len(active) == 0 {
		fmt.Println("No stores with cameras.")
		return nil
	}
	for _, s := range active {
		fmt.Printf("%s (%d cameras)\n", s.Name, len(s.Cameras))
	}
	return nil
}

func (a *app) cmdToday(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("today", flag.ContinueOnError)
	storeName := fs.String("store", "", "store name (defaults to the first store with cameras)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := a.gw.FetchStores(ctx)
	if err != nil {
		return a.classify(err)
	}

	var data traffic.DayData
	name := *storeName
	if name == "" {
		data, name, err = a.gw.FetchToday(ctx, list)
	} else {
		data, err = a.gw.FetchTodayFor(ctx, findStore(list, name))
	}
	if err != nil {
		return a.classify(err)
	}

	fmt.Printf("%s – Today\n", name)
	for _, date := range data.Dates() {
		printHourly(traffic.HourlyBuckets(data[date]))
	}
	return nil
}

func (a *app) cmdDay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("day", flag.ContinueOnError)
	storeName := fs.String("store", "", "store name")
	date := fs.String("date", "", "day to query (YYYY-MM-DD)")
	from := fs.String("from", "", "window start (HH:MM)")
	to := fs.String("to", "", "window end (HH:MM)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, err := a.gw.FetchByTime(ctx, *storeName, *date, *from, *to)
	if err != nil {
		return a.classify(err)
	}

	fmt.Printf("%s – %s\n", *storeName, *date)
	for _, d := range data.Dates() {
		printHourly(traffic.HourlyBuckets(data[d]))
	}
	return nil
}

func (a *app) cmdPeriod(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("period", flag.ContinueOnError)
	storeName := fs.String("store", "", "store name")
	start := fs.String("start", "", "range start (YYYY-MM-DD)")
	end := fs.String("end", "", "range end (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	totals, err := a.gw.FetchByPeriod(ctx, *storeName, *start, *end)
	if err != nil {
		return a.classify(err)
	}

	fmt.Printf("%s – %s → %s\n", *storeName, *start, *end)
	printTotals(totals)
	return nil
}

func (a *app) cmdDays(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("days", flag.ContinueOnError)
	storeName := fs.String("store", "", "store name")
	var days stringList
	fs.Var(&days, "date", "day to include (repeatable, YYYY-MM-DD)")
	from := fs.String("from", "", "window start (HH:MM)")
	to := fs.String("to", "", "window end (HH:MM)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, err := a.gw.FetchByDaysTime(ctx, *storeName, days, *from, *to)
	if err != nil {
		return a.classify(err)
	}

	fmt.Printf("%s – Multiple Days\n", *storeName)
	printTotals(traffic.DailyTotals(data))
	return nil
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	storeName := fs.String("store", "", "store name")
	start := fs.String("start", "", "range start (YYYY-MM-DD)")
	end := fs.String("end", "", "range end (YYYY-MM-DD)")
	var days stringList
	fs.Var(&days, "date", "day to include (repeatable; one day exports that day)")
	from := fs.String("from", "", "window start (HH:MM)")
	to := fs.String("to", "", "window end (HH:MM)")
	outDir := fs.String("out", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	query := buildQuery(*storeName, *start, *end, days, *from, *to)
	data, err := a.gw.FetchForQuery(ctx, query)
	if err != nil {
		return a.classify(err)
	}

	filename := export.Filename(query, data)
	path := filepath.Join(*outDir, filename)
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "[cmdExport] create file")
	}
	defer file.Close()

	if err := export.Write(file, data); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func (a *app) cmdAccount(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("account needs a subcommand: update-password, update-email or delete")
	}
	reader := bufio.NewReader(os.Stdin)

	switch args[0] {
	case "update-password":
		oldPassword, err := prompt(reader, "Current password: ")
		if err != nil {
			return err
		}
		password, err := prompt(reader, "New password: ")
		if err != nil {
			return err
		}
		_, err = a.gw.UpdateUser(ctx, gateway.UpdateUserParams{
			OldPassword: utils.Ptr(oldPassword),
			Password:    utils.Ptr(password),
		})
		if err != nil {
			return a.classify(err)
		}
		fmt.Println("Password updated.")
		return nil

	case "update-email":
		newEmail, err := prompt(reader, "New email: ")
		if err != nil {
			return err
		}
		_, err = a.gw.UpdateUser(ctx, gateway.UpdateUserParams{NewEmail: utils.Ptr(newEmail)})
		if err != nil {
			return a.classify(err)
		}
		fmt.Println("Email updated. Please log in again.")
		return nil

	case "delete":
		confirm, err := prompt(reader, "Type DELETE to remove the account: ")
		if err != nil {
			return err
		}
		if confirm != "DELETE" {
			fmt.Println("Aborted.")
			return nil
		}
		if _, err := a.gw.DeleteUser(ctx); err != nil {
			return a.classify(err)
		}
		fmt.Println("Account deleted.")
		return nil
	}
	return errors.Errorf("unknown account subcommand %q", args[0])
}

// classify renders warnings as notices and passes real errors through.
func (a *app) classify(err error) error {
	if classified, ok := gateway.AsClassified(err); ok && classified.Kind == gateway.KindWarning {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", classified.Message)
		return nil
	}
	return err
}

func (a *app) notify(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
}

func buildQuery(store, start, end string, days []string, from, to string) traffic.Query {
	q := traffic.Query{Store: store, StartTime: from, EndTime: to}
	switch {
	case len(days) > 1:
		q.Kind = traffic.QuerySelectedDays
		q.Days = days
	case start != "":
		q.Kind = traffic.QueryPeriod
		q.StartDate = start
		q.EndDate = end
	case len(days) == 1:
		q.Kind = traffic.QuerySingleDay
		q.Date = days[0]
	default:
		q.Kind = traffic.QueryToday
		q.Date = time.Now().UTC().Format("2006-01-02")
	}
	return q
}

func findStore(list []stores.Store, name string) stores.Store {
	for _, s := range list {
		if s.Name == name {
			return s
		}
	}
	return stores.Store{Name: name}
}

func printTotals(totals []traffic.DailyTotal) {
	max := 0
	for _, t := range totals {
		if t.Total > max {
			max = t.Total
		}
	}
	for _, t := range totals {
		fmt.Printf("%s %6d %s\n", t.Date, t.Total, bar(t.Total, max))
	}
}

func printHourly(buckets [24]traffic.HourlyBucket) {
	max := 0
	for _, b := range buckets {
		if b.Enter > max {
			max = b.Enter
		}
	}
	for hour, b := range buckets {
		fmt.Printf("%02d:00 %6d %s\n", hour, b.Enter, bar(b.Enter, max))
	}
}

func bar(value, max int) string {
	const width = 40
	if max == 0 || value <= 0 {
		return ""
	}
	n := value * width / max
	if n == 0 {
		n = 1
	}
	return strings.Repeat("#", n)
}

func prompt(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line == "" {
		return "", errors.Wrap(err, "[prompt] input closed")
	}
	return line, nil
}

type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}
