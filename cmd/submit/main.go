// Command submit sends waitlist and partnership requests to the intake API.
//
//	submit [-api URL] [-ledger FILE] waitlist -email EMAIL
//	submit [-api URL] [-ledger FILE] partner -org ORG -contact NAME -email EMAIL -phone PHONE
//	submit [-api URL] health
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/networkhq/network-intake/pkg/client"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	global := flag.NewFlagSet("submit", flag.ContinueOnError)
	apiURL := global.String("api", envOr("INTAKE_API_URL", "http://localhost:3001/api"), "intake API base URL")
	ledgerPath := global.String("ledger", os.Getenv("INTAKE_LEDGER"), "JSON file remembering submitted emails")
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: submit [flags] waitlist|partner|health [flags]")
		return 2
	}

	opts := []client.Option{}
	if *ledgerPath != "" {
		ledger, err := client.OpenFileLedger(*ledgerPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		opts = append(opts, client.WithLedger(ledger))
	}
	c := client.New(*apiURL, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "waitlist":
		fs := flag.NewFlagSet("waitlist", flag.ContinueOnError)
		email := fs.String("email", "", "email address")
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		res, err := c.SubmitWaitlist(ctx, *email)
		return report(res, err)
	case "partner":
		fs := flag.NewFlagSet("partner", flag.ContinueOnError)
		var p client.Partnership
		fs.StringVar(&p.Organization, "org", "", "organization name")
		fs.StringVar(&p.Contact, "contact", "", "contact person")
		fs.StringVar(&p.Email, "email", "", "contact email")
		fs.StringVar(&p.Phone, "phone", "", "contact phone (Dubai or India)")
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		res, err := c.SubmitPartnership(ctx, p)
		return report(res, err)
	case "health":
		h, err := c.Health(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("%s %s (%s)\n", h.Service, h.Status, h.Timestamp)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		return 2
	}
}

func report(res *client.Result, err error) int {
	var apiErr *client.APIError
	switch {
	case err == nil:
		fmt.Println(res.Message)
		if res.RequestID != "" {
			fmt.Println("request id:", res.RequestID)
		}
		return 0
	case errors.As(err, &apiErr) && apiErr.Duplicate:
		fmt.Fprintln(os.Stderr, apiErr.Message)
		return 3
	case errors.As(err, &apiErr) && apiErr.RetryAfter > 0:
		fmt.Fprintf(os.Stderr, "%s\n", apiErr.Message)
		return 4
	default:
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
