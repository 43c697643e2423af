// rg11 queries rg11d daemons: human readable status, raw JSON, or the
// list of configured stations. Exits 0 on success, 1 on any failure.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/warwick-one-metre/rg11d/internal/client"
)

const usage = `usage: rg11 [-config path] <command> [station]

commands:
  status [station]   print unsafe/total sensor counts and timestamp
  json [station]     print the raw measurement record ({} when absent)
  list-stations      print the configured station identifiers
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rg11", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to the stations config file")
	timeout := fs.Duration("timeout", 5*time.Second, "query timeout")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if fs.NArg() < 1 {
		fmt.Fprint(stderr, usage)
		return 1
	}
	command := fs.Arg(0)
	stationID := fs.Arg(1)

	path := *configPath
	if path == "" {
		path = strings.TrimSpace(os.Getenv("RG11_CONFIG"))
	}
	if path == "" {
		path = client.DefaultStationsPath
	}

	stations, err := client.LoadStations(path)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	switch command {
	case "list-stations":
		for _, s := range stations {
			fmt.Fprintln(stdout, s.ID)
		}
		return 0

	case "status", "json":
		station, err := client.FindStation(stations, stationID)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}

		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()

		c := client.New(*timeout)
		rec, ok, err := c.LastMeasurement(ctx, station)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}

		if command == "json" {
			if !ok {
				fmt.Fprintln(stdout, "{}")
				return 0
			}
			data, err := json.Marshal(rec)
			if err != nil {
				fmt.Fprintf(stderr, "error: %v\n", err)
				return 1
			}
			fmt.Fprintln(stdout, string(data))
			return 0
		}

		if !ok {
			fmt.Fprintf(stderr, "error: no data available from station %q\n", station.ID)
			return 1
		}
		fmt.Fprintln(stdout, client.FormatStatus(rec))
		return 0

	default:
		fmt.Fprintf(stderr, "error: unrecognized command %q\n", command)
		fmt.Fprint(stderr, usage)
		return 1
	}
}
