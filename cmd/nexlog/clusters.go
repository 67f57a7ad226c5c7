package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/grafana/nexlog/modules/scheduler"
)

// runClustersCommand implements the `nexlog clusters` subcommand: it hits a
// running nexlog's GET /clusters and renders the drain-tree clusters as a
// table, grounded on backendscheduler.BackendScheduler.StatusHandler's
// go-pretty/table usage for rendering scheduler-internal state as text.
func runClustersCommand(args []string) error {
	fs := flag.NewFlagSet("clusters", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:3100", "Address of a running nexlog's HTTP query surface.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := http.Get(*addr + "/clusters")
	if err != nil {
		return fmt.Errorf("failed to fetch clusters: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Clusters []scheduler.Cluster `json:"clusters"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode clusters response: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"source", "level", "count", "template"})
	for _, c := range body.Clusters {
		t.AppendRow(table.Row{c.SourceID, c.Level.String(), c.Count, c.Template})
	}
	t.Render()

	return nil
}
