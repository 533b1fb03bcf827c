// Package main provides the trace-search CLI: search, result re-fetch,
// index lookup, and leak record import against a running server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracefind/trace-search/internal/bus"
	"github.com/tracefind/trace-search/internal/client"
	"github.com/tracefind/trace-search/internal/config"
	"github.com/tracefind/trace-search/internal/leakstore"
	"github.com/tracefind/trace-search/internal/result"
	"github.com/tracefind/trace-search/internal/search"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trace-search",
		Short: "Trace Search - people-search aggregation CLI",
		Long: `Trace Search queries a trace-search server: it submits searches,
re-fetches cached responses, and looks terms up in the full-text index.

Run 'trace-search search --name "John Doe"' to search.
Run 'trace-search --help' for available commands.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "server base URL")
	rootCmd.PersistentFlags().String("api-key", "", "API key (or TRACE_API_KEY)")
	rootCmd.PersistentFlags().Bool("json", false, "print raw JSON responses")

	rootCmd.AddCommand(
		searchCmd(),
		getCmd(),
		lookupCmd(),
		healthCmd(),
		leaksCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient(cmd *cobra.Command) *client.Client {
	baseURL, _ := cmd.Flags().GetString("server")
	apiKey, _ := cmd.Flags().GetString("api-key")
	if apiKey == "" {
		apiKey = os.Getenv("TRACE_API_KEY")
	}

	cfg := client.DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.APIKey = apiKey
	return client.New(cfg)
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a search across all capable providers",
		Long: `Submit a search. At least one identifying field is required; the
server decides which providers can act on the fields given.

Examples:
  trace-search search --name "John Doe" --city Springfield
  trace-search search --email john.doe@example.com --threshold 0.5
  trace-search search --phone 555-123-4567 --kind person --max 20`,
		RunE: runSearch,
	}

	cmd.Flags().String("kind", "person", "query kind (person, business, criminal, property, advanced)")
	cmd.Flags().String("name", "", "full name")
	cmd.Flags().String("email", "", "email address")
	cmd.Flags().String("phone", "", "phone number")
	cmd.Flags().String("address", "", "street address")
	cmd.Flags().String("username", "", "online username")
	cmd.Flags().String("city", "", "city")
	cmd.Flags().String("state", "", "state")
	cmd.Flags().Float64("threshold", 0, "confidence threshold override (0,1]")
	cmd.Flags().Int("max", 0, "maximum results")
	cmd.Flags().StringSlice("sources", nil, "restrict to these sources")
	cmd.Flags().StringSlice("exclude-sources", nil, "exclude these sources")

	return cmd
}

func runSearch(cmd *cobra.Command, _ []string) error {
	fields := make(map[string]any)
	for _, name := range []string{"name", "email", "phone", "address", "username", "city", "state"} {
		if v, _ := cmd.Flags().GetString(name); v != "" {
			fields[name] = v
		}
	}
	if len(fields) == 0 {
		return fmt.Errorf("at least one search field is required")
	}

	kind, _ := cmd.Flags().GetString("kind")
	req := search.Request{
		Kind:   kind,
		Fields: fields,
	}

	if threshold, _ := cmd.Flags().GetFloat64("threshold"); threshold > 0 {
		req.ConfidenceThreshold = &threshold
	}
	if max, _ := cmd.Flags().GetInt("max"); max > 0 {
		req.MaxResults = max
	}

	sources, _ := cmd.Flags().GetStringSlice("sources")
	exclude, _ := cmd.Flags().GetStringSlice("exclude-sources")
	if len(sources) > 0 || len(exclude) > 0 {
		req.Filters = &result.Filters{
			Sources:        sources,
			ExcludeSources: exclude,
		}
	}

	resp, err := newClient(cmd).Search(cmd.Context(), req)
	if err != nil {
		return err
	}
	return printResponse(cmd, resp)
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <query-id>",
		Short: "Re-fetch a cached search response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient(cmd).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResponse(cmd, resp)
		},
	}
}

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <term>",
		Short: "Look a term up in the full-text result index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.Join(args, " ")
			resp, err := newClient(cmd).Lookup(cmd.Context(), term)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(resp)
			}

			fmt.Printf("%d document(s) for %q\n", resp.Total, resp.Term)
			for _, doc := range resp.Docs {
				fmt.Printf("  [%.2f] %s/%s query=%s\n", doc.Confidence, doc.Source, doc.DataType, doc.QueryID)
			}
			return nil
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient(cmd).Health(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(resp)
			}

			fmt.Printf("status: %s\n", resp.Status)
			for name, comp := range resp.Components {
				fmt.Printf("  %-10s %s", name, comp.Status)
				if comp.Message != "" {
					fmt.Printf(" (%s)", comp.Message)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func leaksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaks",
		Short: "Manage the breach record store",
	}
	cmd.AddCommand(leaksImportCmd())
	return cmd
}

func leaksImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <csv-file>",
		Short: "Import breach records from a CSV file",
		Long: `Import breach records directly into the redis-backed leak store.
The CSV must carry a header row; recognized columns are email, username,
password, breach_name, and breach_date. Rows without a valid email are
skipped, and passwords are never stored, only their presence.`,
		Args: cobra.ExactArgs(1),
		RunE: runLeaksImport,
	}

	cmd.Flags().String("redis", "redis://localhost:6379", "redis URL of the leak store")
	cmd.Flags().String("source", "", "breach source label (defaults to the file name)")
	cmd.Flags().String("kafka-brokers", "", "announce the import on these Kafka brokers (comma-separated)")

	return cmd
}

func runLeaksImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	redisURL, _ := cmd.Flags().GetString("redis")
	source, _ := cmd.Flags().GetString("source")
	if source == "" {
		source = strings.TrimSuffix(path[strings.LastIndex(path, "/")+1:], ".csv")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	store, err := leakstore.NewStore(redisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to leak store: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	stats, err := store.ImportCSV(ctx, f, source)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("imported %d record(s), skipped %d, in %s\n",
		stats.Imported, stats.Skipped, time.Since(start).Round(time.Millisecond))

	// Announce the import so running servers can react to fresh records.
	if brokers, _ := cmd.Flags().GetString("kafka-brokers"); brokers != "" {
		if err := announceImport(ctx, brokers, source, stats); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to announce import: %v\n", err)
		}
	}
	return nil
}

func announceImport(ctx context.Context, brokers, source string, stats leakstore.ImportStats) error {
	eventBus, err := bus.NewBus(config.BusConfig{Type: "kafka", KafkaBrokers: brokers})
	if err != nil {
		return err
	}
	defer eventBus.Close()

	event := bus.NewEvent(bus.TopicLeaksImported, "", map[string]any{
		"source":   source,
		"imported": stats.Imported,
		"skipped":  stats.Skipped,
	})
	return eventBus.Publish(ctx, bus.TopicLeaksImported, event)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("trace-search %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}

func printResponse(cmd *cobra.Command, resp *result.RankedResponse) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(resp)
	}

	fmt.Printf("query %s: %d result(s) in %dms from %s\n",
		resp.QueryID, resp.Total, resp.SearchTimeMs, strings.Join(resp.SourcesQueried, ", "))
	for i, r := range resp.Results {
		fmt.Printf("%2d. [%.2f] %s/%s\n", i+1, r.Confidence, r.Source, r.DataType)
		for _, field := range []string{"name", "email", "phone", "address"} {
			if v, ok := r.Field(field); ok {
				fmt.Printf("      %s: %s\n", field, v)
			}
		}
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
