package main

import (
	"context"
	"fmt"
	"github.com/ivanpodgorny/bolexport/internal/client"
	"github.com/ivanpodgorny/bolexport/internal/config"
	"github.com/ivanpodgorny/bolexport/internal/entity"
	"github.com/ivanpodgorny/bolexport/internal/logging"
	"github.com/ivanpodgorny/bolexport/internal/service"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"
)

func main() {
	if service.Failed(Execute(os.Stdout)) > 0 {
		os.Exit(1)
	}
}

// Execute выполняет проверки и печатает их результаты в out. При ошибке конфигурации
// проверки API не выполняются и считаются непройденными.
func Execute(out io.Writer) []entity.HealthCheckResult {
	cfg, err := config.NewBuilder().LoadDotEnv().LoadEnv().LoadFlags().Build()
	if err != nil {
		results := append([]entity.HealthCheckResult{service.ConfigurationResult("", err)}, service.Skipped()...)
		printResults(out, results, false)

		return results
	}

	results := []entity.HealthCheckResult{service.ConfigurationResult(cfg.APIBase(), nil)}

	logger, closeLog, err := logging.New(os.Stderr, "", cfg.Verbose(), time.Now())
	if err != nil {
		results[0] = service.ConfigurationResult(cfg.APIBase(), err)
		results = append(results, service.Skipped()...)
		printResults(out, results, cfg.Verbose())

		return results
	}

	defer func() {
		_ = closeLog()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	bol := client.NewBol(
		cfg.APIBase(),
		cfg.TokenURL(),
		cfg.ClientID(),
		cfg.ClientSecret(),
		client.WithLogger(logger),
		client.WithTimeout(cfg.HTTPTimeout()),
	)
	results = append(results, service.NewHealth(bol, logger).Check(ctx)...)
	printResults(out, results, cfg.Verbose())

	return results
}

func printResults(out io.Writer, results []entity.HealthCheckResult, verbose bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, r := range results {
		status := "[PASS]"
		if !r.Passed {
			status = "[FAIL]"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", status, r.Name, r.Message)

		if !verbose {
			continue
		}

		keys := make([]string, 0, len(r.Details))
		for k := range r.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "\t  %s\t%v\n", k, r.Details[k])
		}
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "%d/%d checks passed\n", len(results)-service.Failed(results), len(results))
}
