package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	evbus "github.com/asaskevich/EventBus"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/prometheus/client_golang/prometheus"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/activitymap"
	"github.com/goliatone/go-auth-client/eventbus"
	"github.com/goliatone/go-auth-client/internal/config"
	"github.com/goliatone/go-auth-client/metrics"
	"github.com/goliatone/go-auth-client/store"
	"github.com/goliatone/go-auth-client/transport/httpexec"
)

// Runtime holds the collaborators a command runs against.
type Runtime struct {
	Config       config.Config
	Orchestrator *authclient.Orchestrator
	Store        store.Store
	Bus          evbus.Bus
	Registry     *prometheus.Registry

	logger authclient.Logger
	out    io.Writer
}

// NewRuntime wires the store, HTTP client, metrics and event bus into an
// orchestrator. Pending auto-login work has finished when it returns.
func NewRuntime(ctx context.Context, cfg config.Config, out io.Writer) (*Runtime, error) {
	if err := cfg.Auth.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid auth configuration")
	}

	lgr := newLogger(cfg.Verbose)
	logger := lgr.GetLogger("authctl")

	secrets, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to open secure store").
			WithMetadata(map[string]any{"driver": cfg.Store.Driver})
	}

	client := httpexec.New(httpexec.Config{
		Timeout:   cfg.HTTP.Timeout,
		UserAgent: cfg.HTTP.UserAgent,
		Logger:    lgr.GetLogger("authclient.httpexec"),
	})

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry, "authctl")

	bus := evbus.New()
	bridge := eventbus.NewBridge(bus)
	if err := bus.Subscribe(bridge.Topic(eventbus.SuffixActivity), func(event authclient.ActivityEvent) {
		record := activitymap.Normalize(event, activitymap.WithActorID("authctl"))
		logger.Debug("auth activity",
			"verb", record.Verb,
			"object", record.ObjectID,
			"metadata", record.Metadata,
		)
	}); err != nil {
		_ = secrets.Close()
		return nil, err
	}

	orch := authclient.New(client, secrets, cfg.Auth,
		authclient.WithLoggerProvider(lgr),
		authclient.WithActivitySink(bridge),
		authclient.WithMetrics(collector),
		authclient.WithObservers(bridge),
	)
	orch.Wait()

	return &Runtime{
		Config:       cfg,
		Orchestrator: orch,
		Store:        secrets,
		Bus:          bus,
		Registry:     registry,
		logger:       logger,
		out:          out,
	}, nil
}

// Close waits for background work and releases the store.
func (r *Runtime) Close() error {
	r.Orchestrator.Wait()
	return r.Store.Close()
}

// Print writes v as JSON to the output.
func (r *Runtime) Print(v any) {
	fmt.Fprintln(r.out, print.MaybePrettyJSON(v))
}

// PrintMetrics writes the gathered samples keyed by metric name and labels.
func (r *Runtime) PrintMetrics() error {
	families, err := r.Registry.Gather()
	if err != nil {
		return err
	}

	samples := map[string]float64{}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			labels := make([]string, 0, len(metric.GetLabel()))
			for _, pair := range metric.GetLabel() {
				labels = append(labels, pair.GetName()+"="+pair.GetValue())
			}
			sort.Strings(labels)

			key := family.GetName()
			if len(labels) > 0 {
				key += "{" + strings.Join(labels, ",") + "}"
			}

			switch {
			case metric.GetCounter() != nil:
				samples[key] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				samples[key] = metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				samples[key+"_count"] = float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}

	r.Print(samples)
	return nil
}

func newLogger(verbose bool) *glog.BaseLogger {
	if verbose {
		return glog.NewLogger(
			glog.WithLoggerTypePretty(),
			glog.WithLevel(glog.Trace),
			glog.WithName("authctl"),
			glog.WithAddSource(false),
			glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
		)
	}

	return glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithName("authctl"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
	)
}
