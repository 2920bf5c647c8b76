package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/milannair/tidepool-go/v1/logger"
	"github.com/milannair/tidepool-go/v1/tidepool"
)

type options struct {
	configPath  string
	queryURL    string
	ingestURL   string
	timeout     time.Duration
	namespace   string
	retries     int
	logLevel    string
	traceExport bool

	// query
	vector         string
	text           string
	topK           int
	mode           string
	metric         string
	includeVectors bool
	filter         string
	efSearch       int
	nprobe         int
	alpha          float64
	fusion         string
	rrfK           int

	changed func(name string) bool
	args    []string
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}

	fs := pflag.NewFlagSet("tidepool", pflag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "YAML config file (TIDEPOOL_* environment still applies)")
	fs.StringVar(&opts.queryURL, "query-url", "", "Query service base URL")
	fs.StringVar(&opts.ingestURL, "ingest-url", "", "Ingest service base URL")
	fs.DurationVar(&opts.timeout, "timeout", 0, "per request timeout, e.g. 5s")
	fs.StringVarP(&opts.namespace, "namespace", "n", "", "default namespace")
	fs.IntVar(&opts.retries, "retries", 1, "attempts for commands failing with 503")
	fs.StringVar(&opts.logLevel, "log-level", logger.Warning, "debug, info, warning or error")
	fs.BoolVar(&opts.traceExport, "trace-export", false, "export spans over OTLP/HTTP")

	fs.StringVar(&opts.vector, "vector", "", "query vector, comma separated")
	fs.StringVar(&opts.text, "text", "", "query text")
	fs.IntVarP(&opts.topK, "top-k", "k", 0, "number of results (default 10)")
	fs.StringVar(&opts.mode, "mode", "", "vector, text or hybrid (inferred when empty)")
	fs.StringVar(&opts.metric, "metric", "", "cosine_distance, euclidean_squared or dot_product")
	fs.BoolVar(&opts.includeVectors, "include-vectors", false, "return stored vectors")
	fs.StringVar(&opts.filter, "filter", "", "attribute filter as a JSON object")
	fs.IntVar(&opts.efSearch, "ef-search", 0, "HNSW beam width")
	fs.IntVar(&opts.nprobe, "nprobe", 0, "IVF probe count")
	fs.Float64Var(&opts.alpha, "alpha", 0, "hybrid blend weight in [0,1]")
	fs.StringVar(&opts.fusion, "fusion", "", "blend or rrf")
	fs.IntVar(&opts.rrfK, "rrf-k", 0, "reciprocal rank fusion constant")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.changed = fs.Changed
	opts.args = fs.Args()
	if len(opts.args) == 0 {
		return nil, fmt.Errorf("missing command\n%s", fs.FlagUsages())
	}
	return opts, nil
}

// clientConfig loads the file or environment configuration and applies
// explicit flags on top.
func (o *options) clientConfig() (*tidepool.Config, error) {
	var (
		cfg *tidepool.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = tidepool.LoadConfig(o.configPath)
	} else {
		cfg, err = tidepool.NewConfig()
	}
	if err != nil {
		return nil, err
	}

	if o.changed("query-url") {
		cfg.QueryURL = o.queryURL
	}
	if o.changed("ingest-url") {
		cfg.IngestURL = o.ingestURL
	}
	if o.changed("timeout") {
		cfg.WithTimeout(o.timeout)
	}
	if o.changed("namespace") {
		cfg.WithNamespace(o.namespace)
	}
	return cfg, nil
}

func (o *options) queryRequest() (tidepool.QueryRequest, error) {
	req := tidepool.QueryRequest{
		QueryOptions: tidepool.QueryOptions{
			TopK:           o.topK,
			DistanceMetric: tidepool.DistanceMetric(o.metric),
			IncludeVectors: o.includeVectors,
			EfSearch:       o.efSearch,
			NProbe:         o.nprobe,
			Text:           o.text,
			Mode:           tidepool.QueryMode(o.mode),
			Fusion:         tidepool.FusionMode(o.fusion),
		},
	}
	if o.changed("vector") {
		vector, err := parseVector(o.vector)
		if err != nil {
			return req, err
		}
		req.Vector = vector
	}
	if o.changed("alpha") {
		alpha := o.alpha
		req.Alpha = &alpha
	}
	if o.changed("rrf-k") {
		rrfK := o.rrfK
		req.RRFK = &rrfK
	}
	if o.filter != "" {
		if err := json.Unmarshal([]byte(o.filter), &req.Filters); err != nil {
			return req, fmt.Errorf("--filter must be a JSON object: %w", err)
		}
	}
	return req, nil
}

// parseVector reads "0.1, 0.2,0.3". An empty string is an empty vector so
// the client reports it.
func parseVector(raw string) (tidepool.Vector, error) {
	vector := tidepool.Vector{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := strconv.ParseFloat(part, 32)
		if err != nil {
			return nil, fmt.Errorf("--vector: %q is not a number", part)
		}
		vector = append(vector, float32(f))
	}
	return vector, nil
}
