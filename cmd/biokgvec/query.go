package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/hyperjump/biokgvec/internal/cli"
	"github.com/hyperjump/biokgvec/internal/config"
	"github.com/hyperjump/biokgvec/internal/labels"
	"github.com/hyperjump/biokgvec/internal/models"
	"github.com/hyperjump/biokgvec/internal/query"
	"github.com/hyperjump/biokgvec/internal/resolver"
	"github.com/hyperjump/biokgvec/internal/search"
	"github.com/hyperjump/biokgvec/pkg/utils"
)

const defaultServerURL = "http://localhost:8080"

// queryFlags are shared by the commands that can run against a server or the models directory.
type queryFlags struct {
	fs         *flag.FlagSet
	configPath *string
	serverURL  *string
	output     *string
}

func newQueryFlags(name string) *queryFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &queryFlags{
		fs:         fs,
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		serverURL:  fs.String("server", defaultServerURL, "server URL (empty = load the models directory directly)"),
		output:     fs.String("output", "text", "output format: text or json"),
	}
}

func (q *queryFlags) format() cli.OutputFormat {
	f, err := cli.ParseOutputFormat(*q.output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return f
}

// directService loads the models directory in-process. The returned func releases it.
func directService(configPath string) (*query.Service, *config.Config, func()) {
	cfg, _ := mustConfig(configPath)
	logger, err := utils.NewQuietLogger()
	if cfg.Debug {
		logger, err = utils.NewLogger(true)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	reg, err := openRegistry(context.Background(), cfg, logger, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load models: %v\n", err)
		os.Exit(1)
	}
	svc := query.NewService(reg, resolver.New(cfg.Namespaces()), query.WithLogger(logger))
	return svc, cfg, func() {
		_ = reg.Close()
		_ = logger.Sync()
	}
}

// apiError is the JSON error body returned by the server.
type apiError struct {
	Error       string              `json:"error"`
	Suggestions []labels.Suggestion `json:"suggestions,omitempty"`
}

func decodeAPIError(status int, body []byte) error {
	var e apiError
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		if len(e.Suggestions) > 0 {
			names := make([]string, len(e.Suggestions))
			for i, sg := range e.Suggestions {
				names[i] = sg.Label
			}
			return fmt.Errorf("%s (did you mean: %s)", e.Error, strings.Join(names, ", "))
		}
		return fmt.Errorf("server returned %d: %s", status, e.Error)
	}
	return fmt.Errorf("server returned %d: %s", status, strings.TrimSpace(string(body)))
}

// doJSON sends body (when non-nil) as JSON and decodes a 200 response into out.
func doJSON(method, target string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, target, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return decodeAPIError(resp.StatusCode, b)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ontologyURL builds the REST URL for an ontology-scoped endpoint.
func ontologyURL(serverURL, ontology, endpoint string) string {
	return strings.TrimRight(serverURL, "/") + "/rest/" + url.PathEscape(strings.ToUpper(ontology)) + "/" + endpoint
}

func similarityViaHTTP(serverURL, ontology string, req models.SimilarityRequest) (*models.SimilarityResult, error) {
	var res models.SimilarityResult
	if err := doJSON(http.MethodPost, ontologyURL(serverURL, ontology, "similarity"), req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func neighborsViaHTTP(serverURL, ontology string, req models.NeighborsRequest) ([]models.Neighbor, error) {
	var res []models.Neighbor
	if err := doJSON(http.MethodPost, ontologyURL(serverURL, ontology, "closest"), req, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func modelsViaHTTP(serverURL string) ([]models.ModelInfo, error) {
	var res struct {
		Models []models.ModelInfo `json:"models"`
	}
	if err := doJSON(http.MethodGet, strings.TrimRight(serverURL, "/")+"/api/v1/models", nil, &res); err != nil {
		return nil, err
	}
	return res.Models, nil
}

func runSimilarity() {
	qf := newQueryFlags("similarity")
	qf.fs.Usage = func() {
		fmt.Fprintf(qf.fs.Output(), "Usage: biokgvec similarity [flags] <ontology> <method> <id1> <id2>\n\n")
		qf.fs.PrintDefaults()
	}
	_ = qf.fs.Parse(argsReorder(os.Args[2:]))
	if qf.fs.NArg() != 4 {
		qf.fs.Usage()
		os.Exit(1)
	}
	format := qf.format()
	ontology, method := strings.ToUpper(qf.fs.Arg(0)), qf.fs.Arg(1)
	req := models.SimilarityRequest{Model: method, ID1: qf.fs.Arg(2), ID2: qf.fs.Arg(3)}

	var (
		res *models.SimilarityResult
		err error
	)
	if *qf.serverURL != "" {
		res, err = similarityViaHTTP(*qf.serverURL, ontology, req)
	} else {
		svc, _, done := directService(*qf.configPath)
		defer done()
		res, err = svc.PairwiseSimilarity(ontology, req.Model, req.ID1, req.ID2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Similarity failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSimilarity(os.Stdout, res, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runNeighbors() {
	qf := newQueryFlags("neighbors")
	topN := qf.fs.Int("top-n", search.DefaultTopN, "number of neighbors to return")
	qf.fs.Usage = func() {
		fmt.Fprintf(qf.fs.Output(), "Usage: biokgvec neighbors [flags] <ontology> <method> <id>\n\n")
		qf.fs.PrintDefaults()
	}
	_ = qf.fs.Parse(argsReorder(os.Args[2:]))
	if qf.fs.NArg() != 3 {
		qf.fs.Usage()
		os.Exit(1)
	}
	format := qf.format()
	ontology, method := strings.ToUpper(qf.fs.Arg(0)), qf.fs.Arg(1)
	n := *topN
	req := models.NeighborsRequest{Model: method, Key: qf.fs.Arg(2), TopN: &n}

	var (
		res []models.Neighbor
		err error
	)
	if *qf.serverURL != "" {
		res, err = neighborsViaHTTP(*qf.serverURL, ontology, req)
	} else {
		svc, _, done := directService(*qf.configPath)
		defer done()
		res, err = svc.NearestNeighbors(ontology, req.Model, req.Key, n)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Neighbors failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteNeighbors(os.Stdout, res, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runModels() {
	qf := newQueryFlags("models")
	_ = qf.fs.Parse(os.Args[2:])
	format := qf.format()

	var (
		infos []models.ModelInfo
		err   error
	)
	if *qf.serverURL != "" {
		infos, err = modelsViaHTTP(*qf.serverURL)
	} else {
		svc, _, done := directService(*qf.configPath)
		defer done()
		infos = svc.Models()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Models failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteModels(os.Stdout, infos, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}
