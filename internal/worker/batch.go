package worker

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pmilanese/kinseek/internal/model"
)

// Searcher runs a single person query end to end.
type Searcher interface {
	Search(ctx context.Context, q model.SearchQuery) ([]model.PersonCluster, error)
}

// SearchJob is one person query submitted to the pool.
type SearchJob struct {
	Query    model.SearchQuery
	Searcher Searcher
}

// Execute runs the search job.
func (j *SearchJob) Execute(ctx context.Context) Result {
	clusters, err := j.Searcher.Search(ctx, j.Query)
	return &SearchOutcome{Query: j.Query, Clusters: clusters, Error: err}
}

// SearchOutcome is the result of one person query.
type SearchOutcome struct {
	Query    model.SearchQuery
	Clusters []model.PersonCluster
	Error    error
}

// GetError returns the error from the search outcome.
func (r *SearchOutcome) GetError() error {
	return r.Error
}

// BatchProcessor runs many person queries concurrently.
type BatchProcessor struct {
	searcher    Searcher
	concurrency int
}

// NewBatchProcessor creates a new batch processor.
func NewBatchProcessor(searcher Searcher, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		searcher:    searcher,
		concurrency: concurrency,
	}
}

// ProcessQueries runs the queries through a worker pool. The searches run
// under ctx, so cancelling it or hitting its deadline stops the batch.
func (b *BatchProcessor) ProcessQueries(ctx context.Context, queries []model.SearchQuery) []*SearchOutcome {
	if len(queries) == 0 {
		return []*SearchOutcome{}
	}

	pool := NewPoolContext(ctx, b.concurrency)
	pool.Start()

	for _, q := range queries {
		pool.Submit(&SearchJob{Query: q, Searcher: b.searcher})
	}

	results := pool.Wait()

	outcomes := make([]*SearchOutcome, len(results))
	for i, result := range results {
		outcomes[i] = result.(*SearchOutcome)
	}
	return outcomes
}

// ProcessFile reads person queries from a CSV file and runs them.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*SearchOutcome, error) {
	queries, err := ReadQueriesFromCSV(filePath)
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	return b.ProcessQueries(ctx, queries), nil
}

// ReadQueriesFromCSV reads person queries from a CSV file with a
// given_name,surname,birth_year,location header. Column order follows the
// header; birth_year and location may be empty.
func ReadQueriesFromCSV(filePath string) ([]model.SearchQuery, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return parseQueriesCSV(file)
}

func parseQueriesCSV(r io.Reader) ([]model.SearchQuery, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["surname"]; !ok {
		return nil, fmt.Errorf("missing surname column")
	}

	field := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var queries []model.SearchQuery
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		q := model.SearchQuery{
			GivenName: field(row, "given_name"),
			Surname:   field(row, "surname"),
			Location:  field(row, "location"),
		}
		if y := field(row, "birth_year"); y != "" {
			year, err := strconv.Atoi(y)
			if err != nil {
				return nil, fmt.Errorf("bad birth_year %q: %w", y, err)
			}
			q.BirthYear = &year
		}
		if q.Validate() != nil {
			continue
		}
		queries = append(queries, q)
	}
	return queries, nil
}
