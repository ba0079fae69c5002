package graphstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/redis/go-redis/v9"
)

// Querier executes parameterized Cypher against a named graph. The
// concrete implementation talks GRAPH.QUERY to a FalkorDB-compatible
// server; tests substitute a fake.
type Querier interface {
	Query(ctx context.Context, cypher string, params map[string]any) (QueryResult, error)
}

// Graph is a Cypher transport over a single named graph held in a
// FalkorDB-compatible Redis server.
type Graph struct {
	Name string
	Conn redis.UniversalClient
}

// NewGraph creates a transport for the named graph.
func NewGraph(name string, conn redis.UniversalClient) *Graph {
	return &Graph{
		Name: name,
		Conn: conn,
	}
}

// QueryResult represents the tabular result of a Cypher query.
type QueryResult struct {
	Header     []string
	Results    [][]interface{}
	Statistics []string
}

// Query executes a Cypher query with parameters. Parameters are rendered
// as a "CYPHER name=value" prefix, the parameterization form the
// GRAPH.QUERY protocol understands; values are escaped here so callers
// never interpolate into the query text themselves.
func (g *Graph) Query(ctx context.Context, cypher string, params map[string]any) (QueryResult, error) {
	qr := QueryResult{}

	full := cypher
	if len(params) > 0 {
		// Deterministic parameter order keeps queries reproducible in logs
		names := make([]string, 0, len(params))
		for name := range params {
			names = append(names, name)
		}
		sort.Strings(names)

		parts := make([]string, 0, len(params))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, formatParam(params[name])))
		}
		full = "CYPHER " + strings.Join(parts, " ") + " " + cypher
	}

	res, err := g.Conn.Do(ctx, "GRAPH.QUERY", g.Name, full).Result()
	if err != nil {
		return qr, err
	}

	r, ok := res.([]interface{})
	if !ok {
		return qr, fmt.Errorf("unexpected response type: %T", res)
	}

	switch len(r) {
	case 3:
		if header, ok := r[0].([]interface{}); ok {
			qr.Header = make([]string, len(header))
			for i, h := range header {
				qr.Header[i] = fmt.Sprint(h)
			}
		}
		qr.Results = parseRows(r[1])
		qr.Statistics = parseStats(r[2])
	case 2:
		qr.Results = parseRows(r[0])
		qr.Statistics = parseStats(r[1])
	case 1:
		// DDL statements return statistics only
		qr.Statistics = parseStats(r[0])
	default:
		return qr, fmt.Errorf("unexpected response length: %d", len(r))
	}

	return qr, nil
}

// Delete removes the whole graph.
func (g *Graph) Delete(ctx context.Context) error {
	return g.Conn.Do(ctx, "GRAPH.DELETE", g.Name).Err()
}

func parseRows(v interface{}) [][]interface{} {
	rows, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		if vals, ok := row.([]interface{}); ok {
			out[i] = vals
		}
	}
	return out
}

func parseStats(v interface{}) []string {
	stats, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, len(stats))
	for i, s := range stats {
		out[i] = fmt.Sprint(s)
	}
	return out
}

// formatParam renders a parameter value as a Cypher literal.
func formatParam(v any) string {
	switch x := v.(type) {
	case string:
		return quoteString(x)
	case []float32:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = fmt.Sprintf("%f", f)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case nil:
		return "null"
	default:
		return fmt.Sprint(x)
	}
}

func quoteString(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}

// asString normalizes a result cell to a string; the client may hand
// cells back as []byte or string depending on the server response.
func asString(v interface{}) string {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// asInt normalizes a result cell to an int.
func asInt(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int64:
		return int(x), true
	case int:
		return x, true
	case float64:
		return int(x), true
	case []byte:
		var n int
		if _, err := fmt.Sscanf(string(x), "%d", &n); err == nil {
			return n, true
		}
	case string:
		var n int
		if _, err := fmt.Sscanf(x, "%d", &n); err == nil {
			return n, true
		}
	}
	return 0, false
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// PrettyPrint renders the result as a table followed by the server
// statistics, for ad-hoc inspection.
func (qr *QueryResult) PrettyPrint() string {
	var b strings.Builder

	if len(qr.Results) > 0 {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		if len(qr.Header) > 0 {
			t.Headers(qr.Header...)
		}
		for _, row := range qr.Results {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = asString(v)
			}
			t.Row(cells...)
		}
		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	for _, stat := range qr.Statistics {
		b.WriteString(stat)
		b.WriteString("\n")
	}
	return b.String()
}
