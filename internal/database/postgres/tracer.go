package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/koustreak/talenttrack/internal/metrics"
)

// metricsTracer implements pgx.QueryTracer to collect statement latency
type metricsTracer struct{}

var _ pgx.QueryTracer = (*metricsTracer)(nil)

type traceKey struct{}

type traceStart struct {
	at   time.Time
	verb string
}

func (t *metricsTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceStart{at: time.Now(), verb: statementVerb(data.SQL)})
}

func (t *metricsTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(traceKey{}).(traceStart)
	if !ok {
		return
	}
	metrics.DBStatementDuration.WithLabelValues(start.verb).Observe(time.Since(start.at).Seconds())
}

// statementVerb reduces SQL to its leading keyword to keep label cardinality low.
func statementVerb(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	switch verb := strings.ToUpper(fields[0]); verb {
	case "SELECT", "INSERT", "UPDATE", "DELETE", "WITH", "BEGIN", "COMMIT", "ROLLBACK":
		return strings.ToLower(verb)
	default:
		return "other"
	}
}
