package database

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/koustreak/talenttrack/internal/errs"
)

// TableLister reads the table names of the connected schema.
// Each driver implements the dialect-specific catalog query.
type TableLister interface {
	ListTables(ctx context.Context) ([]string, error)
}

// VerifyTables checks that every table in want exists.
// The returned error lists all missing tables at once.
func VerifyTables(ctx context.Context, l TableLister, want []string) error {
	tables, err := l.ListTables(ctx)
	if err != nil {
		return err
	}

	have := make(map[string]bool, len(tables))
	for _, t := range tables {
		have[strings.ToLower(t)] = true
	}

	var missing []string
	for _, t := range want {
		if !have[strings.ToLower(t)] {
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	sort.Strings(missing)
	return errs.New(errs.ErrKindSync,
		fmt.Sprintf("schema is missing tables after migration: %s", strings.Join(missing, ", ")))
}
