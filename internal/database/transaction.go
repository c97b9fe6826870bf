package database

// Batch transaction utilities.
//
// A TxBuilder accumulates statements and executes them wrapped in
// BEGIN TRANSACTION / COMMIT TRANSACTION. Variables are namespaced per
// statement ($amount -> $v3_amount) so queries from different call sites
// can be combined without collisions. There is no isolation between Add()
// calls; everything applies atomically at execution time.

import (
	"context"
	"fmt"
	"strings"
)

// TxBuilder builds atomic transaction queries with automatic variable
// namespacing.
type TxBuilder struct {
	statements []string
	vars       map[string]interface{}
	varCounter uint64
}

// NewTxBuilder creates a new transaction builder
func NewTxBuilder() *TxBuilder {
	return &TxBuilder{
		statements: make([]string, 0),
		vars:       make(map[string]interface{}),
	}
}

// Add adds a statement to the transaction, namespacing variables to avoid
// collisions. Longer variable names are replaced first so $player_id is not
// clobbered by a rename of $player.
func (tb *TxBuilder) Add(query string, vars map[string]interface{}) {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	// Longest first
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if len(names[j]) > len(names[i]) {
				names[i], names[j] = names[j], names[i]
			}
		}
	}

	newQuery := query
	for _, name := range names {
		tb.varCounter++
		newName := fmt.Sprintf("v%d_%s", tb.varCounter, name)
		newQuery = strings.ReplaceAll(newQuery, "$"+name, "$"+newName)
		tb.vars[newName] = vars[name]
	}

	tb.statements = append(tb.statements, newQuery)
}

// Len returns the number of statements accumulated so far.
func (tb *TxBuilder) Len() int {
	return len(tb.statements)
}

// Build returns the complete transaction query and merged variables
func (tb *TxBuilder) Build() (string, map[string]interface{}) {
	if len(tb.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range tb.statements {
		sb.WriteString(stmt)
		if !strings.HasSuffix(strings.TrimSpace(stmt), ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	return sb.String(), tb.vars
}

// ExecuteTransaction executes a transaction built with TxBuilder
func ExecuteTransaction(ctx context.Context, db Database, tb *TxBuilder) error {
	query, vars := tb.Build()
	if query == "" {
		return nil
	}

	return db.Execute(ctx, query, vars)
}
