package csv

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/haneul-dev/budgetbook/pkg/models"
)

// FilterFunc decides whether a record is included in the export.
type FilterFunc[T any] func(T) bool

// Create renders transactions as CSV. A nil filter includes everything.
func Create(txs []models.Transaction, filter FilterFunc[models.Transaction]) []byte {
	var buf bytes.Buffer
	buf.WriteString("Date,Type,Category,Description,Amount,CardCompany,CardNo\n")
	for _, tx := range txs {
		if filter != nil && !filter(tx) {
			continue
		}
		buf.WriteString(fmt.Sprintf("%s,%s,%s,%s,%d,%s,%s\n",
			tx.Date,
			tx.Type,
			escape(tx.Category),
			escape(tx.Description),
			tx.Amount,
			escape(tx.CardCompany),
			escape(tx.CardNo)))
	}
	return buf.Bytes()
}

// escape quotes fields containing separators, the minimum needed for
// free-text category and description values.
func escape(field string) string {
	if !strings.ContainsAny(field, ",\"\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
