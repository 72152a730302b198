package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// StoreErrorDetail extracts the driver's structured metadata from a store
// error for operator-facing logs. It is never used for control flow.
func StoreErrorDetail(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		detail := fmt.Sprintf("code=%s", pgErr.Code)
		if pgErr.TableName != "" {
			detail += fmt.Sprintf(" table=%s", pgErr.TableName)
		}
		if pgErr.ColumnName != "" {
			detail += fmt.Sprintf(" column=%s", pgErr.ColumnName)
		}
		if pgErr.ConstraintName != "" {
			detail += fmt.Sprintf(" constraint=%s", pgErr.ConstraintName)
		}
		return detail
	}
	return err.Error()
}
