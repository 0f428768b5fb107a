package infrastructure

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// WithTransaction handles a database transaction and executes the given operation
func WithTransaction(db *sql.DB, ctx context.Context, operation func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p) // re-throw panic after Rollback
		} else if err != nil {
			if err := tx.Rollback(); err != nil {
				log.Printf("Error while rolling back transaction: %v", err)
			}
		} else {
			err = tx.Commit()
		}
	}()

	err = operation(tx)
	return err
}
