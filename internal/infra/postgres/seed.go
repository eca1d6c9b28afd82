package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"asd-screening-service/internal/bank"
	"asd-screening-service/internal/domain"
	"github.com/uptrace/bun"
)

// SeedBank upserts b into question_banks after validating it.
func SeedBank(ctx context.Context, db *bun.DB, b domain.QuestionBank) error {
	if err := bank.Validate(b); err != nil {
		return err
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal bank: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO question_banks (id, data) VALUES (?, ?::jsonb)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		b.ID, string(data))
	if err != nil {
		return fmt.Errorf("seed bank %q: %w", b.ID, err)
	}
	return nil
}
