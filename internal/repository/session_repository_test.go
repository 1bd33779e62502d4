package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sinaqlab/sinaq-backend/internal/model"
)

// Sessions carry two uuid columns: the session key and the owning user.
// Both scan targets must accept the uuid wire type, or GetByID fails on
// every row.
func TestSessionScanTargetsAcceptUUID(t *testing.T) {
	m := pgtype.NewMap()
	s := &model.Session{}

	for col, target := range map[string]any{
		"id":      &s.ID,
		"user_id": &s.UserID,
	} {
		plan := m.PlanScan(pgtype.UUIDOID, pgtype.BinaryFormatCode, target)
		if plan == nil {
			t.Fatalf("no scan plan for %s into %T", col, target)
		}
	}

	want := uuid.New()
	plan := m.PlanScan(pgtype.UUIDOID, pgtype.BinaryFormatCode, &s.UserID)
	if err := plan.Scan(want[:], &s.UserID); err != nil {
		t.Fatalf("scan user_id: %v", err)
	}
	if s.UserID != want {
		t.Fatalf("user_id = %s, want %s", s.UserID, want)
	}
}
