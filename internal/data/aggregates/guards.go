package aggregates

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
	"gorm.io/gorm"
)

// advanceVersion applies updates to the row and moves it from version expected to
// expected+1. A row that has already moved on yields a conflict so the write can be
// repeated against fresh state.
func advanceVersion(dbc dbctx.Context, fallback *gorm.DB, table string, id uuid.UUID, expected int, updates map[string]any) error {
	if dbc.Tx == nil && fallback == nil {
		return ValidationError("no transaction for versioned update")
	}
	if table == "" || id == uuid.Nil || expected < 1 {
		return ValidationError(fmt.Sprintf("versioned update needs a table, id and version >= 1 (got %q, %s, %d)", table, id, expected))
	}
	set := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		set[k] = v
	}
	set["version"] = expected + 1

	res := dbc.DB(fallback).Table(table).Where("id = ? AND version = ?", id, expected).Updates(set)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ConflictError(fmt.Sprintf("%s %s is no longer at version %d", table, id, expected))
	}
	return nil
}
