package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/AvaWorks/TaskAssist/internal/models"
)

// scanTurns scans TurnRecords from query rows.
func scanTurns(rows *sql.Rows) ([]models.TurnRecord, error) {
	var out []models.TurnRecord
	for rows.Next() {
		var rec models.TurnRecord
		var intent string
		var slotsJSON sql.NullString
		if err := rows.Scan(&rec.SessionID, &rec.UserMessage, &rec.AssistantResponse, &intent, &slotsJSON, &rec.AwaitingConfirm, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan turn failed: %w", err)
		}
		rec.Intent = models.Intent(intent)
		if slotsJSON.Valid && slotsJSON.String != "" && slotsJSON.String != "null" {
			if err := json.Unmarshal([]byte(slotsJSON.String), &rec.Slots); err != nil {
				return nil, fmt.Errorf("unmarshal turn slots failed: %w", err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turn rows failed: %w", err)
	}
	return out, nil
}

// scanActions scans ActionRecords from query rows.
func scanActions(rows *sql.Rows) ([]models.ActionRecord, error) {
	var out []models.ActionRecord
	for rows.Next() {
		var rec models.ActionRecord
		var actionType, fieldsJSON string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &actionType, &fieldsJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan action failed: %w", err)
		}
		rec.Type = models.ActionType(actionType)
		if err := json.Unmarshal([]byte(fieldsJSON), &rec.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal action fields failed: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action rows failed: %w", err)
	}
	return out, nil
}
