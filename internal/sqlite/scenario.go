package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/castorcoop/scenariosync/internal/domain/scenario"
	"github.com/castorcoop/scenariosync/internal/repository"
)

// ScenarioRepository implements repository.ScenarioRepository for SQLite
type ScenarioRepository struct {
	db *DB
}

// NewScenarioRepository creates a new ScenarioRepository
func NewScenarioRepository(db *DB) *ScenarioRepository {
	return &ScenarioRepository{db: db}
}

// Get retrieves a project document, with participant defaults resolved at
// this load boundary.
func (r *ScenarioRepository) Get(ctx context.Context, projectID string) (*scenario.Snapshot, error) {
	query := `
		SELECT project_id, participants, participants_in_subcollection,
		       project_params, deed_date, formula_params,
		       version, last_modified_by, last_modified_at
		FROM scenarios
		WHERE project_id = ?
	`

	var (
		snap         scenario.Snapshot
		rawDocs      string
		rawParams    string
		rawFormula   string
		inSub        int
		lastModified sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, projectID).Scan(
		&snap.ProjectID,
		&rawDocs,
		&inSub,
		&rawParams,
		&snap.DeedDate,
		&rawFormula,
		&snap.Version,
		&snap.LastModifiedBy,
		&lastModified,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scenario: %w", err)
	}

	snap.ParticipantsInSubcollection = inSub != 0
	if lastModified.Valid {
		snap.LastModifiedAt = lastModified.Time
	}

	var docs []scenario.ParticipantDoc
	if err := json.Unmarshal([]byte(rawDocs), &docs); err != nil {
		return nil, fmt.Errorf("%w: corrupt participant array: %v", scenario.ErrInvalidSnapshot, err)
	}
	snap.Participants, err = scenario.ResolveParticipants(docs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", scenario.ErrInvalidSnapshot, err)
	}

	if err := json.Unmarshal([]byte(rawParams), &snap.ProjectParams); err != nil {
		return nil, fmt.Errorf("%w: corrupt project params: %v", scenario.ErrInvalidSnapshot, err)
	}
	if err := json.Unmarshal([]byte(rawFormula), &snap.FormulaParams); err != nil {
		return nil, fmt.Errorf("%w: corrupt formula params: %v", scenario.ErrInvalidSnapshot, err)
	}

	return &snap, nil
}

// Create inserts a new project document.
func (r *ScenarioRepository) Create(ctx context.Context, snap *scenario.Snapshot) error {
	docsJSON, paramsJSON, formulaJSON, err := marshalSnapshot(snap)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO scenarios (
			project_id, participants, participants_in_subcollection,
			project_params, deed_date, formula_params,
			version, last_modified_by, last_modified_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		snap.ProjectID,
		docsJSON,
		boolToInt(snap.ParticipantsInSubcollection),
		paramsJSON,
		snap.DeedDate,
		formulaJSON,
		snap.Version,
		snap.LastModifiedBy,
		snap.LastModifiedAt,
	)
	if err != nil {
		if isConstraintViolation(err, "UNIQUE") {
			return fmt.Errorf("scenario %s already exists: %w", snap.ProjectID, repository.ErrConflict)
		}
		return fmt.Errorf("failed to create scenario: %w", err)
	}
	return nil
}

// Replace writes the full document unconditionally with the version carried
// by snap. On the migrated layout the participant subcollection is rewritten
// in the same transaction and the embedded array stays empty.
func (r *ScenarioRepository) Replace(ctx context.Context, snap *scenario.Snapshot) error {
	embedded := snap.Participants
	if snap.ParticipantsInSubcollection {
		embedded = nil
	}
	docsJSON, err := json.Marshal(scenario.EncodeParticipants(embedded))
	if err != nil {
		return fmt.Errorf("failed to marshal participants: %w", err)
	}
	paramsJSON, err := json.Marshal(snap.ProjectParams)
	if err != nil {
		return fmt.Errorf("failed to marshal project params: %w", err)
	}
	formulaJSON, err := json.Marshal(snap.FormulaParams)
	if err != nil {
		return fmt.Errorf("failed to marshal formula params: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE scenarios
		SET participants = ?, participants_in_subcollection = ?,
		    project_params = ?, deed_date = ?, formula_params = ?,
		    version = ?, last_modified_by = ?, last_modified_at = ?
		WHERE project_id = ?
	`,
		string(docsJSON),
		boolToInt(snap.ParticipantsInSubcollection),
		string(paramsJSON),
		snap.DeedDate,
		string(formulaJSON),
		snap.Version,
		snap.LastModifiedBy,
		snap.LastModifiedAt,
		snap.ProjectID,
	)
	if err != nil {
		return fmt.Errorf("failed to replace scenario: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	if snap.ParticipantsInSubcollection {
		if _, err := tx.ExecContext(ctx, `DELETE FROM participants WHERE project_id = ?`, snap.ProjectID); err != nil {
			return fmt.Errorf("failed to clear participant records: %w", err)
		}
		for i, p := range snap.Participants {
			doc, err := json.Marshal(scenario.EncodeParticipant(p))
			if err != nil {
				return fmt.Errorf("failed to marshal participant %d: %w", i, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO participants (project_id, display_order, doc, version, last_modified_by, last_modified_at)
				VALUES (?, ?, ?, 1, ?, ?)
			`, snap.ProjectID, i, string(doc), snap.LastModifiedBy, snap.LastModifiedAt)
			if err != nil {
				return fmt.Errorf("failed to rewrite participant %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace: %w", err)
	}
	return nil
}

// UpdateFields writes only the given simple fields plus the shared-params
// block, guarded by an optimistic version check in the same UPDATE.
func (r *ScenarioRepository) UpdateFields(ctx context.Context, projectID string, upd repository.FieldUpdate) error {
	paramsJSON, err := json.Marshal(upd.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal project params: %w", err)
	}

	sets := []string{
		"project_params = ?",
		"version = version + 1",
		"last_modified_by = ?",
		"last_modified_at = ?",
	}
	args := []any{string(paramsJSON), upd.By, upd.At}

	for field, value := range upd.Fields {
		switch field {
		case repository.FieldDeedDate:
			deedDate, ok := value.(string)
			if !ok {
				return fmt.Errorf("%w: deed date must be a string", repository.ErrInvalidInput)
			}
			sets = append(sets, "deed_date = ?")
			args = append(args, deedDate)

		case repository.FieldFormulaParams:
			formula, ok := value.(scenario.FormulaParams)
			if !ok {
				return fmt.Errorf("%w: formula params have wrong type", repository.ErrInvalidInput)
			}
			formulaJSON, err := json.Marshal(formula)
			if err != nil {
				return fmt.Errorf("failed to marshal formula params: %w", err)
			}
			sets = append(sets, "formula_params = ?")
			args = append(args, string(formulaJSON))

		case repository.FieldParticipants:
			participants, ok := value.([]scenario.Participant)
			if !ok {
				return fmt.Errorf("%w: participants have wrong type", repository.ErrInvalidInput)
			}
			docsJSON, err := json.Marshal(scenario.EncodeParticipants(participants))
			if err != nil {
				return fmt.Errorf("failed to marshal participants: %w", err)
			}
			sets = append(sets, "participants = ?")
			args = append(args, string(docsJSON))

		default:
			return fmt.Errorf("%w: unknown field %q", repository.ErrInvalidInput, field)
		}
	}

	query := fmt.Sprintf(
		`UPDATE scenarios SET %s WHERE project_id = ? AND version = ?`,
		strings.Join(sets, ", "),
	)
	args = append(args, projectID, upd.ExpectedVersion)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update fields: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		err = r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM scenarios WHERE project_id = ?)`, projectID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check scenario existence: %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		// Document exists but the version moved under us.
		return repository.ErrConflict
	}
	return nil
}

func marshalSnapshot(snap *scenario.Snapshot) (docs, params, formula string, err error) {
	docsJSON, err := json.Marshal(scenario.EncodeParticipants(snap.Participants))
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal participants: %w", err)
	}
	paramsJSON, err := json.Marshal(snap.ProjectParams)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal project params: %w", err)
	}
	formulaJSON, err := json.Marshal(snap.FormulaParams)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal formula params: %w", err)
	}
	return string(docsJSON), string(paramsJSON), string(formulaJSON), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
