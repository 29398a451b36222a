package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Joseda-hg/obracrm/internal/model"
)

// SaveView creates the view when its ID is zero and replaces it otherwise.
// A new view saved under an existing name replaces that view; renaming a
// view onto another one's name is ErrConflict.
func (s *Store) SaveView(ctx context.Context, view model.SavedView) (model.SavedView, error) {
	view.Name = strings.TrimSpace(view.Name)
	if view.Name == "" {
		return model.SavedView{}, fmt.Errorf("%w: view name is required", ErrInvalid)
	}
	if _, ok := model.ParseKind(string(view.Kind)); !ok {
		return model.SavedView{}, fmt.Errorf("%w: unknown kind %q", ErrInvalid, view.Kind)
	}

	existing, err := s.GetViewByName(ctx, view.Name)
	switch {
	case err == nil && view.ID == 0:
		view.ID = existing.ID
	case err == nil && existing.ID != view.ID:
		return model.SavedView{}, fmt.Errorf("%w: view %q already exists", ErrConflict, view.Name)
	case err != nil && !errors.Is(err, ErrNotFound):
		return model.SavedView{}, err
	}

	payload, err := json.Marshal(view.State)
	if err != nil {
		return model.SavedView{}, fmt.Errorf("encode view state: %w", err)
	}

	now := s.now()
	if view.ID == 0 {
		res, err := s.conn().ExecContext(ctx,
			"INSERT INTO views (name, kind, state_json, created_at, updated_at) VALUES (?,?,?,?,?)",
			view.Name, string(view.Kind), string(payload), now, now,
		)
		if err != nil {
			return model.SavedView{}, fmt.Errorf("insert view: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return model.SavedView{}, err
		}
		return s.getView(ctx, "id = ?", id)
	}

	res, err := s.conn().ExecContext(ctx,
		"UPDATE views SET name = ?, kind = ?, state_json = ?, updated_at = ? WHERE id = ?",
		view.Name, string(view.Kind), string(payload), now, view.ID,
	)
	if err != nil {
		return model.SavedView{}, fmt.Errorf("update view: %w", err)
	}
	if err := expectRow(res, fmt.Sprintf("view %d", view.ID)); err != nil {
		return model.SavedView{}, err
	}
	return s.getView(ctx, "id = ?", view.ID)
}

// ListViews returns the saved views of kind by name. An empty kind lists all.
func (s *Store) ListViews(ctx context.Context, kind model.Kind) ([]model.SavedView, error) {
	query := "SELECT id, name, kind, state_json, created_at, updated_at FROM views"
	args := []any{}
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY name ASC"

	rows, err := s.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}
	defer rows.Close()

	views := make([]model.SavedView, 0)
	for rows.Next() {
		view, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, rows.Err()
}

func (s *Store) GetViewByName(ctx context.Context, name string) (model.SavedView, error) {
	return s.getView(ctx, "name = ?", strings.TrimSpace(name))
}

func (s *Store) DeleteView(ctx context.Context, viewID int64) error {
	res, err := s.conn().ExecContext(ctx, "DELETE FROM views WHERE id = ?", viewID)
	if err != nil {
		return fmt.Errorf("delete view: %w", err)
	}
	return expectRow(res, fmt.Sprintf("view %d", viewID))
}

func (s *Store) getView(ctx context.Context, where string, arg any) (model.SavedView, error) {
	row := s.conn().QueryRowContext(ctx, "SELECT id, name, kind, state_json, created_at, updated_at FROM views WHERE "+where, arg)
	view, err := scanView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SavedView{}, fmt.Errorf("%w: view %v", ErrNotFound, arg)
	}
	return view, err
}

func scanView(s scanner) (model.SavedView, error) {
	var view model.SavedView
	var kind, stateJSON string
	if err := s.Scan(&view.ID, &view.Name, &kind, &stateJSON, &view.CreatedAt, &view.UpdatedAt); err != nil {
		return model.SavedView{}, err
	}
	view.Kind = model.Kind(kind)
	if err := json.Unmarshal([]byte(stateJSON), &view.State); err != nil {
		return model.SavedView{}, fmt.Errorf("decode view %s: %w", view.Name, err)
	}
	return view, nil
}
