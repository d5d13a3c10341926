package store

import (
	"database/sql"
	"fmt"
	"time"
)

// UpsertInstall records a package. On an existing row installed_at is kept
// and every other column is replaced.
func (s *Store) UpsertInstall(in *Install) error {
	now := time.Now().UTC()
	installedAt := in.InstalledAt
	if installedAt.IsZero() {
		installedAt = now
	}
	updatedAt := in.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	query := `
		INSERT INTO installs
		(name, channel, source, install_dir, wrapper_path, installed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			channel = excluded.channel,
			source = excluded.source,
			install_dir = excluded.install_dir,
			wrapper_path = excluded.wrapper_path,
			updated_at = excluded.updated_at
	`

	_, err := s.db.Exec(query,
		in.Name,
		in.Channel,
		in.Source,
		in.InstallDir,
		in.WrapperPath,
		installedAt.Format(time.RFC3339),
		updatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return wrapQueryErr(err, "failed to record install %s", in.Name)
	}
	return nil
}

// TouchInstall bumps updated_at for name. A missing row is not an error.
func (s *Store) TouchInstall(name string, at time.Time) error {
	_, err := s.db.Exec(`UPDATE installs SET updated_at = ? WHERE name = ?`,
		at.UTC().Format(time.RFC3339), name)
	if err != nil {
		return wrapQueryErr(err, "failed to touch install %s", name)
	}
	return nil
}

// GetInstall retrieves an install by name.
func (s *Store) GetInstall(name string) (*Install, error) {
	query := `
		SELECT name, channel, source, install_dir, wrapper_path, installed_at, updated_at
		FROM installs
		WHERE name = ?
	`

	in, err := scanInstall(s.db.QueryRow(query, name))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, wrapQueryErr(err, "failed to get install %s", name)
	}
	return in, nil
}

// ListInstalls returns all installs ordered by name.
func (s *Store) ListInstalls() ([]*Install, error) {
	query := `
		SELECT name, channel, source, install_dir, wrapper_path, installed_at, updated_at
		FROM installs
		ORDER BY name
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, wrapQueryErr(err, "failed to list installs")
	}
	defer rows.Close()

	var installs []*Install
	for rows.Next() {
		in, err := scanInstall(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan install: %w", err)
		}
		installs = append(installs, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating installs: %w", err)
	}
	return installs, nil
}

// DeleteInstall removes a package from the registry. Deleting an unknown
// name is a no-op.
func (s *Store) DeleteInstall(name string) error {
	if _, err := s.db.Exec(`DELETE FROM installs WHERE name = ?`, name); err != nil {
		return wrapQueryErr(err, "failed to delete install %s", name)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInstall(row rowScanner) (*Install, error) {
	var in Install
	var source sql.NullString
	var installedAt, updatedAt string

	if err := row.Scan(
		&in.Name,
		&in.Channel,
		&source,
		&in.InstallDir,
		&in.WrapperPath,
		&installedAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	in.Source = source.String

	var err error
	if in.InstalledAt, err = time.Parse(time.RFC3339, installedAt); err != nil {
		return nil, fmt.Errorf("failed to parse installed_at for %s: %w", in.Name, err)
	}
	if in.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at for %s: %w", in.Name, err)
	}
	return &in, nil
}
