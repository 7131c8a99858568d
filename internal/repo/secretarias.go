package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetSecretariaByID recupera secretaria pelo ID.
func (q *Queries) GetSecretariaByID(ctx context.Context, id uuid.UUID) (Secretaria, error) {
	var s Secretaria
	err := q.pool.QueryRow(ctx,
		`SELECT id, nome, sigla, ativa, criado_em FROM secretarias WHERE id = $1`, id).
		Scan(&s.ID, &s.Nome, &s.Sigla, &s.Ativa, &s.CriadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return Secretaria{}, ErrNotFound
	}
	return s, err
}

// ListSecretarias devolve todas as secretarias.
func (q *Queries) ListSecretarias(ctx context.Context) ([]Secretaria, error) {
	rows, err := q.pool.Query(ctx,
		`SELECT id, nome, sigla, ativa, criado_em FROM secretarias ORDER BY nome ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var secretarias []Secretaria
	for rows.Next() {
		var s Secretaria
		if err := rows.Scan(&s.ID, &s.Nome, &s.Sigla, &s.Ativa, &s.CriadoEm); err != nil {
			return nil, err
		}
		secretarias = append(secretarias, s)
	}
	return secretarias, rows.Err()
}

// InsertSecretaria cria secretaria; sigla duplicada devolve ErrDuplicado.
func (q *Queries) InsertSecretaria(ctx context.Context, id uuid.UUID, nome, sigla string) (Secretaria, error) {
	var s Secretaria
	err := q.pool.QueryRow(ctx, `
        INSERT INTO secretarias (id, nome, sigla) VALUES ($1, $2, $3)
        RETURNING id, nome, sigla, ativa, criado_em`,
		id, strings.TrimSpace(nome), strings.ToUpper(strings.TrimSpace(sigla))).
		Scan(&s.ID, &s.Nome, &s.Sigla, &s.Ativa, &s.CriadoEm)
	if err != nil {
		if isUniqueViolation(err) {
			return Secretaria{}, ErrDuplicado
		}
		return Secretaria{}, err
	}
	return s, nil
}

// UpdateSecretaria atualiza nome/sigla/situação.
func (q *Queries) UpdateSecretaria(ctx context.Context, s Secretaria) (Secretaria, error) {
	err := q.pool.QueryRow(ctx, `
        UPDATE secretarias SET nome = $2, sigla = $3, ativa = $4
        WHERE id = $1
        RETURNING id, nome, sigla, ativa, criado_em`,
		s.ID, strings.TrimSpace(s.Nome), strings.ToUpper(strings.TrimSpace(s.Sigla)), s.Ativa).
		Scan(&s.ID, &s.Nome, &s.Sigla, &s.Ativa, &s.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Secretaria{}, ErrNotFound
		}
		if isUniqueViolation(err) {
			return Secretaria{}, ErrDuplicado
		}
		return Secretaria{}, err
	}
	return s, nil
}

// DeleteSecretaria remove a secretaria.
func (q *Queries) DeleteSecretaria(ctx context.Context, id uuid.UUID) error {
	cmd, err := q.pool.Exec(ctx, `DELETE FROM secretarias WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
