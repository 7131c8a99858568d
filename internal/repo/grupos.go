package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetGrupoByID recupera grupo pelo ID.
func (q *Queries) GetGrupoByID(ctx context.Context, id uuid.UUID) (Grupo, error) {
	var g Grupo
	err := q.pool.QueryRow(ctx,
		`SELECT id, nome, criado_em FROM grupos WHERE id = $1`, id).
		Scan(&g.ID, &g.Nome, &g.CriadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return Grupo{}, ErrNotFound
	}
	return g, err
}

// GetGrupoByNome recupera grupo pelo nome exato (ex.: "Municipe").
func (q *Queries) GetGrupoByNome(ctx context.Context, nome string) (Grupo, error) {
	var g Grupo
	err := q.pool.QueryRow(ctx,
		`SELECT id, nome, criado_em FROM grupos WHERE nome = $1`, strings.TrimSpace(nome)).
		Scan(&g.ID, &g.Nome, &g.CriadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return Grupo{}, ErrNotFound
	}
	return g, err
}

// ListGrupos devolve todos os grupos cadastrados.
func (q *Queries) ListGrupos(ctx context.Context) ([]Grupo, error) {
	rows, err := q.pool.Query(ctx, `SELECT id, nome, criado_em FROM grupos ORDER BY nome ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grupos []Grupo
	for rows.Next() {
		var g Grupo
		if err := rows.Scan(&g.ID, &g.Nome, &g.CriadoEm); err != nil {
			return nil, err
		}
		grupos = append(grupos, g)
	}
	return grupos, rows.Err()
}

// InsertGrupo cria grupo; nome duplicado devolve ErrDuplicado.
func (q *Queries) InsertGrupo(ctx context.Context, id uuid.UUID, nome string) (Grupo, error) {
	var g Grupo
	err := q.pool.QueryRow(ctx, `
        INSERT INTO grupos (id, nome) VALUES ($1, $2)
        RETURNING id, nome, criado_em`, id, strings.TrimSpace(nome)).
		Scan(&g.ID, &g.Nome, &g.CriadoEm)
	if err != nil {
		if isUniqueViolation(err) {
			return Grupo{}, ErrDuplicado
		}
		return Grupo{}, err
	}
	return g, nil
}

// DeleteGrupo remove o grupo e suas permissões (cascata no schema).
func (q *Queries) DeleteGrupo(ctx context.Context, id uuid.UUID) error {
	cmd, err := q.pool.Exec(ctx, `DELETE FROM grupos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPermissoesByGrupo devolve as permissões do grupo.
func (q *Queries) ListPermissoesByGrupo(ctx context.Context, grupoID uuid.UUID) ([]Permissao, error) {
	rows, err := q.pool.Query(ctx, `
        SELECT id, grupo_id, rota, dominio, buscar, criar, substituir, modificar, deletar
        FROM permissoes WHERE grupo_id = $1
        ORDER BY rota, dominio`, grupoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissoes []Permissao
	for rows.Next() {
		var p Permissao
		if err := rows.Scan(&p.ID, &p.GrupoID, &p.Rota, &p.Dominio,
			&p.Buscar, &p.Criar, &p.Substituir, &p.Modificar, &p.Deletar); err != nil {
			return nil, err
		}
		permissoes = append(permissoes, p)
	}
	return permissoes, rows.Err()
}

// InsertPermissao adiciona permissão ao grupo. O par (rota, dominio) é
// único dentro do grupo; duplicata devolve ErrDuplicado na escrita.
func (q *Queries) InsertPermissao(ctx context.Context, p Permissao) (Permissao, error) {
	err := q.pool.QueryRow(ctx, `
        INSERT INTO permissoes (id, grupo_id, rota, dominio, buscar, criar, substituir, modificar, deletar)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id`,
		p.ID, p.GrupoID, strings.TrimSpace(p.Rota), strings.TrimSpace(p.Dominio),
		p.Buscar, p.Criar, p.Substituir, p.Modificar, p.Deletar).
		Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return Permissao{}, ErrDuplicado
		}
		return Permissao{}, err
	}
	return p, nil
}

// DeletePermissao remove permissão do grupo.
func (q *Queries) DeletePermissao(ctx context.Context, id uuid.UUID) error {
	cmd, err := q.pool.Exec(ctx, `DELETE FROM permissoes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
