package repo

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const demandaColumns = `
        id, protocolo, titulo, descricao, status,
        tipo_demanda_id, secretaria_id, municipe_id, criado_em, atualizado_em`

func scanDemanda(row pgx.Row) (Demanda, error) {
	var d Demanda
	err := row.Scan(&d.ID, &d.Protocolo, &d.Titulo, &d.Descricao, &d.Status,
		&d.TipoDemandaID, &d.SecretariaID, &d.MunicipeID, &d.CriadoEm, &d.AtualizadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return Demanda{}, ErrNotFound
	}
	return d, err
}

// GetDemandaByID recupera demanda pelo ID.
func (q *Queries) GetDemandaByID(ctx context.Context, id uuid.UUID) (Demanda, error) {
	return scanDemanda(q.pool.QueryRow(ctx,
		`SELECT`+demandaColumns+` FROM demandas WHERE id = $1`, id))
}

// InsertDemanda registra nova demanda já roteada à secretaria.
func (q *Queries) InsertDemanda(ctx context.Context, d Demanda) (Demanda, error) {
	return scanDemanda(q.pool.QueryRow(ctx, `
        INSERT INTO demandas (id, protocolo, titulo, descricao, status,
                              tipo_demanda_id, secretaria_id, municipe_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING`+demandaColumns,
		d.ID, d.Protocolo, d.Titulo, d.Descricao, d.Status,
		d.TipoDemandaID, d.SecretariaID, d.MunicipeID))
}

// DemandaFilter restringe listagens conforme o papel de quem consulta.
type DemandaFilter struct {
	MunicipeID    *uuid.UUID
	SecretariaIDs []uuid.UUID
	Status        string
}

// ListDemandas devolve demandas aplicando o escopo do solicitante.
func (q *Queries) ListDemandas(ctx context.Context, filter DemandaFilter) ([]Demanda, error) {
	query := `SELECT` + demandaColumns + ` FROM demandas WHERE 1=1`
	var args []any
	if filter.MunicipeID != nil {
		args = append(args, *filter.MunicipeID)
		query += ` AND municipe_id = $1`
	}
	if len(filter.SecretariaIDs) > 0 {
		args = append(args, filter.SecretariaIDs)
		query += ` AND secretaria_id = ANY($` + strconv.Itoa(len(args)) + `)`
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY criado_em DESC`

	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var demandas []Demanda
	for rows.Next() {
		d, err := scanDemanda(rows)
		if err != nil {
			return nil, err
		}
		demandas = append(demandas, d)
	}
	return demandas, rows.Err()
}

// UpdateDemandaStatus atualiza a situação da demanda.
func (q *Queries) UpdateDemandaStatus(ctx context.Context, id uuid.UUID, status string) (Demanda, error) {
	return scanDemanda(q.pool.QueryRow(ctx, `
        UPDATE demandas SET status = $2, atualizado_em = now()
        WHERE id = $1
        RETURNING`+demandaColumns, id, status))
}

// DeleteDemanda remove a demanda.
func (q *Queries) DeleteDemanda(ctx context.Context, id uuid.UUID) error {
	cmd, err := q.pool.Exec(ctx, `DELETE FROM demandas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTipoDemandaByID recupera tipo de demanda.
func (q *Queries) GetTipoDemandaByID(ctx context.Context, id uuid.UUID) (TipoDemanda, error) {
	var t TipoDemanda
	err := q.pool.QueryRow(ctx,
		`SELECT id, nome, secretaria_id, ativo, criado_em FROM tipos_demanda WHERE id = $1`, id).
		Scan(&t.ID, &t.Nome, &t.SecretariaID, &t.Ativo, &t.CriadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return TipoDemanda{}, ErrNotFound
	}
	return t, err
}

// ListTiposDemanda devolve o catálogo de tipos.
func (q *Queries) ListTiposDemanda(ctx context.Context) ([]TipoDemanda, error) {
	rows, err := q.pool.Query(ctx,
		`SELECT id, nome, secretaria_id, ativo, criado_em FROM tipos_demanda ORDER BY nome ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tipos []TipoDemanda
	for rows.Next() {
		var t TipoDemanda
		if err := rows.Scan(&t.ID, &t.Nome, &t.SecretariaID, &t.Ativo, &t.CriadoEm); err != nil {
			return nil, err
		}
		tipos = append(tipos, t)
	}
	return tipos, rows.Err()
}

// InsertTipoDemanda cadastra novo tipo no catálogo.
func (q *Queries) InsertTipoDemanda(ctx context.Context, t TipoDemanda) (TipoDemanda, error) {
	err := q.pool.QueryRow(ctx, `
        INSERT INTO tipos_demanda (id, nome, secretaria_id, ativo)
        VALUES ($1, $2, $3, $4)
        RETURNING id, nome, secretaria_id, ativo, criado_em`,
		t.ID, t.Nome, t.SecretariaID, t.Ativo).
		Scan(&t.ID, &t.Nome, &t.SecretariaID, &t.Ativo, &t.CriadoEm)
	if err != nil {
		if isUniqueViolation(err) {
			return TipoDemanda{}, ErrDuplicado
		}
		return TipoDemanda{}, err
	}
	return t, nil
}

// DeleteTipoDemanda remove o tipo do catálogo.
func (q *Queries) DeleteTipoDemanda(ctx context.Context, id uuid.UUID) error {
	cmd, err := q.pool.Exec(ctx, `DELETE FROM tipos_demanda WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertAnexo registra a referência de um anexo já gravado no storage.
func (q *Queries) InsertAnexo(ctx context.Context, a DemandaAnexo) (DemandaAnexo, error) {
	err := q.pool.QueryRow(ctx, `
        INSERT INTO demanda_anexos (id, demanda_id, nome, url)
        VALUES ($1, $2, $3, $4)
        RETURNING id, demanda_id, nome, url, criado_em`,
		a.ID, a.DemandaID, a.Nome, a.URL).
		Scan(&a.ID, &a.DemandaID, &a.Nome, &a.URL, &a.CriadoEm)
	return a, err
}

// ListAnexosByDemanda devolve os anexos da demanda em ordem de envio.
func (q *Queries) ListAnexosByDemanda(ctx context.Context, demandaID uuid.UUID) ([]DemandaAnexo, error) {
	rows, err := q.pool.Query(ctx, `
        SELECT id, demanda_id, nome, url, criado_em
        FROM demanda_anexos WHERE demanda_id = $1 ORDER BY criado_em ASC`, demandaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var anexos []DemandaAnexo
	for rows.Next() {
		var a DemandaAnexo
		if err := rows.Scan(&a.ID, &a.DemandaID, &a.Nome, &a.URL, &a.CriadoEm); err != nil {
			return nil, err
		}
		anexos = append(anexos, a)
	}
	return anexos, rows.Err()
}
