package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries concentra o acesso a dados do módulo de demandas.
type Queries struct {
	pool *pgxpool.Pool
}

// New cria o repositório sobre o pool pgx.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

const usuarioColumns = `
        id, nome, email, username, cpf, cnpj, senha_hash,
        municipe, operador, secretario, administrador, grupo_id,
        email_verificado,
        access_token, refresh_token,
        codigo_recupera_senha, expira_recupera_senha,
        token_verificacao_email, expira_verificacao_email,
        versao_token, ativo, criado_em, atualizado_em`

func scanUsuario(row pgx.Row) (Usuario, error) {
	var u Usuario
	err := row.Scan(
		&u.ID, &u.Nome, &u.Email, &u.Username, &u.CPF, &u.CNPJ, &u.SenhaHash,
		&u.NivelAcesso.Municipe, &u.NivelAcesso.Operador,
		&u.NivelAcesso.Secretario, &u.NivelAcesso.Administrador, &u.GrupoID,
		&u.EmailVerificado,
		&u.AccessToken, &u.RefreshToken,
		&u.CodigoRecuperaSenha, &u.ExpiraRecuperaSenha,
		&u.TokenVerificacaoEmail, &u.ExpiraVerificacaoEmail,
		&u.VersaoToken, &u.Ativo, &u.CriadoEm, &u.AtualizadoEm,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Usuario{}, ErrNotFound
		}
		return Usuario{}, err
	}
	return u, nil
}

// GetUsuarioByID recupera usuário pelo ID, incluindo estado de tokens.
func (q *Queries) GetUsuarioByID(ctx context.Context, id uuid.UUID) (Usuario, error) {
	row := q.pool.QueryRow(ctx, `SELECT`+usuarioColumns+` FROM usuarios WHERE id = $1`, id)
	return scanUsuario(row)
}

// GetUsuarioByEmail recupera usuário pelo e-mail normalizado.
func (q *Queries) GetUsuarioByEmail(ctx context.Context, email string) (Usuario, error) {
	row := q.pool.QueryRow(ctx, `SELECT`+usuarioColumns+` FROM usuarios WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	return scanUsuario(row)
}

// GetUsuarioByIdentificador resolve o usuário tentando, nesta ordem,
// e-mail, username, CPF e CNPJ; a primeira correspondência vence.
func (q *Queries) GetUsuarioByIdentificador(ctx context.Context, identificador string) (Usuario, error) {
	identificador = strings.TrimSpace(identificador)

	lookups := []string{
		`SELECT` + usuarioColumns + ` FROM usuarios WHERE email = $1`,
		`SELECT` + usuarioColumns + ` FROM usuarios WHERE username = $1`,
		`SELECT` + usuarioColumns + ` FROM usuarios WHERE cpf = $1`,
		`SELECT` + usuarioColumns + ` FROM usuarios WHERE cnpj = $1`,
	}

	arg := identificador
	for i, query := range lookups {
		if i == 0 {
			arg = strings.ToLower(identificador)
		} else {
			arg = identificador
		}
		u, err := scanUsuario(q.pool.QueryRow(ctx, query, arg))
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Usuario{}, err
		}
	}
	return Usuario{}, ErrNotFound
}

// GetUsuarioByCodigoRecuperacao localiza o usuário que detém exatamente
// este código de recuperação. Código superado por pedido mais novo não
// localiza ninguém.
func (q *Queries) GetUsuarioByCodigoRecuperacao(ctx context.Context, codigo string) (Usuario, error) {
	row := q.pool.QueryRow(ctx, `SELECT`+usuarioColumns+` FROM usuarios WHERE codigo_recupera_senha = $1`, codigo)
	return scanUsuario(row)
}

// GetUsuarioByTokenVerificacao localiza o usuário pelo token de verificação de e-mail.
func (q *Queries) GetUsuarioByTokenVerificacao(ctx context.Context, token string) (Usuario, error) {
	row := q.pool.QueryRow(ctx, `SELECT`+usuarioColumns+` FROM usuarios WHERE token_verificacao_email = $1`, token)
	return scanUsuario(row)
}

// InsertUsuarioParams reúne os campos de criação de usuário.
type InsertUsuarioParams struct {
	ID          uuid.UUID
	Nome        string
	Email       string
	Username    *string
	CPF         *string
	CNPJ        *string
	SenhaHash   string
	NivelAcesso NivelAcesso
	GrupoID     *uuid.UUID
}

// InsertUsuario cria o usuário; e-mail duplicado devolve ErrDuplicado.
func (q *Queries) InsertUsuario(ctx context.Context, arg InsertUsuarioParams) (Usuario, error) {
	row := q.pool.QueryRow(ctx, `
        INSERT INTO usuarios (id, nome, email, username, cpf, cnpj, senha_hash,
                              municipe, operador, secretario, administrador, grupo_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING`+usuarioColumns,
		arg.ID, strings.TrimSpace(arg.Nome), strings.ToLower(strings.TrimSpace(arg.Email)),
		arg.Username, arg.CPF, arg.CNPJ, arg.SenhaHash,
		arg.NivelAcesso.Municipe, arg.NivelAcesso.Operador,
		arg.NivelAcesso.Secretario, arg.NivelAcesso.Administrador, arg.GrupoID,
	)
	u, err := scanUsuario(row)
	if err != nil && isUniqueViolation(err) {
		return Usuario{}, ErrDuplicado
	}
	return u, err
}

// UpdateUsuarioParams descreve atualização parcial; campos nil são mantidos.
// Os campos privilegiados (NivelAcesso, GrupoID, Secretarias) chegam aqui
// já filtrados pelo serviço conforme o papel de quem altera.
type UpdateUsuarioParams struct {
	ID          uuid.UUID
	Nome        *string
	Email       *string
	Username    *string
	CPF         *string
	CNPJ        *string
	NivelAcesso *NivelAcesso
	GrupoID     *uuid.UUID
}

// UpdateUsuario aplica atualização parcial no registro.
func (q *Queries) UpdateUsuario(ctx context.Context, arg UpdateUsuarioParams) (Usuario, error) {
	row := q.pool.QueryRow(ctx, `
        UPDATE usuarios SET
            nome          = COALESCE($2, nome),
            email         = COALESCE($3, email),
            username      = COALESCE($4, username),
            cpf           = COALESCE($5, cpf),
            cnpj          = COALESCE($6, cnpj),
            municipe      = COALESCE($7, municipe),
            operador      = COALESCE($8, operador),
            secretario    = COALESCE($9, secretario),
            administrador = COALESCE($10, administrador),
            grupo_id      = COALESCE($11, grupo_id),
            atualizado_em = now()
        WHERE id = $1
        RETURNING`+usuarioColumns,
		arg.ID, arg.Nome, normalizeEmailPtr(arg.Email), arg.Username, arg.CPF, arg.CNPJ,
		boolPtr(arg.NivelAcesso, func(n NivelAcesso) bool { return n.Municipe }),
		boolPtr(arg.NivelAcesso, func(n NivelAcesso) bool { return n.Operador }),
		boolPtr(arg.NivelAcesso, func(n NivelAcesso) bool { return n.Secretario }),
		boolPtr(arg.NivelAcesso, func(n NivelAcesso) bool { return n.Administrador }),
		arg.GrupoID,
	)
	u, err := scanUsuario(row)
	if err != nil && isUniqueViolation(err) {
		return Usuario{}, ErrDuplicado
	}
	return u, err
}

func normalizeEmailPtr(email *string) *string {
	if email == nil {
		return nil
	}
	normalized := strings.ToLower(strings.TrimSpace(*email))
	return &normalized
}

func boolPtr(n *NivelAcesso, pick func(NivelAcesso) bool) *bool {
	if n == nil {
		return nil
	}
	v := pick(*n)
	return &v
}

// UsuarioFilter restringe listagens; SecretariaIDs não vazio limita o
// resultado a usuários vinculados a alguma das secretarias informadas.
type UsuarioFilter struct {
	SecretariaIDs []uuid.UUID
}

// ListUsuarios devolve usuários aplicando o filtro de escopo.
func (q *Queries) ListUsuarios(ctx context.Context, filter UsuarioFilter) ([]Usuario, error) {
	query := `SELECT` + usuarioColumns + ` FROM usuarios`
	var args []any
	if len(filter.SecretariaIDs) > 0 {
		query += ` WHERE id IN (SELECT usuario_id FROM usuarios_secretarias WHERE secretaria_id = ANY($1))`
		args = append(args, filter.SecretariaIDs)
	}
	query += ` ORDER BY criado_em ASC`

	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usuarios []Usuario
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, err
		}
		usuarios = append(usuarios, u)
	}
	return usuarios, rows.Err()
}

// DeleteUsuario remove definitivamente o registro.
func (q *Queries) DeleteUsuario(ctx context.Context, id uuid.UUID) error {
	cmd, err := q.pool.Exec(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSecretariaIDsByUsuario devolve as secretarias às quais o usuário é vinculado.
func (q *Queries) ListSecretariaIDsByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.pool.Query(ctx,
		`SELECT secretaria_id FROM usuarios_secretarias WHERE usuario_id = $1`, usuarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetSecretariasDoUsuario substitui os vínculos de secretaria do usuário.
func (q *Queries) SetSecretariasDoUsuario(ctx context.Context, usuarioID uuid.UUID, secretariaIDs []uuid.UUID) error {
	tx, err := q.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM usuarios_secretarias WHERE usuario_id = $1`, usuarioID); err != nil {
		return err
	}
	for _, secID := range secretariaIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO usuarios_secretarias (usuario_id, secretaria_id) VALUES ($1, $2)`,
			usuarioID, secID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// UpdateTokens grava o par access/refresh emitido por último e avança a
// versão de sessão. Gravação nil revoga.
func (q *Queries) UpdateTokens(ctx context.Context, id uuid.UUID, access, refresh *string) error {
	cmd, err := q.pool.Exec(ctx, `
        UPDATE usuarios
        SET access_token = $2, refresh_token = $3,
            versao_token = versao_token + 1, atualizado_em = now()
        WHERE id = $1`, id, access, refresh)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTokensCAS grava o par de tokens apenas se a versão de sessão não
// avançou desde a leitura; perder a corrida devolve ErrConflitoVersao.
func (q *Queries) UpdateTokensCAS(ctx context.Context, id uuid.UUID, access, refresh *string, versao int64) error {
	cmd, err := q.pool.Exec(ctx, `
        UPDATE usuarios
        SET access_token = $2, refresh_token = $3,
            versao_token = versao_token + 1, atualizado_em = now()
        WHERE id = $1 AND versao_token = $4`, id, access, refresh, versao)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrConflitoVersao
	}
	return nil
}

// UpdateSenhaELimpaRecuperacao persiste o novo hash e apaga o código de
// recuperação, garantindo uso único.
func (q *Queries) UpdateSenhaELimpaRecuperacao(ctx context.Context, id uuid.UUID, senhaHash string) error {
	cmd, err := q.pool.Exec(ctx, `
        UPDATE usuarios
        SET senha_hash = $2,
            codigo_recupera_senha = NULL, expira_recupera_senha = NULL,
            atualizado_em = now()
        WHERE id = $1`, id, senhaHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateCodigoRecuperacao grava código + expiração absoluta calculada no
// servidor; sobrescreve qualquer código anterior.
func (q *Queries) UpdateCodigoRecuperacao(ctx context.Context, id uuid.UUID, codigo string, expira time.Time) error {
	cmd, err := q.pool.Exec(ctx, `
        UPDATE usuarios
        SET codigo_recupera_senha = $2, expira_recupera_senha = $3, atualizado_em = now()
        WHERE id = $1`, id, codigo, expira)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTokenVerificacao grava token de verificação de e-mail + expiração.
func (q *Queries) UpdateTokenVerificacao(ctx context.Context, id uuid.UUID, token string, expira time.Time) error {
	cmd, err := q.pool.Exec(ctx, `
        UPDATE usuarios
        SET token_verificacao_email = $2, expira_verificacao_email = $3, atualizado_em = now()
        WHERE id = $1`, id, token, expira)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarcarEmailVerificado confirma o e-mail e apaga o token de verificação.
func (q *Queries) MarcarEmailVerificado(ctx context.Context, id uuid.UUID) error {
	cmd, err := q.pool.Exec(ctx, `
        UPDATE usuarios
        SET email_verificado = TRUE,
            token_verificacao_email = NULL, expira_verificacao_email = NULL,
            atualizado_em = now()
        WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
