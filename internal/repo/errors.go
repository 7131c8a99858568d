package repo

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound é retornado quando nenhum registro é encontrado.
	ErrNotFound = errors.New("registro não encontrado")
	// ErrDuplicado indica violação de unicidade (e-mail, rota+domínio etc.).
	ErrDuplicado = errors.New("registro duplicado")
	// ErrConflitoVersao indica escrita concorrente no estado de tokens do usuário.
	ErrConflitoVersao = errors.New("conflito de versão de sessão")
)

// isUniqueViolation detecta violação de constraint UNIQUE do Postgres.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
