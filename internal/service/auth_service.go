package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/demandas/internal/auth"
	"github.com/gestaozabele/demandas/internal/mail"
	"github.com/gestaozabele/demandas/internal/repo"
	"github.com/gestaozabele/demandas/internal/util"
)

var (
	// ErrCredenciaisInvalidas indica falha na autenticação. A mensagem é a
	// mesma para usuário inexistente e senha incorreta, de propósito: o
	// caminho de login não revela existência de conta.
	ErrCredenciaisInvalidas = errors.New("credenciais inválidas")
	// ErrContaDesativada indica conta desativada.
	ErrContaDesativada = errors.New("conta desativada")
	// ErrEmailNaoVerificado bloqueia login de munícipe sem e-mail confirmado.
	ErrEmailNaoVerificado = errors.New("e-mail não verificado")
	// ErrRefreshInvalido indica refresh token ausente, divergente do
	// armazenado ou revogado.
	ErrRefreshInvalido = errors.New("refresh token inválido")
	// ErrTokenAusente indica requisição sem token de acesso utilizável.
	ErrTokenAusente = errors.New("token de acesso ausente")
	// ErrRecuperacaoExpirada indica código de recuperação vencido.
	ErrRecuperacaoExpirada = errors.New("código de recuperação expirado")
	// ErrValidacao marca entrada malformada detectada no serviço.
	ErrValidacao = errors.New("dados inválidos")
)

// authRepository enumera o que o fluxo de autenticação precisa do
// Credential Store.
type authRepository interface {
	GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error)
	GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error)
	GetUsuarioByIdentificador(ctx context.Context, identificador string) (repo.Usuario, error)
	GetUsuarioByCodigoRecuperacao(ctx context.Context, codigo string) (repo.Usuario, error)
	GetUsuarioByTokenVerificacao(ctx context.Context, token string) (repo.Usuario, error)
	GetGrupoByNome(ctx context.Context, nome string) (repo.Grupo, error)
	InsertUsuario(ctx context.Context, arg repo.InsertUsuarioParams) (repo.Usuario, error)
	UpdateTokens(ctx context.Context, id uuid.UUID, access, refresh *string) error
	UpdateTokensCAS(ctx context.Context, id uuid.UUID, access, refresh *string, versao int64) error
	UpdateSenhaELimpaRecuperacao(ctx context.Context, id uuid.UUID, senhaHash string) error
	UpdateCodigoRecuperacao(ctx context.Context, id uuid.UUID, codigo string, expira time.Time) error
	UpdateTokenVerificacao(ctx context.Context, id uuid.UUID, token string, expira time.Time) error
	MarcarEmailVerificado(ctx context.Context, id uuid.UUID) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// mailEnqueuer agenda e-mails sem bloquear a requisição.
type mailEnqueuer interface {
	Enqueue(msg mail.Mensagem)
}

// AuthService concentra o ciclo de vida de tokens e as transições de
// estado de sessão.
type AuthService struct {
	repo        authRepository
	redis       redisCommander
	tokens      *auth.TokenManager
	mailer      mailEnqueuer
	sessaoUnica bool
	baseURL     string
}

// NewAuthService cria novo serviço com dependências injetadas.
func NewAuthService(r authRepository, redisClient redisCommander, tokens *auth.TokenManager, mailer mailEnqueuer, sessaoUnica bool, baseURL string) *AuthService {
	return &AuthService{
		repo:        r,
		redis:       redisClient,
		tokens:      tokens,
		mailer:      mailer,
		sessaoUnica: sessaoUnica,
		baseURL:     baseURL,
	}
}

// Tokens expõe o gerenciador (útil em middlewares).
func (s *AuthService) Tokens() *auth.TokenManager {
	return s.tokens
}

// LoginResult agrega perfil e par de tokens emitidos.
type LoginResult struct {
	Usuario      repo.Usuario `json:"usuario"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// Login autentica por identificador (e-mail, username, CPF ou CNPJ, nesta
// ordem) e senha.
func (s *AuthService) Login(ctx context.Context, identificador, senha string) (*LoginResult, error) {
	user, err := s.repo.GetUsuarioByIdentificador(ctx, identificador)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return nil, ErrCredenciaisInvalidas
		}
		return nil, err
	}

	ok, err := auth.Verify(senha, user.SenhaHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: comparação de senha falhou")
		return nil, ErrCredenciaisInvalidas
	}
	if !ok {
		log.Warn().Msg("login: senha incorreta")
		return nil, ErrCredenciaisInvalidas
	}

	if !user.Ativo {
		return nil, ErrContaDesativada
	}

	// Apenas munícipes passam pelo bloqueio de e-mail não verificado.
	if ResolvePapel(user.NivelAcesso) == PapelMunicipe && !user.EmailVerificado {
		return nil, ErrEmailNaoVerificado
	}

	accessToken, err := s.tokens.Issue(auth.EspecieAccess, user.ID)
	if err != nil {
		return nil, fmt.Errorf("emitir access token: %w", err)
	}

	refreshToken, err := s.resolveRefreshNoLogin(user)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateTokens(ctx, user.ID, &accessToken, &refreshToken); err != nil {
		return nil, err
	}
	if err := s.marcarSessaoAtiva(ctx, refreshToken); err != nil {
		return nil, err
	}

	user.AccessToken = &accessToken
	user.RefreshToken = &refreshToken

	return &LoginResult{Usuario: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// resolveRefreshNoLogin reaproveita o refresh token armazenado quando
// ainda válido; vencido ou corrompido é reemitido em silêncio. Qualquer
// outra falha do verificador (segredo ausente) é fatal.
func (s *AuthService) resolveRefreshNoLogin(user repo.Usuario) (string, error) {
	if user.RefreshToken != nil && *user.RefreshToken != "" {
		_, err := s.tokens.Verify(auth.EspecieRefresh, *user.RefreshToken)
		switch {
		case err == nil:
			return *user.RefreshToken, nil
		case errors.Is(err, auth.ErrTokenExpirado), errors.Is(err, auth.ErrTokenInvalido):
			// reemite sem interromper o login
		default:
			return "", fmt.Errorf("verificar refresh token armazenado: %w", err)
		}
	}
	return s.tokens.Issue(auth.EspecieRefresh, user.ID)
}

// Logout exige um access token válido e revoga o par armazenado do
// próprio portador.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" || accessToken == "null" || accessToken == "undefined" {
		return ErrTokenAusente
	}

	claims, err := s.tokens.Verify(auth.EspecieAccess, accessToken)
	if err != nil {
		return auth.ErrTokenInvalido
	}
	userID, err := claims.SubjectUUID()
	if err != nil {
		return auth.ErrTokenInvalido
	}

	return s.revogarTokens(ctx, userID)
}

// Revoke limpa o par de tokens do usuário alvo. A rota que chama este
// método é restrita a administradores.
func (s *AuthService) Revoke(ctx context.Context, userID uuid.UUID) error {
	return s.revogarTokens(ctx, userID)
}

func (s *AuthService) revogarTokens(ctx context.Context, userID uuid.UUID) error {
	// CAS com uma repetição: revogação concorrente com refresh não pode
	// ressuscitar um par recém-gravado sem ser notada.
	for tentativa := 0; tentativa < 2; tentativa++ {
		user, err := s.repo.GetUsuarioByID(ctx, userID)
		if err != nil {
			return err
		}

		if err := s.repo.UpdateTokensCAS(ctx, userID, nil, nil, user.VersaoToken); err != nil {
			if errors.Is(err, repo.ErrConflitoVersao) {
				continue
			}
			return err
		}

		if user.RefreshToken != nil {
			s.limparSessaoAtiva(ctx, *user.RefreshToken)
		}
		return nil
	}
	return repo.ErrConflitoVersao
}

// Refresh troca um refresh token válido por um novo access token. O token
// apresentado precisa ser byte a byte igual ao armazenado no usuário;
// assinatura válida sozinha não basta. Um novo refresh token só é emitido
// quando a política de sessão única está ativa.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, ErrRefreshInvalido
	}

	claims, err := s.tokens.Verify(auth.EspecieRefresh, rawToken)
	if err != nil {
		return nil, ErrRefreshInvalido
	}
	userID, err := claims.SubjectUUID()
	if err != nil {
		return nil, ErrRefreshInvalido
	}

	user, err := s.repo.GetUsuarioByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != rawToken {
		return nil, ErrRefreshInvalido
	}

	if err := s.sessaoAtiva(ctx, rawToken); err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.Issue(auth.EspecieAccess, user.ID)
	if err != nil {
		return nil, fmt.Errorf("emitir access token: %w", err)
	}

	refreshToken := rawToken
	if s.sessaoUnica {
		if refreshToken, err = s.tokens.Issue(auth.EspecieRefresh, user.ID); err != nil {
			return nil, fmt.Errorf("emitir refresh token: %w", err)
		}
	}

	if err := s.repo.UpdateTokensCAS(ctx, user.ID, &accessToken, &refreshToken, user.VersaoToken); err != nil {
		if errors.Is(err, repo.ErrConflitoVersao) {
			return nil, ErrRefreshInvalido
		}
		return nil, err
	}

	if s.sessaoUnica {
		s.limparSessaoAtiva(ctx, rawToken)
		if err := s.marcarSessaoAtiva(ctx, refreshToken); err != nil {
			return nil, err
		}
	}

	user.AccessToken = &accessToken
	user.RefreshToken = &refreshToken

	return &LoginResult{Usuario: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// RecuperarSenha emite código de recuperação com expiração absoluta
// calculada no servidor e agenda o e-mail correspondente.
func (s *AuthService) RecuperarSenha(ctx context.Context, email string) error {
	user, err := s.repo.GetUsuarioByEmail(ctx, email)
	if err != nil {
		return err
	}

	codigo, err := s.tokens.Issue(auth.EspecieRecuperacao, user.ID)
	if err != nil {
		return fmt.Errorf("emitir código de recuperação: %w", err)
	}

	// Expiração gravada à parte do exp embutido no token: armazenamento e
	// token podem ser invalidados de forma independente.
	expira := util.Now().Add(s.tokens.TTL(auth.EspecieRecuperacao))
	if err := s.repo.UpdateCodigoRecuperacao(ctx, user.ID, codigo, expira); err != nil {
		return err
	}

	s.mailer.Enqueue(mail.Mensagem{
		Para:     user.Email,
		Assunto:  "Recuperação de senha",
		Template: "recuperacao.html",
		Dados: map[string]string{
			"Nome": user.Nome,
			"Link": s.baseURL + "/alterar-senha?token=" + codigo,
		},
	})

	return nil
}

// AlterarSenha consome o código de recuperação: decodifica, reconfere
// contra o valor armazenado (a dupla checagem barra replay de código já
// superado), valida a expiração gravada e persiste o novo hash apagando o
// código.
func (s *AuthService) AlterarSenha(ctx context.Context, token, novaSenha string) error {
	if err := util.ValidatePassword(novaSenha); err != nil {
		return fmt.Errorf("%w: %s", ErrValidacao, err.Error())
	}

	if _, err := s.tokens.Verify(auth.EspecieRecuperacao, token); err != nil {
		return err
	}

	user, err := s.repo.GetUsuarioByCodigoRecuperacao(ctx, token)
	if err != nil {
		return err
	}

	if user.ExpiraRecuperaSenha == nil || util.Now().After(*user.ExpiraRecuperaSenha) {
		return ErrRecuperacaoExpirada
	}

	hash, err := auth.Hash(novaSenha)
	if err != nil {
		return err
	}

	return s.repo.UpdateSenhaELimpaRecuperacao(ctx, user.ID, hash)
}

// VerificarEmail confirma o e-mail pelo token armazenado. Token vencido
// dispara reemissão + reenvio e a requisição corrente falha mesmo assim.
func (s *AuthService) VerificarEmail(ctx context.Context, token string) error {
	user, err := s.repo.GetUsuarioByTokenVerificacao(ctx, token)
	if err != nil {
		return err
	}

	if user.ExpiraVerificacaoEmail == nil || util.Now().After(*user.ExpiraVerificacaoEmail) {
		novo, err := s.tokens.Issue(auth.EspecieVerificacao, user.ID)
		if err != nil {
			return fmt.Errorf("reemitir token de verificação: %w", err)
		}
		expira := util.Now().Add(s.tokens.TTL(auth.EspecieVerificacao))
		if err := s.repo.UpdateTokenVerificacao(ctx, user.ID, novo, expira); err != nil {
			return err
		}
		s.enviarVerificacao(user, novo)
		return auth.ErrTokenExpirado
	}

	return s.repo.MarcarEmailVerificado(ctx, user.ID)
}

// Introspeccao segue o formato da RFC 7662.
type Introspeccao struct {
	Active    bool   `json:"active"`
	ClientID  string `json:"client_id,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Iat       int64  `json:"iat,omitempty"`
	Nbf       int64  `json:"nbf,omitempty"`
}

// Introspect decodifica o access token sem confrontar o valor armazenado:
// diagnóstico de leitura, não checagem de revogação.
func (s *AuthService) Introspect(accessToken string) Introspeccao {
	claims, err := s.tokens.Decode(auth.EspecieAccess, accessToken)
	if err != nil {
		return Introspeccao{Active: false}
	}

	out := Introspeccao{
		ClientID:  claims.Subject,
		TokenType: "Bearer",
	}
	if claims.ExpiresAt != nil {
		out.Exp = claims.ExpiresAt.Unix()
		out.Active = claims.ExpiresAt.After(util.Now())
	}
	if claims.IssuedAt != nil {
		out.Iat = claims.IssuedAt.Unix()
	}
	if claims.NotBefore != nil {
		out.Nbf = claims.NotBefore.Unix()
	}
	return out
}

// SignupParams descreve o auto-cadastro de munícipe.
type SignupParams struct {
	Nome     string
	Email    string
	Senha    string
	Username *string
	CPF      *string
	CNPJ     *string
}

// CriarComSenha cadastra munícipe por auto-serviço. Qualquer grupo ou
// nivel_acesso enviado pelo cliente é ignorado: o papel é forçado a
// municipe e o grupo "Municipe" é atribuído por nome.
func (s *AuthService) CriarComSenha(ctx context.Context, params SignupParams) (repo.Usuario, error) {
	if err := util.ValidateEmail(params.Email); err != nil {
		return repo.Usuario{}, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
	}
	if err := util.ValidatePassword(params.Senha); err != nil {
		return repo.Usuario{}, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
	}
	if err := util.RequireString(params.Nome, "nome"); err != nil {
		return repo.Usuario{}, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
	}
	if params.CPF != nil {
		if err := util.ValidateCPF(*params.CPF); err != nil {
			return repo.Usuario{}, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
		}
	}
	if params.CNPJ != nil {
		if err := util.ValidateCNPJ(*params.CNPJ); err != nil {
			return repo.Usuario{}, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
		}
	}

	grupo, err := s.repo.GetGrupoByNome(ctx, "Municipe")
	if err != nil {
		return repo.Usuario{}, fmt.Errorf("grupo Municipe: %w", err)
	}

	hash, err := auth.Hash(params.Senha)
	if err != nil {
		return repo.Usuario{}, err
	}

	user, err := s.repo.InsertUsuario(ctx, repo.InsertUsuarioParams{
		ID:          util.NewID(),
		Nome:        params.Nome,
		Email:       params.Email,
		Username:    params.Username,
		CPF:         params.CPF,
		CNPJ:        params.CNPJ,
		SenhaHash:   hash,
		NivelAcesso: repo.NivelAcesso{Municipe: true},
		GrupoID:     &grupo.ID,
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicado) {
			return repo.Usuario{}, fmt.Errorf("%w: e-mail já cadastrado", ErrValidacao)
		}
		return repo.Usuario{}, err
	}

	token, err := s.tokens.Issue(auth.EspecieVerificacao, user.ID)
	if err != nil {
		return repo.Usuario{}, fmt.Errorf("emitir token de verificação: %w", err)
	}
	expira := util.Now().Add(s.tokens.TTL(auth.EspecieVerificacao))
	if err := s.repo.UpdateTokenVerificacao(ctx, user.ID, token, expira); err != nil {
		return repo.Usuario{}, err
	}
	s.enviarVerificacao(user, token)

	return user, nil
}

func (s *AuthService) enviarVerificacao(user repo.Usuario, token string) {
	s.mailer.Enqueue(mail.Mensagem{
		Para:     user.Email,
		Assunto:  "Confirme o seu e-mail",
		Template: "verificacao.html",
		Dados: map[string]string{
			"Nome": user.Nome,
			"Link": s.baseURL + "/verificar-email?token=" + token,
		},
	})
}

// marcarSessaoAtiva espelha o refresh corrente no Redis com TTL igual ao
// do token; refresh e revogação consultam o marcador antes do banco.
func (s *AuthService) marcarSessaoAtiva(ctx context.Context, refreshToken string) error {
	key := auth.SessionRedisKey(auth.HashToken(refreshToken))
	return s.redis.Set(ctx, key, "active", s.tokens.TTL(auth.EspecieRefresh)).Err()
}

func (s *AuthService) sessaoAtiva(ctx context.Context, refreshToken string) error {
	key := auth.SessionRedisKey(auth.HashToken(refreshToken))
	status, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrRefreshInvalido
	}
	if err != nil {
		return err
	}
	if status != "active" {
		return ErrRefreshInvalido
	}
	return nil
}

func (s *AuthService) limparSessaoAtiva(ctx context.Context, refreshToken string) {
	key := auth.SessionRedisKey(auth.HashToken(refreshToken))
	if err := s.redis.Del(ctx, key).Err(); err != nil && err != redis.Nil {
		log.Warn().Err(err).Msg("não foi possível limpar marcador de sessão")
	}
}
