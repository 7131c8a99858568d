package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/demandas/internal/auth"
	"github.com/gestaozabele/demandas/internal/config"
	"github.com/gestaozabele/demandas/internal/mail"
	"github.com/gestaozabele/demandas/internal/repo"
	"github.com/gestaozabele/demandas/internal/util"
)

type stubAuthRepo struct {
	usuarios map[uuid.UUID]*repo.Usuario
	grupos   map[string]repo.Grupo

	// aposGet simula uma escrita concorrente entre a leitura do usuário
	// e o CAS subsequente.
	aposGet func(u *repo.Usuario)
}

func newStubAuthRepo() *stubAuthRepo {
	grupoID := uuid.New()
	return &stubAuthRepo{
		usuarios: map[uuid.UUID]*repo.Usuario{},
		grupos:   map[string]repo.Grupo{"Municipe": {ID: grupoID, Nome: "Municipe"}},
	}
}

func (s *stubAuthRepo) GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error) {
	if u, ok := s.usuarios[id]; ok {
		copia := *u
		if s.aposGet != nil {
			s.aposGet(u)
		}
		return copia, nil
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (s *stubAuthRepo) GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error) {
	for _, u := range s.usuarios {
		if u.Email == email {
			return *u, nil
		}
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (s *stubAuthRepo) GetUsuarioByIdentificador(ctx context.Context, identificador string) (repo.Usuario, error) {
	for _, u := range s.usuarios {
		if u.Email == identificador ||
			(u.Username != nil && *u.Username == identificador) ||
			(u.CPF != nil && *u.CPF == identificador) ||
			(u.CNPJ != nil && *u.CNPJ == identificador) {
			return *u, nil
		}
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (s *stubAuthRepo) GetUsuarioByCodigoRecuperacao(ctx context.Context, codigo string) (repo.Usuario, error) {
	for _, u := range s.usuarios {
		if u.CodigoRecuperaSenha != nil && *u.CodigoRecuperaSenha == codigo {
			return *u, nil
		}
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (s *stubAuthRepo) GetUsuarioByTokenVerificacao(ctx context.Context, token string) (repo.Usuario, error) {
	for _, u := range s.usuarios {
		if u.TokenVerificacaoEmail != nil && *u.TokenVerificacaoEmail == token {
			return *u, nil
		}
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (s *stubAuthRepo) GetGrupoByNome(ctx context.Context, nome string) (repo.Grupo, error) {
	if g, ok := s.grupos[nome]; ok {
		return g, nil
	}
	return repo.Grupo{}, repo.ErrNotFound
}

func (s *stubAuthRepo) InsertUsuario(ctx context.Context, arg repo.InsertUsuarioParams) (repo.Usuario, error) {
	for _, u := range s.usuarios {
		if u.Email == arg.Email {
			return repo.Usuario{}, repo.ErrDuplicado
		}
	}
	user := repo.Usuario{
		ID:          arg.ID,
		Nome:        arg.Nome,
		Email:       arg.Email,
		Username:    arg.Username,
		CPF:         arg.CPF,
		CNPJ:        arg.CNPJ,
		SenhaHash:   arg.SenhaHash,
		NivelAcesso: arg.NivelAcesso,
		GrupoID:     arg.GrupoID,
		Ativo:       true,
		CriadoEm:    util.Now(),
	}
	s.usuarios[user.ID] = &user
	return user, nil
}

func (s *stubAuthRepo) UpdateTokens(ctx context.Context, id uuid.UUID, access, refresh *string) error {
	u, ok := s.usuarios[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.AccessToken = access
	u.RefreshToken = refresh
	u.VersaoToken++
	return nil
}

func (s *stubAuthRepo) UpdateTokensCAS(ctx context.Context, id uuid.UUID, access, refresh *string, versao int64) error {
	u, ok := s.usuarios[id]
	if !ok {
		return repo.ErrNotFound
	}
	if u.VersaoToken != versao {
		return repo.ErrConflitoVersao
	}
	u.AccessToken = access
	u.RefreshToken = refresh
	u.VersaoToken++
	return nil
}

func (s *stubAuthRepo) UpdateSenhaELimpaRecuperacao(ctx context.Context, id uuid.UUID, senhaHash string) error {
	u, ok := s.usuarios[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.SenhaHash = senhaHash
	u.CodigoRecuperaSenha = nil
	u.ExpiraRecuperaSenha = nil
	u.VersaoToken++
	return nil
}

func (s *stubAuthRepo) UpdateCodigoRecuperacao(ctx context.Context, id uuid.UUID, codigo string, expira time.Time) error {
	u, ok := s.usuarios[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.CodigoRecuperaSenha = &codigo
	u.ExpiraRecuperaSenha = &expira
	return nil
}

func (s *stubAuthRepo) UpdateTokenVerificacao(ctx context.Context, id uuid.UUID, token string, expira time.Time) error {
	u, ok := s.usuarios[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.TokenVerificacaoEmail = &token
	u.ExpiraVerificacaoEmail = &expira
	return nil
}

func (s *stubAuthRepo) MarcarEmailVerificado(ctx context.Context, id uuid.UUID) error {
	u, ok := s.usuarios[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.EmailVerificado = true
	u.TokenVerificacaoEmail = nil
	u.ExpiraVerificacaoEmail = nil
	return nil
}

type stubRedis struct {
	store map[string]string
}

func newStubRedis() *stubRedis {
	return &stubRedis{store: map[string]string{}}
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	s.store[key] = fmt.Sprint(value)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if v, ok := s.store[key]; ok {
		cmd.SetVal(v)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removidos int64
	for _, key := range keys {
		if _, ok := s.store[key]; ok {
			delete(s.store, key)
			removidos++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(removidos)
	return cmd
}

type stubMailer struct {
	mensagens []mail.Mensagem
}

func (s *stubMailer) Enqueue(msg mail.Mensagem) {
	s.mensagens = append(s.mensagens, msg)
}

func testTokenConfig() config.TokenConfig {
	return config.TokenConfig{
		AccessSecret:      "chave-de-teste-access-0123456789abcdef",
		AccessTTL:         time.Hour,
		RefreshSecret:     "chave-de-teste-refresh-0123456789abcdef",
		RefreshTTL:        24 * time.Hour,
		RecuperacaoSecret: "chave-de-teste-recuperacao-0123456789ab",
		RecuperacaoTTL:    time.Hour,
		VerificacaoSecret: "chave-de-teste-verificacao-0123456789ab",
		VerificacaoTTL:    time.Hour,
	}
}

type authFixture struct {
	service *AuthService
	repo    *stubAuthRepo
	redis   *stubRedis
	mailer  *stubMailer
	tokens  *auth.TokenManager
}

func newAuthFixture(t *testing.T, sessaoUnica bool) *authFixture {
	t.Helper()
	r := newStubAuthRepo()
	rd := newStubRedis()
	m := &stubMailer{}
	tokens := auth.NewTokenManager(testTokenConfig())
	return &authFixture{
		service: NewAuthService(r, rd, tokens, m, sessaoUnica, "https://app.example.com"),
		repo:    r,
		redis:   rd,
		mailer:  m,
		tokens:  tokens,
	}
}

func (f *authFixture) seedUsuario(t *testing.T, senha string, nivel repo.NivelAcesso, verificado bool) *repo.Usuario {
	t.Helper()
	hash, err := auth.Hash(senha)
	require.NoError(t, err)

	user := &repo.Usuario{
		ID:              uuid.New(),
		Nome:            "Maria da Silva",
		Email:           fmt.Sprintf("maria+%s@example.com", uuid.NewString()[:8]),
		SenhaHash:       hash,
		NivelAcesso:     nivel,
		EmailVerificado: verificado,
		Ativo:           true,
		CriadoEm:        util.Now(),
	}
	f.repo.usuarios[user.ID] = user
	return user
}

func TestLoginPersisteTokens(t *testing.T) {
	f := newAuthFixture(t, false)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, true)

	result, err := f.service.Login(context.Background(), user.Email, "senha12345")
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)

	armazenado := f.repo.usuarios[user.ID]
	require.NotNil(t, armazenado.AccessToken)
	require.NotNil(t, armazenado.RefreshToken)
	assert.Equal(t, result.AccessToken, *armazenado.AccessToken)
	assert.Equal(t, result.RefreshToken, *armazenado.RefreshToken)

	// marcador de sessão espelhado no cache
	key := auth.SessionRedisKey(auth.HashToken(result.RefreshToken))
	assert.Equal(t, "active", f.redis.store[key])
}

func TestLoginNaoRevelaExistenciaDeConta(t *testing.T) {
	f := newAuthFixture(t, false)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, true)

	_, errDesconhecido := f.service.Login(context.Background(), "nao-existe@example.com", "qualquer")
	_, errSenhaErrada := f.service.Login(context.Background(), user.Email, "senha-errada")

	require.ErrorIs(t, errDesconhecido, ErrCredenciaisInvalidas)
	require.ErrorIs(t, errSenhaErrada, ErrCredenciaisInvalidas)
	assert.Equal(t, errDesconhecido.Error(), errSenhaErrada.Error())
}

func TestLoginBloqueiaMunicipeSemEmailVerificado(t *testing.T) {
	f := newAuthFixture(t, false)
	municipe := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, false)
	secretario := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Secretario: true}, false)

	_, err := f.service.Login(context.Background(), municipe.Email, "senha12345")
	assert.ErrorIs(t, err, ErrEmailNaoVerificado)

	// o bloqueio vale apenas para munícipes
	_, err = f.service.Login(context.Background(), secretario.Email, "senha12345")
	assert.NoError(t, err)
}

func TestLoginContaDesativada(t *testing.T) {
	f := newAuthFixture(t, false)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, true)
	f.repo.usuarios[user.ID].Ativo = false

	_, err := f.service.Login(context.Background(), user.Email, "senha12345")
	assert.ErrorIs(t, err, ErrContaDesativada)
}

func TestLoginReaproveitaRefreshValido(t *testing.T) {
	f := newAuthFixture(t, false)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, true)

	existente, err := f.tokens.Issue(auth.EspecieRefresh, user.ID)
	require.NoError(t, err)
	f.repo.usuarios[user.ID].RefreshToken = &existente

	result, err := f.service.Login(context.Background(), user.Email, "senha12345")
	require.NoError(t, err)
	assert.Equal(t, existente, result.RefreshToken)
}

func TestLoginReemiteRefreshVencido(t *testing.T) {
	f := newAuthFixture(t, false)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, true)

	cfgVencido := testTokenConfig()
	cfgVencido.RefreshTTL = -time.Minute
	vencido, err := auth.NewTokenManager(cfgVencido).Issue(auth.EspecieRefresh, user.ID)
	require.NoError(t, err)
	f.repo.usuarios[user.ID].RefreshToken = &vencido

	result, err := f.service.Login(context.Background(), user.Email, "senha12345")
	require.NoError(t, err)
	assert.NotEqual(t, vencido, result.RefreshToken)

	_, err = f.tokens.Verify(auth.EspecieRefresh, result.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshExigeIgualdadeComArmazenado(t *testing.T) {
	f := newAuthFixture(t, false)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, true)

	_, err := f.service.Login(context.Background(), user.Email, "senha12345")
	require.NoError(t, err)

	// assinatura válida não basta: o valor precisa bater com o armazenado
	outro, err := f.tokens.Issue(auth.EspecieRefresh, user.ID)
	require.NoError(t, err)

	_, err = f.service.Refresh(context.Background(), outro)
	assert.ErrorIs(t, err, ErrRefreshInvalido)
}

func TestRefreshSemRotacaoPorPadrao(t *testing.T) {
	f := newAuthFixture(t, false)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, true)

	login, err := f.service.Login(context.Background(), user.Email, "senha12345")
	require.NoError(t, err)

	result, err := f.service.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, login.RefreshToken, result.RefreshToken)
}

func TestRefreshRotacionaComSessaoUnica(t *testing.T) {
	f := newAuthFixture(t, true)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, true)

	login, err := f.service.Login(context.Background(), user.Email, "senha12345")
	require.NoError(t, err)

	result, err := f.service.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, result.RefreshToken)

	// o token antigo deixa de valer após a rotação
	_, err = f.service.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalido)

	_, err = f.service.Refresh(context.Background(), result.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshSemMarcadorDeSessao(t *testing.T) {
	f := newAuthFixture(t, false)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, true)

	login, err := f.service.Login(context.Background(), user.Email, "senha12345")
	require.NoError(t, err)

	// revogação fora de banda: marcador removido do cache
	key := auth.SessionRedisKey(auth.HashToken(login.RefreshToken))
	delete(f.redis.store, key)

	_, err = f.service.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalido)
}

func TestRefreshPerdeCorridaComRevogacao(t *testing.T) {
	f := newAuthFixture(t, false)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, true)

	login, err := f.service.Login(context.Background(), user.Email, "senha12345")
	require.NoError(t, err)

	// revogação intercalada entre a leitura e a gravação do par
	f.repo.aposGet = func(u *repo.Usuario) {
		u.VersaoToken++
	}

	_, err = f.service.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalido)
}

func TestLogoutRevogaPar(t *testing.T) {
	f := newAuthFixture(t, false)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, true)

	login, err := f.service.Login(context.Background(), user.Email, "senha12345")
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(context.Background(), login.AccessToken))

	armazenado := f.repo.usuarios[user.ID]
	assert.Nil(t, armazenado.AccessToken)
	assert.Nil(t, armazenado.RefreshToken)
	assert.Empty(t, f.redis.store)

	_, err = f.service.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalido)
}

func TestLogoutTokenAusente(t *testing.T) {
	f := newAuthFixture(t, false)

	for _, raw := range []string{"", "  ", "null", "undefined"} {
		assert.ErrorIs(t, f.service.Logout(context.Background(), raw), ErrTokenAusente, "valor %q", raw)
	}

	assert.ErrorIs(t, f.service.Logout(context.Background(), "lixo"), auth.ErrTokenInvalido)
}

func TestRecuperarSenhaEmailDesconhecido(t *testing.T) {
	f := newAuthFixture(t, false)

	err := f.service.RecuperarSenha(context.Background(), "nao-existe@example.com")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestRecuperarSenhaAgendaEmail(t *testing.T) {
	f := newAuthFixture(t, false)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, true)

	require.NoError(t, f.service.RecuperarSenha(context.Background(), user.Email))

	armazenado := f.repo.usuarios[user.ID]
	require.NotNil(t, armazenado.CodigoRecuperaSenha)
	require.NotNil(t, armazenado.ExpiraRecuperaSenha)
	assert.True(t, armazenado.ExpiraRecuperaSenha.After(util.Now()))

	require.Len(t, f.mailer.mensagens, 1)
	msg := f.mailer.mensagens[0]
	assert.Equal(t, user.Email, msg.Para)
	assert.Equal(t, "recuperacao.html", msg.Template)
	assert.Contains(t, msg.Dados.(map[string]string)["Link"], *armazenado.CodigoRecuperaSenha)
}

func TestAlterarSenhaConsomeCodigo(t *testing.T) {
	f := newAuthFixture(t, false)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, true)

	require.NoError(t, f.service.RecuperarSenha(context.Background(), user.Email))
	codigo := *f.repo.usuarios[user.ID].CodigoRecuperaSenha

	require.NoError(t, f.service.AlterarSenha(context.Background(), codigo, "nova-senha-123"))

	armazenado := f.repo.usuarios[user.ID]
	assert.Nil(t, armazenado.CodigoRecuperaSenha)
	ok, err := auth.Verify("nova-senha-123", armazenado.SenhaHash)
	require.NoError(t, err)
	assert.True(t, ok)

	// código é de uso único
	err = f.service.AlterarSenha(context.Background(), codigo, "outra-senha-123")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestAlterarSenhaExpiradaNoArmazenamento(t *testing.T) {
	f := newAuthFixture(t, false)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, true)

	codigo, err := f.tokens.Issue(auth.EspecieRecuperacao, user.ID)
	require.NoError(t, err)
	passado := util.Now().Add(-time.Minute)
	f.repo.usuarios[user.ID].CodigoRecuperaSenha = &codigo
	f.repo.usuarios[user.ID].ExpiraRecuperaSenha = &passado

	err = f.service.AlterarSenha(context.Background(), codigo, "nova-senha-123")
	assert.ErrorIs(t, err, ErrRecuperacaoExpirada)
}

func TestAlterarSenhaSenhaFraca(t *testing.T) {
	f := newAuthFixture(t, false)

	err := f.service.AlterarSenha(context.Background(), "qualquer", "curta")
	assert.ErrorIs(t, err, ErrValidacao)
}

func TestVerificarEmail(t *testing.T) {
	f := newAuthFixture(t, false)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, false)

	token, err := f.tokens.Issue(auth.EspecieVerificacao, user.ID)
	require.NoError(t, err)
	expira := util.Now().Add(time.Hour)
	f.repo.usuarios[user.ID].TokenVerificacaoEmail = &token
	f.repo.usuarios[user.ID].ExpiraVerificacaoEmail = &expira

	require.NoError(t, f.service.VerificarEmail(context.Background(), token))
	assert.True(t, f.repo.usuarios[user.ID].EmailVerificado)
}

func TestVerificarEmailVencidoReemiteEReenvia(t *testing.T) {
	f := newAuthFixture(t, false)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, false)

	token, err := f.tokens.Issue(auth.EspecieVerificacao, user.ID)
	require.NoError(t, err)
	passado := util.Now().Add(-time.Minute)
	f.repo.usuarios[user.ID].TokenVerificacaoEmail = &token
	f.repo.usuarios[user.ID].ExpiraVerificacaoEmail = &passado

	err = f.service.VerificarEmail(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrTokenExpirado)

	armazenado := f.repo.usuarios[user.ID]
	assert.False(t, armazenado.EmailVerificado)
	require.NotNil(t, armazenado.TokenVerificacaoEmail)
	assert.NotEqual(t, token, *armazenado.TokenVerificacaoEmail)

	require.Len(t, f.mailer.mensagens, 1)
	assert.Equal(t, "verificacao.html", f.mailer.mensagens[0].Template)
	assert.Contains(t, f.mailer.mensagens[0].Dados.(map[string]string)["Link"], *armazenado.TokenVerificacaoEmail)
}

func TestCriarComSenhaForcaMunicipe(t *testing.T) {
	f := newAuthFixture(t, false)

	user, err := f.service.CriarComSenha(context.Background(), SignupParams{
		Nome:  "João Pereira",
		Email: "joao@example.com",
		Senha: "senha12345",
	})
	require.NoError(t, err)

	assert.Equal(t, repo.NivelAcesso{Municipe: true}, user.NivelAcesso)
	require.NotNil(t, user.GrupoID)
	assert.Equal(t, f.repo.grupos["Municipe"].ID, *user.GrupoID)
	assert.False(t, user.EmailVerificado)

	require.Len(t, f.mailer.mensagens, 1)
	assert.Equal(t, "verificacao.html", f.mailer.mensagens[0].Template)

	// e-mail duplicado vira erro de validação
	_, err = f.service.CriarComSenha(context.Background(), SignupParams{
		Nome:  "João Pereira",
		Email: "joao@example.com",
		Senha: "senha12345",
	})
	assert.ErrorIs(t, err, ErrValidacao)
}

func TestCriarComSenhaValidaDocumentos(t *testing.T) {
	f := newAuthFixture(t, false)

	cpfInvalido := "11111111111"
	_, err := f.service.CriarComSenha(context.Background(), SignupParams{
		Nome:  "João Pereira",
		Email: "joao@example.com",
		Senha: "senha12345",
		CPF:   &cpfInvalido,
	})
	assert.ErrorIs(t, err, ErrValidacao)
}

func TestIntrospect(t *testing.T) {
	f := newAuthFixture(t, false)
	userID := uuid.New()

	token, err := f.tokens.Issue(auth.EspecieAccess, userID)
	require.NoError(t, err)

	out := f.service.Introspect(token)
	assert.True(t, out.Active)
	assert.Equal(t, userID.String(), out.ClientID)
	assert.Equal(t, "Bearer", out.TokenType)

	cfgVencido := testTokenConfig()
	cfgVencido.AccessTTL = -time.Minute
	vencido, err := auth.NewTokenManager(cfgVencido).Issue(auth.EspecieAccess, userID)
	require.NoError(t, err)

	assert.False(t, f.service.Introspect(vencido).Active)
	assert.False(t, f.service.Introspect("lixo").Active)
}

func TestRevokeLimpaTokensDoAlvo(t *testing.T) {
	f := newAuthFixture(t, false)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, true)

	login, err := f.service.Login(context.Background(), user.Email, "senha12345")
	require.NoError(t, err)

	require.NoError(t, f.service.Revoke(context.Background(), user.ID))

	_, err = f.service.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalido)
}

func TestRevokeRepeteUmaVezAposConflito(t *testing.T) {
	f := newAuthFixture(t, false)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, true)

	_, err := f.service.Login(context.Background(), user.Email, "senha12345")
	require.NoError(t, err)

	// apenas a primeira tentativa perde a corrida
	conflitos := 0
	f.repo.aposGet = func(u *repo.Usuario) {
		if conflitos == 0 {
			conflitos++
			u.VersaoToken++
		}
	}

	require.NoError(t, f.service.Revoke(context.Background(), user.ID))

	armazenado := f.repo.usuarios[user.ID]
	assert.Nil(t, armazenado.AccessToken)
	assert.Nil(t, armazenado.RefreshToken)
}

func TestRevokeDesisteAposConflitoPersistente(t *testing.T) {
	f := newAuthFixture(t, false)
	user := f.seedUsuario(t, "senha12345", repo.NivelAcesso{Municipe: true}, true)

	_, err := f.service.Login(context.Background(), user.Email, "senha12345")
	require.NoError(t, err)

	f.repo.aposGet = func(u *repo.Usuario) {
		u.VersaoToken++
	}

	err = f.service.Revoke(context.Background(), user.ID)
	assert.ErrorIs(t, err, repo.ErrConflitoVersao)
}
