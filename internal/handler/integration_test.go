package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/meimei/internal/auth"
	clientapi "github.com/hitoshi/meimei/internal/client/api"
	clientfav "github.com/hitoshi/meimei/internal/client/favorites"
	"github.com/hitoshi/meimei/internal/client/kvstore"
	clientsession "github.com/hitoshi/meimei/internal/client/session"
	"github.com/hitoshi/meimei/internal/client/share"
	"github.com/hitoshi/meimei/internal/favorites"
	"github.com/hitoshi/meimei/internal/middleware"
	"github.com/hitoshi/meimei/internal/model"
	"github.com/hitoshi/meimei/internal/namegen"
)

// --- インメモリリポジトリ実装 ---
// フルスタック結合テスト用。PostgreSQLなしでサービス層をそのまま動かす。

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User // key: ID
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User)}
}

func (r *memUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

type memTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*model.AuthToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: make(map[string]*model.AuthToken)}
}

func (r *memTokenRepo) Create(ctx context.Context, token *model.AuthToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *token
	r.tokens[token.Token] = &copied
	return nil
}

func (r *memTokenRepo) FindByToken(ctx context.Context, token string) (*model.AuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok || t.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (r *memTokenRepo) DeleteByToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

func (r *memTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for k, t := range r.tokens {
		if t.ExpiresAt.Before(time.Now()) {
			delete(r.tokens, k)
			deleted++
		}
	}
	return deleted, nil
}

type memNameRepo struct {
	mu    sync.Mutex
	names map[string]model.Name
	order []string
}

func newMemNameRepo(names ...model.Name) *memNameRepo {
	r := &memNameRepo{names: make(map[string]model.Name)}
	for _, n := range names {
		r.names[n.ID] = n
		r.order = append(r.order, n.ID)
	}
	return r
}

func (r *memNameRepo) FindByID(ctx context.Context, id string) (*model.Name, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.names[id]; ok {
		return &n, nil
	}
	return nil, nil
}

func (r *memNameRepo) ListRandomByFilter(ctx context.Context, gender model.Gender, style model.Style, limit int) ([]model.Name, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []model.Name{}
	for _, id := range r.order {
		n := r.names[id]
		if gender != "" && n.Gender != gender && n.Gender != model.GenderUnisex {
			continue
		}
		if style != "" && n.Style != style {
			continue
		}
		result = append(result, n)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (r *memNameRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Name, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []model.Name{}
	for _, id := range ids {
		if n, ok := r.names[id]; ok {
			result = append(result, n)
		}
	}
	return result, nil
}

type memFavoriteRepo struct {
	mu        sync.Mutex
	nameRepo  *memNameRepo
	favorites map[string][]string // userID -> ordered name IDs
}

func newMemFavoriteRepo(nameRepo *memNameRepo) *memFavoriteRepo {
	return &memFavoriteRepo{
		nameRepo:  nameRepo,
		favorites: make(map[string][]string),
	}
}

func (r *memFavoriteRepo) ListNamesByUser(ctx context.Context, userID string) ([]model.Name, error) {
	ids, err := r.ListNameIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return r.nameRepo.ListByIDs(ctx, ids)
}

func (r *memFavoriteRepo) ListNameIDsByUser(ctx context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, len(r.favorites[userID]))
	copy(ids, r.favorites[userID])
	return ids, nil
}

func (r *memFavoriteRepo) Add(ctx context.Context, userID, nameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.favorites[userID] {
		if id == nameID {
			return nil
		}
	}
	r.favorites[userID] = append(r.favorites[userID], nameID)
	return nil
}

func (r *memFavoriteRepo) Remove(ctx context.Context, userID, nameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.favorites[userID]
	for i, id := range ids {
		if id == nameID {
			r.favorites[userID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return nil
}

type memSharedListRepo struct {
	mu    sync.Mutex
	lists map[string]*model.SharedList // key: ShareToken
}

func newMemSharedListRepo() *memSharedListRepo {
	return &memSharedListRepo{lists: make(map[string]*model.SharedList)}
}

func (r *memSharedListRepo) Create(ctx context.Context, list *model.SharedList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *list
	copied.NameIDs = append([]string(nil), list.NameIDs...)
	r.lists[list.ShareToken] = &copied
	return nil
}

func (r *memSharedListRepo) FindByToken(ctx context.Context, token string) (*model.SharedList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.lists[token]; ok {
		copied := *l
		copied.NameIDs = append([]string(nil), l.NameIDs...)
		return &copied, nil
	}
	return nil, nil
}

// --- テストセットアップ ---

type integrationEnv struct {
	server   *httptest.Server
	client   *clientapi.Client
	sessions *clientsession.SessionStore
	coord    *clientfav.Coordinator
	resolver *share.Resolver
	nameRepo *memNameRepo
}

func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	nameRepo := newMemNameRepo(
		model.Name{ID: "n1", Name: "Emma", Gender: model.GenderGirl, Style: model.StyleClassic, Origin: "ドイツ", Meaning: "全体", PopularityScore: 95},
		model.Name{ID: "n2", Name: "Liam", Gender: model.GenderBoy, Style: model.StyleModern, Origin: "アイルランド", Meaning: "強い意志の守護者", PopularityScore: 97},
		model.Name{ID: "n3", Name: "River", Gender: model.GenderUnisex, Style: model.StyleTrendy, Origin: "英語", Meaning: "川", PopularityScore: 70},
	)
	userRepo := newMemUserRepo()
	tokenRepo := newMemTokenRepo()
	favRepo := newMemFavoriteRepo(nameRepo)
	sharedRepo := newMemSharedListRepo()

	authService := auth.NewService(userRepo, tokenRepo, auth.ServiceConfig{TokenMaxAge: 3600})
	nameService := namegen.NewService(nameRepo)
	favService := favorites.NewService(favRepo, nameRepo, sharedRepo)

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	router := NewRouter(&RouterDeps{
		HealthChecker:     &mockHealthChecker{},
		Authenticator:     authService,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		Logger:            logger,
		Metrics:           newMockMetrics(),
		AuthService:       authService,
		NameService:       nameService,
		FavoriteService:   favService,
		ShareService:      favService,
		BaseURL:           testBaseURL,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	sessions := clientsession.NewSessionStore(kvstore.NewMemoryStore(), logger)
	client := clientapi.NewClient(server.URL, nil, logger, sessions)

	return &integrationEnv{
		server:   server,
		client:   client,
		sessions: sessions,
		coord:    clientfav.NewCoordinator(client, sessions, logger),
		resolver: share.NewResolver(client, logger),
		nameRepo: nameRepo,
	}
}

// loginAs は登録とログインを行い、クライアント側セッションを確立するヘルパー。
func (env *integrationEnv) loginAs(t *testing.T, email, password string) {
	t.Helper()
	ctx := context.Background()

	if _, err := env.client.Register(ctx, email, password); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	token, profile, err := env.client.Login(ctx, email, password)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := env.sessions.Login(token, clientsession.Profile{ID: profile.ID, Email: profile.Email}); err != nil {
		t.Fatalf("session Login() error = %v", err)
	}
}

// --- フルスタック結合テスト ---

func TestIntegration_GenerateToggleShareResolve(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()

	env.loginAs(t, "taro@example.com", "secret123")

	// 名前を生成
	names, err := env.client.GenerateNames(ctx, model.NameFilter{Count: 3})
	if err != nil {
		t.Fatalf("GenerateNames() error = %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("len(names) = %d, want 3", len(names))
	}

	// 2件をお気に入りに
	if err := env.coord.Toggle(ctx, "n1"); err != nil {
		t.Fatalf("Toggle(n1) error = %v", err)
	}
	if err := env.coord.Toggle(ctx, "n2"); err != nil {
		t.Fatalf("Toggle(n2) error = %v", err)
	}
	if !env.coord.IsFavorite("n1") || !env.coord.IsFavorite("n2") {
		t.Fatal("expected n1 and n2 to be favorites")
	}

	// 共有リンクを発行
	token, err := env.coord.CreateShareLink(ctx)
	if err != nil {
		t.Fatalf("CreateShareLink() error = %v", err)
	}

	// 共有後にお気に入りを変更してもスナップショットは凍結されている
	if err := env.coord.Toggle(ctx, "n2"); err != nil {
		t.Fatalf("Toggle(n2) error = %v", err)
	}

	resolved, err := env.resolver.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	ids := []string{}
	for _, n := range resolved {
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "n1" || ids[1] != "n2" {
		t.Errorf("resolved IDs = %v, want [n1 n2] (frozen snapshot)", ids)
	}
}

func TestIntegration_ResolveUnknownToken(t *testing.T) {
	env := newIntegrationEnv(t)

	_, err := env.resolver.Resolve(context.Background(), "no-such-token")
	if !errors.Is(err, share.ErrListNotFound) {
		t.Errorf("error = %v, want ErrListNotFound", err)
	}
}

func TestIntegration_SessionRestoreAcrossClients(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()

	env.loginAs(t, "hanako@example.com", "secret123")
	if err := env.coord.Toggle(ctx, "n3"); err != nil {
		t.Fatal(err)
	}

	// 同じKVストアから別のSessionStoreを作って復元（アプリ再起動相当）
	mem := kvstore.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	original := env.sessions
	if current, ok := original.Current(); ok {
		restoredStore := clientsession.NewSessionStore(mem, logger)
		if err := restoredStore.Login(current.Token, current.Profile); err != nil {
			t.Fatal(err)
		}

		fresh := clientsession.NewSessionStore(mem, logger)
		fresh.Restore()

		client := clientapi.NewClient(env.server.URL, nil, logger, fresh)
		coord := clientfav.NewCoordinator(client, fresh, logger)
		if err := coord.Refresh(ctx); err != nil {
			t.Fatalf("Refresh() after restore error = %v", err)
		}
		if !coord.IsFavorite("n3") {
			t.Error("restored session must see server-side favorites")
		}
	} else {
		t.Fatal("expected active session")
	}
}

func TestIntegration_LogoutInvalidatesToken(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()

	env.loginAs(t, "taro@example.com", "secret123")

	// ログアウト: サーバー側トークン破棄 + ローカルセッション破棄
	if err := env.client.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	env.sessions.Logout()
	env.coord.Reset()

	// 以降のトグルはノーオペで、サーバーにも届かない
	if err := env.coord.Toggle(ctx, "n1"); err != nil {
		t.Errorf("Toggle() after logout = %v, want nil", err)
	}
	if env.coord.IsFavorite("n1") {
		t.Error("membership must read false after logout")
	}
}

func TestIntegration_InvalidCredentials(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()

	if _, err := env.client.Register(ctx, "taro@example.com", "secret123"); err != nil {
		t.Fatal(err)
	}

	_, _, err := env.client.Login(ctx, "taro@example.com", "wrong-password")
	if !errors.Is(err, clientapi.ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
}

func TestIntegration_DuplicateRegistration(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()

	if _, err := env.client.Register(ctx, "taro@example.com", "secret123"); err != nil {
		t.Fatal(err)
	}

	_, err := env.client.Register(ctx, "taro@example.com", "other-pass")
	if err == nil {
		t.Fatal("expected error for duplicate registration")
	}
}
