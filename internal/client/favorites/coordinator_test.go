package favorites

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"

	"github.com/hitoshi/meimei/internal/model"
)

// fakeSession はSessionSourceのテスト用実装。
type fakeSession struct {
	mu    sync.Mutex
	token string
}

func (s *fakeSession) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *fakeSession) set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// fakeServer はサーバー側のお気に入り状態を模したFavoritesAPI実装。
// 追加・削除を実際の状態に反映し、一覧は常に現在の状態を返す。
type fakeServer struct {
	mu       sync.Mutex
	names    map[string]model.Name
	order    []string
	addErr   error
	remErr   error
	listErr  error
	shareSeq int
}

func newFakeServer() *fakeServer {
	return &fakeServer{names: make(map[string]model.Name)}
}

func (f *fakeServer) ListFavorites(ctx context.Context) ([]model.Name, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	names := make([]model.Name, 0, len(f.order))
	for _, id := range f.order {
		names = append(names, f.names[id])
	}
	return names, nil
}

func (f *fakeServer) AddFavorite(ctx context.Context, nameID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	if _, exists := f.names[nameID]; !exists {
		f.names[nameID] = model.Name{ID: nameID}
		f.order = append(f.order, nameID)
	}
	return nil
}

func (f *fakeServer) RemoveFavorite(ctx context.Context, nameID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.remErr != nil {
		return f.remErr
	}
	if _, exists := f.names[nameID]; exists {
		delete(f.names, nameID)
		for i, id := range f.order {
			if id == nameID {
				f.order = append(f.order[:i], f.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (f *fakeServer) ShareFavorites(ctx context.Context) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shareSeq++
	token := "share-token-" + strconv.Itoa(f.shareSeq)
	return token, "http://localhost:8080/shared/" + token, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCoordinator(server *fakeServer, session *fakeSession) *Coordinator {
	return NewCoordinator(server, session, discardLogger())
}

// --- Refresh / IsFavorite テスト ---

func TestCoordinator_Refresh_ReplacesWholesale(t *testing.T) {
	server := newFakeServer()
	server.AddFavorite(context.Background(), "n1")
	server.AddFavorite(context.Background(), "n2")

	session := &fakeSession{token: "tok"}
	c := newTestCoordinator(server, session)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if !c.IsFavorite("n1") || !c.IsFavorite("n2") {
		t.Error("expected n1 and n2 to be favorites after refresh")
	}
	if c.IsFavorite("n3") {
		t.Error("n3 must not be a favorite")
	}

	// サーバー側が変わったら次のRefreshで丸ごと置き換わる
	server.RemoveFavorite(context.Background(), "n1")
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.IsFavorite("n1") {
		t.Error("n1 must be gone after server-side removal and refresh")
	}
}

func TestCoordinator_Refresh_WithoutSessionIsNoop(t *testing.T) {
	server := newFakeServer()
	server.listErr = errors.New("must not be called")

	c := newTestCoordinator(server, &fakeSession{})

	if err := c.Refresh(context.Background()); err != nil {
		t.Errorf("Refresh() without session = %v, want nil", err)
	}
}

// --- Toggle テスト ---

func TestCoordinator_Toggle_AddsAndRemoves(t *testing.T) {
	server := newFakeServer()
	session := &fakeSession{token: "tok"}
	c := newTestCoordinator(server, session)

	if err := c.Toggle(context.Background(), "n1"); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !c.IsFavorite("n1") {
		t.Error("expected n1 to be a favorite after first toggle")
	}

	if err := c.Toggle(context.Background(), "n1"); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if c.IsFavorite("n1") {
		t.Error("expected n1 to be removed after second toggle")
	}
}

func TestCoordinator_Toggle_DoubleToggleConverges(t *testing.T) {
	// 連続トグルは最後の再取得結果に収束する
	server := newFakeServer()
	session := &fakeSession{token: "tok"}
	c := newTestCoordinator(server, session)

	for i := 0; i < 4; i++ {
		if err := c.Toggle(context.Background(), "n1"); err != nil {
			t.Fatalf("Toggle() #%d error = %v", i, err)
		}
	}

	// 偶数回のトグル後は非お気に入り、サーバーとローカルが一致する
	if c.IsFavorite("n1") {
		t.Error("after even number of toggles n1 must not be a favorite")
	}
	serverNames, _ := server.ListFavorites(context.Background())
	if len(serverNames) != 0 {
		t.Errorf("server favorites = %v, want empty", serverNames)
	}
}

func TestCoordinator_Toggle_WithoutSessionIsNoop(t *testing.T) {
	server := newFakeServer()
	c := newTestCoordinator(server, &fakeSession{})

	if err := c.Toggle(context.Background(), "n1"); err != nil {
		t.Errorf("Toggle() without session = %v, want nil", err)
	}

	serverNames, _ := server.ListFavorites(context.Background())
	if len(serverNames) != 0 {
		t.Error("toggle without session must not mutate the server")
	}
}

func TestCoordinator_Toggle_MutationFailureStillRefreshes(t *testing.T) {
	server := newFakeServer()
	// サーバー側には既にn1がある（別端末で追加された想定）
	server.AddFavorite(context.Background(), "n1")

	session := &fakeSession{token: "tok"}
	c := newTestCoordinator(server, session)

	// ローカルはまだ空なのでToggleは追加を試み、失敗する
	server.addErr = errors.New("conflict")

	err := c.Toggle(context.Background(), "n1")
	if err == nil {
		t.Fatal("expected mutation error to be reported")
	}

	// 失敗しても再取得は行われ、サーバーの真実（n1あり）に同期される
	if !c.IsFavorite("n1") {
		t.Error("expected local state to be reconciled with server after failed mutation")
	}
}

// --- CreateShareLink テスト ---

func TestCoordinator_CreateShareLink_RequiresSession(t *testing.T) {
	c := newTestCoordinator(newFakeServer(), &fakeSession{})

	_, err := c.CreateShareLink(context.Background())
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("error = %v, want ErrNoSession", err)
	}
}

func TestCoordinator_CreateShareLink_RequiresNonEmptyFavorites(t *testing.T) {
	session := &fakeSession{token: "tok"}
	c := newTestCoordinator(newFakeServer(), session)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	_, err := c.CreateShareLink(context.Background())
	if !errors.Is(err, ErrEmptyFavorites) {
		t.Errorf("error = %v, want ErrEmptyFavorites", err)
	}
}

func TestCoordinator_CreateShareLink_MintsDistinctTokens(t *testing.T) {
	server := newFakeServer()
	session := &fakeSession{token: "tok"}
	c := newTestCoordinator(server, session)

	if err := c.Toggle(context.Background(), "n1"); err != nil {
		t.Fatal(err)
	}

	first, err := c.CreateShareLink(context.Background())
	if err != nil {
		t.Fatalf("CreateShareLink() error = %v", err)
	}
	second, err := c.CreateShareLink(context.Background())
	if err != nil {
		t.Fatalf("CreateShareLink() error = %v", err)
	}

	if first == second {
		t.Error("each call must mint a distinct token")
	}
}

// --- Logout後の挙動テスト ---

func TestCoordinator_AfterLogout_MembershipFalseAndToggleNoop(t *testing.T) {
	server := newFakeServer()
	session := &fakeSession{token: "tok"}
	c := newTestCoordinator(server, session)

	if err := c.Toggle(context.Background(), "n1"); err != nil {
		t.Fatal(err)
	}
	if !c.IsFavorite("n1") {
		t.Fatal("setup failed: n1 should be a favorite")
	}

	// ログアウト相当: セッション破棄 + ローカル状態クリア
	session.set("")
	c.Reset()

	if c.IsFavorite("n1") {
		t.Error("membership must read false after logout")
	}
	if len(c.Favorites()) != 0 {
		t.Error("favorites list must be empty after logout")
	}

	if err := c.Toggle(context.Background(), "n2"); err != nil {
		t.Errorf("Toggle() after logout = %v, want nil (no-op)", err)
	}
	serverNames, _ := server.ListFavorites(context.Background())
	if len(serverNames) != 1 {
		t.Error("toggle after logout must not mutate the server")
	}
}

// --- 並行アクセステスト ---

func TestCoordinator_ConcurrentToggleAndRead(t *testing.T) {
	server := newFakeServer()
	session := &fakeSession{token: "tok"}
	c := newTestCoordinator(server, session)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.Toggle(context.Background(), "n1")
		}()
		go func() {
			defer wg.Done()
			_ = c.IsFavorite("n1")
			_ = c.Favorites()
		}()
	}
	wg.Wait()

	// 最終的にローカルとサーバーが一致していること
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	serverNames, _ := server.ListFavorites(context.Background())
	if c.IsFavorite("n1") != (len(serverNames) == 1) {
		t.Error("local membership must match server state after final refresh")
	}
}
