// meimei-client は名前ジェネレーターAPIの対話型CLIクライアント。
//
// コマンド:
//
//	register <email> <password>  新規登録
//	login <email> <password>     ログイン
//	logout                       ログアウト
//	generate [gender] [style] [count]  名前を生成
//	fav <N|id>                   N番目（または指定ID）の名前のお気に入りを切り替え
//	favs                         お気に入り一覧
//	share                        お気に入りの共有リンクを発行
//	resolve <token>              共有トークンを閲覧
//	quit                         終了
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hitoshi/meimei/internal/client/api"
	"github.com/hitoshi/meimei/internal/client/catalog"
	"github.com/hitoshi/meimei/internal/client/favorites"
	"github.com/hitoshi/meimei/internal/client/kvstore"
	"github.com/hitoshi/meimei/internal/client/session"
	"github.com/hitoshi/meimei/internal/client/share"
	"github.com/hitoshi/meimei/internal/logger"
	"github.com/hitoshi/meimei/internal/model"
)

// minPasswordLength はローカル検証で要求するパスワードの最小文字数。
const minPasswordLength = 6

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	serverURL := envOr("MEIMEI_SERVER_URL", "http://localhost:8080")
	dbPath := envOr("MEIMEI_CLIENT_DB", "meimei-client.db")

	log := logger.Setup(os.Stderr)

	store, err := kvstore.OpenSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open client store: %w", err)
	}
	defer store.Close()

	sessions := session.NewSessionStore(store, log)
	client := api.NewClient(serverURL, nil, log, sessions)

	names := catalog.NewNameCatalogClient(client, log)
	favs := favorites.NewCoordinator(client, sessions, log)
	resolver := share.NewResolver(client, log)

	ctx := context.Background()

	// 永続化されたセッションを復元し、あればお気に入りを同期する
	sessions.Restore()
	if current, ok := sessions.Current(); ok {
		fmt.Printf("ログイン中: %s\n", current.Profile.Email)
		if err := favs.Refresh(ctx); err != nil {
			fmt.Println("お気に入りの取得に失敗しました:", err)
		}
	}

	fmt.Println("meimei クライアント（helpでコマンド一覧）")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		cmd, args := fields[0], fields[1:]
		switch cmd {
		case "quit", "exit":
			return nil
		case "help":
			printHelp()
		case "register":
			cmdRegister(ctx, client, args)
		case "login":
			cmdLogin(ctx, client, sessions, favs, args)
		case "logout":
			cmdLogout(ctx, client, sessions, favs)
		case "generate":
			cmdGenerate(ctx, names, favs, args)
		case "fav":
			cmdToggle(ctx, names, favs, args)
		case "favs":
			cmdFavorites(ctx, favs)
		case "share":
			cmdShare(ctx, favs, serverURL)
		case "resolve":
			cmdResolve(ctx, resolver, args)
		default:
			fmt.Println("不明なコマンドです:", cmd)
		}
	}

	return scanner.Err()
}

// validateCredentials はネットワークに出る前のローカル検証を行う。
func validateCredentials(args []string) (email, password string, err error) {
	if len(args) != 2 {
		return "", "", errors.New("使い方: <email> <password>")
	}
	email, password = strings.TrimSpace(args[0]), args[1]
	if email == "" {
		return "", "", errors.New("メールアドレスを入力してください")
	}
	if len(password) < minPasswordLength {
		return "", "", fmt.Errorf("パスワードは%d文字以上で入力してください", minPasswordLength)
	}
	return email, password, nil
}

func cmdRegister(ctx context.Context, client *api.Client, args []string) {
	email, password, err := validateCredentials(args)
	if err != nil {
		fmt.Println(err)
		return
	}

	profile, err := client.Register(ctx, email, password)
	if err != nil {
		fmt.Println("登録に失敗しました:", err)
		return
	}
	fmt.Printf("登録しました: %s（loginでログインしてください）\n", profile.Email)
}

func cmdLogin(ctx context.Context, client *api.Client, sessions *session.SessionStore, favs *favorites.Coordinator, args []string) {
	email, password, err := validateCredentials(args)
	if err != nil {
		fmt.Println(err)
		return
	}

	token, profile, err := client.Login(ctx, email, password)
	if err != nil {
		fmt.Println("ログインに失敗しました:", err)
		return
	}

	if err := sessions.Login(token, session.Profile{ID: profile.ID, Email: profile.Email}); err != nil {
		fmt.Println("セッションの保存に失敗しました:", err)
		return
	}

	fmt.Printf("ログインしました: %s\n", profile.Email)
	if err := favs.Refresh(ctx); err != nil {
		fmt.Println("お気に入りの取得に失敗しました:", err)
	}
}

func cmdLogout(ctx context.Context, client *api.Client, sessions *session.SessionStore, favs *favorites.Coordinator) {
	// サーバー側のトークン破棄はベストエフォート
	if _, ok := sessions.Current(); ok {
		if err := client.Logout(ctx); err != nil {
			fmt.Println("サーバー側のログアウトに失敗しました（ローカルは破棄します）:", err)
		}
	}

	sessions.Logout()
	favs.Reset()
	fmt.Println("ログアウトしました")
}

func cmdGenerate(ctx context.Context, names *catalog.NameCatalogClient, favs *favorites.Coordinator, args []string) {
	var filter model.NameFilter
	if len(args) > 0 {
		filter.Gender = model.Gender(args[0])
	}
	if len(args) > 1 {
		filter.Style = model.Style(args[1])
	}
	if len(args) > 2 {
		count, err := strconv.Atoi(args[2])
		if err != nil {
			fmt.Println("件数は数値で指定してください:", args[2])
			return
		}
		filter.Count = count
	}

	generated, err := names.Generate(ctx, filter)
	if err != nil {
		fmt.Println("名前の生成に失敗しました:", err)
		return
	}

	printNames(generated, favs)
}

func cmdToggle(ctx context.Context, names *catalog.NameCatalogClient, favs *favorites.Coordinator, args []string) {
	if len(args) != 1 {
		fmt.Println("使い方: fav <N|id>")
		return
	}

	nameID := args[0]
	current := names.Names()
	if n, err := strconv.Atoi(args[0]); err == nil {
		if n < 1 || n > len(current) {
			fmt.Printf("1〜%dの番号を指定してください\n", len(current))
			return
		}
		nameID = current[n-1].ID
	}

	if err := favs.Toggle(ctx, nameID); err != nil {
		fmt.Println("お気に入りの更新に失敗しました:", err)
	}

	if favs.IsFavorite(nameID) {
		fmt.Println("お気に入りに追加しました")
	} else {
		fmt.Println("お気に入りから削除しました")
	}
}

func cmdFavorites(ctx context.Context, favs *favorites.Coordinator) {
	if err := favs.Refresh(ctx); err != nil {
		fmt.Println("お気に入りの取得に失敗しました:", err)
		return
	}

	list := favs.Favorites()
	if len(list) == 0 {
		fmt.Println("お気に入りはまだありません（ログインが必要です）")
		return
	}
	printNames(list, favs)
}

func cmdShare(ctx context.Context, favs *favorites.Coordinator, serverURL string) {
	token, err := favs.CreateShareLink(ctx)
	switch {
	case errors.Is(err, favorites.ErrNoSession):
		fmt.Println("共有にはログインが必要です")
		return
	case errors.Is(err, favorites.ErrEmptyFavorites):
		fmt.Println("お気に入りが空のため共有できません")
		return
	case err != nil:
		fmt.Println("共有リンクの発行に失敗しました:", err)
		return
	}

	fmt.Println("共有トークン:", token)
	fmt.Printf("共有URL: %s/shared/%s\n", serverURL, token)
}

func cmdResolve(ctx context.Context, resolver *share.Resolver, args []string) {
	if len(args) != 1 {
		fmt.Println("使い方: resolve <token>")
		return
	}

	names, err := resolver.Resolve(ctx, args[0])
	switch {
	case errors.Is(err, share.ErrListNotFound):
		fmt.Println("共有リストが見つかりません。削除されたか、リンクが間違っている可能性があります。")
		return
	case err != nil:
		fmt.Println("共有リストの取得に失敗しました。しばらく待ってから再度お試しください:", err)
		return
	}

	if len(names) == 0 {
		fmt.Println("この共有リストは空です")
		return
	}
	for i, n := range names {
		fmt.Printf("%2d. %s（%s / %s）人気度%d %s\n", i+1, n.Name, n.Gender, n.Origin, n.PopularityScore, n.Meaning)
	}
}

// printNames は名前一覧をお気に入りマーク付きで表示する。
func printNames(names []model.Name, favs *favorites.Coordinator) {
	for i, n := range names {
		mark := "  "
		if favs.IsFavorite(n.ID) {
			mark = "★ "
		}
		fmt.Printf("%s%2d. %s（%s / %s）人気度%d %s\n", mark, i+1, n.Name, n.Gender, n.Origin, n.PopularityScore, n.Meaning)
	}
}

func printHelp() {
	fmt.Println(`register <email> <password>  新規登録
login <email> <password>     ログイン
logout                       ログアウト
generate [gender] [style] [count]  名前を生成（gender: boy/girl/unisex）
fav <N|id>                   お気に入りを切り替え
favs                         お気に入り一覧
share                        共有リンクを発行
resolve <token>              共有トークンを閲覧
quit                         終了`)
}

func envOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
