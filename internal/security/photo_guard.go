// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// PhotoGuardService は出品写真URLの検証機能のインターフェースを定義する。
// 写真追加時に使用される。
type PhotoGuardService interface {
	// ValidateURL は写真URLの形式と安全性を検証する。
	// 形式（http/httpsスキーム、画像拡張子）とホストの静的検証を行い、
	// 危険または不正なURLの場合はエラーを返す。
	ValidateURL(rawURL string) error

	// Probe は写真URLへHEADリクエストを送り到達性を確認する。
	// SSRF防止付きクライアントを使用するため、プライベートIPや
	// メタデータIPへの到達はDialerレベルでブロックされる。
	// timeoutが0の場合は検証をスキップしnilを返す。
	Probe(ctx context.Context, rawURL string, timeout time.Duration) error
}

// photoURLPattern は受け付ける写真URLの形式。
// http/httpsスキーム、ドット区切りホスト、画像拡張子（png/jpg/jpeg/gif）で終わること。
var photoURLPattern = regexp.MustCompile(
	`^https?://[a-zA-Z0-9.-]+(?:\.[a-zA-Z]{2,})+(?:/[^#\s]*)?\.(?:png|jpg|jpeg|gif)$`,
)

// blockedNetworks は写真URL検証でブロックされるネットワーク範囲。
// パッケージ初期化時に1回だけパースする。DNS解決後のIP検証は
// Probeのsafeurlクライアント側で行われる。
var blockedNetworks []net.IPNet

func init() {
	cidrs := []string{
		// プライベートIPアドレス (RFC 1918)
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		// ループバック (RFC 1122)
		"127.0.0.0/8",
		// リンクローカル (RFC 3927) - クラウドメタデータIP (169.254.169.254) を含む
		"169.254.0.0/16",
		// カレントネットワーク
		"0.0.0.0/8",
		// IPv6ループバック
		"::1/128",
		// IPv6リンクローカル
		"fe80::/10",
		// IPv6ユニークローカル
		"fc00::/7",
	}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		blockedNetworks = append(blockedNetworks, *network)
	}
}

// photoGuard はPhotoGuardServiceの実装。
type photoGuard struct{}

// NewPhotoGuard はPhotoGuardServiceの新しいインスタンスを生成する。
func NewPhotoGuard() *photoGuard {
	return &photoGuard{}
}

// ValidateURL は写真URLの形式と安全性を検証する。
func (g *photoGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	if !photoURLPattern.MatchString(rawURL) {
		return fmt.Errorf("URL does not look like an image: %s", rawURL)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	// IPアドレスの場合: ブロック対象CIDRとの照合
	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return fmt.Errorf("blocked IP address: %s", ip.String())
		}
		return nil
	}

	if isBlockedHostname(host) {
		return fmt.Errorf("blocked host: %s", host)
	}

	return nil
}

// Probe は写真URLへHEADリクエストを送り到達性を確認する。
func (g *photoGuard) Probe(ctx context.Context, rawURL string, timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}

	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()
	client := safeurl.Client(config).Client

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build probe request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("photo URL is not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("photo URL returned status %d", resp.StatusCode)
	}

	return nil
}

// isBlockedIP はIPアドレスがブロック対象のネットワーク範囲に含まれるかを検証する。
func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// blockedHostnames はブロック対象のホスト名。
var blockedHostnames = []string{
	"localhost",
}

// isBlockedHostname はホスト名がブロック対象かを検証する。
func isBlockedHostname(host string) bool {
	lower := strings.ToLower(host)
	for _, blocked := range blockedHostnames {
		if lower == blocked {
			return true
		}
	}
	return false
}
