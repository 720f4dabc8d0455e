// Package kakao delivers briefings as KakaoTalk self-memos. Kakao access
// tokens are short-lived, so every send first exchanges the stored refresh
// token for a fresh access token and persists the rotated credentials.
package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vninfra/infranews/internal/notify"
)

const (
	defaultAuthBase = "https://kauth.kakao.com"
	defaultAPIBase  = "https://kapi.kakao.com"

	maxMessageRunes = 1000
)

type tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Notifier sends the briefing to the account's own KakaoTalk chat.
type Notifier struct {
	restKey   string
	tokenPath string
	authBase  string
	apiBase   string
	client    *http.Client

	mu   sync.Mutex
	seed string // refresh token used until the token file exists
}

// New builds the channel. seedRefreshToken bootstraps the very first
// exchange; afterwards the rotated token from tokenPath wins.
func New(restKey, seedRefreshToken, tokenPath string) *Notifier {
	return &Notifier{
		restKey:   restKey,
		tokenPath: tokenPath,
		authBase:  defaultAuthBase,
		apiBase:   defaultAPIBase,
		client:    &http.Client{Timeout: 30 * time.Second},
		seed:      seedRefreshToken,
	}
}

func (n *Notifier) Name() string { return "kakao" }

func (n *Notifier) Send(ctx context.Context, b *notify.Briefing) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	access, err := n.refreshAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("kakao auth: %w", err)
	}
	return n.sendMemo(ctx, access, b)
}

// refreshAccessToken exchanges the current refresh token for an access
// token. Kakao may rotate the refresh token in the response; the rotated
// pair is written back to the token file so the next run keeps working.
func (n *Notifier) refreshAccessToken(ctx context.Context) (string, error) {
	current := n.currentRefreshToken()
	if current == "" {
		return "", fmt.Errorf("no refresh token configured")
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {n.restKey},
		"refresh_token": {current},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.authBase+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchange refresh token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("token endpoint status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var got tokens
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if got.AccessToken == "" {
		return "", fmt.Errorf("token response carries no access token")
	}
	if got.RefreshToken == "" {
		got.RefreshToken = current
	}
	if err := n.saveTokens(got); err != nil {
		return "", err
	}
	return got.AccessToken, nil
}

func (n *Notifier) currentRefreshToken() string {
	raw, err := os.ReadFile(n.tokenPath)
	if err != nil {
		return n.seed
	}
	var saved tokens
	if err := json.Unmarshal(raw, &saved); err != nil || saved.RefreshToken == "" {
		return n.seed
	}
	return saved.RefreshToken
}

func (n *Notifier) saveTokens(t tokens) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	if dir := filepath.Dir(n.tokenPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create token directory: %w", err)
		}
	}
	if err := os.WriteFile(n.tokenPath, raw, 0o600); err != nil {
		return fmt.Errorf("persist tokens: %w", err)
	}
	return nil
}

func (n *Notifier) sendMemo(ctx context.Context, accessToken string, b *notify.Briefing) error {
	template := map[string]any{
		"object_type":  "text",
		"text":         truncateRunes(b.Text(), maxMessageRunes),
		"link":         map[string]string{"web_url": b.DashboardURL},
		"button_title": "View Dashboard",
	}
	raw, err := json.Marshal(template)
	if err != nil {
		return fmt.Errorf("encode template: %w", err)
	}

	form := url.Values{"template_object": {string(raw)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiBase+"/v2/api/talk/memo/default/send", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send memo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("memo endpoint status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
