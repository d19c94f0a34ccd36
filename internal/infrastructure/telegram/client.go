// Package telegram is a minimal Bot API client covering long polling,
// text replies and file uploads.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/ports"
)

// Client talks to the Bot API over HTTP. Outbound calls share one rate
// limiter so bursts of replies stay under Telegram's flood limits.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	limiter *rate.Limiter
	log     ports.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithSendRate throttles outbound calls to perSecond with the given burst.
// A non-positive rate disables throttling.
func WithSendRate(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient creates a client for token against baseURL.
func NewClient(baseURL, token string, timeout time.Duration, log ports.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = domain.DefaultTelegramBaseURL
	}
	if timeout <= 0 {
		timeout = domain.DefaultTelegramTimeout
	}
	c := &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		limiter: rate.NewLimiter(rate.Limit(domain.DefaultSendRatePerSecond), domain.DefaultSendBurst),
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetMe returns the bot account, which doubles as a token check.
func (c *Client) GetMe(ctx context.Context) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("getMe"), nil)
	if err != nil {
		return User{}, err
	}
	var me User
	if err := c.do(req, "getMe", &me); err != nil {
		return User{}, err
	}
	return me, nil
}

// GetUpdates long-polls for updates at or after offset. The request deadline
// is the poll timeout plus a grace period, independent of the client timeout.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]domain.Update, error) {
	if timeout <= 0 {
		timeout = domain.DefaultPollTimeout
	}
	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}
	q := fmt.Sprintf("?timeout=%d", secs)
	if offset > 0 {
		q += "&offset=" + strconv.FormatInt(offset, 10)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout+5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.endpoint("getUpdates")+q, nil)
	if err != nil {
		return nil, err
	}

	// the shared client timeout would cut long polls short
	hc := *c.http
	hc.Timeout = 0
	var raw []apiUpdate
	if err := c.doWith(&hc, req, "getUpdates", &raw); err != nil {
		return nil, err
	}

	if len(raw) > 0 {
		c.log.Debug("telegram updates received", map[string]interface{}{
			"count":  len(raw),
			"offset": offset,
		})
	}
	updates := make([]domain.Update, 0, len(raw))
	for _, u := range raw {
		updates = append(updates, toDomainUpdate(u))
	}
	return updates, nil
}

// SendMessage posts a text reply. MarkdownV2 text is escaped here, after
// truncation, so callers always pass plain text.
func (c *Client) SendMessage(ctx context.Context, msg domain.OutgoingMessage) error {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		text = "(empty)"
	}
	text = truncateRunes(text, domain.MaxMessageLength)
	if msg.ParseMode == domain.ParseModeMarkdownV2 {
		text = EscapeMarkdownV2(text)
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:           msg.ChatID,
		Text:             text,
		ParseMode:        string(msg.ParseMode),
		ReplyToMessageID: msg.ReplyTo,
		ReplyMarkup:      toReplyMarkup(msg.Keyboard),
	})
	if err != nil {
		return err
	}
	return c.postJSON(ctx, "sendMessage", body)
}

// SendChatAction shows a transient status such as "typing".
func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	if strings.TrimSpace(action) == "" {
		action = domain.ChatActionTyping
	}
	body, err := json.Marshal(sendChatActionRequest{ChatID: chatID, Action: action})
	if err != nil {
		return err
	}
	return c.postJSON(ctx, "sendChatAction", body)
}

// SendPhoto uploads an image with a MarkdownV2 caption.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photo domain.Artifact, caption string, replyTo int64) error {
	return c.upload(ctx, "sendPhoto", "photo", chatID, photo, caption, replyTo)
}

// SendDocument uploads a file with a MarkdownV2 caption.
func (c *Client) SendDocument(ctx context.Context, chatID int64, doc domain.Artifact, caption string, replyTo int64) error {
	return c.upload(ctx, "sendDocument", "document", chatID, doc, caption, replyTo)
}

func (c *Client) upload(ctx context.Context, method, field string, chatID int64, art domain.Artifact, caption string, replyTo int64) error {
	if len(art.Data) == 0 {
		return fmt.Errorf("telegram %s: empty %s", method, field)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("chat_id", strconv.FormatInt(chatID, 10))
	if replyTo != 0 {
		_ = mw.WriteField("reply_to_message_id", strconv.FormatInt(replyTo, 10))
	}
	if caption = strings.TrimSpace(caption); caption != "" {
		_ = mw.WriteField("caption", EscapeMarkdownV2(caption))
		_ = mw.WriteField("parse_mode", string(domain.ParseModeMarkdownV2))
	}

	name := art.Name
	if name == "" {
		name = field
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	if art.MIMEType != "" {
		header.Set("Content-Type", art.MIMEType)
	} else {
		header.Set("Content-Type", "application/octet-stream")
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := part.Write(art.Data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, method, nil)
}

func (c *Client) postJSON(ctx context.Context, method string, body []byte) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, method, nil)
}

func (c *Client) do(req *http.Request, method string, result any) error {
	return c.doWith(c.http, req, method, result)
}

// doWith executes req and decodes the Bot API envelope into result when it
// is non-nil. The token never appears in returned errors.
func (c *Client) doWith(hc *http.Client, req *http.Request, method string, result any) error {
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %s", method, c.redact(err.Error()))
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	var env envelope[json.RawMessage]
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := strings.TrimSpace(env.Description)
		if detail == "" {
			detail = strings.TrimSpace(string(raw))
		}
		return fmt.Errorf("telegram %s: http %d: %s", method, resp.StatusCode, c.redact(detail))
	}
	if decodeErr != nil {
		return fmt.Errorf("telegram %s: decode: %w", method, decodeErr)
	}
	if !env.OK {
		return fmt.Errorf("telegram %s: ok=false: %s", method, env.Description)
	}
	if result == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, result); err != nil {
		return fmt.Errorf("telegram %s: decode result: %w", method, err)
	}
	return nil
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func (c *Client) redact(s string) string {
	if c.token == "" {
		return s
	}
	return strings.ReplaceAll(s, c.token, "<token>")
}

var _ ports.Messenger = (*Client)(nil)
