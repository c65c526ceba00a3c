// Package platform wraps the Telegram Bot API surface this service consumes:
// delivering files to a chat and re-resolving file handles into short-lived
// download URLs.
package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// ErrFileNotFound means the platform has no downloadable path for a handle.
var ErrFileNotFound = errors.New("file not resolvable")

// RateLimitError is the typed classification of a 429 response. The retry
// wrapper keys off RateLimited(), not error text.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("telegram rate limit exceeded, retry after %s", e.RetryAfter)
	}
	return "telegram rate limit exceeded"
}

func (e *RateLimitError) RateLimited() bool { return true }

// Upload is the result of delivering one file to a chat.
type Upload struct {
	MessageID int
	FileID    string
}

// API is the capability set handlers consume; satisfied by Client and by
// test fakes.
type API interface {
	SendDocument(ctx context.Context, chatID int64, data []byte, filename, caption string) (Upload, error)
	SendPhoto(ctx context.Context, chatID int64, data []byte, filename string) (Upload, error)
	FileURL(ctx context.Context, fileID string) (string, error)
}

var httpClient = &http.Client{Timeout: 60 * time.Second}

// Client talks to Telegram with one bot credential. Outbound calls are gated
// by a throughput limiter to stay under the per-bot message budget.
type Client struct {
	api     *tgbotapi.BotAPI
	token   string
	limiter *rate.Limiter
}

// NewClient builds a client without the getMe round-trip; the credential is
// validated by the first real call. Clients are cheap and constructed per
// request from the submitted credential.
func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, errors.New("bot token is required")
	}
	api := &tgbotapi.BotAPI{
		Token:  token,
		Client: httpClient,
		Buffer: 100,
	}
	api.SetAPIEndpoint(tgbotapi.APIEndpoint)

	return &Client{
		api:     api,
		token:   token,
		limiter: rate.NewLimiter(rate.Limit(30), 30), // 30 messages per second with burst of 30
	}, nil
}

func (c *Client) SendDocument(ctx context.Context, chatID int64, data []byte, filename, caption string) (Upload, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Upload{}, err
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	doc.Caption = caption
	msg, err := c.api.Send(doc)
	if err != nil {
		return Upload{}, classify(err)
	}

	up := Upload{MessageID: msg.MessageID}
	if msg.Document != nil {
		up.FileID = msg.Document.FileID
	}
	return up, nil
}

func (c *Client) SendPhoto(ctx context.Context, chatID int64, data []byte, filename string) (Upload, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Upload{}, err
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	msg, err := c.api.Send(photo)
	if err != nil {
		return Upload{}, classify(err)
	}

	return Upload{
		MessageID: msg.MessageID,
		FileID:    largestPhotoID(msg.Photo),
	}, nil
}

// FileURL resolves a file handle into a time-limited download URL. The URL
// is derived, never stored; Telegram does not guarantee stable paths.
func (c *Client) FileURL(ctx context.Context, fileID string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	file, err := c.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		if cerr := classify(err); retryable(cerr) {
			return "", cerr
		}
		return "", fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}
	if file.FilePath == "" {
		return "", ErrFileNotFound
	}
	return file.Link(c.token), nil
}

// largestPhotoID picks the handle of the biggest representation; Telegram
// orders photo sizes ascending.
func largestPhotoID(sizes []tgbotapi.PhotoSize) string {
	if len(sizes) == 0 {
		return ""
	}
	return sizes[len(sizes)-1].FileID
}

// classify converts Telegram API throttle responses into typed
// RateLimitError values and passes everything else through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.RetryAfter > 0 {
			return &RateLimitError{RetryAfter: time.Duration(apiErr.RetryAfter) * time.Second}
		}
	}
	return err
}

func retryable(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
