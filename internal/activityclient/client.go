// Пакет activityclient — HTTP-клиент REST-бэкенда активностей.
// Поддерживает TLS с кастомным CA (TT_BACKEND_CA_CERT_PATH) и bearer-токены.
// Операции: List (GET /activities/), Create (POST /activities/),
// Update (PUT /activities/{id}), Delete (DELETE /activities/{id}).
package activityclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/model"
)

// ResourcePath — базовый путь ресурса активностей на бэкенде.
const ResourcePath = "/activities/"

// Максимальный размер тела ошибки, попадающего в StatusError.
const maxErrorBody = 4096

// TokenProvider — функция, возвращающая bearer-токен для запроса к бэкенду.
type TokenProvider func(ctx context.Context) (string, error)

// StatusError — бэкенд ответил статусом вне 2xx.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("бэкенд %s вернул статус %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client — HTTP-клиент бэкенда активностей.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	tokenProvider TokenProvider
	logger        *slog.Logger
}

// New создаёт клиент.
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
// tokenProvider может быть nil — запросы уходят без Authorization.
func New(baseURL string, timeout time.Duration, caCertPath string, tokenProvider TokenProvider, logger *slog.Logger) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("некорректный URL бэкенда %q: %w", baseURL, err)
	}

	httpClient := &http.Client{Timeout: timeout}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата бэкенда: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат бэкенда добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	return &Client{
		baseURL:       normalizeURL(baseURL),
		httpClient:    httpClient,
		tokenProvider: tokenProvider,
		logger:        logger.With(slog.String("component", "activity_client")),
	}, nil
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("в %s нет PEM-сертификатов", caCertPath)
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// List запрашивает все активности.
func (c *Client) List(ctx context.Context) ([]model.Activity, error) {
	var records []activityRecord
	if err := c.do(ctx, "List", http.MethodGet, ResourcePath, nil, &records); err != nil {
		return nil, err
	}

	activities := make([]model.Activity, 0, len(records))
	for _, rec := range records {
		activities = append(activities, rec.normalize())
	}
	return activities, nil
}

// Create создаёт активность. Идентификатор назначает бэкенд;
// если он его не вернул, ID результата пустой.
func (c *Client) Create(ctx context.Context, input model.ActivityInput) (model.Activity, error) {
	var rec activityRecord
	if err := c.do(ctx, "Create", http.MethodPost, ResourcePath, input, &rec); err != nil {
		return model.Activity{}, err
	}
	return rec.normalize(), nil
}

// Update полностью заменяет активность id.
func (c *Client) Update(ctx context.Context, id string, input model.ActivityInput) (model.Activity, error) {
	var rec activityRecord
	if err := c.do(ctx, "Update", http.MethodPut, itemPath(id), input, &rec); err != nil {
		return model.Activity{}, err
	}
	activity := rec.normalize()
	// Бэкенд может не вернуть идентификатор в ответе на PUT
	if activity.ID == "" {
		activity.ID = id
	}
	return activity, nil
}

// Delete удаляет активность id. Тело ответа игнорируется.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "Delete", http.MethodDelete, itemPath(id), nil, nil)
}

// do выполняет запрос. body сериализуется в JSON (nil — без тела),
// ответ декодируется в out (nil — тело отбрасывается).
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("сериализация тела %s: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("создание запроса %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Добавляем авторизацию
	if c.tokenProvider != nil {
		token, err := c.tokenProvider(ctx)
		if err != nil {
			return fmt.Errorf("получение токена для бэкенда: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("запрос %s к %s: %w", op, c.baseURL, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Запрос к бэкенду выполнен",
		slog.String("op", op),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(errBody)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("декодирование ответа %s: %w", op, err)
	}
	return nil
}

// itemPath строит путь конкретной активности.
func itemPath(id string) string {
	return ResourcePath + url.PathEscape(id)
}

// normalizeURL убирает trailing slash из URL.
func normalizeURL(rawURL string) string {
	return strings.TrimRight(rawURL, "/")
}
