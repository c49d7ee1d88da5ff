package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"helmet-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// PythonAPIClient клиент для Python сервиса с моделью детекции касок
type PythonAPIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewPythonAPIClient создает новый клиент для Python API.
// timeout == 0 означает отсутствие ограничения по времени.
func NewPythonAPIClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *PythonAPIClient {
	return &PythonAPIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Predict запускает модель на файле, путь к которому доступен сервису
func (c *PythonAPIClient) Predict(ctx context.Context, request models.PredictRequest) (*models.InferenceResponse, error) {
	c.logger.WithFields(logrus.Fields{
		"source": request.Source,
		"save":   request.Save,
	}).Debug("Отправка запроса на детекцию в Python API")

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode predict request: %w", err)
	}

	url := fmt.Sprintf("%s/predict", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var apiResponse models.InferenceResponse
	if err := json.Unmarshal(respBody, &apiResponse); err != nil {
		return nil, fmt.Errorf("failed to decode predict response: %w", err)
	}

	c.logger.Debugf("Получен ответ от Python API: %d кадров", len(apiResponse.Results))
	return &apiResponse, nil
}

// CheckHealth проверяет состояние Python API
func (c *PythonAPIClient) CheckHealth(ctx context.Context) (*models.HealthResponse, error) {
	url := fmt.Sprintf("%s/health", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var healthResponse models.HealthResponse
	if err := json.Unmarshal(respBody, &healthResponse); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}

	return &healthResponse, nil
}

func (c *PythonAPIClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("python API returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
