package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

func main() {
	server := flag.String("server", "http://localhost:5000", "адрес сервера")
	flag.Parse()

	// Проверяем health endpoint
	fmt.Println("Проверяем health endpoint...")
	resp, err := http.Get(*server + "/api/v1/health")
	if err != nil {
		fmt.Printf("Ошибка при обращении к health endpoint: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("Ошибка чтения ответа: %v\n", err)
		return
	}

	fmt.Printf("Health check ответ (статус %d):\n%s\n\n", resp.StatusCode, string(body))

	// Если передан файл, отправляем его на детекцию
	if flag.NArg() == 0 {
		fmt.Println("Для тестирования детекции запустите: go run test_client.go [-server URL] <изображение или видео>")
		return
	}

	for _, path := range flag.Args() {
		fmt.Printf("Отправляем %s на детекцию...\n", path)
		if err := testUpload(*server, path); err != nil {
			fmt.Printf("Ошибка при тестировании детекции: %v\n", err)
		}
	}
}

func testUpload(server, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ошибка чтения файла: %w", err)
	}

	// Создаем multipart form
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fileWriter, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("ошибка создания form field: %w", err)
	}
	if _, err := fileWriter.Write(data); err != nil {
		return fmt.Errorf("ошибка записи файла: %w", err)
	}
	writer.Close()

	// Видео обрабатывается долго: модель идет по всем кадрам
	client := &http.Client{Timeout: 10 * time.Minute}
	req, err := http.NewRequest(http.MethodPost, server+"/upload", &body)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	fmt.Printf("Ответ детекции (статус %d, %v):\n%s\n", resp.StatusCode, time.Since(start).Round(time.Millisecond), string(respBody))
	return nil
}
