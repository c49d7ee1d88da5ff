package models

// PredictRequest запрос к Python сервису с моделью.
// Сервис и приложение разделяют каталог static, поэтому передаются пути, а не байты.
type PredictRequest struct {
	Source     string  `json:"source"`            // Путь к изображению или видео
	Confidence float64 `json:"conf"`              // Порог уверенности
	Save       bool    `json:"save"`              // Сохранить аннотированный результат модели
	Project    string  `json:"project,omitempty"` // Родительский каталог для сохранения
	Name       string  `json:"name,omitempty"`    // Имя подкаталога внутри project
}

// InferenceBox сырая рамка от модели
type InferenceBox struct {
	Class      int       `json:"cls"`
	Confidence float64   `json:"conf"`
	XYXY       []float64 `json:"xyxy"`
	Name       string    `json:"name,omitempty"`
}

// InferenceFrame результат модели для одного кадра (для изображения кадр один)
type InferenceFrame struct {
	Boxes []InferenceBox `json:"boxes"`
}

// InferenceResponse ответ Python сервиса
type InferenceResponse struct {
	Names   map[int]string   `json:"names"`            // Соответствие id класса и имени
	Results []InferenceFrame `json:"results"`          // Результаты по кадрам
	SaveDir string           `json:"save_dir"`         // Каталог, куда модель сохранила результат
	Output  string           `json:"output,omitempty"` // Основной файл результата, если известен
}

// HealthResponse представляет ответ проверки здоровья сервиса
type HealthResponse struct {
	Status      string `json:"status"`       // Статус сервиса (healthy/unhealthy)
	ModelLoaded bool   `json:"model_loaded"` // Загружена ли модель нейронной сети
	Version     string `json:"version"`      // Версия сервиса
}
