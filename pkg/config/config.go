package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Значения по умолчанию для AI-классификации и пакетного режима.
const (
	DefaultModelAlias  = "groq-llama"
	DefaultMaxSamples  = 50
	DefaultBatchDelay  = 2 * time.Second
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 4000
	DefaultTimeout     = 60 * time.Second
)

// AppConfig — корневая структура конфигурации.
// Она зеркалит структуру config.yaml.
type AppConfig struct {
	Models      ModelsConfig      `yaml:"models"`
	Categorizer CategorizerConfig `yaml:"categorizer"`
	S3          S3Config          `yaml:"s3"`
	App         AppSpecific       `yaml:"app"`
}

// ModelsConfig — настройки AI моделей.
type ModelsConfig struct {
	DefaultChat string              `yaml:"default_chat"` // Алиас по умолчанию (например, "groq-llama")
	Definitions map[string]ModelDef `yaml:"definitions"`  // Словарь определений моделей
}

// ModelDef — параметры конкретной модели.
type ModelDef struct {
	Provider    string        `yaml:"provider"`   // "groq", "openai", "local" и т.д.
	ModelName   string        `yaml:"model_name"` // Реальное имя в API
	APIKey      string        `yaml:"api_key"`    // Поддерживает ${VAR}
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature *float64      `yaml:"temperature"` // nil = DefaultTemperature; 0 допустим
	Timeout     time.Duration `yaml:"timeout"`     // Go умеет парсить строки вида "60s", "1m"
	BaseURL     string        `yaml:"base_url"`
}

// CategorizerConfig — настройки движка категоризации.
type CategorizerConfig struct {
	Model      string              `yaml:"model"`       // Алиас из models.definitions (пусто = default_chat)
	MaxSamples int                 `yaml:"max_samples"` // Не больше 50
	BatchDelay *time.Duration      `yaml:"batch_delay"` // Пауза перед каждым вызовом LLM (nil = 2s, 0 = без паузы)
	RulesOnly  bool                `yaml:"rules_only"`  // Только rule-based классификация
	Keywords   map[string][]string `yaml:"keywords"`    // Переопределение ключевых слов по категориям
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c CategorizerConfig) GetDefaults() CategorizerConfig {
	result := c

	if result.MaxSamples <= 0 || result.MaxSamples > DefaultMaxSamples {
		result.MaxSamples = DefaultMaxSamples
	}
	if result.BatchDelay == nil {
		delay := DefaultBatchDelay
		result.BatchDelay = &delay
	}

	return result
}

// Delay возвращает паузу между вызовами LLM (0, если не задана).
func (c CategorizerConfig) Delay() time.Duration {
	if c.BatchDelay == nil {
		return 0
	}
	return *c.BatchDelay
}

// Temp возвращает температуру модели: заданную явно или DefaultTemperature.
func (m ModelDef) Temp() float64 {
	if m.Temperature == nil {
		return DefaultTemperature
	}
	return *m.Temperature
}

// S3Config — настройки объектного хранилища.
type S3Config struct {
	Endpoint     string `yaml:"endpoint"`
	Region       string `yaml:"region"`
	Bucket       string `yaml:"bucket"`
	AccessKey    string `yaml:"access_key"` // Поддерживает ${VAR}
	SecretKey    string `yaml:"secret_key"` // Поддерживает ${VAR}
	UseSSL       bool   `yaml:"use_ssl"`
	InputPrefix  string `yaml:"input_prefix"`  // Где лежат документы с селекторами
	OutputPrefix string `yaml:"output_prefix"` // Куда писать результаты
}

// Enabled сообщает, настроено ли хранилище.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c S3Config) GetDefaults() S3Config {
	result := c
	if result.InputPrefix == "" {
		result.InputPrefix = "selectors/"
	}
	if result.OutputPrefix == "" {
		result.OutputPrefix = "categorized_selectors/"
	}
	return result
}

// AppSpecific — общие настройки приложения.
type AppSpecific struct {
	Debug      bool   `yaml:"debug"`
	PromptsDir string `yaml:"prompts_dir"` // Каталог с categorize.yaml (пусто = встроенный промпт)
	LedgerPath string `yaml:"ledger_path"` // SQLite журнал запусков (пусто = выключен)
	LogPrefix  string `yaml:"log_prefix"`
}

// Default возвращает конфигурацию без файла: Groq через ключ из GROQ_API_KEY.
//
// Если переменная не задана, AI-путь будет недоступен, а категоризация
// пройдёт на правилах.
func Default() *AppConfig {
	return &AppConfig{
		Models: ModelsConfig{
			DefaultChat: DefaultModelAlias,
			Definitions: map[string]ModelDef{
				DefaultModelAlias: {
					Provider:    "groq",
					ModelName:   "llama-3.1-8b-instant",
					APIKey:      os.Getenv("GROQ_API_KEY"),
					MaxTokens:   DefaultMaxTokens,
					Temperature: Float(DefaultTemperature),
					Timeout:     DefaultTimeout,
				},
			},
		},
		Categorizer: CategorizerConfig{}.GetDefaults(),
	}
}

// Float возвращает указатель на v (для опциональных полей конфигурации).
func Float(v float64) *float64 {
	return &v
}

// Load читает YAML файл, подставляет ENV переменные и возвращает готовую структуру.
func Load(path string) (*AppConfig, error) {
	// 1. Проверяем существование файла
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	// 2. Читаем файл целиком
	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(rawBytes)
}

// Parse разбирает YAML из памяти. ${VAR} и $VAR заменяются значениями окружения.
func Parse(data []byte) (*AppConfig, error) {
	contentWithEnv := os.ExpandEnv(string(data))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	cfg.Categorizer = cfg.Categorizer.GetDefaults()
	if cfg.S3.Enabled() {
		cfg.S3 = cfg.S3.GetDefaults()
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault читает файл, а при его отсутствии возвращает Default().
//
// Ошибки чтения и разбора существующего файла не маскируются.
func LoadOrDefault(path string) (*AppConfig, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// validate проверяет обязательные поля.
func (c *AppConfig) validate() error {
	if c.Models.DefaultChat != "" {
		if _, ok := c.Models.Definitions[c.Models.DefaultChat]; !ok {
			return fmt.Errorf("default_chat model '%s' is not defined in definitions", c.Models.DefaultChat)
		}
	}
	if c.Categorizer.Model != "" {
		if _, ok := c.Models.Definitions[c.Categorizer.Model]; !ok {
			return fmt.Errorf("categorizer.model '%s' is not defined in definitions", c.Categorizer.Model)
		}
	}
	if c.Categorizer.Delay() < 0 {
		return fmt.Errorf("categorizer.batch_delay must not be negative")
	}
	if c.S3.Enabled() && c.S3.Endpoint == "" {
		return fmt.Errorf("s3.endpoint is required when s3.bucket is set")
	}
	return nil
}

// ChatModel возвращает модель для категоризации: categorizer.model,
// иначе models.default_chat.
func (c *AppConfig) ChatModel() (string, ModelDef, bool) {
	name := c.Categorizer.Model
	if name == "" {
		name = c.Models.DefaultChat
	}
	m, ok := c.Models.Definitions[name]
	return name, m, ok
}
