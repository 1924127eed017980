// Package app собирает компоненты категоризатора из конфигурации
// для разных точек входа (CLI сейчас, HTTP позже).
//
// Пакет следует правилам из dev_manifest.md:
//   - Работает через llm.Provider интерфейс (Правило 4)
//   - Все ошибки возвращаются, никаких panic (Правило 7)
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilkoid/selcat/pkg/categorizer"
	"github.com/ilkoid/selcat/pkg/classifier"
	"github.com/ilkoid/selcat/pkg/config"
	"github.com/ilkoid/selcat/pkg/factory"
	"github.com/ilkoid/selcat/pkg/ledger"
	"github.com/ilkoid/selcat/pkg/prompt"
	"github.com/ilkoid/selcat/pkg/utils"
)

// Components содержит все компоненты приложения для переиспользования.
type Components struct {
	Config      *config.AppConfig
	Categorizer *categorizer.Categorizer
	Ledger      *ledger.Ledger // nil, если app.ledger_path не задан
	ModelName   string         // Пусто, если AI-путь выключен
	// AIDisabledReason объясняет, почему документы пойдут на правила.
	AIDisabledReason error
}

// Options — параметры запуска, приходящие из флагов.
type Options struct {
	RulesOnly bool
}

// ConfigPathFinder определяет стратегию поиска пути к config.yaml.
//
// По умолчанию используется DefaultConfigPathFinder, но можно
// реализовать свою стратегию для тестов или специальных случаев.
type ConfigPathFinder interface {
	FindConfigPath() string
}

// DefaultConfigPathFinder реализует стандартную стратегию поиска config.yaml.
//
// Порядок поиска:
// 1. Флаг -config (если указан)
// 2. Текущая директория (./config.yaml)
// 3. Директория бинарника
// 4. Родительская директория (для запуска из cmd/)
type DefaultConfigPathFinder struct {
	// ConfigFlag - значение флага -config, если указан
	ConfigFlag string
}

// FindConfigPath находит путь к config.yaml.
// Если файл нигде не найден, возвращает пустую строку.
func (f *DefaultConfigPathFinder) FindConfigPath() string {
	// 1. Флаг имеет приоритет
	if f.ConfigFlag != "" {
		return resolveAbsPath(f.ConfigFlag)
	}

	candidates := []string{"config.yaml"}

	// 3. Директория бинарника
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), "config.yaml"))
	}

	candidates = append(candidates,
		filepath.Join("..", "config.yaml"),
		filepath.Join("..", "..", "config.yaml"),
	)

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return resolveAbsPath(p)
		}
	}
	return ""
}

// InitializeConfig инициализирует и загружает конфигурацию.
//
// Правило 2: все настройки в YAML с поддержкой ENV-переменных.
// Без файла работают встроенные настройки (Groq + GROQ_API_KEY).
// Явно указанный, но отсутствующий файл — ошибка.
func InitializeConfig(finder ConfigPathFinder, explicit bool) (*config.AppConfig, string, error) {
	cfgPath := finder.FindConfigPath()

	if explicit {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config from %s: %w", cfgPath, err)
		}
		return cfg, cfgPath, nil
	}

	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config from %s: %w", cfgPath, err)
	}
	return cfg, cfgPath, nil
}

// Initialize создаёт и инициализирует все компоненты приложения.
//
// Отсутствие API ключа не ошибка: AI-путь выключается, а причина
// попадает в metadata.fallback_reason каждого результата.
//
// Правило 6: entry points - initialization and orchestration only.
func Initialize(cfg *config.AppConfig, opts Options) (*Components, error) {
	utils.Info("Initializing components", "rules_only", opts.RulesOnly || cfg.Categorizer.RulesOnly)

	// 1. Правила: встроенные + переопределения из config.yaml
	rules, err := classifier.RulesFromKeywords(cfg.Categorizer.Keywords)
	if err != nil {
		return nil, fmt.Errorf("invalid categorizer.keywords: %w", err)
	}

	comps := &Components{Config: cfg}
	catCfg := categorizer.Config{
		Rules:      classifier.New(rules),
		MaxSamples: cfg.Categorizer.MaxSamples,
		BatchDelay: cfg.Categorizer.Delay(),
	}

	// 2. AI классификатор
	if opts.RulesOnly || cfg.Categorizer.RulesOnly {
		comps.AIDisabledReason = fmt.Errorf("ai disabled by rules-only mode")
	} else {
		ai, name, err := newAIClassifier(cfg)
		if err != nil {
			comps.AIDisabledReason = err
			utils.Warn("AI classifier unavailable", "error", err)
		} else {
			catCfg.AI = ai
			catCfg.Model = ai.Model()
			comps.ModelName = name
			utils.Info("AI classifier initialized", "model", name)
		}
	}
	catCfg.ConfigErr = comps.AIDisabledReason

	// 3. Журнал запусков
	if cfg.App.LedgerPath != "" {
		l, err := ledger.Open(cfg.App.LedgerPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open ledger: %w", err)
		}
		comps.Ledger = l
		catCfg.Recorder = l
		utils.Info("Ledger opened", "path", cfg.App.LedgerPath, "run_id", l.RunID())
	}

	comps.Categorizer = categorizer.New(catCfg)
	return comps, nil
}

// Close освобождает ресурсы компонентов.
func (c *Components) Close() error {
	if c.Ledger != nil {
		return c.Ledger.Close()
	}
	return nil
}

func newAIClassifier(cfg *config.AppConfig) (*categorizer.AIClassifier, string, error) {
	name, modelDef, ok := cfg.ChatModel()
	if !ok {
		return nil, "", fmt.Errorf("chat model %q is not defined", name)
	}

	provider, err := factory.NewLLMProvider(modelDef)
	if err != nil {
		return nil, "", fmt.Errorf("model %s: %w", name, err)
	}

	pf, err := prompt.LoadCategorizePrompt(cfg.App.PromptsDir)
	if err != nil {
		return nil, "", err
	}

	return categorizer.NewAIClassifier(provider, pf, categorizer.OptionsFromModel(modelDef)), name, nil
}

// resolveAbsPath преобразует путь в абсолютный (если это не уже абсолютный путь).
func resolveAbsPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
