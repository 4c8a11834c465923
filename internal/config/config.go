package config

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"github.com/caarlos0/env/v8"
	v10validator "github.com/go-playground/validator/v10"
	inerr "github.com/ivanpodgorny/bolexport/internal/errors"
	"github.com/ivanpodgorny/bolexport/internal/validator"
	"github.com/joho/godotenv"
	"io/fs"
	"os"
	"time"
)

type Config interface {
	ClientID() string
	ClientSecret() string
	APIBase() string
	TokenURL() string
	ExportDir() string
	StateDir() string
	LogDir() string
	MetricsFile() string
	HTTPTimeout() time.Duration
	ExportDate() time.Time
	DryRun() bool
	Verbose() bool
}

type Validator interface {
	Struct(ctx context.Context, s any) error
}

type Builder struct {
	parameters *parameters
	arguments  []string
	validator  Validator
	now        func() time.Time
	exportDate time.Time
	err        error
}

type parameters struct {
	ClientID     string        `env:"BOL_CLIENT_ID" validate:"required"`
	ClientSecret string        `env:"BOL_CLIENT_SECRET" validate:"required"`
	APIBase      string        `env:"BOL_API_BASE" validate:"required,url"`
	TokenURL     string        `env:"BOL_TOKEN_URL" validate:"required,url"`
	ExportDir    string        `env:"EXPORT_DIR" validate:"required"`
	StateDir     string        `env:"STATE_DIR" validate:"required"`
	LogDir       string        `env:"LOG_DIR"`
	MetricsFile  string        `env:"METRICS_FILE"`
	HTTPTimeout  time.Duration `env:"BOL_HTTP_TIMEOUT"`
	Date         string        `validate:"omitempty,datetime=2006-01-02"`
	DryRun       bool
	Verbose      bool
}

const (
	defaultAPIBase   = "https://api.bol.com/retailer"
	defaultTokenURL  = "https://login.bol.com/token"
	defaultExportDir = "./data/exports"
	defaultStateDir  = "./data/state"
	defaultLogDir    = "./logs"
	defaultTimeout   = 30 * time.Second
	dateLayout       = "2006-01-02"
)

func NewBuilder() *Builder {
	return &Builder{
		parameters: defaultParameters(),
		validator:  validator.New(v10validator.New()),
		now:        time.Now,
	}
}

func defaultParameters() *parameters {
	return &parameters{
		APIBase:     defaultAPIBase,
		TokenURL:    defaultTokenURL,
		ExportDir:   defaultExportDir,
		StateDir:    defaultStateDir,
		LogDir:      defaultLogDir,
		HTTPTimeout: defaultTimeout,
	}
}

// LoadDotEnv загружает переменные окружения из файлов files (по умолчанию .env).
// Отсутствующие файлы пропускаются, уже заданные переменные окружения не перезаписываются.
func (b *Builder) LoadDotEnv(files ...string) *Builder {
	if b.err != nil {
		return b
	}

	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err := godotenv.Load(f); err != nil {
			b.err = fmt.Errorf("%w: %s: %v", inerr.ErrConfig, f, err)

			return b
		}
	}

	return b
}

func (b *Builder) LoadEnv() *Builder {
	if b.err != nil {
		return b
	}

	if err := env.Parse(b.parameters); err != nil {
		b.err = fmt.Errorf("%w: %v", inerr.ErrConfig, err)
	}

	return b
}

func (b *Builder) LoadFlags() *Builder {
	if b.err != nil {
		return b
	}

	fs := flag.NewFlagSet("bolexport", flag.ContinueOnError)
	fs.BoolVar(&b.parameters.DryRun, "dry-run", b.parameters.DryRun, "выгрузка без записи файла и состояния")
	fs.StringVar(&b.parameters.Date, "date", b.parameters.Date, "дата выгрузки в формате YYYY-MM-DD")
	fs.BoolVar(&b.parameters.Verbose, "v", b.parameters.Verbose, "подробный журнал")

	args := b.arguments
	if args == nil {
		args = os.Args[1:]
	}

	if err := fs.Parse(args); err != nil {
		b.err = fmt.Errorf("%w: %v", inerr.ErrConfig, err)
	}

	return b
}

// Build проверяет параметры и возвращает конфигурацию. Если дата выгрузки не задана,
// используется текущая дата.
func (b *Builder) Build() (Config, error) {
	if b.err != nil {
		return nil, b.err
	}

	if err := b.validator.Struct(context.Background(), b.parameters); err != nil {
		return nil, fmt.Errorf("%w: %v", inerr.ErrConfig, err)
	}

	if b.parameters.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("%w: BOL_HTTP_TIMEOUT must be positive", inerr.ErrConfig)
	}

	now := b.now()
	b.exportDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if b.parameters.Date != "" {
		d, err := time.ParseInLocation(dateLayout, b.parameters.Date, now.Location())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", inerr.ErrConfig, err)
		}
		b.exportDate = d
	}

	return b, nil
}

func (b *Builder) ClientID() string {
	return b.parameters.ClientID
}

func (b *Builder) ClientSecret() string {
	return b.parameters.ClientSecret
}

func (b *Builder) APIBase() string {
	return b.parameters.APIBase
}

func (b *Builder) TokenURL() string {
	return b.parameters.TokenURL
}

func (b *Builder) ExportDir() string {
	return b.parameters.ExportDir
}

func (b *Builder) StateDir() string {
	return b.parameters.StateDir
}

func (b *Builder) LogDir() string {
	return b.parameters.LogDir
}

func (b *Builder) MetricsFile() string {
	return b.parameters.MetricsFile
}

func (b *Builder) HTTPTimeout() time.Duration {
	return b.parameters.HTTPTimeout
}

func (b *Builder) ExportDate() time.Time {
	return b.exportDate
}

func (b *Builder) DryRun() bool {
	return b.parameters.DryRun
}

func (b *Builder) Verbose() bool {
	return b.parameters.Verbose
}
