package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Settings are studio-level business settings. They can change at runtime;
// invoices freeze what they need (tax rate) at save time.
type Settings struct {
	Tax      TaxSettings      `mapstructure:"tax"`
	Payments PaymentSettings  `mapstructure:"payments"`
	Invoice  InvoiceSettings  `mapstructure:"invoice"`
	Branding BrandingSettings `mapstructure:"branding"`
}

type TaxSettings struct {
	HomeState   string  `mapstructure:"homeState"`
	DefaultRate float64 `mapstructure:"defaultRate"`
}

type PaymentSettings struct {
	MinimumAmount float64 `mapstructure:"minimumAmount"`
}

type InvoiceSettings struct {
	NumberTemplate string `mapstructure:"numberTemplate"`
	Currency       string `mapstructure:"currency"`
}

type BrandingSettings struct {
	StudioName  string `mapstructure:"studioName"`
	LogoURL     string `mapstructure:"logoURL"`
	AccentColor string `mapstructure:"accentColor"`
}

func (s Settings) DefaultTaxRate() decimal.Decimal {
	return decimal.NewFromFloat(s.Tax.DefaultRate)
}

func (s Settings) MinimumPayment() decimal.Decimal {
	return decimal.NewFromFloat(s.Payments.MinimumAmount)
}

func DefaultSettings() Settings {
	return Settings{
		Tax: TaxSettings{
			HomeState:   "",
			DefaultRate: 0,
		},
		Payments: PaymentSettings{
			MinimumAmount: 0.5,
		},
		Invoice: InvoiceSettings{
			NumberTemplate: "INV-{YYYY}{MM}{DD}-{SEQ4}",
			Currency:       "USD",
		},
		Branding: BrandingSettings{
			StudioName:  "Studio",
			AccentColor: "#1f2937",
		},
	}
}

type SettingsHolder struct {
	current atomic.Value // holds Settings
}

// NewSettingsHolder loads studiobooks.yml from the usual locations and keeps
// it hot-reloaded. Missing files fall back to DefaultSettings.
func NewSettingsHolder(log *zap.Logger) (*SettingsHolder, error) {
	v := viper.New()
	v.SetConfigName("studiobooks")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/studiobooks")
	v.AddConfigPath(".")
	return newSettingsHolder(v, log)
}

// NewSettingsHolderFromFile reads settings from an explicit file path.
func NewSettingsHolderFromFile(path string, log *zap.Logger) (*SettingsHolder, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return newSettingsHolder(v, log)
}

// NewStaticSettingsHolder returns a holder that never reloads.
func NewStaticSettingsHolder(s Settings) *SettingsHolder {
	holder := &SettingsHolder{}
	holder.current.Store(s)
	return holder
}

func newSettingsHolder(v *viper.Viper, log *zap.Logger) (*SettingsHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("settings")

	v.SetEnvPrefix("STUDIOBOOKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultSettings()
	v.SetDefault("tax.homeState", defaults.Tax.HomeState)
	v.SetDefault("tax.defaultRate", defaults.Tax.DefaultRate)
	v.SetDefault("payments.minimumAmount", defaults.Payments.MinimumAmount)
	v.SetDefault("invoice.numberTemplate", defaults.Invoice.NumberTemplate)
	v.SetDefault("invoice.currency", defaults.Invoice.Currency)
	v.SetDefault("branding.studioName", defaults.Branding.StudioName)
	v.SetDefault("branding.logoURL", defaults.Branding.LogoURL)
	v.SetDefault("branding.accentColor", defaults.Branding.AccentColor)

	watch := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		watch = false
		log.Info("settings file not found, using defaults")
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}
	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	holder := &SettingsHolder{}
	holder.current.Store(settings)

	if watch {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated Settings
			if err := v.Unmarshal(&updated); err != nil {
				log.Warn("settings reload failed", zap.Error(err))
				return
			}
			if err := validateSettings(updated); err != nil {
				log.Warn("invalid settings ignored", zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("settings reloaded", zap.String("file", e.Name))
		})
	}

	return holder, nil
}

func (h *SettingsHolder) Get() Settings {
	return h.current.Load().(Settings)
}

func validateSettings(s Settings) error {
	if s.Tax.DefaultRate < 0 {
		return errors.New("tax.defaultRate cannot be negative")
	}
	if s.Payments.MinimumAmount < 0 {
		return errors.New("payments.minimumAmount cannot be negative")
	}
	if strings.TrimSpace(s.Invoice.NumberTemplate) == "" {
		return errors.New("invoice.numberTemplate cannot be empty")
	}
	if strings.TrimSpace(s.Invoice.Currency) == "" {
		return errors.New("invoice.currency cannot be empty")
	}
	return nil
}
