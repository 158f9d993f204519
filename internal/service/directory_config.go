package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
	apperrors "github.com/consentforms/consentforms/internal/errors"
	"github.com/consentforms/consentforms/internal/ports"
)

// DirectoryConfigView is the read model of the configuration. The bind
// password never leaves the service; only its presence is reported.
type DirectoryConfigView struct {
	ServerURL              string              `json:"serverUrl"`
	BaseSearchDN           string              `json:"baseSearchDn"`
	ServiceBindDN          string              `json:"serviceBindDn"`
	HasServiceBindPassword bool                `json:"hasServiceBindPassword"`
	CACertificatePath      string              `json:"caCertificatePath"`
	GroupDNs               domainauth.GroupDNs `json:"groupDns"`
	SetupMode              bool                `json:"setupMode"`
	Insecure               bool                `json:"insecure"`
}

// UpdateDirectoryConfigRequest replaces the stored configuration. A blank
// ServiceBindPassword keeps the stored one.
type UpdateDirectoryConfigRequest struct {
	ServerURL           string `json:"serverUrl" validate:"required,max=2048,ldapurl"`
	BaseSearchDN        string `json:"baseSearchDn" validate:"required,max=1024"`
	ServiceBindDN       string `json:"serviceBindDn" validate:"required,max=1024"`
	ServiceBindPassword string `json:"serviceBindPassword" validate:"max=1024"`
	CACertificatePath   string `json:"caCertificatePath" validate:"max=4096"`
	GroupDNs            GroupDNsInput `json:"groupDns"`
}

// GroupDNsInput carries the role groups of an update. Any may be blank.
type GroupDNsInput struct {
	Read   string `json:"read" validate:"max=1024"`
	Change string `json:"change" validate:"max=1024"`
	Full   string `json:"full" validate:"max=1024"`
}

// DirectoryConfigServiceOptions groups dependencies for DirectoryConfigService.
type DirectoryConfigServiceOptions struct {
	Store  ports.DirectoryConfigStore
	Logger *slog.Logger
}

// DirectoryConfigService is the administrator API over the configuration store.
type DirectoryConfigService struct {
	store  ports.DirectoryConfigStore
	logger *slog.Logger
	// mu serializes read-modify-write in Update.
	mu sync.Mutex
}

// NewDirectoryConfigService constructs a new DirectoryConfigService.
func NewDirectoryConfigService(opts DirectoryConfigServiceOptions) *DirectoryConfigService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryConfigService{store: opts.Store, logger: logger.With("component", "directory_config")}
}

// Get returns the current configuration with the password redacted.
func (s *DirectoryConfigService) Get(ctx context.Context) (DirectoryConfigView, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return DirectoryConfigView{}, err
	}
	return viewOf(cfg), nil
}

// Update validates req and saves it.
func (s *DirectoryConfigService) Update(ctx context.Context, req UpdateDirectoryConfigRequest) (DirectoryConfigView, error) {
	if err := validateStruct(&req); err != nil {
		return DirectoryConfigView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Load(ctx)
	if err != nil {
		return DirectoryConfigView{}, err
	}

	next := domainauth.DirectoryConfig{
		ServerURL:           strings.TrimSpace(req.ServerURL),
		BaseSearchDN:        strings.TrimSpace(req.BaseSearchDN),
		ServiceBindDN:       strings.TrimSpace(req.ServiceBindDN),
		ServiceBindPassword: req.ServiceBindPassword,
		CACertificatePath:   strings.TrimSpace(req.CACertificatePath),
		GroupDNs: domainauth.GroupDNs{
			Read:   strings.TrimSpace(req.GroupDNs.Read),
			Change: strings.TrimSpace(req.GroupDNs.Change),
			Full:   strings.TrimSpace(req.GroupDNs.Full),
		},
	}
	if next.ServiceBindPassword == "" {
		next.ServiceBindPassword = current.ServiceBindPassword
	}
	if next.ServiceBindPassword == "" {
		return DirectoryConfigView{}, apperrors.ValidationField("serviceBindPassword", "serviceBindPassword is required")
	}

	if err := s.store.Save(ctx, next); err != nil {
		return DirectoryConfigView{}, fmt.Errorf("save directory configuration: %w", err)
	}

	s.logger.InfoContext(ctx, "directory configuration updated",
		"server", next.ServerURL,
		"setup_mode", domainauth.IsSetupMode(next),
		"insecure", next.Insecure(),
		"password_changed", req.ServiceBindPassword != "")
	return viewOf(next), nil
}

func viewOf(cfg domainauth.DirectoryConfig) DirectoryConfigView {
	return DirectoryConfigView{
		ServerURL:              cfg.ServerURL,
		BaseSearchDN:           cfg.BaseSearchDN,
		ServiceBindDN:          cfg.ServiceBindDN,
		HasServiceBindPassword: cfg.ServiceBindPassword != "",
		CACertificatePath:      cfg.CACertificatePath,
		GroupDNs:               cfg.GroupDNs,
		SetupMode:              domainauth.IsSetupMode(cfg),
		Insecure:               cfg.Insecure(),
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("ldapurl", func(fl validator.FieldLevel) bool {
			u, err := url.Parse(strings.TrimSpace(fl.Field().String()))
			if err != nil || u.Host == "" {
				return false
			}
			return u.Scheme == "ldap" || u.Scheme == "ldaps"
		})
	})
	return validate
}

// validateStruct reports the first failing field as a validation AppError.
func validateStruct(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid request")
	}
	fe := fieldErrs[0]
	return apperrors.ValidationField(fe.Field(), describeFieldError(fe))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "ldapurl":
		return fe.Field() + " must be an ldap:// or ldaps:// URL with a host"
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
