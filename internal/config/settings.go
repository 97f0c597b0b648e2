package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // DREM_TIMEZONE must resolve on hosts without a zoneinfo database

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

// Settings holds everything read from the environment at startup.
// It is built once by Load and treated as read-only afterwards.
type Settings struct {
	Source string

	AzureAccount  string
	AzureKey      string
	AzureEndpoint string

	VCardPath string
	VCardURL  string

	CardDAVURL      string
	CardDAVUser     string
	CardDAVPassword string

	SendGridKey    string
	MailSender     string
	MailRecipients []string
	MailSubject    string
	SubjectPrefix  string
	MailFooter     string

	NotifyWeekday    time.Weekday
	Location         *time.Location
	Language         string
	OnBadRecord      string
	LegacyThresholds bool

	Schedule   string
	ListenPort string
	Timeout    time.Duration
	LogFile    string
}

// SecretLookup resolves secrets that are not present in the environment.
type SecretLookup interface {
	Lookup(name string) (string, error)
}

// KeyringSecrets reads secrets from the OS keyring, keyed by variable name.
type KeyringSecrets struct{}

// Lookup returns the keyring entry stored under the application service.
func (KeyringSecrets) Lookup(name string) (string, error) {
	return keyring.Get(KeyringService, name)
}

// LoadEnvFile populates the process environment from a dotenv file and returns
// the path it read. Variables already set in the environment win.
// The error only tells why nothing was loaded; running without a file is normal,
// so callers log it rather than stop.
func LoadEnvFile(path string) (string, error) {
	if path == "" {
		path = DefaultEnvFile
	}
	return path, godotenv.Load(path)
}

// Load builds Settings from getenv, falling back to secrets for credentials.
// When requireMail is false (dry runs), mail delivery settings become optional.
// All problems are reported together so a single run shows every missing variable.
func Load(getenv func(string) string, secrets SecretLookup, requireMail bool) (*Settings, error) {
	r := reader{getenv: getenv, secrets: secrets}

	s := &Settings{
		Source:        strings.ToLower(r.str(EnvSource, DefaultSource)),
		AzureEndpoint: r.str(EnvAzureEndpoint, ""),
		VCardPath:     r.str(EnvVCardPath, ""),
		VCardURL:      r.str(EnvVCardURL, ""),
		CardDAVURL:    r.str(EnvCardDAVURL, ""),
		CardDAVUser:   r.str(EnvCardDAVUser, ""),
		MailSender:    r.str(EnvMailSender, ""),
		MailSubject:   r.str(EnvMailSubject, DefaultMailSubject),
		SubjectPrefix: r.str(EnvSubjectPrefix, DefaultSubjectPrefix),
		MailFooter:    r.str(EnvMailFooter, DefaultMailFooter),
		Language:      strings.ToLower(r.str(EnvLanguage, DefaultLanguage)),
		OnBadRecord:   strings.ToLower(r.str(EnvOnBadRecord, DefaultBadRecord)),
		Schedule:      r.str(EnvSchedule, DefaultSchedule),
		ListenPort:    r.str(EnvListenPort, ""),
		LogFile:       r.str(EnvLogFile, ""),
	}
	s.MailRecipients = splitList(r.str(EnvMailRecipients, ""))

	switch s.Source {
	case SourceAzure:
		s.AzureAccount = r.required(EnvAzureAccount)
		s.AzureKey = r.secret(EnvAzureKey, true)
		if s.AzureEndpoint == "" && s.AzureAccount != "" {
			s.AzureEndpoint = fmt.Sprintf(AzureEndpointPattern, s.AzureAccount)
		}
	case SourceVCard:
		if (s.VCardPath == "") == (s.VCardURL == "") {
			r.errs = append(r.errs, errors.New(ErrVCardLocation))
		}
		// Remote vCard files share the CardDAV basic auth credentials.
		if s.VCardURL != "" {
			s.CardDAVPassword = r.secret(EnvCardDAVPassword, false)
		}
	case SourceCardDAV:
		s.CardDAVURL = r.required(EnvCardDAVURL)
		s.CardDAVPassword = r.secret(EnvCardDAVPassword, false)
	default:
		r.errs = append(r.errs, fmt.Errorf("%s: %q", ErrSourceUnknown, s.Source))
	}

	s.SendGridKey = r.secret(EnvSendGridKey, requireMail)
	if requireMail {
		r.required(EnvMailSender)
		if len(s.MailRecipients) == 0 {
			r.missing(EnvMailRecipients)
		}
	}

	s.NotifyWeekday = DefaultNotifyWeekday
	if v := r.str(EnvNotifyWeekday, ""); v != "" {
		wd, err := ParseWeekday(v)
		if err != nil {
			r.invalid(EnvNotifyWeekday, err)
		}
		s.NotifyWeekday = wd
	}

	loc, err := time.LoadLocation(r.str(EnvTimezone, DefaultTimezone))
	if err != nil {
		r.invalid(EnvTimezone, err)
		loc = time.Local
	}
	s.Location = loc

	if !slices.Contains(SupportedLanguages, s.Language) {
		r.invalid(EnvLanguage, fmt.Errorf("%s: %q", ErrLanguageUnknown, s.Language))
	}

	if s.OnBadRecord != BadRecordFail && s.OnBadRecord != BadRecordSkip {
		r.invalid(EnvOnBadRecord, fmt.Errorf("%q is neither %q nor %q", s.OnBadRecord, BadRecordFail, BadRecordSkip))
	}

	if v := r.str(EnvLegacyThresholds, ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			r.invalid(EnvLegacyThresholds, err)
		}
		s.LegacyThresholds = b
	}

	s.Timeout = DefaultTimeout
	if v := r.str(EnvTimeout, ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			r.invalid(EnvTimeout, fmt.Errorf("%q is not a positive duration", v))
		} else {
			s.Timeout = d
		}
	}

	if s.ListenPort != "" {
		if err := ValidatePort(s.ListenPort); err != nil {
			r.invalid(EnvListenPort, err)
		}
	}

	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseWeekday accepts full or three-letter English weekday names, case-insensitive.
func ParseWeekday(v string) (time.Weekday, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if v == name || v == name[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", v)
}

// ValidatePort checks that port is a number within the TCP range.
func ValidatePort(port string) error {
	n, err := strconv.Atoi(port)
	if err != nil || n < MinPort || n > MaxPort {
		return errors.New(ErrPortRange)
	}
	return nil
}

// reader accumulates configuration errors while reading variables.
type reader struct {
	getenv  func(string) string
	secrets SecretLookup
	errs    []error
}

func (r *reader) str(name, fallback string) string {
	if v := strings.TrimSpace(r.getenv(name)); v != "" {
		return v
	}
	return fallback
}

func (r *reader) required(name string) string {
	v := r.str(name, "")
	if v == "" {
		r.missing(name)
	}
	return v
}

// secret reads name from the environment, then from the keyring.
func (r *reader) secret(name string, required bool) string {
	if v := r.str(name, ""); v != "" {
		return v
	}
	if r.secrets != nil {
		v, err := r.secrets.Lookup(name)
		if err == nil && v != "" {
			return v
		}
		slog.Debug(MsgKeyringMiss,
			LogKeyComponent, CompConfig,
			LogKeyEnvVar, name,
			LogKeyError, err,
		)
	}
	if required {
		r.missing(name)
	}
	return ""
}

func (r *reader) missing(name string) {
	r.errs = append(r.errs, fmt.Errorf("%s: %s", ErrMissingEnv, name))
}

func (r *reader) invalid(name string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s %s: %w", ErrInvalidEnv, name, err))
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ListSeparator) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
