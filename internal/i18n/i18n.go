package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/drem/internal/config"
	"github.com/tartampluch/drem/internal/engine"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator renders alerts, subjects and calendar summaries in one language.
// It satisfies engine.MessageFormatter.
type Translator struct {
	Lang      string
	localizer *i18n.Localizer
	fallback  engine.EnglishMessages
}

// New loads the embedded locale files and returns a Translator for lang.
func New(lang string) (*Translator, error) {
	if lang == "" {
		lang = config.DefaultLanguage
	}
	lang = strings.ToLower(lang)

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrLocalesAccess, err)
	}

	var loaded []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", config.ErrLocaleLoad, name, err)
		}

		code := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		loaded = append(loaded, code)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, code,
			config.LogKeyFile, name,
		)
	}

	if !slices.Contains(loaded, lang) {
		return nil, fmt.Errorf("%s: %q", config.ErrLanguageUnknown, lang)
	}

	return &Translator{
		Lang:      lang,
		localizer: i18n.NewLocalizer(bundle, lang),
	}, nil
}

// Languages lists the language codes shipped in the embedded locales.
func Languages() []string {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil
	}
	var out []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "active.") && strings.HasSuffix(name, ".json") {
			out = append(out, strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json"))
		}
	}
	return out
}

// msg localizes key, returning "" when the key is missing so callers can fall back.
func (t *Translator) msg(key string, data map[string]any) string {
	if t == nil || t.localizer == nil {
		return ""
	}
	out, err := t.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return ""
	}
	return out
}

func (t *Translator) BirthdayAlert(name string, age int) string {
	if s := t.msg(config.TKeyAlertBirthday, map[string]any{"Name": name, "Age": age}); s != "" {
		return s
	}
	return t.fallback.BirthdayAlert(name, age)
}

func (t *Translator) AnniversaryAlert(spouse1, spouse2 string, years int) string {
	if s := t.msg(config.TKeyAlertAnniversary, couple(spouse1, spouse2, years)); s != "" {
		return s
	}
	return t.fallback.AnniversaryAlert(spouse1, spouse2, years)
}

func (t *Translator) BirthdaySubject(name string, age int) string {
	if s := t.msg(config.TKeySubjectBirthday, map[string]any{"Name": name, "Age": age}); s != "" {
		return s
	}
	return t.fallback.BirthdaySubject(name, age)
}

func (t *Translator) AnniversarySubject(spouse1, spouse2 string, years int) string {
	if s := t.msg(config.TKeySubjectAnniv, couple(spouse1, spouse2, years)); s != "" {
		return s
	}
	return t.fallback.AnniversarySubject(spouse1, spouse2, years)
}

func (t *Translator) SubjectLead(prefix string) string {
	if s := t.msg(config.TKeySubjectLead, map[string]any{"Prefix": prefix}); s != "" {
		return s
	}
	return t.fallback.SubjectLead(prefix)
}

// EventSummary is a report.Summarizer for calendar entries.
func (t *Translator) EventSummary(ev engine.ComputedEvent) string {
	if ev.Kind == engine.KindAnniversary {
		s1, s2 := ev.Spouses()
		if s := t.msg(config.TKeyEventAnniversary, couple(s1, s2, ev.AgeAtNext)); s != "" {
			return s
		}
		return fmt.Sprintf(config.FormatEventAnniversary, s1, s2, ev.AgeAtNext)
	}
	if s := t.msg(config.TKeyEventBirthday, map[string]any{"Name": ev.Name(), "Age": ev.AgeAtNext}); s != "" {
		return s
	}
	return fmt.Sprintf(config.FormatEventBirthday, ev.Name(), ev.AgeAtNext)
}

// Footer returns configured unless it is the built-in English footer,
// in which case the localized footer is used.
func (t *Translator) Footer(configured string) string {
	if configured != config.DefaultMailFooter {
		return configured
	}
	if s := t.msg(config.TKeyDefaultMailFooter, nil); s != "" {
		return s
	}
	return configured
}

func couple(spouse1, spouse2 string, years int) map[string]any {
	return map[string]any{"Spouse1": spouse1, "Spouse2": spouse2, "Years": years}
}
