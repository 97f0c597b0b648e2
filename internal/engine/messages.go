package engine

import (
	"fmt"

	"github.com/tartampluch/drem/internal/config"
)

// MessageFormatter produces the human-readable alert and subject fragments.
// The default is EnglishMessages; internal/i18n provides localized variants.
type MessageFormatter interface {
	BirthdayAlert(name string, age int) string
	AnniversaryAlert(spouse1, spouse2 string, years int) string
	BirthdaySubject(name string, age int) string
	AnniversarySubject(spouse1, spouse2 string, years int) string
	SubjectLead(prefix string) string
}

// EnglishMessages renders the built-in English texts.
type EnglishMessages struct{}

func (EnglishMessages) BirthdayAlert(name string, age int) string {
	return fmt.Sprintf(config.FormatAlertBirthday, name, age)
}

func (EnglishMessages) AnniversaryAlert(spouse1, spouse2 string, years int) string {
	return fmt.Sprintf(config.FormatAlertAnniversary, spouse1, spouse2, years)
}

func (EnglishMessages) BirthdaySubject(name string, age int) string {
	return fmt.Sprintf(config.FormatSubjectBirthday, name, age)
}

func (EnglishMessages) AnniversarySubject(spouse1, spouse2 string, years int) string {
	return fmt.Sprintf(config.FormatSubjectAnniversary, spouse1, spouse2, years)
}

func (EnglishMessages) SubjectLead(prefix string) string {
	return fmt.Sprintf(config.FormatSubjectLead, prefix)
}
