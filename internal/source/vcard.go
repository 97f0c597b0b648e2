package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/drem/internal/config"
	"github.com/tartampluch/drem/internal/engine"
)

const uuidURNPrefix = "urn:uuid:"

// VCardSource reads records from a local .vcf file or a remote one.
// Exactly one of Path and URL is expected to be set.
type VCardSource struct {
	Path     string
	URL      string
	User     string
	Password string
	Fetcher  Fetcher
}

// Fetch decodes every card and maps those carrying a date of the requested kind.
func (s *VCardSource) Fetch(ctx context.Context, kind engine.Kind) ([]engine.RawRecord, error) {
	cards, err := s.cards(ctx)
	if err != nil {
		return nil, err
	}
	return CardRecords(cards, kind), nil
}

// FetchAll reads the file once and maps birthdays, then anniversaries.
func (s *VCardSource) FetchAll(ctx context.Context) ([]engine.RawRecord, error) {
	cards, err := s.cards(ctx)
	if err != nil {
		return nil, err
	}
	return allRecords(cards), nil
}

func (s *VCardSource) cards(ctx context.Context) ([]vcard.Card, error) {
	rc, err := s.open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w", config.ErrFetchRecords, err)
	}
	defer func() { _ = rc.Close() }()

	return decodeCards(ctx, rc)
}

func (s *VCardSource) open(ctx context.Context) (io.ReadCloser, error) {
	switch {
	case s.Path != "":
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrVCardOpen, err)
		}
		return f, nil
	case s.URL != "":
		if s.Fetcher == nil {
			return nil, errors.New(config.ErrFetcherMissing)
		}
		return s.Fetcher.Fetch(ctx, s.URL, s.User, s.Password)
	default:
		return nil, errors.New(config.ErrVCardLocation)
	}
}

// decodeCards reads a vCard stream to the end. Malformed cards are logged and skipped.
func decodeCards(ctx context.Context, r io.Reader) ([]vcard.Card, error) {
	decoder := vcard.NewDecoder(r)
	var cards []vcard.Card

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			return cards, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%s: %w", config.ErrVCardParse, err)
		}
		if err != nil {
			slog.Warn(config.MsgSkippedCard,
				config.LogKeyComponent, config.CompSource,
				config.LogKeyError, err)
			continue
		}
		cards = append(cards, card)
	}
}

// CardRecords maps cards to raw records of one kind.
// Birthdays come from BDAY, with DEATHDATE as the secondary date. Anniversaries
// come from ANNIVERSARY, the second name being the RELATED;TYPE=spouse entry.
// Both partners' cards usually carry the same anniversary; only the first is kept.
func CardRecords(cards []vcard.Card, kind engine.Kind) []engine.RawRecord {
	names := make(map[string]string, len(cards))
	for _, card := range cards {
		if uid := card.Value(config.VCardUID); uid != "" {
			names[uid] = cardName(card)
		}
	}

	field := config.VCardBDAY
	if kind == engine.KindAnniversary {
		field = config.VCardAnniversary
	}

	var out []engine.RawRecord
	seen := make(map[string]bool)

	for _, card := range cards {
		value := strings.TrimSpace(card.Value(field))
		if value == "" {
			continue
		}

		name := cardName(card)
		date, ok := normalizeDate(value)
		if !ok {
			slog.Debug(config.MsgSkippedDate,
				config.LogKeyComponent, config.CompSource,
				config.LogKeyName, name,
				config.LogKeyValue, value)
			continue
		}

		key := card.Value(config.VCardUID)
		if key == "" {
			key = name
		}

		rec := engine.RawRecord{Kind: kind, Key: key, Date: date, Names: []string{name}}

		if kind == engine.KindBirthday {
			if death := strings.TrimSpace(card.Value(config.VCardDeath)); death != "" {
				rec.SecondaryDate, _ = normalizeDate(death)
			}
			out = append(out, rec)
			continue
		}

		spouse := spouseName(card, names)
		rec.Names = append(rec.Names, spouse)

		couple := []string{strings.ToLower(name), strings.ToLower(spouse)}
		slices.Sort(couple)
		id := date + "|" + strings.Join(couple, "|")
		if seen[id] {
			slog.Debug(config.MsgDuplicateCard,
				config.LogKeyComponent, config.CompSource,
				config.LogKeyName, name)
			continue
		}
		seen[id] = true
		out = append(out, rec)
	}
	return out
}

func allRecords(cards []vcard.Card) []engine.RawRecord {
	return append(CardRecords(cards, engine.KindBirthday), CardRecords(cards, engine.KindAnniversary)...)
}

// cardName prefers FN, then the structured N, then a placeholder.
func cardName(card vcard.Card) string {
	if fn := strings.TrimSpace(card.Value(config.VCardFN)); fn != "" {
		return fn
	}
	if n := card.Name(); n != nil {
		if full := strings.TrimSpace(n.GivenName + " " + n.FamilyName); full != "" {
			return full
		}
	}
	return config.FallbackName
}

// spouseName resolves the RELATED;TYPE=spouse value, following urn:uuid references.
func spouseName(card vcard.Card, byUID map[string]string) string {
	for _, f := range card[config.VCardRelated] {
		if !hasType(f, config.VCardTypeSpouse) {
			continue
		}
		v := strings.TrimSpace(f.Value)
		if name, ok := byUID[v]; ok {
			return name
		}
		if name, ok := byUID[strings.TrimPrefix(v, uuidURNPrefix)]; ok {
			return name
		}
		if strings.HasPrefix(v, uuidURNPrefix) {
			continue
		}
		return v
	}
	return ""
}

func hasType(f *vcard.Field, want string) bool {
	for _, t := range f.Params[vcard.ParamType] {
		for _, part := range strings.Split(t, ",") {
			if strings.EqualFold(strings.TrimSpace(part), want) {
				return true
			}
		}
	}
	return false
}

// normalizeDate converts a vCard date to the record layout.
// Year-less dates report false. Unknown layouts are returned unchanged so the
// classifier rejects them under the configured bad-record policy.
func normalizeDate(value string) (string, bool) {
	for _, layout := range []string{
		config.DateFormatRecord,
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
		config.DateFormatRFC3339,
		config.DateFormatFullT,
	} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(config.DateFormatRecord), true
		}
	}

	for _, layout := range []string{config.DateFormatNoYearD, config.DateFormatNoYearB} {
		if _, err := time.Parse(layout, value); err == nil {
			return "", false
		}
	}
	return value, true
}
