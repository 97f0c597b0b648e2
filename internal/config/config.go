package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "drem/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "drem"
	AppUsage          = "Date reminder & mail notifier for birthdays and anniversaries."
	AppID             = "com.github.tartampluch.drem"
	KeyringService    = "com.github.tartampluch.drem"
	LocalhostBindAddr = "127.0.0.1"
	DefaultEnvFile    = ".env"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for sensitive files like logs.
	FilePermUserRW fs.FileMode = 0600

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Commands & Flags
// -----------------------------------------------------------------------------

const (
	CmdRun     = "run"
	CmdWatch   = "watch"
	CmdVersion = "version"

	CmdDescRun     = "Compute reminders once and mail the summary when due."
	CmdDescWatch   = "Run the reminder pass on a cron schedule until interrupted."
	CmdDescVersion = "Show application version and exit."

	FlagDebug     = "debug"
	FlagEnvFile   = "env-file"
	FlagDryRun    = "dry-run"
	FlagForce     = "force"
	FlagNotifyDay = "notify-day"
	FlagSchedule  = "schedule"
	FlagPort      = "port"

	FlagDescDebug     = "Enable debug logging"
	FlagDescEnvFile   = "Load environment variables from this file"
	FlagDescDryRun    = "Compute and print the report without sending mail"
	FlagDescForce     = "Send the summary even when nothing is due"
	FlagDescNotifyDay = "Weekday on which the summary is always sent (overrides DREM_NOTIFY_WEEKDAY)"
	FlagDescSchedule  = "Cron expression for watch mode (overrides DREM_SCHEDULE)"
	FlagDescPort      = "Serve the latest report on localhost at this port (overrides DREM_LISTEN_PORT)"

	MsgVersionOutput = "%s version %s (%s, built %s, %s/%s)\n"
)

// -----------------------------------------------------------------------------
// Environment Variables
// -----------------------------------------------------------------------------

const (
	EnvSource            = "DREM_SOURCE"
	EnvAzureAccount      = "AZURE_STORAGE_ACCOUNT"
	EnvAzureKey          = "AZURE_STORAGE_ACCOUNT_KEY"
	EnvAzureEndpoint     = "AZURE_TABLES_ENDPOINT"
	EnvVCardPath         = "DREM_VCARD_PATH"
	EnvVCardURL          = "DREM_VCARD_URL"
	EnvCardDAVURL        = "DREM_CARDDAV_URL"
	EnvCardDAVUser       = "DREM_CARDDAV_USER"
	EnvCardDAVPassword   = "DREM_CARDDAV_PASSWORD"
	EnvSendGridKey       = "SENDGRID_API_KEY"
	EnvMailSender        = "DREM_MAIL_SENDER"
	EnvMailRecipients    = "DREM_MAIL_RECIPIENTS"
	EnvMailSubject       = "DREM_MAIL_SUBJECT"
	EnvSubjectPrefix     = "DREM_SUBJECT_PREFIX"
	EnvMailFooter        = "DREM_MAIL_FOOTER"
	EnvNotifyWeekday     = "DREM_NOTIFY_WEEKDAY"
	EnvTimezone          = "DREM_TIMEZONE"
	EnvLanguage          = "DREM_LANGUAGE"
	EnvOnBadRecord       = "DREM_ON_BAD_RECORD"
	EnvLegacyThresholds  = "DREM_LEGACY_THRESHOLDS"
	EnvSchedule          = "DREM_SCHEDULE"
	EnvListenPort        = "DREM_LISTEN_PORT"
	EnvTimeout           = "DREM_TIMEOUT"
	EnvLogFile           = "DREM_LOG_FILE"
	ListSeparator        = ","
	AzureEndpointPattern = "https://%s.table.core.windows.net"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	SourceAzure   = "azure"
	SourceVCard   = "vcard"
	SourceCardDAV = "carddav"

	BadRecordFail = "fail"
	BadRecordSkip = "skip"

	DefaultSource        = SourceAzure
	DefaultMailSubject   = "[drem] Date Reminders"
	DefaultSubjectPrefix = "[drem]"
	DefaultMailFooter    = "Updates or additions? Just reply back to this email to let me know."
	DefaultNotifyWeekday = time.Sunday
	DefaultTimezone      = "Local"
	DefaultLanguage      = "en"
	DefaultBadRecord     = BadRecordFail
	DefaultSchedule      = "0 0 * * *"
	DefaultTimeout       = 30 * time.Second
)

// SupportedLanguages defines the list of available message languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// Record Store Layout
// -----------------------------------------------------------------------------

const (
	TableBirthdays        = "birthdays"
	TableAnniversaries    = "anniversaries"
	PartitionBirthdays    = "Birthdays"
	PartitionAnniversary  = "Anniversaries"
	FilterPartitionFormat = PropPartitionKey + " eq '%s'"

	PropPartitionKey = "PartitionKey"
	PropRowKey       = "RowKey"
	PropName         = "Name"
	PropBirthDate    = "BirthDate"
	PropDeathDate    = "DeathDate"
	PropSpouse1      = "Spouse1"
	PropSpouse2      = "Spouse2"
	PropAnnivDate    = "AnnivDate"

	VCardBDAY        = "BDAY"
	VCardAnniversary = "ANNIVERSARY"
	VCardDeath       = "DEATHDATE"
	VCardRelated     = "RELATED"
	VCardFN          = "FN"
	VCardUID         = "UID"
	VCardTypeSpouse  = "spouse"
)

// -----------------------------------------------------------------------------
// Data Formats & Limits
// -----------------------------------------------------------------------------

const (
	// DateFormatRecord is the layout of every date stored in the record source.
	DateFormatRecord = "01/02/2006"

	// DateFormatDisplay is used in reports and logs.
	DateFormatDisplay = "2006-01-02"

	// Date layouts used for parsing vCard BDAY/ANNIVERSARY fields
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"
	DateFormatNoYearD   = "--01-02"
	DateFormatNoYearB   = "--0102"

	// Limits
	MinPort = 1
	MaxPort = 65535

	// UID Generation
	UIDHashLength   = 16
	FormatHashInput = "%s|%s|%s"
	FormatUID       = "%s-%d@%s"
	UIDSalt         = "drem-v1-"
)

// -----------------------------------------------------------------------------
// Report Layout
// -----------------------------------------------------------------------------

const (
	ColDaysBirthday = "DaysTillNextBirthDay"
	ColName         = "Name"
	ColCurrentAge   = "CurrentAge"
	ColBirthDate    = "BirthDate"
	ColDeathDate    = "DeathDate"
	ColDaysAnniv    = "DaysTillNextAnniv"
	ColSpouse1      = "Spouse1"
	ColSpouse2      = "Spouse2"
	ColYearsMarried = "YearsMarried"
	ColAnnivDate    = "AnnivDate"

	CellUnknown  = "-"
	HTMLCSSClass = "csstable"
	HTMLOpen     = "<html><head></head><body>"
	HTMLClose    = "</body></html>"
	AttachICS    = "drem.ics"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar
// -----------------------------------------------------------------------------

const (
	ICalVersion = "2.0"
	ICalProdid  = "-//drem//Reminders//EN"
	ICalCalName = "Date Reminders"
	ICalMethod  = "PUBLISH"
	ICalScale   = "GREGORIAN"
	ICalDomain  = "drem"

	PropUID        = "UID"
	PropSummary    = "SUMMARY"
	PropDTStart    = "DTSTART"
	PropDTStamp    = "DTSTAMP"
	PropVersion    = "VERSION"
	PropProdid     = "PRODID"
	PropXWRCalName = "X-WR-CALNAME"
	PropCalScale   = "CALSCALE"
	PropMethod     = "METHOD"
	PropCategories = "CATEGORIES"

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 16 * 1024 * 1024 // 16MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteRoot           = "/"
	RouteCalendar       = "/calendar.ics"
	AddrSeparator       = ":"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderAccept          = "Accept"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeTextHTML        = "text/html; charset=utf-8"
	MimeTextPlain       = "text/plain"
	MimeHTML            = "text/html"
	MimeCalendar        = "text/calendar"
	MimeNoSniff         = "nosniff"
	MimeVCard           = "text/vcard"
	MimeXVCard          = "text/x-vcard"
	MimeDirectory       = "text/directory"
	MimeOctetStream     = "application/octet-stream"
	AcceptVCard         = MimeVCard + ", " + MimeXVCard + ";q=0.9, " + MimeTextPlain + ";q=0.5, */*;q=0.1"
	CacheControlPrivate = "private, no-cache"
	DispositionAttach   = "attachment"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrMissingEnv      = "missing required environment variable"
	ErrInvalidEnv      = "invalid environment variable"
	ErrInvalidFlag     = "invalid command line flag"
	ErrSourceUnknown   = "configuration error: unsupported record source"
	ErrVCardLocation   = "configuration error: set either " + EnvVCardPath + " or " + EnvVCardURL
	ErrFetcherMissing  = "internal error: network fetcher is not initialized"
	ErrServerStartup   = "server startup failed"
	ErrServerShutdown  = "server shutdown failed"
	ErrPortRequired    = "server port is required"
	ErrPortRange       = "server port must be between 1 and 65535"
	ErrInvalidURL      = "invalid URL structure"
	ErrProtocol        = "unsupported protocol scheme (http/https only)"
	ErrVCardParse      = "failed to parse vCard stream"
	ErrVCardOpen       = "failed to open vCard file"
	ErrHTTPRequest     = "failed to create request"
	ErrHTTPNetwork     = "network error during fetch"
	ErrHTTPStatus      = "server returned unexpected status"
	ErrContentType     = "response is not a vCard document"
	ErrNoAddressBook   = "no address book found"
	ErrICalEncode      = "failed to encode iCalendar data"
	ErrDateParse       = "unable to parse date"
	ErrNamesMissing    = "record has no names"
	ErrKindUnknown     = "unknown record kind"
	ErrRecordRejected  = "record rejected"
	ErrFetchRecords    = "failed to fetch records"
	ErrTableClient     = "failed to create table client"
	ErrTableQuery      = "table query failed"
	ErrEntityDecode    = "failed to decode table entity"
	ErrCardDAVClient   = "failed to create CardDAV client"
	ErrCardDAVQuery    = "CardDAV address book query failed"
	ErrBuildBatch      = "failed to compute reminders"
	ErrRenderReport    = "failed to render report"
	ErrSendMail        = "failed to send mail"
	ErrMailStatus      = "mail service returned unexpected status"
	ErrNoRecipients    = "mail has no recipients"
	ErrMailAddress     = "invalid mail address"
	ErrLogFile         = "failed to open log file"
	ErrAppFailed       = "application failed unexpectedly"
	ErrWriteResp       = "failed to write response body"
	ErrLocalesAccess   = "failed to access embedded locales"
	ErrLocaleLoad      = "failed to load locale file"
	ErrLanguageUnknown = "unsupported language"
	ErrScheduleParse   = "invalid cron schedule"
	ErrPassFailed      = "reminder pass failed"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Report initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStarting    = "Starting application"
	MsgAppStop        = "Application stopped gracefully"
	MsgConfigLoaded   = "Configuration loaded"
	MsgEnvFileSkipped = "No env file loaded, using process environment"
	MsgEnvFileLoaded  = "Environment file loaded"
	MsgPassStarted    = "Reminder pass started"
	MsgPassFinished   = "Reminder pass finished"
	MsgRecordsFetched = "Records fetched"
	MsgRecordSkipped  = "Skipping record with invalid date"
	MsgDeathDateBad   = "Ignoring unreadable death date"
	MsgFutureDate     = "Record date lies in the future, counting from zero"
	MsgEventDue       = "Event due today"
	MsgNotifyDecision = "Notify decision"
	MsgMailSent       = "Summary mail sent"
	MsgMailFailed     = "Summary mail could not be sent"
	MsgDryRunMail     = "[DRY RUN] Would send summary mail"
	MsgSkippedCard    = "Skipping malformed vCard"
	MsgSkippedDate    = "Skipping vCard date without year"
	MsgDuplicateCard  = "Skipping duplicate anniversary"
	MsgDownloadStart  = "Initiating vCard download"
	MsgDownloading    = "vCards downloading"
	MsgHTTPStatusBad  = "Server returned error status"
	MsgAddressBooks   = "Address books discovered"
	MsgSchedulerStart = "Scheduler started"
	MsgSchedulerStop  = "Scheduler stopping"
	MsgServerListen   = "HTTP server listening"
	MsgServerStop     = "Shutting down HTTP server..."
	MsgCacheUpdated   = "Report cache updated"
	MsgLocaleSkip     = "Skipping non-locale file"
	MsgLocaleLoaded   = "Locale loaded successfully"
	MsgTransMissing   = "Missing translation key"
	MsgKeyringMiss    = "Secret not found in keyring"
	MsgLogWarning     = "Warning: %s at %s: %v\n"
)

// -----------------------------------------------------------------------------
// Fallbacks & Message Formats
// -----------------------------------------------------------------------------

const (
	FormatAlertBirthday      = "! Upcoming birthday: %s will be %d"
	FormatAlertAnniversary   = "! Upcoming anniversary: %s & %s married %d years"
	FormatSubjectBirthday    = "%s(%d)"
	FormatSubjectAnniversary = "%s & %s(%d)"
	FormatSubjectLead        = "%s Today: "
	FormatEventBirthday      = "Birthday: %s (%d)"
	FormatEventAnniversary   = "Anniversary: %s & %s (%d)"
	SubjectSeparator         = ", "
	AlertSeparator           = "\n"
	FallbackName             = "Unknown"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyAlertBirthday     = "alert_birthday"      // Requires Name, Age
	TKeyAlertAnniversary  = "alert_anniversary"   // Requires Spouse1, Spouse2, Years
	TKeySubjectBirthday   = "subject_birthday"    // Requires Name, Age
	TKeySubjectAnniv      = "subject_anniversary" // Requires Spouse1, Spouse2, Years
	TKeySubjectLead       = "subject_lead"        // Requires Prefix
	TKeyEventBirthday     = "event_birthday"      // Requires Name, Age
	TKeyEventAnniversary  = "event_anniversary"   // Requires Spouse1, Spouse2, Years
	TKeyDefaultMailFooter = "mail_footer"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent  = "component"
	LogKeyError      = "error"
	LogKeyURL        = "url"
	LogKeyStatus     = "status_code"
	LogKeyFile       = "file"
	LogKeyLang       = "lang"
	LogKeyKey        = "key"
	LogKeyPort       = "port"
	LogKeySource     = "source"
	LogKeyKind       = "kind"
	LogKeyTable      = "table"
	LogKeyRecord     = "record"
	LogKeyValue      = "value"
	LogKeyCount      = "count"
	LogKeyName       = "name"
	LogKeyDays       = "days_until_next"
	LogKeyYears      = "years"
	LogKeySubject    = "subject"
	LogKeyRecipients = "recipients"
	LogKeyNotify     = "notify"
	LogKeyWeekday    = "weekday"
	LogKeyNotifyDay  = "notify_day"
	LogKeyForce      = "force"
	LogKeyDryRun     = "dry_run"
	LogKeyRunID      = "run_id"
	LogKeySchedule   = "schedule"
	LogKeyNext       = "next_run"
	LogKeySizeBytes  = "size_bytes"
	LogKeyMediaType  = "media_type"
	LogKeyETag       = "etag"
	LogKeyStats      = "stats"
	LogKeyBirthdays  = "birthdays"
	LogKeyAnnivs     = "anniversaries"
	LogKeyDue        = "due_today"
	LogKeySkipped    = "skipped"
	LogKeyDuration   = "duration_ms"
	LogKeyEnvVar     = "env_var"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompMain     = "main"
	CompConfig   = "config"
	CompEngine   = "engine"
	CompJob      = "job"
	CompSource   = "source"
	CompFetcher  = "fetcher"
	CompNotify   = "notify"
	CompServer   = "server"
	CompI18n     = "i18n"
	CompSchedule = "scheduler"
)
