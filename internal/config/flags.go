package config

// Flags holds the command line overrides. Pointer fields distinguish
// "not set" from zero values.
type Flags struct {
	RefreshRate *float32
	LogLevel    *string
	LogFile     *string
	Server      *string
	Table       *string
	Mode        *string
	Edition     *string
	Headless    *bool
	Demo        *bool
}

// NewFlags creates a new Flags instance with default values set.
func NewFlags() *Flags {
	refreshRate := float32(DefaultRefreshRate)
	logLevel := "info"
	logFile := AppLogFile
	server := ""
	table := ""
	mode := ""
	edition := ""
	headless := false
	demo := false

	return &Flags{
		RefreshRate: &refreshRate,
		LogLevel:    &logLevel,
		LogFile:     &logFile,
		Server:      &server,
		Table:       &table,
		Mode:        &mode,
		Edition:     &edition,
		Headless:    &headless,
		Demo:        &demo,
	}
}

// IsBoolSet returns true if a bool pointer is non-nil and true.
func IsBoolSet(b *bool) bool {
	return b != nil && *b
}

// IsStringSet returns true if a string pointer is non-nil and non-empty.
func IsStringSet(s *string) bool {
	return s != nil && *s != ""
}
