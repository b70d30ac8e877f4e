// Package logging configures the log/slog loggers used across gqlfixtures.
//
// The HTTP handler, the test mock server and the CLI all accept a *slog.Logger.
// Library code defaults to Nop so tests stay quiet unless a logger is passed in:
//
//	logger := logging.New(logging.Config{
//	    Level:     logging.LevelDebug,
//	    Format:    logging.FormatText,
//	    Component: "mockserver",
//	})
//
//	srv, err := testing.New(schema, testing.Config{Logger: logger})
//
// Levels and formats are parsed leniently from flag values with ParseLevel and
// ParseFormat; unknown values fall back to info and text.
package logging
