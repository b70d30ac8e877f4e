// Package cli implements the gqlfixtures command-line interface.
//
// Commands:
//
//	gqlfixtures validate <schema-file> [-f fixtures] [--verbose]
//	gqlfixtures query <schema-file> <query|@file> [-v vars] [-o operation] [-f fixtures] [--seed n]
//	gqlfixtures serve [schema-file] [--addr host:port] [--path /graphql] [-f fixtures] [--seed n]
//	gqlfixtures version
//
// The -f flag accepts a single fixtures file or a glob pattern such as
// 'fixtures/**/*.yaml'; matching files are merged.
//
// Global flags --log-level and --log-format configure the logger; logs are
// written to stderr. --json switches command output to JSON where supported.
package cli
