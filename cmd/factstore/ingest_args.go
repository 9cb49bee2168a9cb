package main

import (
	"regexp"
	"strings"

	"github.com/wbrown/factstore/factstore"
	"github.com/wbrown/factstore/factstore/loader"
)

// joinClauseRe matches join(<column>, "<query>") clauses embedded in
// a "c" command line, e.g.:
//
//	c orders.csv order time join(customer, "a:name") join(product, "a:sku")
var joinClauseRe = regexp.MustCompile(`join\(\s*([^,\s]+)\s*,\s*"([^"]*)"\s*\)`)

// parseIngestArgs splits a "c" command's argument string into the
// CSV path, the entity name, the time column header, and any join
// clauses.
func parseIngestArgs(argsLine string) (path, entity string, cfg loader.Config, err error) {
	joins := joinClauseRe.FindAllStringSubmatch(argsLine, -1)
	for _, m := range joins {
		cfg.Joins = append(cfg.Joins, loader.Join{Column: m[1], Query: m[2]})
	}
	rest := joinClauseRe.ReplaceAllString(argsLine, "")

	fields := strings.Fields(rest)
	if len(fields) < 3 {
		return "", "", loader.Config{}, &factstore.CommandError{
			Command: argsLine,
			Message: `usage: c <path> <entity> <time-header> [join(col, "query")]...`,
		}
	}

	path, entity, cfg.TimeHeader = fields[0], fields[1], fields[2]
	cfg.Entity = entity
	return path, entity, cfg, nil
}
