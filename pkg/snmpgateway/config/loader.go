package config

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vpbank/snmp_gateway/producer/rows"
	"github.com/vpbank/snmp_gateway/snmp/oid"
)

// ─────────────────────────────────────────────────────────────────────────────
// Tables
// ─────────────────────────────────────────────────────────────────────────────

// Tables holds the read-only lookup tables built at startup.
type Tables struct {
	Symbols   *oid.SymbolTable
	Templates *rows.TemplateTable
}

// LoadTables reads every YAML file under mibDir and templateDir and merges the
// result over the built-in seeds. A missing directory is skipped silently;
// malformed files are logged and skipped; directory listing failures are
// accumulated and returned together.
func LoadTables(mibDir, templateDir string, logger *slog.Logger) (*Tables, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}

	var errs []string

	symbols, err := loadSymbols(mibDir, logger)
	if err != nil {
		errs = append(errs, err.Error())
	}

	templates, err := loadTemplates(templateDir, logger)
	if err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %d error(s):\n  %s", len(errs), strings.Join(errs, "\n  "))
	}

	return &Tables{
		Symbols:   oid.NewSymbolTable(oid.Builtin(), symbols),
		Templates: rows.NewTemplateTable(rows.BuiltinTemplates(), templates),
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Symbol files
// ─────────────────────────────────────────────────────────────────────────────

// rawSymbolFile is MODULE → symbol → OID.
type rawSymbolFile map[string]map[string]string

func loadSymbols(dir string, logger *slog.Logger) (oid.Symbols, error) {
	result := make(oid.Symbols)
	files, err := yamlFiles(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, fmt.Errorf("list MIB dir %q: %w", dir, err)
	}

	for _, path := range files {
		var raw rawSymbolFile
		if err := decodeFile(path, &raw); err != nil {
			logger.Warn("config: skip malformed symbol file", "file", path, "error", err.Error())
			continue
		}
		count := 0
		for module, syms := range raw {
			m := result[module]
			if m == nil {
				m = make(map[string]string, len(syms))
				result[module] = m
			}
			for name, numeric := range syms {
				if !isNumericOID(numeric) {
					logger.Warn("config: skip symbol with non-numeric OID",
						"file", path, "module", module, "symbol", name, "oid", numeric)
					continue
				}
				m[name] = oid.Normalise(numeric)
				count++
			}
		}
		logger.Debug("config: loaded symbol file", "file", path, "count", count)
	}
	return result, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Template files
// ─────────────────────────────────────────────────────────────────────────────

// rawTemplateFile is OID → template.
type rawTemplateFile map[string]rows.Template

func loadTemplates(dir string, logger *slog.Logger) (map[string]rows.Template, error) {
	result := make(map[string]rows.Template)
	files, err := yamlFiles(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, fmt.Errorf("list template dir %q: %w", dir, err)
	}

	for _, path := range files {
		var raw rawTemplateFile
		if err := decodeFile(path, &raw); err != nil {
			logger.Warn("config: skip malformed template file", "file", path, "error", err.Error())
			continue
		}
		for o, tpl := range raw {
			if !isNumericOID(o) {
				logger.Warn("config: skip template with non-numeric OID", "file", path, "oid", o)
				continue
			}
			result[oid.Normalise(o)] = tpl
		}
		logger.Debug("config: loaded template file", "file", path, "count", len(raw))
	}
	return result, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func isNumericOID(s string) bool {
	s = oid.Normalise(s)
	if s == "" {
		return false
	}
	for _, arc := range strings.Split(s, ".") {
		if arc == "" {
			return false
		}
		for _, c := range arc {
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}

// yamlFiles returns all *.yml / *.yaml files under dir, sorted by path.
func yamlFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext == ".yml" || ext == ".yaml" {
			paths = append(paths, p)
		}
		return nil
	})
	return paths, err
}

// decodeFile opens path and unmarshals the YAML content into out.
func decodeFile(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(false)
	return dec.Decode(out)
}

// ─────────────────────────────────────────────────────────────────────────────
// no-op logger writer
// ─────────────────────────────────────────────────────────────────────────────

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
