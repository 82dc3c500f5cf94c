package transform

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/go-viper/mapstructure/v2"
)

// NamedImportPattern matches a named import statement in esbuild's ES-module
// output, which always prints double-quoted specifiers and one declaration
// per statement.
var NamedImportPattern = regexp.MustCompile(`(?m)^([ \t]*)import\s+(?:([A-Za-z_$][\w$]*)\s*,\s*)?\{([^}]*)\}\s*from\s*"([^"]+)";?`)

// rewriter rewrites import statements in ES-module source text.
type rewriter interface {
	Rewrite(code, sourceFile string) (string, error)
}

// plugins are the instantiated plugins of one configuration. Resolvers run
// inside esbuild while it resolves imports; rewriters run on its output.
type plugins struct {
	rewriters []rewriter
	resolvers []*resolver
}

// loadPlugins instantiates every plugin in specs, in order.
func loadPlugins(specs []PluginSpec, rootDir string) (plugins, error) {
	var p plugins
	for _, spec := range specs {
		switch NormalizePluginName(spec.Name) {
		case PluginImport:
			rw, err := newImportRewriter(spec)
			if err != nil {
				return plugins{}, err
			}
			p.rewriters = append(p.rewriters, rw)
		case PluginModuleResolver:
			var opts ResolverOptions
			if err := decodePluginOptions(spec.Options, &opts); err != nil {
				return plugins{}, fmt.Errorf("invalid options for plugin %q: %w", spec.Name, err)
			}
			p.resolvers = append(p.resolvers, newResolver(opts, rootDir))
		default:
			return plugins{}, fmt.Errorf("unresolvable plugin %q", spec.Name)
		}
	}
	return p, nil
}

func newImportRewriter(spec PluginSpec) (*importRewriter, error) {
	var opts ImportOptions
	if err := decodePluginOptions(spec.Options, &opts); err != nil {
		return nil, fmt.Errorf("invalid options for plugin %q: %w", spec.Name, err)
	}
	if opts.LibraryName == "" {
		return nil, fmt.Errorf("plugin %q requires libraryName", spec.Name)
	}
	return &importRewriter{opts: opts}, nil
}

func decodePluginOptions(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// ImportOptions configures per-member import rewriting for one library.
type ImportOptions struct {
	LibraryName             string `mapstructure:"libraryName"`
	LibraryDirectory        string `mapstructure:"libraryDirectory"`        // Defaults to "lib"
	Style                   any    `mapstructure:"style"`                   // false, true or "css"
	Camel2DashComponentName *bool  `mapstructure:"camel2DashComponentName"` // Defaults to true
}

type importRewriter struct {
	opts ImportOptions
}

// Rewrite turns `import { Button as B } from "lib"` into
// `import B from "lib/<dir>/button"`. Statement-shaped text inside strings,
// templates and comments is left alone.
func (r *importRewriter) Rewrite(code, _ string) (string, error) {
	spans := literalSpans(code)

	var b strings.Builder
	last := 0
	for _, m := range NamedImportPattern.FindAllStringSubmatchIndex(code, -1) {
		if inLiteral(spans, m[0]) {
			continue
		}
		group := func(n int) string {
			if m[2*n] < 0 {
				return ""
			}
			return code[m[2*n]:m[2*n+1]]
		}
		if group(4) != r.opts.LibraryName {
			continue
		}
		stmt, err := r.expand(group(1), group(2), group(3), group(4))
		if err != nil {
			return "", err
		}
		b.WriteString(code[last:m[0]])
		b.WriteString(stmt)
		last = m[1]
	}
	b.WriteString(code[last:])
	return b.String(), nil
}

// expand produces one default import per member of a named import.
func (r *importRewriter) expand(indent, defaultName, members, specifier string) (string, error) {
	var lines []string
	if defaultName != "" {
		lines = append(lines, fmt.Sprintf("import %s from %q;", defaultName, specifier))
	}
	for _, member := range strings.Split(members, ",") {
		member = strings.TrimSpace(member)
		if member == "" {
			continue
		}
		imported, local := member, member
		if parts := strings.Fields(member); len(parts) == 3 && parts[1] == "as" {
			imported, local = parts[0], parts[2]
		} else if len(parts) != 1 {
			return "", fmt.Errorf("unsupported import member %q from %q", member, specifier)
		}
		if imported == "default" {
			lines = append(lines, fmt.Sprintf("import %s from %q;", local, specifier))
			continue
		}
		memberPath := r.memberPath(imported)
		lines = append(lines, fmt.Sprintf("import %s from %q;", local, memberPath))
		if style := r.stylePath(memberPath); style != "" {
			lines = append(lines, fmt.Sprintf("import %q;", style))
		}
	}
	return indent + strings.Join(lines, "\n"+indent), nil
}

func (r *importRewriter) memberPath(imported string) string {
	dir := r.opts.LibraryDirectory
	if dir == "" {
		dir = "lib"
	}
	name := imported
	if r.opts.Camel2DashComponentName == nil || *r.opts.Camel2DashComponentName {
		name = camelToDash(imported)
	}
	return strings.Join([]string{r.opts.LibraryName, dir, name}, "/")
}

func (r *importRewriter) stylePath(memberPath string) string {
	switch s := r.opts.Style.(type) {
	case bool:
		if s {
			return memberPath + "/style"
		}
	case string:
		switch s {
		case "css":
			return memberPath + "/style/css"
		case "true":
			return memberPath + "/style"
		}
	}
	return ""
}

// camelToDash converts "DatePicker" to "date-picker".
func camelToDash(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ResolverOptions configures alias and root based specifier resolution.
type ResolverOptions struct {
	Root       []string          `mapstructure:"root"`       // Root-relative lookup directories
	Alias      map[string]string `mapstructure:"alias"`      // Alias name to root-relative path
	Extensions []string          `mapstructure:"extensions"` // Extensions probed for root lookups
}

var defaultResolverExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".json"}

type resolver struct {
	rootDir    string
	roots      []string
	aliasNames []string
	alias      map[string]string
	extensions []string
}

func newResolver(opts ResolverOptions, rootDir string) *resolver {
	r := &resolver{
		rootDir:    rootDir,
		alias:      opts.Alias,
		extensions: opts.Extensions,
	}
	if len(r.extensions) == 0 {
		r.extensions = defaultResolverExtensions
	}
	for _, root := range opts.Root {
		r.roots = append(r.roots, filepath.Join(rootDir, filepath.FromSlash(root)))
	}
	for name := range opts.Alias {
		r.aliasNames = append(r.aliasNames, name)
	}
	// Longest alias first so "@/utils" wins over "@".
	sort.Slice(r.aliasNames, func(i, j int) bool {
		if len(r.aliasNames[i]) != len(r.aliasNames[j]) {
			return len(r.aliasNames[i]) > len(r.aliasNames[j])
		}
		return r.aliasNames[i] < r.aliasNames[j]
	})
	return r
}

// resolvePlugin hands every import esbuild meets to the resolvers and keeps
// it external, so the output imports the rewritten path instead of inlining
// the module.
func resolvePlugin(resolvers []*resolver, sourceFile string) api.Plugin {
	fromDir := filepath.Dir(sourceFile)
	return api.Plugin{
		Name: PluginModuleResolver,
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: ".*"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				for _, r := range resolvers {
					if path, ok := r.resolve(args.Path, fromDir); ok {
						return api.OnResolveResult{Path: path, External: true}, nil
					}
				}
				return api.OnResolveResult{Path: args.Path, External: true}, nil
			})
		},
	}
}

// resolve maps specifier to a path relative to fromDir.
func (r *resolver) resolve(specifier, fromDir string) (string, bool) {
	if strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/") {
		return "", false
	}

	for _, name := range r.aliasNames {
		if specifier != name && !strings.HasPrefix(specifier, name+"/") {
			continue
		}
		rest := strings.TrimPrefix(specifier, name)
		target := filepath.Join(r.rootDir, filepath.FromSlash(r.alias[name]), filepath.FromSlash(rest))
		return relativeSpecifier(fromDir, target), true
	}

	for _, root := range r.roots {
		candidate := filepath.Join(root, filepath.FromSlash(specifier))
		if r.exists(candidate) {
			return relativeSpecifier(fromDir, candidate), true
		}
	}
	return "", false
}

func (r *resolver) exists(candidate string) bool {
	if _, err := os.Stat(candidate); err == nil {
		return true
	}
	for _, ext := range r.extensions {
		if _, err := os.Stat(candidate + ext); err == nil {
			return true
		}
	}
	return false
}

func relativeSpecifier(fromDir, target string) string {
	rel, err := filepath.Rel(fromDir, target)
	if err != nil {
		rel = target
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") && rel != ".." && !strings.HasPrefix(rel, "./") {
		rel = "./" + rel
	}
	return rel
}
