package compiler

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"compbuild/pkg/dts"
	"compbuild/pkg/options"
	"compbuild/pkg/project"
	"compbuild/pkg/style"
	"compbuild/pkg/transform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type styleRecorder struct {
	mu       sync.Mutex
	requests []style.Request
}

func (s *styleRecorder) Generate(_ context.Context, req style.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return nil
}

type dtsRecorder struct {
	calls [][]dts.CompileInfo
}

func (d *dtsRecorder) Compile(_ context.Context, infos []dts.CompileInfo, _ *zap.Logger) error {
	d.calls = append(d.calls, infos)
	return nil
}

func newPackage(t *testing.T, files map[string]string) *project.Context {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return &project.Context{
		RootDir: root,
		Pkg:     &project.Manifest{Name: "demo", Dependencies: map[string]string{"antd": "^4.0.0"}},
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

const indexSource = `import React from 'react';
import { Button } from 'antd';

export default function Hello({ label }: { label: string }) {
  return <Button>{label}</Button>;
}
`

func TestCompileEndToEnd(t *testing.T) {
	pkg := newPackage(t, map[string]string{
		"src/index.tsx": indexSource,
		"src/foo.d.ts":  "export declare const foo: string;\n",
		"src/style.css": ".hello { color: red; }\n",
	})
	styles := &styleRecorder{}
	decls := &dtsRecorder{}

	res, err := Compile(context.Background(), Request{
		Context:         pkg,
		BasicComponents: []string{"antd"},
		Type:            transform.TypeReact,
		Styles:          styles,
		Declarations:    decls,
	})
	require.NoError(t, err)

	esIndex := readFile(t, filepath.Join(pkg.RootDir, "es", "index.js"))
	libIndex := readFile(t, filepath.Join(pkg.RootDir, "lib", "index.js"))
	assert.Contains(t, esIndex, `import Button from "antd/lib/button";`)
	assert.NotContains(t, esIndex, "module.exports")
	assert.Contains(t, libIndex, "module.exports")
	assert.Contains(t, libIndex, `require("antd/lib/button")`)

	for _, target := range []string{"es", "lib"} {
		assert.Equal(t, "export declare const foo: string;\n", readFile(t, filepath.Join(pkg.RootDir, target, "foo.d.ts")))
		assert.Equal(t, ".hello { color: red; }\n", readFile(t, filepath.Join(pkg.RootDir, target, "style.css")))
		assert.NoFileExists(t, filepath.Join(pkg.RootDir, target, "index.tsx"))
	}

	assert.Equal(t, 4, res.Copied)
	assert.Zero(t, res.CopyFailures)

	require.Len(t, decls.calls, 1, "declarations run once after both targets")
	require.Len(t, decls.calls[0], 2)
	assert.Equal(t, filepath.Join(pkg.RootDir, "es"), decls.calls[0][0].DestPath)
	assert.Equal(t, filepath.Join(pkg.RootDir, "lib"), decls.calls[0][1].DestPath)
	assert.Equal(t, "index.tsx", decls.calls[0][0].FilePath)
	assert.Equal(t, filepath.Join(pkg.RootDir, "src", "index.tsx"), decls.calls[0][0].SourceFile)

	require.Len(t, styles.requests, 2)
	assert.Equal(t, transform.TargetES, styles.requests[0].Target)
	assert.Equal(t, filepath.Join(pkg.RootDir, "es"), styles.requests[0].DestPath)
	assert.Equal(t, transform.TargetLib, styles.requests[1].Target)
}

func TestCompileClearsStaleOutput(t *testing.T) {
	pkg := newPackage(t, map[string]string{
		"src/index.js":       "export const a = 1;\n",
		"es/stale.js":        "old\n",
		"lib/nested/old.txt": "old\n",
	})

	_, err := Compile(context.Background(), Request{
		Context:      pkg,
		Type:         transform.TypeReact,
		Styles:       &styleRecorder{},
		Declarations: &dtsRecorder{},
	})
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(pkg.RootDir, "es", "stale.js"))
	assert.NoDirExists(t, filepath.Join(pkg.RootDir, "lib", "nested"))
	assert.FileExists(t, filepath.Join(pkg.RootDir, "es", "index.js"))
}

func TestCompileIsIdempotent(t *testing.T) {
	pkg := newPackage(t, map[string]string{
		"src/index.tsx":            indexSource,
		"src/components/Card.jsx":  "export default () => <div className=\"card\" />;\n",
		"src/components/card.scss": ".card {}\n",
		"src/assets/logo.svg":      "<svg/>\n",
	})
	req := Request{
		Context:         pkg,
		BasicComponents: []string{"antd"},
		Type:            transform.TypeReact,
		Styles:          &styleRecorder{},
		Declarations:    &dtsRecorder{},
	}

	_, err := Compile(context.Background(), req)
	require.NoError(t, err)
	first := snapshot(t, pkg.RootDir)

	_, err = Compile(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, snapshot(t, pkg.RootDir))
}

func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, target := range []string{"es", "lib"} {
		dir := filepath.Join(root, target)
		require.NoError(t, filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			rel, _ := filepath.Rel(root, path)
			out[filepath.ToSlash(rel)] = readFile(t, path)
			return nil
		}))
	}
	return out
}

type failingTransformer struct {
	failOn string
}

func (f *failingTransformer) TransformFile(_ context.Context, sourceFile, _ string, _ *transform.Config) (string, error) {
	if filepath.Base(sourceFile) == f.failOn {
		return "", errors.New("unexpected token")
	}
	return "ok", nil
}

func TestCompileTransformFailureAborts(t *testing.T) {
	pkg := newPackage(t, map[string]string{
		"src/good.js":   "export const a = 1;\n",
		"src/broken.js": "export const = ;\n",
	})
	decls := &dtsRecorder{}

	_, err := Compile(context.Background(), Request{
		Context:      pkg,
		Type:         transform.TypeReact,
		Transformer:  &failingTransformer{failOn: "broken.js"},
		Styles:       &styleRecorder{},
		Declarations: decls,
		Options:      &options.UserOptions{Workers: 1},
	})
	require.ErrorContains(t, err, "unexpected token")
	assert.Empty(t, decls.calls)
	assert.NoDirExists(t, filepath.Join(pkg.RootDir, "lib"), "lib is never started after es fails")
}

func TestCompileRealSyntaxError(t *testing.T) {
	pkg := newPackage(t, map[string]string{"src/broken.ts": "export const = ;\n"})

	_, err := Compile(context.Background(), Request{
		Context:      pkg,
		Type:         transform.TypeReact,
		Styles:       &styleRecorder{},
		Declarations: &dtsRecorder{},
	})
	var te *transform.TransformError
	require.True(t, errors.As(err, &te))
}

func TestCompileStylesAndDeclarationsOptions(t *testing.T) {
	files := map[string]string{
		"src/index.js":        "export const a = 1;\n",
		"src/Button/index.js": "export const b = 1;\n",
		"src/Input/index.js":  "export const c = 1;\n",
	}

	t.Run("sub-components get their own style generation", func(t *testing.T) {
		pkg := newPackage(t, files)
		styles := &styleRecorder{}
		_, err := Compile(context.Background(), Request{
			Context:      pkg,
			Type:         transform.TypeReact,
			Styles:       styles,
			Declarations: &dtsRecorder{},
			Options:      &options.UserOptions{SubComponents: true},
		})
		require.NoError(t, err)

		require.Len(t, styles.requests, 6)
		assert.Equal(t, "Button", styles.requests[0].Folder)
		assert.Equal(t, filepath.Join(pkg.RootDir, "es", "Button"), styles.requests[0].DestPath)
		assert.Equal(t, "Input", styles.requests[1].Folder)
		assert.Empty(t, styles.requests[2].Folder)
		assert.Equal(t, filepath.Join(pkg.RootDir, "es"), styles.requests[2].DestPath)
	})

	t.Run("other component types skip style generation", func(t *testing.T) {
		pkg := newPackage(t, files)
		styles := &styleRecorder{}
		_, err := Compile(context.Background(), Request{
			Context:      pkg,
			Type:         transform.TypeRax,
			Styles:       styles,
			Declarations: &dtsRecorder{},
		})
		require.NoError(t, err)
		assert.Empty(t, styles.requests)
	})

	t.Run("declarations can be disabled", func(t *testing.T) {
		pkg := newPackage(t, files)
		decls := &dtsRecorder{}
		opts := &options.UserOptions{}
		opts.SetDeclaration(false)

		_, err := Compile(context.Background(), Request{
			Context:      pkg,
			Type:         transform.TypeReact,
			Styles:       &styleRecorder{},
			Declarations: decls,
			Options:      opts,
		})
		require.NoError(t, err)
		assert.Empty(t, decls.calls)
	})
}

func TestCompileWithDefaultStyleGenerator(t *testing.T) {
	pkg := newPackage(t, map[string]string{
		"src/index.tsx":  indexSource,
		"src/index.scss": ".a {}\n",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(pkg.RootDir, "node_modules", "antd", "es"), 0o755))

	_, err := Compile(context.Background(), Request{
		Context:         pkg,
		BasicComponents: []string{"antd"},
		Type:            transform.TypeReact,
		Declarations:    &dtsRecorder{},
	})
	require.NoError(t, err)

	assert.Equal(t, "import 'antd/es/button/style';\nimport './index.scss';\n",
		readFile(t, filepath.Join(pkg.RootDir, "es", style.EntryFile)))
	assert.Equal(t, "require('antd/lib/button/style');\nrequire('./index.scss');\n",
		readFile(t, filepath.Join(pkg.RootDir, "lib", style.EntryFile)))
}

func TestCompileLogsCopies(t *testing.T) {
	pkg := newPackage(t, map[string]string{"src/readme.md": "# hi\n"})
	core, logs := observer.New(zap.InfoLevel)

	_, err := Compile(context.Background(), Request{
		Context:      pkg,
		Logger:       zap.New(core),
		Type:         transform.TypeReact,
		Styles:       &styleRecorder{},
		Declarations: &dtsRecorder{},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, logs.FilterMessage("File copied").Len())
	assert.Equal(t, 1, logs.FilterMessage("Generate es and lib successfully").Len())
}

func TestCollectSources(t *testing.T) {
	pkg := newPackage(t, map[string]string{
		"src/index.ts":                       "",
		"src/types.d.ts":                     "",
		"src/nested/deep/file.d.ts":          "",
		"src/node_modules/x/index.js":        "",
		"src/nested/node_modules/y/index.js": "",
		"src/.hidden.js":                     "",
		"src/.cache/a.js":                    "",
		"src/LICENSE":                        "",
	})

	files, err := CollectSources(pkg.SourceDir(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"index.ts", "nested/deep/file.d.ts", "types.d.ts"}, files)

	missing, err := CollectSources(filepath.Join(pkg.RootDir, "nope"), zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestCompileRequiresContext(t *testing.T) {
	_, err := Compile(context.Background(), Request{})
	assert.Error(t, err)
}

func TestCompileContinuesAfterCopyFailure(t *testing.T) {
	pkg := newPackage(t, map[string]string{
		"src/index.js":  "export const a = 1;\n",
		"src/readme.md": "# hi\n",
	})
	require.NoError(t, os.Symlink(
		filepath.Join(pkg.RootDir, "missing.css"),
		filepath.Join(pkg.SourceDir(), "dangling.css")))
	core, logs := observer.New(zap.InfoLevel)

	res, err := Compile(context.Background(), Request{
		Context:      pkg,
		Logger:       zap.New(core),
		Type:         transform.TypeReact,
		Styles:       &styleRecorder{},
		Declarations: &dtsRecorder{},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.CopyFailures)
	assert.Equal(t, 2, res.Copied)
	assert.Len(t, res.CompileInfos, 2)
	assert.Equal(t, 2, logs.FilterMessage("Failed to copy file").Len())

	for _, target := range transform.Targets() {
		dest := filepath.Join(pkg.RootDir, string(target))
		assert.FileExists(t, filepath.Join(dest, "index.js"))
		assert.FileExists(t, filepath.Join(dest, "readme.md"))
		assert.NoFileExists(t, filepath.Join(dest, "dangling.css"))
	}
}

type nameRecorder struct {
	mu    sync.Mutex
	names []string
}

func (n *nameRecorder) TransformFile(_ context.Context, _, filename string, _ *transform.Config) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.names = append(n.names, filename)
	return "ok", nil
}

func TestCompilePassesSourceRelativeNames(t *testing.T) {
	pkg := newPackage(t, map[string]string{"src/Button/index.tsx": "export {};\n"})
	rec := &nameRecorder{}

	_, err := Compile(context.Background(), Request{
		Context:      pkg,
		Type:         transform.TypeRax,
		Transformer:  rec,
		Declarations: &dtsRecorder{},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Button/index.tsx", "Button/index.tsx"}, rec.names)
	assert.FileExists(t, filepath.Join(pkg.RootDir, "es", "Button", "index.js"))
}
