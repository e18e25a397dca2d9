// compile.go: the compilation driver: source → transformed AST, with an
// on-disk cache of compiled modules.
//
// OVERVIEW
// --------
// Compile runs the full front end (translate → parse → transform) and wraps
// failures with the caret-snippet renderer. Around it sit the caching
// entry points:
//
//   - CompileFile compiles one .hsl source into the sibling .hslc artifact,
//     skipping work when the artifact is fresh.
//   - LoadFile returns a ready-to-run AST, reading the artifact when fresh
//     and compiling (and best-effort caching) otherwise.
//   - CompileDir walks a tree and compiles every source it finds, continuing
//     past failures and reporting whether all of them succeeded.
//
// The artifact format is a 4-byte magic ("HSC1"), the source's modification
// time as a little-endian uint32, then the gob encoding of the AST. A cache
// is fresh when the magic matches and the recorded mtime equals the current
// source mtime; any other header means recompile. Writes go through a
// temporary file in the target directory followed by a rename, so readers
// never observe a partial artifact.
//
// InstallFileImporter wires LoadFile into an interpreter as its
// import("./x.hsl") resolver, with per-interpreter module caching and cycle
// detection.
package hscript

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

/* ===========================
   PUBLIC API
   =========================== */

const (
	// SourceExt is the extension of template source files.
	SourceExt = ".hsl"
	// CacheExt is the extension of compiled artifacts.
	CacheExt = ".hslc"
)

var cacheMagic = []byte("HSC1")

func init() {
	// The AST travels through interface values, so every concrete type a
	// node can hold must be known to gob.
	gob.Register([]any{})
	gob.Register("")
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(false)
}

// Compile runs translate, parse and transform on src. name labels error
// snippets (usually the file path).
func Compile(src, name string) (S, error) {
	toks, err := Translate(src)
	if err != nil {
		return nil, WrapErrorWithName(err, name, src)
	}
	ast, err := ParseTokens(toks)
	if err != nil {
		return nil, WrapErrorWithName(err, name, src)
	}
	ast, err = Transform(ast)
	if err != nil {
		return nil, WrapErrorWithName(err, name, src)
	}
	return ast, nil
}

// CompileFile compiles path into its cache artifact. When force is false and
// the artifact is fresh, nothing is written.
func CompileFile(path string, force bool) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mtime := uint32(info.ModTime().Unix())
	out := CachePath(path)
	if !force && cacheIsFresh(out, mtime) {
		return nil
	}
	ast, err := Compile(string(src), path)
	if err != nil {
		return err
	}
	return writeArtifact(out, mtime, ast)
}

// CachePath maps a source path to its artifact path.
func CachePath(path string) string {
	if strings.HasSuffix(path, SourceExt) {
		return strings.TrimSuffix(path, SourceExt) + CacheExt
	}
	return path + CacheExt
}

// LoadFile returns the compiled AST for path, reading the cache artifact
// when fresh. After a compile it tries to refresh the artifact; a cache
// directory that cannot be written is not an error.
func LoadFile(path string) (S, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	mtime := uint32(info.ModTime().Unix())
	out := CachePath(path)
	if ast, ok := readArtifact(out, mtime); ok {
		return ast, nil
	}
	ast, err := Compile(string(src), path)
	if err != nil {
		return nil, err
	}
	_ = writeArtifact(out, mtime, ast)
	return ast, nil
}

// CompileDirOptions controls CompileDir.
type CompileDirOptions struct {
	Force     bool
	NoRecurse bool
	// Quiet: 0 logs every compiled file, 1 logs only failures, 2 is silent.
	Quiet int
	// Exclude skips sources whose base name matches.
	Exclude *regexp.Regexp
	// Log receives progress output; defaults to os.Stdout.
	Log io.Writer
}

// CompileDir compiles every source under dir. It keeps going after a
// failure and reports whether everything succeeded.
func CompileDir(dir string, opts CompileDirOptions) (bool, error) {
	logw := opts.Log
	if logw == nil {
		logw = os.Stdout
	}
	ok := true
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == dir {
				return nil
			}
			if opts.NoRecurse || strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, SourceExt) {
			return nil
		}
		if opts.Exclude != nil && opts.Exclude.MatchString(filepath.Base(path)) {
			return nil
		}
		if opts.Quiet == 0 {
			fmt.Fprintf(logw, "compiling %s\n", path)
		}
		if cerr := CompileFile(path, opts.Force); cerr != nil {
			ok = false
			if opts.Quiet < 2 {
				fmt.Fprintf(logw, "%s\n", cerr.Error())
			}
		}
		return nil
	})
	if walkErr != nil {
		return false, walkErr
	}
	return ok, nil
}

// InstallFileImporter makes import("path") load, cache and evaluate source
// files on ip. Paths resolve against baseDir; a module that imports itself
// through a cycle is an error rather than a hang.
func InstallFileImporter(ip *Interpreter, baseDir string) {
	cache := make(map[string]Value)
	loading := make(map[string]bool)
	ip.FileImporter = func(ip *Interpreter, path string) (Value, error) {
		full := path
		if !filepath.IsAbs(full) {
			full = filepath.Join(baseDir, full)
		}
		full = filepath.Clean(full)
		if mod, ok := cache[full]; ok {
			return mod, nil
		}
		if loading[full] {
			return Null, fmt.Errorf("import cycle through %s", full)
		}
		loading[full] = true
		defer delete(loading, full)

		ast, err := LoadFile(full)
		if err != nil {
			return Null, err
		}
		modEnv := NewEnv(ip.Globals)
		if _, err := ip.EvalIn(ast, modEnv); err != nil {
			return Null, err
		}
		mod := moduleFromEnv(modEnv)
		cache[full] = mod
		return mod, nil
	}
}

// RunFile compiles (or loads from cache) and evaluates path on ip, with
// file imports resolving relative to the file's directory.
func RunFile(ip *Interpreter, path string) (Value, error) {
	InstallFileImporter(ip, filepath.Dir(path))
	ast, err := LoadFile(path)
	if err != nil {
		return Null, err
	}
	return ip.Eval(ast)
}

//// END_OF_PUBLIC

/* ===========================
   PRIVATE: artifact encoding
   =========================== */

func cacheIsFresh(out string, mtime uint32) bool {
	_, ok := readArtifact(out, mtime)
	return ok
}

// readArtifact decodes out when its header matches mtime.
func readArtifact(out string, mtime uint32) (S, bool) {
	data, err := os.ReadFile(out)
	if err != nil || len(data) < 8 {
		return nil, false
	}
	if !bytes.Equal(data[:4], cacheMagic) {
		return nil, false
	}
	if binary.LittleEndian.Uint32(data[4:8]) != mtime {
		return nil, false
	}
	var ast S
	if err := gob.NewDecoder(bytes.NewReader(data[8:])).Decode(&ast); err != nil {
		return nil, false
	}
	return ast, true
}

// writeArtifact encodes ast into out atomically: temp file in the same
// directory, then rename.
func writeArtifact(out string, mtime uint32, ast S) error {
	var buf bytes.Buffer
	buf.Write(cacheMagic)
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], mtime)
	buf.Write(hdr[:])
	if err := gob.NewEncoder(&buf).Encode(ast); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(out), filepath.Base(out)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// moduleFromEnv snapshots a module environment frame into a read-only
// module value with deterministic attribute order.
func moduleFromEnv(env *Env) Value {
	names := make([]string, 0, len(env.table))
	for name := range env.table {
		names = append(names, name)
	}
	sort.Strings(names)
	m := NewMapObject()
	for _, name := range names {
		if strings.HasPrefix(name, "_h_") {
			continue
		}
		m.Set(name, env.table[name])
	}
	return ModuleVal(m)
}
